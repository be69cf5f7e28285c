package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/pkg/common"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, title string, price float64, stock int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		ID:            common.UUIDint64(),
		Title:         title,
		Price:         price,
		StockQuantity: stock,
		Status:        domain.ProductStatusPublished,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func currentStock(t *testing.T, db *gorm.DB, productId int64) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.Where("id = ?", productId).First(&p).Error)
	return p.StockQuantity
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&n).Error)
	return n
}

func userRequest(userId int64, items ...OrderLine) CreateOrderRequest {
	return CreateOrderRequest{
		UserId: &userId,
		Items:  items,
		ShippingAddress: domain.ShippingAddress{
			Address: "12 Harbor Road",
			City:    "Jakarta",
			Country: "Indonesia",
		},
	}
}

func TestCreateOrderDeductsStockAndComputesTotal(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Aviator Classic", 100, 5)

	ord, err := co.CreateOrder(context.Background(), userRequest(7, OrderLine{ProductId: p1.ID, Qty: 3}))
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, ord.Status)
	require.Equal(t, float64(300), ord.TotalAmount)
	require.Equal(t, "COD", ord.PaymentMethod)
	require.Len(t, ord.Items, 1)
	require.Equal(t, "Aviator Classic", ord.Items[0].Title)
	require.Equal(t, float64(100), ord.Items[0].Price)
	require.Equal(t, 2, currentStock(t, db, p1.ID))
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Round Metal", 80, 5)

	_, err := co.CreateOrder(context.Background(), userRequest(7, OrderLine{ProductId: p1.ID, Qty: 10}))
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, "Round Metal", ise.Title)
	require.Equal(t, 5, ise.Available)
	require.Equal(t, 10, ise.Requested)

	require.Equal(t, 5, currentStock(t, db, p1.ID))
	require.EqualValues(t, 0, orderCount(t, db))
}

func TestCreateOrderUnknownProductAbortsAll(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Wayfarer", 120, 4)

	_, err := co.CreateOrder(context.Background(), userRequest(7,
		OrderLine{ProductId: p1.ID, Qty: 1},
		OrderLine{ProductId: 999999, Qty: 1},
	))
	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	require.EqualValues(t, 999999, pnf.ProductID)

	require.Equal(t, 4, currentStock(t, db, p1.ID))
	require.EqualValues(t, 0, orderCount(t, db))
}

func TestCreateOrderMultiItemAtomicity(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Clubmaster", 90, 10)
	p2 := seedProduct(t, db, "Hexagonal", 110, 1)

	_, err := co.CreateOrder(context.Background(), userRequest(7,
		OrderLine{ProductId: p1.ID, Qty: 2},
		OrderLine{ProductId: p2.ID, Qty: 3},
	))
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, p2.ID, ise.ProductID)

	require.Equal(t, 10, currentStock(t, db, p1.ID))
	require.Equal(t, 1, currentStock(t, db, p2.ID))
	require.EqualValues(t, 0, orderCount(t, db))
}

func TestCreateOrderSnapshotsDoNotTrackProductEdits(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sale := 75.0
	p1 := seedProduct(t, db, "Caravan", 100, 5)
	require.NoError(t, db.Model(p1).Update("sale_price", sale).Error)

	ord, err := co.CreateOrder(context.Background(), userRequest(7, OrderLine{ProductId: p1.ID, Qty: 2}))
	require.NoError(t, err)
	require.Equal(t, float64(150), ord.TotalAmount)
	require.Equal(t, sale, ord.Items[0].Price)

	// later price edits must not affect the persisted snapshot
	require.NoError(t, db.Model(p1).Updates(map[string]interface{}{
		"price": 999.0, "sale_price": nil, "title": "Renamed",
	}).Error)

	var got domain.Order
	require.NoError(t, db.Preload("Items").First(&got, ord.ID).Error)
	require.Equal(t, float64(150), got.TotalAmount)
	require.Equal(t, sale, got.Items[0].Price)
	require.Equal(t, "Caravan", got.Items[0].Title)
}

func TestCreateOrderDuplicateLinesCheckedCumulatively(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Erika", 60, 3)

	_, err := co.CreateOrder(context.Background(), userRequest(7,
		OrderLine{ProductId: p1.ID, Qty: 2},
		OrderLine{ProductId: p1.ID, Qty: 2},
	))
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, 4, ise.Requested)
	require.Equal(t, 3, currentStock(t, db, p1.ID))
}

func TestCreateOrderRejectsDraftProduct(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Prototype Frame", 100, 5)
	require.NoError(t, db.Model(p1).Update("status", domain.ProductStatusDraft).Error)

	_, err := co.CreateOrder(context.Background(), userRequest(7, OrderLine{ProductId: p1.ID, Qty: 1}))
	require.True(t, IsValidation(err))
	require.Equal(t, 5, currentStock(t, db, p1.ID))
}

func TestCreateOrderGuestCheckout(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "State Street", 130, 2)

	ord, err := co.CreateOrder(context.Background(), CreateOrderRequest{
		Guest: &GuestInfo{FullName: "Mira Anwar", Email: "mira@example.com", Phone: "OB-555-0101"},
		Items: []OrderLine{{ProductId: p1.ID, Qty: 1}},
		ShippingAddress: domain.ShippingAddress{
			Address: "5 Canal Street", City: "Bandung", Country: "Indonesia",
		},
		PaymentMethod: "bank-transfer",
	})
	require.NoError(t, err)
	require.Nil(t, ord.UserId)
	require.Equal(t, "Mira Anwar", ord.Guest.FullName)
	require.Equal(t, "bank-transfer", ord.PaymentMethod)
	require.Equal(t, 1, currentStock(t, db, p1.ID))
}

func TestCreateOrderValidation(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	p1 := seedProduct(t, db, "Justin", 55, 5)
	uid := int64(7)

	cases := []struct {
		name string
		req  CreateOrderRequest
	}{
		{"empty items", CreateOrderRequest{UserId: &uid}},
		{"zero qty", CreateOrderRequest{UserId: &uid, Items: []OrderLine{{ProductId: p1.ID, Qty: 0}}}},
		{"missing product ref", CreateOrderRequest{UserId: &uid, Items: []OrderLine{{Qty: 1}}}},
		{"no owner at all", CreateOrderRequest{Items: []OrderLine{{ProductId: p1.ID, Qty: 1}}}},
		{"both owner kinds", CreateOrderRequest{
			UserId: &uid,
			Guest:  &GuestInfo{FullName: "x", Email: "y", Phone: "z"},
			Items:  []OrderLine{{ProductId: p1.ID, Qty: 1}},
		}},
		{"guest missing phone", CreateOrderRequest{
			Guest: &GuestInfo{FullName: "Mira Anwar", Email: "mira@example.com"},
			Items: []OrderLine{{ProductId: p1.ID, Qty: 1}},
			ShippingAddress: domain.ShippingAddress{
				Address: "5 Canal Street", City: "Bandung", Country: "Indonesia",
			},
		}},
		{"guest missing country", CreateOrderRequest{
			Guest: &GuestInfo{FullName: "Mira Anwar", Email: "mira@example.com", Phone: "OB-555-0101"},
			Items: []OrderLine{{ProductId: p1.ID, Qty: 1}},
			ShippingAddress: domain.ShippingAddress{
				Address: "5 Canal Street", City: "Bandung",
			},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := co.CreateOrder(context.Background(), tc.req)
			require.True(t, IsValidation(err), "expected validation error, got %v", err)
		})
	}
	require.Equal(t, 5, currentStock(t, db, p1.ID))
	require.EqualValues(t, 0, orderCount(t, db))
}

func TestLedgerApplyDeltaNeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	p1 := seedProduct(t, db, "Gatsby", 70, 2)
	var ledger Ledger

	err := db.Transaction(func(tx *gorm.DB) error {
		return ledger.ApplyDelta(tx, p1.ID, -3)
	})
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	require.Equal(t, 2, currentStock(t, db, p1.ID))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return ledger.ApplyDelta(tx, p1.ID, -2)
	}))
	require.Equal(t, 0, currentStock(t, db, p1.ID))
}
