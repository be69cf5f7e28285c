package storeapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vtryon/lensmart/config"
	"github.com/vtryon/lensmart/internal/app"
	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/internal/order"
	"github.com/vtryon/lensmart/internal/webserver"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

// newTestServer wires a sqlite-backed application into the webserver so
// handlers resolve their database through the usual path.
func newTestServer(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.Tables...))

	a := app.NewApplication(config.DefaultAppConfig)
	a.OverrideDB(db)
	webserver.Init(a)
	return db
}

// Every rejected checkout answers 400 regardless of which typed error
// the coordinator raised; only persistence faults are 500.
func TestCheckoutFailureStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &order.ValidationError{Msg: "no order items"}, http.StatusBadRequest},
		{"unknown product", &order.ProductNotFoundError{ProductID: 7}, http.StatusBadRequest},
		{"insufficient stock", &order.InsufficientStockError{ProductID: 7, Title: "Aviator", Available: 1, Requested: 3}, http.StatusBadRequest},
		{"persistence", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, failCheckout(c, tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestTransitionFailureStatuses(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unknown order", order.ErrOrderNotFound, http.StatusNotFound},
		{"forbidden", order.ErrForbidden, http.StatusForbidden},
		{"terminal order", &order.InvalidTransitionError{From: "delivered", To: "shipped"}, http.StatusBadRequest},
		{"bad status value", &order.ValidationError{Msg: `invalid status "refunded"`}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, failTransition(c, tc.err))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestResolveOrderViewsAttachesOwner(t *testing.T) {
	db := newTestServer(t)

	buyer := domain.User{
		ID:        11,
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Phone:     "555-0101",
	}
	require.NoError(t, db.Create(&buyer).Error)

	uid := buyer.ID
	registered := domain.Order{ID: 1, UserId: &uid, Status: domain.OrderStatusPending, CreatedAt: time.Now()}
	guest := domain.Order{
		ID:     2,
		Guest:  domain.GuestContact{FullName: "Walk In", Email: "walkin@example.com", Phone: "555-0102"},
		Status: domain.OrderStatusPending,
	}
	require.NoError(t, db.Create(&registered).Error)
	require.NoError(t, db.Create(&guest).Error)

	c, _ := newTestContext(t)
	views := resolveOrderViews(c, []domain.Order{registered, guest})
	require.Len(t, views, 2)

	require.NotNil(t, views[0].Owner)
	assert.Equal(t, "Ada Lovelace", views[0].Owner.Name)
	assert.Equal(t, "ada@example.com", views[0].Owner.Email)
	assert.Equal(t, "555-0101", views[0].Owner.Phone)
	assert.Nil(t, views[0].Guest)

	assert.Nil(t, views[1].Owner)
	require.NotNil(t, views[1].Guest)
	assert.Equal(t, "walkin@example.com", views[1].Guest.Email)
}
