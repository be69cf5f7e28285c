package order

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vtryon/lensmart/internal/domain"
	"github.com/vtryon/lensmart/pkg/common"
)

// OrderLine is one (product, quantity) pair of a checkout request
type OrderLine struct {
	ProductId int64
	Qty       int
}

// GuestInfo carries the contact fields of a guest checkout
type GuestInfo struct {
	FullName string
	Email    string
	Phone    string
}

// CreateOrderRequest is the validated checkout input. Exactly one of
// UserId and Guest is set; the boundary resolves that before calling in.
type CreateOrderRequest struct {
	UserId          *int64
	Guest           *GuestInfo
	Items           []OrderLine
	ShippingAddress domain.ShippingAddress
	PaymentMethod   string
}

func (r *CreateOrderRequest) validate() error {
	if len(r.Items) == 0 {
		return validationf("no order items")
	}
	for _, it := range r.Items {
		if it.ProductId == 0 {
			return validationf("order item is missing a product reference")
		}
		if it.Qty < 1 {
			return validationf("order item quantity must be at least 1")
		}
	}
	if (r.UserId == nil) == (r.Guest == nil) {
		return validationf("order must belong to either a user or a guest")
	}
	if r.Guest != nil {
		if strings.TrimSpace(r.Guest.FullName) == "" ||
			strings.TrimSpace(r.Guest.Email) == "" ||
			strings.TrimSpace(r.Guest.Phone) == "" {
			return validationf("guest full name, email and phone are required")
		}
		if strings.TrimSpace(r.ShippingAddress.Address) == "" ||
			strings.TrimSpace(r.ShippingAddress.City) == "" ||
			strings.TrimSpace(r.ShippingAddress.Country) == "" {
			return validationf("shipping address, city and country are required")
		}
	}
	return nil
}

// Coordinator turns a checkout request into a committed order plus a
// consistent stock state, or leaves everything untouched on any failure.
type Coordinator struct {
	db     *gorm.DB
	ledger Ledger
}

func NewCoordinator(db *gorm.DB) *Coordinator {
	return &Coordinator{db: db}
}

// CreateOrder validates, locks and reads the affected products, snapshots
// prices server-side, deducts stock and persists the order as one atomic
// unit. Unit prices always come from the product row, never the client.
func (co *Coordinator) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var out *domain.Order
	err := co.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]int64, 0, len(req.Items))
		requested := map[int64]int{}
		for _, it := range req.Items {
			if requested[it.ProductId] == 0 {
				ids = append(ids, it.ProductId)
			}
			requested[it.ProductId] += it.Qty
		}

		products, err := co.ledger.ReadStockForUpdate(tx, ids)
		if err != nil {
			return err
		}

		for _, id := range ids {
			p := products[id]
			if p.Status != domain.ProductStatusPublished {
				return validationf("product %q is not available", p.Title)
			}
			if p.StockQuantity < requested[id] {
				return &InsufficientStockError{
					ProductID: p.ID,
					Title:     p.Title,
					Available: p.StockQuantity,
					Requested: requested[id],
				}
			}
		}

		now := time.Now()
		var total float64
		items := make([]domain.OrderItem, 0, len(req.Items))
		for _, it := range req.Items {
			p := products[it.ProductId]
			price := p.EffectivePrice()
			total += price * float64(it.Qty)
			items = append(items, domain.OrderItem{
				ProductId: p.ID,
				Title:     p.Title,
				Qty:       it.Qty,
				Price:     price,
			})
		}

		for _, it := range req.Items {
			if err := co.ledger.ApplyDelta(tx, it.ProductId, -it.Qty); err != nil {
				return err
			}
		}

		ord := &domain.Order{
			ID:              common.UUIDint64(),
			UserId:          req.UserId,
			Items:           items,
			TotalAmount:     total,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   common.IfEmptyStr(req.PaymentMethod, "COD"),
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if req.Guest != nil {
			ord.Guest = domain.GuestContact{
				FullName: req.Guest.FullName,
				Email:    req.Guest.Email,
				Phone:    req.Guest.Phone,
			}
		}

		if err := tx.Create(ord).Error; err != nil {
			return err
		}
		out = ord
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
