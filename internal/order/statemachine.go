package order

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vtryon/lensmart/internal/domain"
)

// Actor identifies the requester of a status change
type Actor struct {
	UserId int64
	Admin  bool
}

// StateMachine governs order lifecycle transitions. Cancellation from any
// non-cancelled prior status restocks every line item exactly once, inside
// the same transaction as the status write.
type StateMachine struct {
	db     *gorm.DB
	ledger Ledger
}

func NewStateMachine(db *gorm.DB) *StateMachine {
	return &StateMachine{db: db}
}

// UpdateStatus is the admin entry point: any of the five status values is
// accepted as the target, but terminal orders reject every change.
func (sm *StateMachine) UpdateStatus(ctx context.Context, orderId int64, next string, actor Actor) (*domain.Order, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	if !domain.ValidOrderStatus(next) {
		return nil, validationf("invalid status %q", next)
	}

	var out *domain.Order
	err := sm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := sm.lockOrder(tx, orderId)
		if err != nil {
			return err
		}
		if domain.TerminalOrderStatus(ord.Status) {
			return &InvalidTransitionError{From: ord.Status, To: next}
		}
		if next == domain.OrderStatusCancelled {
			if err := sm.restock(tx, ord.ID); err != nil {
				return err
			}
		}
		if err := sm.writeStatus(tx, ord.ID, next); err != nil {
			return err
		}
		out, err = loadOrder(tx, ord.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cancel is the owner/admin entry point, permitted only while the order is
// exactly pending.
func (sm *StateMachine) Cancel(ctx context.Context, orderId int64, actor Actor) (*domain.Order, error) {
	var out *domain.Order
	err := sm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ord, err := sm.lockOrder(tx, orderId)
		if err != nil {
			return err
		}
		owner := ord.UserId != nil && *ord.UserId == actor.UserId
		if !owner && !actor.Admin {
			return ErrForbidden
		}
		if ord.Status != domain.OrderStatusPending {
			return &InvalidTransitionError{From: ord.Status, To: domain.OrderStatusCancelled}
		}
		if err := sm.restock(tx, ord.ID); err != nil {
			return err
		}
		if err := sm.writeStatus(tx, ord.ID, domain.OrderStatusCancelled); err != nil {
			return err
		}
		out, err = loadOrder(tx, ord.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sm *StateMachine) lockOrder(tx *gorm.DB, orderId int64) (*domain.Order, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ord domain.Order
	if err := q.Where("id = ?", orderId).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &ord, nil
}

func (sm *StateMachine) restock(tx *gorm.DB, orderId int64) error {
	var items []domain.OrderItem
	if err := tx.Where("order_id = ?", orderId).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		if err := sm.ledger.ApplyDelta(tx, it.ProductId, it.Qty); err != nil {
			return err
		}
	}
	return nil
}

func (sm *StateMachine) writeStatus(tx *gorm.DB, orderId int64, status string) error {
	return tx.Model(&domain.Order{}).Where("id = ?", orderId).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error
}

func loadOrder(tx *gorm.DB, orderId int64) (*domain.Order, error) {
	var ord domain.Order
	if err := tx.Preload("Items").Where("id = ?", orderId).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &ord, nil
}
