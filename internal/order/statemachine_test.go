package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vtryon/lensmart/internal/domain"
)

var (
	admin = Actor{UserId: 1, Admin: true}
	owner = Actor{UserId: 7}
)

func placeOrder(t *testing.T, co *Coordinator, userId int64, items ...OrderLine) *domain.Order {
	t.Helper()
	ord, err := co.CreateOrder(context.Background(), userRequest(userId, items...))
	require.NoError(t, err)
	return ord
}

func TestAdminCancelRestocksEveryLineExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	pa := seedProduct(t, db, "Frame A", 50, 10)
	pb := seedProduct(t, db, "Frame B", 60, 10)
	pc := seedProduct(t, db, "Frame C", 70, 10)

	ord := placeOrder(t, co, 7,
		OrderLine{ProductId: pa.ID, Qty: 2},
		OrderLine{ProductId: pb.ID, Qty: 1},
	)
	require.Equal(t, 8, currentStock(t, db, pa.ID))
	require.Equal(t, 9, currentStock(t, db, pb.ID))

	got, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusCancelled, admin)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
	require.Equal(t, 10, currentStock(t, db, pa.ID))
	require.Equal(t, 10, currentStock(t, db, pb.ID))
	require.Equal(t, 10, currentStock(t, db, pc.ID))

	// repeated cancellation must not restock a second time
	_, err = sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusCancelled, admin)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, 10, currentStock(t, db, pa.ID))
	require.Equal(t, 10, currentStock(t, db, pb.ID))
}

func TestAdminCanCancelShippedOrder(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame D", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 4})

	_, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusShipped, admin)
	require.NoError(t, err)
	require.Equal(t, 2, currentStock(t, db, p.ID))

	got, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusCancelled, admin)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
	require.Equal(t, 6, currentStock(t, db, p.ID))
}

func TestForwardTransitionsDoNotRestock(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame E", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 2})

	for _, next := range []string{
		domain.OrderStatusConfirmed,
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
	} {
		got, err := sm.UpdateStatus(context.Background(), ord.ID, next, admin)
		require.NoError(t, err)
		require.Equal(t, next, got.Status)
		require.Equal(t, 4, currentStock(t, db, p.ID))
	}

	// delivered is terminal
	_, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusCancelled, admin)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, 4, currentStock(t, db, p.ID))
}

func TestOwnerCancelOnlyWhilePending(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame F", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 3})

	_, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusShipped, admin)
	require.NoError(t, err)

	_, err = sm.Cancel(context.Background(), ord.ID, owner)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, domain.OrderStatusShipped, ite.From)
	require.Equal(t, 3, currentStock(t, db, p.ID))
}

func TestOwnerCancelPendingRestocks(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame G", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 3})

	got, err := sm.Cancel(context.Background(), ord.ID, owner)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
	require.Equal(t, 6, currentStock(t, db, p.ID))

	// a second owner cancel fails outright, stock untouched
	_, err = sm.Cancel(context.Background(), ord.ID, owner)
	var ite *InvalidTransitionError
	require.ErrorAs(t, err, &ite)
	require.Equal(t, 6, currentStock(t, db, p.ID))
}

func TestCancelAuthorization(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame H", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 1})

	_, err := sm.Cancel(context.Background(), ord.ID, Actor{UserId: 8})
	require.ErrorIs(t, err, ErrForbidden)
	require.Equal(t, 5, currentStock(t, db, p.ID))

	// an admin may cancel on the owner's behalf
	_, err = sm.Cancel(context.Background(), ord.ID, admin)
	require.NoError(t, err)
	require.Equal(t, 6, currentStock(t, db, p.ID))
}

func TestGuestOrderCancellableOnlyByAdmin(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame I", 40, 6)

	ord, err := co.CreateOrder(context.Background(), CreateOrderRequest{
		Guest: &GuestInfo{FullName: "Mira Anwar", Email: "mira@example.com", Phone: "OB-555-0101"},
		Items: []OrderLine{{ProductId: p.ID, Qty: 2}},
		ShippingAddress: domain.ShippingAddress{
			Address: "5 Canal Street", City: "Bandung", Country: "Indonesia",
		},
	})
	require.NoError(t, err)

	_, err = sm.Cancel(context.Background(), ord.ID, owner)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = sm.Cancel(context.Background(), ord.ID, admin)
	require.NoError(t, err)
	require.Equal(t, 6, currentStock(t, db, p.ID))
}

func TestUpdateStatusGuards(t *testing.T) {
	db := newTestDB(t)
	co := NewCoordinator(db)
	sm := NewStateMachine(db)
	p := seedProduct(t, db, "Frame J", 40, 6)
	ord := placeOrder(t, co, 7, OrderLine{ProductId: p.ID, Qty: 1})

	_, err := sm.UpdateStatus(context.Background(), ord.ID, domain.OrderStatusShipped, owner)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = sm.UpdateStatus(context.Background(), ord.ID, "refunded", admin)
	require.True(t, IsValidation(err))

	_, err = sm.UpdateStatus(context.Background(), 424242, domain.OrderStatusShipped, admin)
	require.ErrorIs(t, err, ErrOrderNotFound)
}
