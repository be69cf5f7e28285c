package domain

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidOrderStatus(t *testing.T) {
	for _, s := range OrderStatuses {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("refunded"))
	assert.False(t, ValidOrderStatus(""))
	assert.False(t, ValidOrderStatus("Pending"))
}

func TestTerminalOrderStatus(t *testing.T) {
	assert.True(t, TerminalOrderStatus(OrderStatusDelivered))
	assert.True(t, TerminalOrderStatus(OrderStatusCancelled))
	assert.False(t, TerminalOrderStatus(OrderStatusPending))
	assert.False(t, TerminalOrderStatus(OrderStatusConfirmed))
	assert.False(t, TerminalOrderStatus(OrderStatusShipped))
}

func TestEffectivePrice(t *testing.T) {
	sale := func(v float64) *float64 { return &v }

	p := Product{Price: 100}
	assert.Equal(t, 100.0, p.EffectivePrice())

	p.SalePrice = sale(80)
	assert.Equal(t, 80.0, p.EffectivePrice())

	// a sale price of zero or above list price is ignored
	p.SalePrice = sale(0)
	assert.Equal(t, 100.0, p.EffectivePrice())
	p.SalePrice = sale(120)
	assert.Equal(t, 100.0, p.EffectivePrice())
}

func TestGuestContactEmpty(t *testing.T) {
	assert.True(t, GuestContact{}.Empty())
	assert.False(t, GuestContact{Email: "a@b.c"}.Empty())
}

// A registered order serializes its owner contact and no guest block;
// a guest order serializes the converse.
func TestOrderViewSerializedShape(t *testing.T) {
	json := jsoniter.ConfigCompatibleWithStandardLibrary

	uid := int64(11)
	owner := User{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0101"}.ContactView()
	raw, err := json.Marshal(NewOrderView(Order{ID: 1, UserId: &uid}, &owner))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"owner":{"name":"Ada Lovelace","email":"ada@example.com","phone":"555-0101"}`)
	assert.NotContains(t, string(raw), `"guest"`)

	guestOrder := Order{ID: 2, Guest: GuestContact{FullName: "Walk In", Email: "walkin@example.com", Phone: "555-0102"}}
	raw, err = json.Marshal(NewOrderView(guestOrder, nil))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"guest"`)
	assert.Contains(t, string(raw), `"walkin@example.com"`)
	assert.NotContains(t, string(raw), `"owner"`)
}

func TestOrderViewsResolvesOwners(t *testing.T) {
	uid := int64(11)
	users := map[int64]User{
		11: {ID: 11, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0101"},
	}
	orders := []Order{
		{ID: 1, UserId: &uid},
		{ID: 2, Guest: GuestContact{FullName: "Walk In", Email: "walkin@example.com", Phone: "555-0102"}},
	}

	views := OrderViews(orders, users)
	require.Len(t, views, 2)

	require.NotNil(t, views[0].Owner)
	assert.Equal(t, "Ada Lovelace", views[0].Owner.Name)
	assert.Equal(t, "ada@example.com", views[0].Owner.Email)
	assert.Equal(t, "555-0101", views[0].Owner.Phone)
	assert.Nil(t, views[0].Guest)

	assert.Nil(t, views[1].Owner)
	require.NotNil(t, views[1].Guest)
	assert.Equal(t, "Walk In", views[1].Guest.FullName)
}
