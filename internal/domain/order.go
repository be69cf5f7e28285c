package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists every legal status value
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ValidOrderStatus reports whether s is one of the enumerated statuses
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// TerminalOrderStatus reports whether no further transition is permitted
func TerminalOrderStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ShippingAddress is embedded into the order row
type ShippingAddress struct {
	Address    string `gorm:"size:500" json:"address"`
	City       string `gorm:"size:200" json:"city"`
	Country    string `gorm:"size:200" json:"country"`
	PostalCode string `gorm:"size:32" json:"postal_code,omitempty"`
	FullName   string `gorm:"size:255" json:"full_name,omitempty"`
	Phone      string `gorm:"size:64" json:"phone,omitempty"`
}

// GuestContact identifies an order placed without an account. Exactly one
// of Order.UserId and Order.Guest is populated.
type GuestContact struct {
	FullName string `gorm:"size:255" json:"full_name,omitempty"`
	Email    string `gorm:"size:255" json:"email,omitempty"`
	Phone    string `gorm:"size:64" json:"phone,omitempty"`
}

func (g GuestContact) Empty() bool {
	return g.FullName == "" && g.Email == "" && g.Phone == ""
}

// Order is never hard-deleted; its lifecycle ends in delivered or cancelled.
// TotalAmount is computed once at creation time and never recomputed.
type Order struct {
	ID     int64  `gorm:"primaryKey" json:"id,string"`
	UserId *int64 `gorm:"index" json:"user_id,string,omitempty"`

	Guest GuestContact `gorm:"embedded;embeddedPrefix:guest_" json:"guest"`

	Items []OrderItem `gorm:"foreignKey:OrderId" json:"items"`

	TotalAmount     float64         `json:"total_amount"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"size:64;default:'COD'" json:"payment_method"`
	Status          string          `gorm:"size:32;index;default:'pending'" json:"status"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OwnerContact is the registered buyer's name, email and phone as served
// on order responses.
type OwnerContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// OrderView is the API shape of an order: the owner contact attached for
// registered orders and the guest block present only on guest orders.
// The outer Guest and Owner fields shadow the embedded value so exactly
// one of them appears in the serialized response.
type OrderView struct {
	Order
	Guest *GuestContact `json:"guest,omitempty"`
	Owner *OwnerContact `json:"owner,omitempty"`
}

// NewOrderView wraps ord with its resolved owner, if any
func NewOrderView(ord Order, owner *OwnerContact) OrderView {
	view := OrderView{Order: ord, Owner: owner}
	if !ord.Guest.Empty() {
		g := ord.Guest
		view.Guest = &g
	}
	return view
}

// OrderViews wraps a batch, resolving owners from usersById
func OrderViews(orders []Order, usersById map[int64]User) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, ord := range orders {
		var owner *OwnerContact
		if ord.UserId != nil {
			if u, found := usersById[*ord.UserId]; found {
				contact := u.ContactView()
				owner = &contact
			}
		}
		views = append(views, NewOrderView(ord, owner))
	}
	return views
}

// OrderItem snapshots the product title and unit price at order-creation
// time; later product edits do not affect it.
type OrderItem struct {
	ID        int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderId   int64   `gorm:"index" json:"order_id,string"`
	ProductId int64   `gorm:"index" json:"product_id,string"`
	Title     string  `gorm:"size:255" json:"title"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}
