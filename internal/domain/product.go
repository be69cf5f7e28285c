package domain

import "time"

const (
	ProductStatusDraft     = "draft"
	ProductStatusPublished = "published"
)

// Product is a catalog item. StockQuantity never goes negative: it is
// decremented only by a committed order and incremented only by a
// cancellation restock or an explicit admin edit.
type Product struct {
	ID          int64    `gorm:"primaryKey" json:"id,string" form:"id"`
	Title       string   `gorm:"index;size:255" json:"title" form:"title"`
	Images      []string `gorm:"serializer:json;type:text" json:"images"`
	Description string   `gorm:"type:text" json:"description" form:"description"`
	Brand       string   `gorm:"size:200" json:"brand" form:"brand"`
	CategoryId  int64    `gorm:"index" json:"category_id,string" form:"category_id"`

	Price     float64  `json:"price" form:"price"`
	SalePrice *float64 `json:"sale_price,omitempty" form:"sale_price"`

	StockQuantity int `gorm:"default:0" json:"stock_quantity" form:"stock_quantity"`

	Status string `gorm:"size:32;index;default:'published'" json:"status" form:"status"`

	// TryOn marks eyewear items the browser overlay can render on a face.
	TryOn bool `json:"try_on" form:"try_on"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectivePrice is the unit price an order snapshot uses: the sale price
// when one is set below the list price, the list price otherwise.
func (p Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 && *p.SalePrice < p.Price {
		return *p.SalePrice
	}
	return p.Price
}
