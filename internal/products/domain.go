package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinStock is the low-stock threshold applied when none is given.
const DefaultMinStock = 5

// Product is a stocked, priced, sellable inventory item.
type Product struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Price      decimal.Decimal     `json:"price"`
	CostPrice  decimal.NullDecimal `json:"cost_price"`
	Stock      int                 `json:"stock"`
	MinStock   int                 `json:"min_stock"`
	CategoryID *int64              `json:"category_id"`
	BrandID    *int64              `json:"brand_id"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// LowStock reports whether stock reached the advisory threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}

// Margin returns the profit percentage relative to cost price.
func (p Product) Margin() decimal.Decimal {
	return Margin(p.Price, p.CostPrice)
}

var hundred = decimal.NewFromInt(100)

// Margin computes ((price - cost) / cost) * 100 rounded to two places.
// It is zero when cost is unset or zero.
func Margin(price decimal.Decimal, cost decimal.NullDecimal) decimal.Decimal {
	if !cost.Valid || cost.Decimal.IsZero() {
		return decimal.Zero
	}
	return price.Sub(cost.Decimal).Div(cost.Decimal).Mul(hundred).Round(2)
}

// Input carries the editable fields of a product.
type Input struct {
	Name       string
	Price      decimal.Decimal
	CostPrice  decimal.NullDecimal
	Stock      int
	MinStock   *int
	CategoryID *int64
	BrandID    *int64
}

// ListFilter narrows product listings.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
