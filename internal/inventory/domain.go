package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/inventario/internal/products"
)

// Sale is one ledger line. Its monetary fields are copied from the product
// when the sale is recorded and never recomputed.
type Sale struct {
	ID          int64               `json:"id"`
	CreatedAt   time.Time           `json:"created_at"`
	ProductName string              `json:"product_name"`
	ProductID   *int64              `json:"product_id"`
	Quantity    int                 `json:"quantity"`
	UnitPrice   decimal.Decimal     `json:"unit_price"`
	TotalAmount decimal.Decimal     `json:"total_amount"`
	UnitCost    decimal.NullDecimal `json:"unit_cost"`
}

// Profit is the sale's margin in currency, zero when the cost was unknown.
func (s Sale) Profit() decimal.Decimal {
	if !s.UnitCost.Valid {
		return decimal.Zero
	}
	return s.TotalAmount.Sub(s.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(s.Quantity))))
}

// SellInput requests quantity units of a product.
type SellInput struct {
	ProductID      int64
	Quantity       int
	IdempotencyKey string
}

// SellResult carries the product after the debit and the recorded sale.
type SellResult struct {
	Product products.Product `json:"product"`
	Sale    Sale             `json:"sale"`
}

// Restore paths reported by DeleteSaleResult.
const (
	RestoreDirect = "direct"
	RestoreByName = "by_name"
	RestoreNone   = "none"
)

// DeleteSaleResult describes the compensation applied when a sale was deleted.
type DeleteSaleResult struct {
	Sale     Sale              `json:"sale"`
	Restored bool              `json:"restored"`
	Path     string            `json:"restore_path"`
	Product  *products.Product `json:"product,omitempty"`
}

// SalesFilter narrows sale listings. Zero times are open bounds; To is exclusive.
type SalesFilter struct {
	From      time.Time
	To        time.Time
	ProductID int64
	Limit     int
	Offset    int
}

// Summary aggregates sales in a period.
type Summary struct {
	From       time.Time       `json:"from"`
	To         time.Time       `json:"to"`
	SalesCount int64           `json:"sales_count"`
	Units      int64           `json:"units"`
	Revenue    decimal.Decimal `json:"revenue"`
	Cost       decimal.Decimal `json:"cost"`
	Profit     decimal.Decimal `json:"profit"`
}
