package catalog

import "time"

// OthersCategoryName names the category a brand falls back to when it is
// saved without any category.
const OthersCategoryName = "Otros"

// Category groups products.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Brand is a product manufacturer linked to the categories it sells in.
type Brand struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	CategoryIDs []int64   `json:"category_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
