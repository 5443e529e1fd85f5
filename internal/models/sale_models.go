package models

import "time"

// Bottle sizes sold from milliliter-measured products
const (
	BottleSize3ml = "3ml"
	BottleSize6ml = "6ml"
)

// Sale represents a single point-of-sale record
type Sale struct {
	ID          int64     `json:"id" db:"id"`
	ProductID   int64     `json:"product_id" db:"product_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	Price       float64   `json:"price" db:"price"` // Unit price at time of sale
	Total       float64   `json:"total" db:"total"` // May be below price * quantity when discounted
	BottleSize  *string   `json:"bottle_size,omitempty" db:"bottle_size"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	ProductName *string   `json:"product_name,omitempty" db:"product_name"`
}

// Discount returns the amount knocked off the list total.
func (s Sale) Discount() float64 {
	return s.Price*float64(s.Quantity) - s.Total
}

// SaleFilters narrows a sales listing.
type SaleFilters struct {
	ProductID *int64
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

// BottleSizeMilliliters returns the volume of a bottle size, or 0 if unknown.
func BottleSizeMilliliters(size string) int {
	switch size {
	case BottleSize3ml:
		return 3
	case BottleSize6ml:
		return 6
	default:
		return 0
	}
}
