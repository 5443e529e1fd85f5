package models

import "time"

// Stock status labels stored on products.status
const (
	StatusInStock    = "In Stock"
	StatusLowStock   = "Low Stock"
	StatusOutOfStock = "Out of Stock"
)

// Units a product's stock can be counted in
const (
	UnitPiece      = "unit"
	UnitMilliliter = "ml"
)

// Movement directions in the stock ledger
const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

// MaxQuantity is the largest quantity or balance the INTEGER columns hold.
const MaxQuantity = 1<<31 - 1

// Default low stock cutoffs per unit, used when a product is created without one.
const (
	DefaultPieceLowStockThreshold      = 5
	DefaultMilliliterLowStockThreshold = 50
)

// Product represents an inventory record (discrete goods or perfumes measured in ml)
type Product struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Category          string    `json:"category" db:"category"`
	Brand             *string   `json:"brand,omitempty" db:"brand"`
	Price             float64   `json:"price" db:"price"`
	Unit              string    `json:"unit" db:"unit"`
	InitialStock      int       `json:"initial_stock" db:"initial_stock"`
	Stock             int       `json:"stock" db:"stock"`
	LowStockThreshold int       `json:"low_stock_threshold" db:"low_stock_threshold"`
	Supplier          string    `json:"supplier" db:"supplier"`
	Status            string    `json:"status" db:"status"`
	LastUpdated       time.Time `json:"last_updated" db:"last_updated"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// StockLevel is the point-in-time balance of one product.
type StockLevel struct {
	ProductID         int64   `json:"product_id" db:"id"`
	Stock             int     `json:"stock" db:"stock"`
	Unit              string  `json:"unit" db:"unit"`
	LowStockThreshold int     `json:"low_stock_threshold" db:"low_stock_threshold"`
	Status            string  `json:"status" db:"status"`
	Price             float64 `json:"-" db:"price"`
}

// StockMovement is an append-only ledger entry. Quantity is always positive,
// MovementType gives the sign.
type StockMovement struct {
	ID           int64     `json:"id" db:"id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Quantity     int       `json:"quantity" db:"quantity"`
	MovementType string    `json:"movement_type" db:"movement_type"`
	Reason       *string   `json:"reason,omitempty" db:"reason"`
	SaleID       *int64    `json:"sale_id,omitempty" db:"sale_id"`
	Date         time.Time `json:"date" db:"date"`
	ProductName  *string   `json:"product_name,omitempty" db:"product_name"`
}

// SignedQuantity returns the balance delta this movement represents.
func (m StockMovement) SignedQuantity() int {
	if m.MovementType == MovementTypeOut {
		return -m.Quantity
	}
	return m.Quantity
}

// MovementFilters narrows a stock movement listing.
type MovementFilters struct {
	ProductID    *int64
	MovementType *string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

// ProductFilters narrows a product listing.
type ProductFilters struct {
	Category *string
	Status   *string
	Search   *string
	Page     int
	PageSize int
}

// StockStatusFor derives the status label from a balance and its low stock cutoff.
func StockStatusFor(stock, lowStockThreshold int) string {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= lowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// DefaultLowStockThreshold returns the cutoff used for a unit when none is given.
func DefaultLowStockThreshold(unit string) int {
	if unit == UnitMilliliter {
		return DefaultMilliliterLowStockThreshold
	}
	return DefaultPieceLowStockThreshold
}

// IsValidUnit reports whether unit is one of the supported stock units.
func IsValidUnit(unit string) bool {
	return unit == UnitPiece || unit == UnitMilliliter
}

// IsValidMovementType reports whether t is IN or OUT.
func IsValidMovementType(t string) bool {
	return t == MovementTypeIn || t == MovementTypeOut
}
