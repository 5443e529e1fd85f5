package models

// MonthlySalesTotal is one row of the yearly sales report.
type MonthlySalesTotal struct {
	Month     int     `json:"month" db:"month"` // 1-12
	MonthName string  `json:"month_name" db:"-"`
	Total     float64 `json:"total" db:"total"`
}

// DailySalesTotal is one calendar cell: the sales of a single day.
type DailySalesTotal struct {
	Date       string  `json:"date" db:"day"` // YYYY-MM-DD
	Total      float64 `json:"total" db:"total"`
	SalesCount int     `json:"sales_count" db:"sales_count"`
}

// StockWorth holds the value of all stock on hand at current prices.
type StockWorth struct {
	TotalStockWorth float64 `json:"total_stock_worth"`
}

// LedgerReconciliation compares a product's cached balance with its movement history.
type LedgerReconciliation struct {
	ProductID    int64 `json:"product_id"`
	Stock        int   `json:"stock"`
	InitialStock int   `json:"initial_stock"`
	MovementSum  int   `json:"movement_sum"`
	Consistent   bool  `json:"consistent"`
}
