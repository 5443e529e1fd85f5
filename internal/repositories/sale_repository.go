package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice_backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// SaleRepository defines the interface for sale-related database operations.
type SaleRepository interface {
	CreateSale(ctx context.Context, executor SQLExecutor, sale *models.Sale) (int64, error)
	GetSaleByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Sale, error)
	GetSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error)
	DeleteSale(ctx context.Context, executor SQLExecutor, id int64) error
	GetMonthlyTotals(ctx context.Context, year int) ([]models.MonthlySalesTotal, error)
	GetDailyTotals(ctx context.Context, from, to time.Time) ([]models.DailySalesTotal, error)
}

type saleRepository struct {
	db *sqlx.DB
}

// NewSaleRepository creates a new instance of SaleRepository.
func NewSaleRepository(db *sqlx.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateSale(ctx context.Context, executor SQLExecutor, sale *models.Sale) (int64, error) {
	query := `INSERT INTO sales (product_id, quantity, price, total, bottle_size, date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	err := executor.QueryRowxContext(ctx, query,
		sale.ProductID, sale.Quantity, sale.Price, sale.Total, sale.BottleSize, sale.Date, sale.CreatedAt,
	).Scan(&sale.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: sale for product ID %d: %v", ErrForeignKey, sale.ProductID, err)
		}
		return 0, fmt.Errorf("%w: creating sale: %v", ErrDatabaseError, err)
	}
	return sale.ID, nil
}

func (r *saleRepository) GetSaleByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Sale, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT s.id, s.product_id, s.quantity, s.price, s.total, s.bottle_size, s.date, s.created_at,
	                 p.name AS product_name
	          FROM sales s
	          LEFT JOIN products p ON s.product_id = p.id
	          WHERE s.id = $1`
	var sale models.Sale
	if err := executor.GetContext(ctx, &sale, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting sale ID %d: %v", ErrDatabaseError, id, err)
	}
	return &sale, nil
}

type saleListRow struct {
	models.Sale
	TotalCount int `db:"total_count"`
}

func (r *saleRepository) GetSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    s.id, s.product_id, s.quantity, s.price, s.total, s.bottle_size, s.date, s.created_at,
	    p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM sales s
	  LEFT JOIN products p ON s.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("s.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.date >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("s.date <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY s.date DESC, s.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	var rows []saleListRow
	if err := r.db.SelectContext(ctx, &rows, queryBuilder.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("%w: getting sales: %v", ErrDatabaseError, err)
	}

	sales := make([]models.Sale, 0, len(rows))
	totalCount := 0
	for _, row := range rows {
		sales = append(sales, row.Sale)
		totalCount = row.TotalCount
	}
	return sales, totalCount, nil
}

func (r *saleRepository) DeleteSale(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: deleting sale ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Buckets are UTC calendar months and days, matching the UTC range bounds,
// whatever the session TimeZone is.
func (r *saleRepository) GetMonthlyTotals(ctx context.Context, year int) ([]models.MonthlySalesTotal, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)
	query := `SELECT EXTRACT(MONTH FROM date AT TIME ZONE 'UTC')::int AS month, COALESCE(SUM(total), 0) AS total
	          FROM sales
	          WHERE date >= $1 AND date < $2
	          GROUP BY 1
	          ORDER BY 1 ASC`
	totals := []models.MonthlySalesTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, from, to); err != nil {
		return nil, fmt.Errorf("%w: getting monthly sales totals for %d: %v", ErrDatabaseError, year, err)
	}
	return totals, nil
}

func (r *saleRepository) GetDailyTotals(ctx context.Context, from, to time.Time) ([]models.DailySalesTotal, error) {
	query := `SELECT to_char(date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COALESCE(SUM(total), 0) AS total, COUNT(*) AS sales_count
	          FROM sales
	          WHERE date >= $1 AND date < $2
	          GROUP BY 1
	          ORDER BY 1 ASC`
	totals := []models.DailySalesTotal{}
	if err := r.db.SelectContext(ctx, &totals, query, from, to); err != nil {
		return nil, fmt.Errorf("%w: getting daily sales totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}
