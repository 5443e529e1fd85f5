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

// ProductRepository defines the interface for product and stock balance database operations.
type ProductRepository interface {
	CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error
	DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error

	// GetStock reads the balance of a product. With forUpdate the row stays
	// locked until the surrounding transaction ends.
	GetStock(ctx context.Context, executor SQLExecutor, id int64, forUpdate bool) (*models.StockLevel, error)
	// ApplyDelta adds a signed quantity to the balance and recomputes status.
	// Must run in the same transaction as the matching movement insert.
	ApplyDelta(ctx context.Context, executor SQLExecutor, id int64, delta int, at time.Time) (*models.StockLevel, error)
	GetStockWorth(ctx context.Context) (float64, error)
}

type productRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, category, brand, price, unit, initial_stock, stock,
	low_stock_threshold, supplier, status, last_updated, created_at`

func (r *productRepository) CreateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	          (name, category, brand, price, unit, initial_stock, stock, low_stock_threshold, supplier, status, last_updated, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	currentTime := time.Now()
	if product.LastUpdated.IsZero() {
		product.LastUpdated = currentTime
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = currentTime
	}

	err := executor.QueryRowxContext(ctx, query,
		product.Name, product.Category, product.Brand, product.Price, product.Unit,
		product.InitialStock, product.Stock, product.LowStockThreshold, product.Supplier,
		product.Status, product.LastUpdated, product.CreatedAt,
	).Scan(&product.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	return product.ID, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Product, error) {
	if executor == nil {
		executor = r.db
	}
	var product models.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := executor.GetContext(ctx, &product, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product ID %d: %v", ErrDatabaseError, id, err)
	}
	return &product, nil
}

type productListRow struct {
	models.Product
	TotalCount int `db:"total_count"`
}

func (r *productRepository) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total_count FROM products`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR supplier ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY last_updated DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	var rows []productListRow
	if err := r.db.SelectContext(ctx, &rows, queryBuilder.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("%w: getting products: %v", ErrDatabaseError, err)
	}

	products := make([]models.Product, 0, len(rows))
	totalCount := 0
	for _, row := range rows {
		products = append(products, row.Product)
		totalCount = row.TotalCount
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(ctx context.Context, executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products
	          SET name = $1, category = $2, brand = $3, price = $4, low_stock_threshold = $5,
	              supplier = $6, status = $7, last_updated = $8
	          WHERE id = $9`
	result, err := executor.ExecContext(ctx, query,
		product.Name, product.Category, product.Brand, product.Price, product.LowStockThreshold,
		product.Supplier, product.Status, product.LastUpdated, product.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, executor SQLExecutor, id int64) error {
	result, err := executor.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: product ID %d is referenced by sales or stock movements", ErrForeignKey, id)
		}
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetStock(ctx context.Context, executor SQLExecutor, id int64, forUpdate bool) (*models.StockLevel, error) {
	query := `SELECT id, stock, unit, low_stock_threshold, status, price FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var level models.StockLevel
	if err := executor.GetContext(ctx, &level, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting stock for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return &level, nil
}

func (r *productRepository) ApplyDelta(ctx context.Context, executor SQLExecutor, id int64, delta int, at time.Time) (*models.StockLevel, error) {
	// No row matches when the result would be negative.
	query := `UPDATE products
	          SET stock = stock + $1, last_updated = $2
	          WHERE id = $3 AND stock + $1 >= 0
	          RETURNING id, stock, unit, low_stock_threshold, price`
	level := models.StockLevel{}
	err := executor.QueryRowxContext(ctx, query, delta, at, id).Scan(&level.ProductID, &level.Stock, &level.Unit, &level.LowStockThreshold, &level.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if checkErr := executor.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id); checkErr != nil {
				return nil, fmt.Errorf("%w: checking product ID %d after failed stock update: %v", ErrDatabaseError, id, checkErr)
			}
			if !exists {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("%w: product ID %d, change %d", ErrNegativeStock, id, delta)
		}
		return nil, fmt.Errorf("%w: updating stock for product ID %d: %v", ErrDatabaseError, id, err)
	}

	level.Status = models.StockStatusFor(level.Stock, level.LowStockThreshold)
	if _, err := executor.ExecContext(ctx, `UPDATE products SET status = $1 WHERE id = $2`, level.Status, id); err != nil {
		return nil, fmt.Errorf("%w: updating status for product ID %d: %v", ErrDatabaseError, id, err)
	}
	return &level, nil
}

func (r *productRepository) GetStockWorth(ctx context.Context) (float64, error) {
	var worth float64
	if err := r.db.GetContext(ctx, &worth, `SELECT COALESCE(SUM(price * stock), 0) FROM products`); err != nil {
		return 0, fmt.Errorf("%w: getting stock worth: %v", ErrDatabaseError, err)
	}
	return worth, nil
}
