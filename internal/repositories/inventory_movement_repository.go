package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backoffice_backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// StockMovementRepository defines the interface for stock ledger database operations.
// The ledger is append-only: there is no update or delete.
type StockMovementRepository interface {
	RecordMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
	// SumSignedByProduct returns the sum of IN quantities minus OUT quantities for a product.
	SumSignedByProduct(ctx context.Context, productID int64) (int, error)
}

type stockMovementRepository struct {
	db *sqlx.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sqlx.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) RecordMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	if movement.Quantity <= 0 {
		return 0, fmt.Errorf("%w: movement quantity must be positive, got %d", ErrDatabaseError, movement.Quantity)
	}
	if !models.IsValidMovementType(movement.MovementType) {
		return 0, fmt.Errorf("%w: unknown movement type %q", ErrDatabaseError, movement.MovementType)
	}
	if movement.Date.IsZero() {
		movement.Date = time.Now()
	}

	query := `INSERT INTO stock_movements (product_id, quantity, movement_type, reason, sale_id, date)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRowxContext(ctx, query,
		movement.ProductID, movement.Quantity, movement.MovementType, movement.Reason, movement.SaleID, movement.Date,
	).Scan(&movement.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("%w: movement for product ID %d: %v", ErrForeignKey, movement.ProductID, err)
		}
		return 0, fmt.Errorf("%w: recording stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

type movementListRow struct {
	models.StockMovement
	TotalCount int `db:"total_count"`
}

func (r *stockMovementRepository) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, sm.quantity, sm.movement_type, sm.reason, sm.sale_id, sm.date,
	    p.name AS product_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  LEFT JOIN products p ON sm.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}
	if filters.StartDate != nil {
		conditions = append(conditions, fmt.Sprintf("sm.date >= $%d", argCount))
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		conditions = append(conditions, fmt.Sprintf("sm.date <= $%d", argCount))
		args = append(args, *filters.EndDate)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY sm.date DESC, sm.id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	var rows []movementListRow
	if err := r.db.SelectContext(ctx, &rows, queryBuilder.String(), args...); err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}

	movements := make([]models.StockMovement, 0, len(rows))
	totalCount := 0
	for _, row := range rows {
		movements = append(movements, row.StockMovement)
		totalCount = row.TotalCount
	}
	return movements, totalCount, nil
}

func (r *stockMovementRepository) SumSignedByProduct(ctx context.Context, productID int64) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(CASE WHEN movement_type = 'IN' THEN quantity ELSE -quantity END), 0)
	          FROM stock_movements WHERE product_id = $1`
	if err := r.db.GetContext(ctx, &sum, query, productID); err != nil {
		return 0, fmt.Errorf("%w: summing stock movements for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return sum, nil
}
