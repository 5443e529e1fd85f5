package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"backoffice_backend/internal/cache"
	"backoffice_backend/internal/events"
	"backoffice_backend/internal/models"
	"backoffice_backend/internal/repositories"
	"backoffice_backend/pkg/utils"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// --- Data Transfer Objects (DTOs) ---

// RecordSaleRequest is used for recording a sale of a product.
// Price defaults to the product's current price and Total to Price * Quantity.
type RecordSaleRequest struct {
	ProductID int64      `json:"product_id" binding:"required"`
	Quantity  int        `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Price     *float64   `json:"price"`
	Total     *float64   `json:"total"`
	Date      *time.Time `json:"-"` // Set by the handler from the "date" string
}

// RecordBottleSaleRequest is used for selling bottles decanted from a milliliter-measured product.
type RecordBottleSaleRequest struct {
	ProductID  int64      `json:"product_id" binding:"required"`
	BottleSize string     `json:"bottle_size" binding:"required"`
	Quantity   int        `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Date       *time.Time `json:"-"`
}

// StockAdjustmentRequest is used for manual stock-in and stock-out.
type StockAdjustmentRequest struct {
	ProductID int64   `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0,max=2147483647"`
	Reason    *string `json:"reason"`
}

// StockChangeResult is returned by stock-in and stock-out.
type StockChangeResult struct {
	Movement models.StockMovement `json:"movement"`
	Stock    models.StockLevel    `json:"stock"`
}

// --- StockService Interface ---

// StockService is the only component allowed to change stock. Every change writes a
// ledger movement and the balance update in the same transaction.
type StockService interface {
	RecordSale(ctx context.Context, req RecordSaleRequest) (*models.Sale, error)
	RecordBottleSale(ctx context.Context, req RecordBottleSaleRequest) (*models.Sale, error)
	RecordStockIn(ctx context.Context, req StockAdjustmentRequest) (*StockChangeResult, error)
	RecordStockOut(ctx context.Context, req StockAdjustmentRequest) (*StockChangeResult, error)
	DeleteSale(ctx context.Context, saleID int64, restock bool) error

	GetCurrentStock(ctx context.Context, productID int64) (*models.StockLevel, error)
	Reconcile(ctx context.Context, productID int64) (*models.LedgerReconciliation, error)
	GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error)
	GetSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error)
	GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error)
}

// --- stockService Implementation ---
type stockService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	saleRepo     repositories.SaleRepository
	db           *sqlx.DB
	reports      cache.ReportCache
	publisher    events.Publisher
	now          Clock
}

// NewStockService creates a new instance of StockService.
func NewStockService(
	pr repositories.ProductRepository,
	mr repositories.StockMovementRepository,
	sr repositories.SaleRepository,
	db *sqlx.DB,
	reports cache.ReportCache,
	publisher events.Publisher,
	clock Clock,
) StockService {
	if reports == nil {
		reports = cache.NewNoopReportCache()
	}
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return &stockService{
		productRepo:  pr,
		movementRepo: mr,
		saleRepo:     sr,
		db:           db,
		reports:      reports,
		publisher:    publisher,
		now:          clockOrDefault(clock),
	}
}

// committedChange is what a transaction hands to the post-commit hooks.
type committedChange struct {
	movement models.StockMovement
	level    models.StockLevel
	sale     *models.Sale
}

func (s *stockService) RecordSale(ctx context.Context, req RecordSaleRequest) (*models.Sale, error) {
	if req.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.Quantity > models.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity cannot exceed %d", ErrValidation, models.MaxQuantity)
	}
	if req.Price != nil && *req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Total != nil && *req.Total < 0 {
		return nil, fmt.Errorf("%w: total cannot be negative", ErrValidation)
	}

	return s.sell(ctx, req.ProductID, func(level *models.StockLevel) (*models.Sale, error) {
		price := level.Price
		if req.Price != nil {
			price = *req.Price
		}
		listTotal := roundCents(price * float64(req.Quantity))
		total := listTotal
		if req.Total != nil {
			total = roundCents(*req.Total)
			if total > listTotal {
				return nil, fmt.Errorf("%w: total %.2f exceeds price x quantity %.2f", ErrValidation, total, listTotal)
			}
		}
		return &models.Sale{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
			Price:     price,
			Total:     total,
			Date:      s.dateOrNow(req.Date),
		}, nil
	})
}

func (s *stockService) RecordBottleSale(ctx context.Context, req RecordBottleSaleRequest) (*models.Sale, error) {
	if req.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	sizeMl := models.BottleSizeMilliliters(req.BottleSize)
	if sizeMl == 0 {
		return nil, fmt.Errorf("%w: bottle_size must be %s or %s", ErrValidation, models.BottleSize3ml, models.BottleSize6ml)
	}
	// Stored quantity is in ml.
	if req.Quantity > models.MaxQuantity/sizeMl {
		return nil, fmt.Errorf("%w: quantity cannot exceed %d bottles of %s", ErrValidation, models.MaxQuantity/sizeMl, req.BottleSize)
	}

	return s.sell(ctx, req.ProductID, func(level *models.StockLevel) (*models.Sale, error) {
		if level.Unit != models.UnitMilliliter {
			return nil, fmt.Errorf("%w: product %d is not sold by the milliliter", ErrValidation, req.ProductID)
		}
		// Product price is per 100 ml.
		pricePerMl := level.Price / 100
		bottlePrice := pricePerMl * float64(sizeMl)
		size := req.BottleSize
		return &models.Sale{
			ProductID:  req.ProductID,
			Quantity:   sizeMl * req.Quantity,
			Price:      pricePerMl,
			Total:      roundCents(bottlePrice * float64(req.Quantity)),
			BottleSize: &size,
			Date:       s.dateOrNow(req.Date),
		}, nil
	})
}

// sell runs the sale protocol: lock and read the balance, validate, insert the sale,
// append the OUT movement, apply the delta, commit.
func (s *stockService) sell(ctx context.Context, productID int64, prepare func(level *models.StockLevel) (*models.Sale, error)) (*models.Sale, error) {
	var change committedChange
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		level, err := s.lockStock(ctx, tx, productID)
		if err != nil {
			return err
		}

		sale, err := prepare(level)
		if err != nil {
			return err
		}
		if sale.Quantity > level.Stock {
			return fmt.Errorf("%w: product %d has %d %s, requested %d",
				ErrInsufficientStock, productID, level.Stock, level.Unit, sale.Quantity)
		}

		if _, err := s.saleRepo.CreateSale(ctx, tx, sale); err != nil {
			return fmt.Errorf("failed to create sale record: %w", err)
		}

		movement := models.StockMovement{
			ProductID:    productID,
			Quantity:     sale.Quantity,
			MovementType: models.MovementTypeOut,
			Reason:       utils.NewNullString(fmt.Sprintf("Sale #%d", sale.ID)),
			SaleID:       &sale.ID,
			Date:         sale.Date,
		}
		newLevel, err := s.persistMovement(ctx, tx, &movement)
		if err != nil {
			return err
		}

		change = committedChange{movement: movement, level: *newLevel, sale: sale}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, change)
	return change.sale, nil
}

func (s *stockService) RecordStockIn(ctx context.Context, req StockAdjustmentRequest) (*StockChangeResult, error) {
	return s.adjust(ctx, req, models.MovementTypeIn)
}

func (s *stockService) RecordStockOut(ctx context.Context, req StockAdjustmentRequest) (*StockChangeResult, error) {
	return s.adjust(ctx, req, models.MovementTypeOut)
}

func (s *stockService) adjust(ctx context.Context, req StockAdjustmentRequest, movementType string) (*StockChangeResult, error) {
	if req.ProductID <= 0 {
		return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.Quantity > models.MaxQuantity {
		return nil, fmt.Errorf("%w: quantity cannot exceed %d", ErrValidation, models.MaxQuantity)
	}

	var change committedChange
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		level, err := s.lockStock(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if movementType == models.MovementTypeOut && req.Quantity > level.Stock {
			return fmt.Errorf("%w: product %d has %d %s, requested %d",
				ErrInsufficientStock, req.ProductID, level.Stock, level.Unit, req.Quantity)
		}
		if movementType == models.MovementTypeIn && req.Quantity > models.MaxQuantity-level.Stock {
			return fmt.Errorf("%w: product %d would exceed the maximum balance of %d", ErrValidation, req.ProductID, models.MaxQuantity)
		}

		reason := req.Reason
		if reason == nil || utils.IsEmpty(*reason) {
			if movementType == models.MovementTypeIn {
				reason = utils.NewNullString("Stock in")
			} else {
				reason = utils.NewNullString("Stock out")
			}
		}
		movement := models.StockMovement{
			ProductID:    req.ProductID,
			Quantity:     req.Quantity,
			MovementType: movementType,
			Reason:       reason,
			Date:         s.now(),
		}
		newLevel, err := s.persistMovement(ctx, tx, &movement)
		if err != nil {
			return err
		}

		change = committedChange{movement: movement, level: *newLevel}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, change)
	return &StockChangeResult{Movement: change.movement, Stock: change.level}, nil
}

func (s *stockService) DeleteSale(ctx context.Context, saleID int64, restock bool) error {
	var deleted models.Sale
	var change *committedChange
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		sale, err := s.saleRepo.GetSaleByID(ctx, tx, saleID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("failed to fetch sale for deletion: %w", err)
		}
		deleted = *sale

		if restock {
			level, err := s.lockStock(ctx, tx, sale.ProductID)
			if err != nil {
				return err
			}
			if sale.Quantity > models.MaxQuantity-level.Stock {
				return fmt.Errorf("%w: restocking product %d would exceed the maximum balance of %d", ErrValidation, sale.ProductID, models.MaxQuantity)
			}
			movement := models.StockMovement{
				ProductID:    sale.ProductID,
				Quantity:     sale.Quantity,
				MovementType: models.MovementTypeIn,
				Reason:       utils.NewNullString(fmt.Sprintf("Sale #%d deleted", sale.ID)),
				Date:         s.now(),
			}
			newLevel, err := s.persistMovement(ctx, tx, &movement)
			if err != nil {
				return err
			}
			change = &committedChange{movement: movement, level: *newLevel}
		}

		if err := s.saleRepo.DeleteSale(ctx, tx, saleID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if change != nil {
		s.afterCommit(ctx, *change)
	} else {
		s.reports.InvalidateReports(ctx)
	}
	s.publish(ctx, events.RKSaleDeleted, events.SalePayload{
		SaleID:    deleted.ID,
		ProductID: deleted.ProductID,
		Quantity:  deleted.Quantity,
		Total:     deleted.Total,
		Restocked: restock,
		Date:      deleted.Date,
	})
	log.Info().Int64("sale_id", saleID).Bool("restock", restock).Msg("Sale deleted")
	return nil
}

func (s *stockService) GetCurrentStock(ctx context.Context, productID int64) (*models.StockLevel, error) {
	level, err := s.productRepo.GetStock(ctx, s.db, productID, false)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return level, nil
}

func (s *stockService) Reconcile(ctx context.Context, productID int64) (*models.LedgerReconciliation, error) {
	product, err := s.productRepo.GetProductByID(ctx, s.db, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product for reconciliation: %w", err)
	}
	sum, err := s.movementRepo.SumSignedByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum stock movements: %w", err)
	}
	rec := &models.LedgerReconciliation{
		ProductID:    productID,
		Stock:        product.Stock,
		InitialStock: product.InitialStock,
		MovementSum:  sum,
		Consistent:   product.Stock == product.InitialStock+sum,
	}
	if !rec.Consistent {
		log.Warn().Int64("product_id", productID).Int("stock", rec.Stock).
			Int("initial_stock", rec.InitialStock).Int("movement_sum", sum).
			Msg("Stock balance does not match movement ledger")
	}
	return rec, nil
}

func (s *stockService) GetMovements(ctx context.Context, filters models.MovementFilters) ([]models.StockMovement, int, error) {
	if filters.MovementType != nil && *filters.MovementType != "" && !models.IsValidMovementType(*filters.MovementType) {
		return nil, 0, fmt.Errorf("%w: movement_type must be IN or OUT", ErrValidation)
	}
	normalizePaging(&filters.Page, &filters.PageSize)
	movements, total, err := s.movementRepo.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get stock movements: %w", err)
	}
	return movements, total, nil
}

func (s *stockService) GetSales(ctx context.Context, filters models.SaleFilters) ([]models.Sale, int, error) {
	normalizePaging(&filters.Page, &filters.PageSize)
	sales, total, err := s.saleRepo.GetSales(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get sales: %w", err)
	}
	return sales, total, nil
}

func (s *stockService) GetSaleByID(ctx context.Context, saleID int64) (*models.Sale, error) {
	sale, err := s.saleRepo.GetSaleByID(ctx, s.db, saleID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	return sale, nil
}

// lockStock reads the balance with a row lock held until the transaction ends.
func (s *stockService) lockStock(ctx context.Context, tx *sqlx.Tx, productID int64) (*models.StockLevel, error) {
	level, err := s.productRepo.GetStock(ctx, tx, productID, true)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("failed to read stock for product %d: %w", productID, err)
	}
	return level, nil
}

// persistMovement appends the ledger entry and applies the matching balance delta.
func (s *stockService) persistMovement(ctx context.Context, tx *sqlx.Tx, movement *models.StockMovement) (*models.StockLevel, error) {
	if _, err := s.movementRepo.RecordMovement(ctx, tx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}
	level, err := s.productRepo.ApplyDelta(ctx, tx, movement.ProductID, movement.SignedQuantity(), movement.Date)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNegativeStock):
			return nil, fmt.Errorf("%w: product %d", ErrInsufficientStock, movement.ProductID)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, fmt.Errorf("%w: ID %d", ErrProductNotFound, movement.ProductID)
		}
		return nil, fmt.Errorf("failed to update stock balance: %w", err)
	}
	return level, nil
}

func (s *stockService) afterCommit(ctx context.Context, change committedChange) {
	s.reports.InvalidateReports(ctx)

	log.Info().
		Int64("product_id", change.movement.ProductID).
		Str("movement_type", change.movement.MovementType).
		Int("quantity", change.movement.Quantity).
		Int("stock", change.level.Stock).
		Str("status", change.level.Status).
		Msg("Stock movement committed")

	payload := events.StockMovementPayload{
		MovementID:   change.movement.ID,
		ProductID:    change.movement.ProductID,
		MovementType: change.movement.MovementType,
		Quantity:     change.movement.Quantity,
		Stock:        change.level.Stock,
		Status:       change.level.Status,
		SaleID:       change.movement.SaleID,
		Date:         change.movement.Date,
	}
	s.publish(ctx, events.RKStockMovementRecorded, payload)
	if change.level.Status != models.StatusInStock {
		s.publish(ctx, events.RKStockLevelLow, payload)
	}
	if change.sale != nil {
		s.publish(ctx, events.RKSaleRecorded, events.SalePayload{
			SaleID:    change.sale.ID,
			ProductID: change.sale.ProductID,
			Quantity:  change.sale.Quantity,
			Total:     change.sale.Total,
			Date:      change.sale.Date,
		})
	}
}

func (s *stockService) publish(ctx context.Context, routingKey string, payload interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, payload); err != nil {
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("Failed to publish event")
	}
}

func (s *stockService) dateOrNow(d *time.Time) time.Time {
	if d == nil || d.IsZero() {
		return s.now()
	}
	return *d
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizePaging(page, pageSize *int) {
	if *page <= 0 {
		*page = 1
	}
	if *pageSize <= 0 {
		*pageSize = 20
	}
	if *pageSize > 200 {
		*pageSize = 200
	}
}
