package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice_backend/internal/cache"
	"backoffice_backend/internal/models"
	"backoffice_backend/internal/repositories"

	"github.com/jmoiron/sqlx"
)

// --- Product DTOs ---
type CreateProductRequest struct {
	Name              string  `json:"name" binding:"required"`
	Category          string  `json:"category" binding:"required"`
	Brand             *string `json:"brand"`
	Price             float64 `json:"price" binding:"required,gt=0"`
	Unit              string  `json:"unit"`  // "unit" (default) or "ml"
	Stock             int     `json:"stock"` // Opening balance
	LowStockThreshold *int    `json:"low_stock_threshold"`
	Supplier          string  `json:"supplier"`
}

// UpdateProductRequest changes product metadata. Stock is not editable here;
// it only changes through stock-in, stock-out and sales.
type UpdateProductRequest struct {
	Name              *string  `json:"name"`
	Category          *string  `json:"category"`
	Brand             *string  `json:"brand"`
	Price             *float64 `json:"price"`
	LowStockThreshold *int     `json:"low_stock_threshold"`
	Supplier          *string  `json:"supplier"`
}

// --- ProductService Interface ---
type ProductService interface {
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	GetProductByID(ctx context.Context, productID int64) (*models.Product, error)
	GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error)
	UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

// --- productService Implementation ---
type productService struct {
	productRepo repositories.ProductRepository
	db          *sqlx.DB
	reports     cache.ReportCache
	now         Clock
}

func NewProductService(repo repositories.ProductRepository, db *sqlx.DB, reports cache.ReportCache, clock Clock) ProductService {
	if reports == nil {
		reports = cache.NewNoopReportCache()
	}
	return &productService{
		productRepo: repo,
		db:          db,
		reports:     reports,
		now:         clockOrDefault(clock),
	}
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: product name cannot be empty", ErrValidation)
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, fmt.Errorf("%w: category cannot be empty", ErrValidation)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}
	if req.Unit == "" {
		req.Unit = models.UnitPiece
	}
	if !models.IsValidUnit(req.Unit) {
		return nil, fmt.Errorf("%w: unit must be %q or %q", ErrValidation, models.UnitPiece, models.UnitMilliliter)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}
	if req.Stock > models.MaxQuantity {
		return nil, fmt.Errorf("%w: stock cannot exceed %d", ErrValidation, models.MaxQuantity)
	}
	threshold := models.DefaultLowStockThreshold(req.Unit)
	if req.LowStockThreshold != nil {
		if *req.LowStockThreshold < 0 {
			return nil, fmt.Errorf("%w: low_stock_threshold cannot be negative", ErrValidation)
		}
		threshold = *req.LowStockThreshold
	}
	supplier := strings.TrimSpace(req.Supplier)
	if supplier == "" {
		supplier = "N/A"
	}

	now := s.now()
	product := &models.Product{
		Name:              strings.TrimSpace(req.Name),
		Category:          strings.TrimSpace(req.Category),
		Brand:             req.Brand,
		Price:             req.Price,
		Unit:              req.Unit,
		InitialStock:      req.Stock,
		Stock:             req.Stock,
		LowStockThreshold: threshold,
		Supplier:          supplier,
		Status:            models.StockStatusFor(req.Stock, threshold),
		LastUpdated:       now,
		CreatedAt:         now,
	}
	if _, err := s.productRepo.CreateProduct(ctx, s.db, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.reports.InvalidateReports(ctx)
	return product, nil
}

func (s *productService) GetProductByID(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(ctx, s.db, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	return product, nil
}

func (s *productService) GetProducts(ctx context.Context, filters models.ProductFilters) ([]models.Product, int, error) {
	normalizePaging(&filters.Page, &filters.PageSize)
	products, totalCount, err := s.productRepo.GetProducts(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	return products, totalCount, nil
}

func (s *productService) UpdateProduct(ctx context.Context, productID int64, req UpdateProductRequest) (*models.Product, error) {
	var updated *models.Product
	err := runInTx(ctx, s.db, func(tx *sqlx.Tx) error {
		level, err := s.productRepo.GetStock(ctx, tx, productID, true)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product for update: %w", err)
		}
		product, err := s.productRepo.GetProductByID(ctx, tx, productID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to find product for update: %w", err)
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return fmt.Errorf("%w: product name cannot be empty if provided", ErrValidation)
			}
			product.Name = strings.TrimSpace(*req.Name)
		}
		if req.Category != nil {
			if strings.TrimSpace(*req.Category) == "" {
				return fmt.Errorf("%w: category cannot be empty if provided", ErrValidation)
			}
			product.Category = strings.TrimSpace(*req.Category)
		}
		if req.Brand != nil {
			product.Brand = req.Brand
		}
		if req.Price != nil {
			if *req.Price <= 0 {
				return fmt.Errorf("%w: price must be positive", ErrValidation)
			}
			product.Price = *req.Price
		}
		if req.LowStockThreshold != nil {
			if *req.LowStockThreshold < 0 {
				return fmt.Errorf("%w: low_stock_threshold cannot be negative", ErrValidation)
			}
			product.LowStockThreshold = *req.LowStockThreshold
		}
		if req.Supplier != nil {
			product.Supplier = strings.TrimSpace(*req.Supplier)
		}

		product.Stock = level.Stock
		product.Status = models.StockStatusFor(level.Stock, product.LowStockThreshold)
		product.LastUpdated = s.now()

		if err := s.productRepo.UpdateProduct(ctx, tx, product); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.reports.InvalidateReports(ctx)
	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, productID int64) error {
	err := s.productRepo.DeleteProduct(ctx, s.db, productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrForeignKey) {
			return fmt.Errorf("%w: %v", ErrProductInUse, err)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.reports.InvalidateReports(ctx)
	return nil
}
