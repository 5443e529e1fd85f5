package services

import (
	"context"
	"fmt"
	"time"

	"backoffice_backend/internal/cache"
	"backoffice_backend/internal/models"
	"backoffice_backend/internal/repositories"
	"backoffice_backend/pkg/utils"
)

// ReportService serves the read-side aggregates: monthly totals, the sales calendar
// and stock worth. Results are cached until the next committed write.
type ReportService interface {
	GetMonthlySalesTotals(ctx context.Context, year int) ([]models.MonthlySalesTotal, error)
	GetDailySalesTotals(ctx context.Context, year, month int) ([]models.DailySalesTotal, error)
	GetStockWorth(ctx context.Context) (*models.StockWorth, error)
}

type reportService struct {
	saleRepo    repositories.SaleRepository
	productRepo repositories.ProductRepository
	reports     cache.ReportCache
}

func NewReportService(sr repositories.SaleRepository, pr repositories.ProductRepository, reports cache.ReportCache) ReportService {
	if reports == nil {
		reports = cache.NewNoopReportCache()
	}
	return &reportService{saleRepo: sr, productRepo: pr, reports: reports}
}

func (s *reportService) GetMonthlySalesTotals(ctx context.Context, year int) ([]models.MonthlySalesTotal, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year must be between 1 and 9999", ErrValidation)
	}
	key := cache.MonthlySalesKey(year)
	var cached []models.MonthlySalesTotal
	if s.reports.Get(ctx, key, &cached) {
		utils.LogDebug("Report served from cache", map[string]interface{}{"key": key})
		return cached, nil
	}

	totals, err := s.saleRepo.GetMonthlyTotals(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly sales totals: %w", err)
	}
	for i := range totals {
		totals[i].MonthName = time.Month(totals[i].Month).String()
		totals[i].Total = roundCents(totals[i].Total)
	}
	s.reports.Set(ctx, key, totals)
	return totals, nil
}

func (s *reportService) GetDailySalesTotals(ctx context.Context, year, month int) ([]models.DailySalesTotal, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year must be between 1 and 9999", ErrValidation)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	}
	key := cache.DailySalesKey(year, month)
	var cached []models.DailySalesTotal
	if s.reports.Get(ctx, key, &cached) {
		utils.LogDebug("Report served from cache", map[string]interface{}{"key": key})
		return cached, nil
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	totals, err := s.saleRepo.GetDailyTotals(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to get daily sales totals: %w", err)
	}
	for i := range totals {
		totals[i].Total = roundCents(totals[i].Total)
	}
	s.reports.Set(ctx, key, totals)
	return totals, nil
}

func (s *reportService) GetStockWorth(ctx context.Context) (*models.StockWorth, error) {
	key := cache.StockWorthKey()
	var cached models.StockWorth
	if s.reports.Get(ctx, key, &cached) {
		utils.LogDebug("Report served from cache", map[string]interface{}{"key": key})
		return &cached, nil
	}
	worth, err := s.productRepo.GetStockWorth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock worth: %w", err)
	}
	result := &models.StockWorth{TotalStockWorth: roundCents(worth)}
	s.reports.Set(ctx, key, result)
	return result, nil
}
