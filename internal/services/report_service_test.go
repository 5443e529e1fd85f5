package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"backoffice_backend/internal/models"
	"backoffice_backend/internal/repositories"
)

type fakeSaleRepo struct {
	repositories.SaleRepository
	monthly      []models.MonthlySalesTotal
	daily        []models.DailySalesTotal
	monthlyCalls int
	from, to     time.Time
}

func (f *fakeSaleRepo) GetMonthlyTotals(_ context.Context, _ int) ([]models.MonthlySalesTotal, error) {
	f.monthlyCalls++
	out := make([]models.MonthlySalesTotal, len(f.monthly))
	copy(out, f.monthly)
	return out, nil
}

func (f *fakeSaleRepo) GetDailyTotals(_ context.Context, from, to time.Time) ([]models.DailySalesTotal, error) {
	f.from, f.to = from, to
	return f.daily, nil
}

type fakeProductRepo struct {
	repositories.ProductRepository
	worth float64
	err   error
}

func (f *fakeProductRepo) GetStockWorth(context.Context) (float64, error) {
	return f.worth, f.err
}

func TestMonthlySalesTotalsNamedAndCached(t *testing.T) {
	sales := &fakeSaleRepo{monthly: []models.MonthlySalesTotal{{Month: 1, Total: 70.004}, {Month: 3, Total: 12.5}}}
	reports := newMemoryCache()
	svc := NewReportService(sales, &fakeProductRepo{}, reports)

	got, err := svc.GetMonthlySalesTotals(context.Background(), 2024)
	if err != nil {
		t.Fatalf("GetMonthlySalesTotals: %v", err)
	}
	if len(got) != 2 || got[0].MonthName != "January" || got[1].MonthName != "March" {
		t.Fatalf("unexpected totals: %+v", got)
	}
	if got[0].Total != 70 {
		t.Fatalf("total should be rounded to cents, got %v", got[0].Total)
	}

	again, err := svc.GetMonthlySalesTotals(context.Background(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	if sales.monthlyCalls != 1 || len(again) != 2 || again[1].MonthName != "March" {
		t.Fatalf("second read should come from cache (calls=%d)", sales.monthlyCalls)
	}

	reports.InvalidateReports(context.Background())
	if _, err := svc.GetMonthlySalesTotals(context.Background(), 2024); err != nil {
		t.Fatal(err)
	}
	if sales.monthlyCalls != 2 {
		t.Fatalf("invalidation should force a recompute")
	}
}

func TestMonthlySalesTotalsRejectsBadYear(t *testing.T) {
	svc := NewReportService(&fakeSaleRepo{}, &fakeProductRepo{}, nil)
	if _, err := svc.GetMonthlySalesTotals(context.Background(), 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDailySalesTotalsMonthBounds(t *testing.T) {
	sales := &fakeSaleRepo{daily: []models.DailySalesTotal{{Date: "2024-02-29", Total: 10, SalesCount: 1}}}
	svc := NewReportService(sales, &fakeProductRepo{}, nil)

	got, err := svc.GetDailySalesTotals(context.Background(), 2024, 2)
	if err != nil {
		t.Fatalf("GetDailySalesTotals: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected totals: %+v", got)
	}
	wantFrom := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	wantTo := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !sales.from.Equal(wantFrom) || !sales.to.Equal(wantTo) {
		t.Fatalf("bounds = %v..%v", sales.from, sales.to)
	}
	if _, err := svc.GetDailySalesTotals(context.Background(), 2024, 13); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for month 13, got %v", err)
	}
}

func TestStockWorth(t *testing.T) {
	svc := NewReportService(&fakeSaleRepo{}, &fakeProductRepo{worth: 1234.567}, newMemoryCache())
	worth, err := svc.GetStockWorth(context.Background())
	if err != nil {
		t.Fatalf("GetStockWorth: %v", err)
	}
	if worth.TotalStockWorth != 1234.57 {
		t.Fatalf("worth = %v", worth.TotalStockWorth)
	}

	failing := NewReportService(&fakeSaleRepo{}, &fakeProductRepo{err: repositories.ErrDatabaseError}, nil)
	if _, err := failing.GetStockWorth(context.Background()); !errors.Is(err, repositories.ErrDatabaseError) {
		t.Fatalf("expected wrapped ErrDatabaseError, got %v", err)
	}
}
