package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"backoffice_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var testNow = time.Date(2024, time.May, 10, 12, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

const applyDeltaPattern = `UPDATE products\s+SET stock = stock \+ \$1, last_updated = \$2\s+WHERE id = \$3 AND stock \+ \$1 >= 0\s+RETURNING id, stock, unit, low_stock_threshold, price`

func TestApplyDeltaRecomputesStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(applyDeltaPattern).WithArgs(-7, testNow, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock", "unit", "low_stock_threshold", "price"}).AddRow(1, 3, "unit", 5, 10.0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET status = $1 WHERE id = $2`)).
		WithArgs(models.StatusLowStock, 1).WillReturnResult(sqlmock.NewResult(0, 1))

	level, err := repo.ApplyDelta(context.Background(), db, 1, -7, testNow)
	if err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if level.Stock != 3 || level.Status != models.StatusLowStock || level.ProductID != 1 {
		t.Fatalf("unexpected level: %+v", level)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestApplyDeltaNegativeAndMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	empty := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "stock", "unit", "low_stock_threshold", "price"})
	}
	exists := regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`)

	mock.ExpectQuery(applyDeltaPattern).WithArgs(-5, testNow, 1).WillReturnRows(empty())
	mock.ExpectQuery(exists).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	if _, err := repo.ApplyDelta(context.Background(), db, 1, -5, testNow); !errors.Is(err, ErrNegativeStock) {
		t.Fatalf("expected ErrNegativeStock, got %v", err)
	}

	mock.ExpectQuery(applyDeltaPattern).WithArgs(3, testNow, 2).WillReturnRows(empty())
	mock.ExpectQuery(exists).WithArgs(2).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	if _, err := repo.ApplyDelta(context.Background(), db, 2, 3, testNow); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetStockForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id = $1 FOR UPDATE`)).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stock", "unit", "low_stock_threshold", "status", "price"}).
			AddRow(4, 0, "ml", 50, models.StatusOutOfStock, 90.0))

	level, err := repo.GetStock(context.Background(), db, 4, true)
	if err != nil {
		t.Fatalf("GetStock: %v", err)
	}
	if level.Unit != models.UnitMilliliter || level.Status != models.StatusOutOfStock || level.Price != 90 {
		t.Fatalf("unexpected level: %+v", level)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetProductsFiltersAndPaging(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	category, search := "Perfume", "oud"

	cols := []string{"id", "name", "category", "brand", "price", "unit", "initial_stock", "stock",
		"low_stock_threshold", "supplier", "status", "last_updated", "created_at", "total_count"}
	mock.ExpectQuery(`WHERE category = \$1 AND \(name ILIKE \$2 OR supplier ILIKE \$2\) ORDER BY last_updated DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(category, "%oud%", 10, 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(3, "Oud Wood", "Perfume", "Tom Ford", 250.0, "ml", 100, 80, 50, "N/A", models.StatusInStock, testNow, testNow, 11))

	products, total, err := repo.GetProducts(context.Background(), models.ProductFilters{
		Category: &category, Search: &search, Page: 2, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if total != 11 || len(products) != 1 || products[0].Brand == nil || *products[0].Brand != "Tom Ford" {
		t.Fatalf("unexpected result: total=%d products=%+v", total, products)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteProductForeignKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id = $1`)).WithArgs(1).
		WillReturnError(&pq.Error{Code: "23503"})
	if err := repo.DeleteProduct(context.Background(), db, 1); !errors.Is(err, ErrForeignKey) {
		t.Fatalf("expected ErrForeignKey, got %v", err)
	}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id = $1`)).WithArgs(1).
		WillReturnError(errors.New("boom"))
	if err := repo.DeleteProduct(context.Background(), db, 1); !errors.Is(err, ErrDatabaseError) {
		t.Fatalf("expected ErrDatabaseError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetStockWorth(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(price * stock), 0) FROM products`)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(512.5))
	worth, err := repo.GetStockWorth(context.Background())
	if err != nil {
		t.Fatalf("GetStockWorth: %v", err)
	}
	if worth != 512.5 {
		t.Fatalf("worth = %v", worth)
	}
}
