package database

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func TestSchemaDeclaresLedgerTables(t *testing.T) {
	s := schemaSQL
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS products",
		"CREATE TABLE IF NOT EXISTS sales",
		"CREATE TABLE IF NOT EXISTS stock_movements",
		"CHECK (stock >= 0)",
		"ON DELETE RESTRICT",
		"initial_stock",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("schema missing %q", want)
		}
	}
}

func TestStockMovementsHaveNoMutatingForeignKeyAction(t *testing.T) {
	start := strings.Index(schemaSQL, "CREATE TABLE IF NOT EXISTS stock_movements")
	if start < 0 {
		t.Fatal("stock_movements table missing")
	}
	table := schemaSQL[start:]
	table = table[:strings.Index(table, ");")]

	if !strings.Contains(table, "sale_id") {
		t.Fatalf("stock_movements must keep the sale_id link column")
	}
	for _, action := range []string{"ON DELETE SET NULL", "ON DELETE CASCADE", "ON DELETE SET DEFAULT", "ON UPDATE"} {
		if strings.Contains(table, action) {
			t.Fatalf("stock_movements declares %q, which would rewrite ledger rows", action)
		}
	}
	if !strings.Contains(schemaSQL, "DROP CONSTRAINT IF EXISTS stock_movements_sale_id_fkey") {
		t.Fatalf("schema must drop the legacy sale_id foreign key on existing databases")
	}
}

func TestApplySchema(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS products")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := ApplySchema(context.Background(), db); err != nil {
		t.Fatalf("ApplySchema: %v", err)
	}

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	if err := ApplySchema(context.Background(), db); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPing(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "postgres")

	mock.ExpectPing()
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	mock.ExpectPing().WillReturnError(errors.New("down"))
	if err := Ping(context.Background(), db); err == nil {
		t.Fatalf("expected ping error")
	}
}
