package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestReportKeysShareThePrefix(t *testing.T) {
	keys := []string{MonthlySalesKey(2024), DailySalesKey(2024, 3), StockWorthKey()}
	for _, k := range keys {
		if !strings.HasPrefix(k, ReportKeyPrefix) {
			t.Fatalf("key %q lacks prefix %q", k, ReportKeyPrefix)
		}
	}
	if DailySalesKey(2024, 3) != "report:daily-sales:2024-03" {
		t.Fatalf("daily key = %q", DailySalesKey(2024, 3))
	}
	if MonthlySalesKey(2024) == MonthlySalesKey(2023) {
		t.Fatalf("years must not collide")
	}
}

func TestNoopReportCache(t *testing.T) {
	c := NewNoopReportCache()
	ctx := context.Background()
	c.Set(ctx, StockWorthKey(), 10)
	var v int
	if c.Get(ctx, StockWorthKey(), &v) {
		t.Fatalf("noop cache must always miss")
	}
	c.InvalidateReports(ctx)
}

func TestRedisUnreachableFallsBackToNoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c := NewRedisReportCache(ctx, "127.0.0.1:1", "", 0, time.Minute)
	if _, ok := c.(noopReportCache); !ok {
		t.Fatalf("expected noop fallback, got %T", c)
	}
}
