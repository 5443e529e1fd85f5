package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReportKeyPrefix namespaces every cached report so they can be dropped together.
const ReportKeyPrefix = "report:"

// ReportCache stores computed read-side reports. A miss or a cache failure is never an
// error for the caller: it just means the report is recomputed from the database.
type ReportCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidateReports(ctx context.Context)
}

// MonthlySalesKey is the cache key of the yearly sales report.
func MonthlySalesKey(year int) string {
	return fmt.Sprintf("%smonthly-sales:%d", ReportKeyPrefix, year)
}

// DailySalesKey is the cache key of one calendar month.
func DailySalesKey(year, month int) string {
	return fmt.Sprintf("%sdaily-sales:%04d-%02d", ReportKeyPrefix, year, month)
}

// StockWorthKey is the cache key of the stock worth total.
func StockWorthKey() string {
	return ReportKeyPrefix + "stock-worth"
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReportCache connects to redis and returns a cache backed by it.
// If redis cannot be reached it logs a warning and returns a no-op cache.
func NewRedisReportCache(ctx context.Context, addr, password string, db int, ttl time.Duration) ReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("Failed to connect to Redis, report caching disabled")
		_ = client.Close()
		return NewNoopReportCache()
	}
	log.Info().Str("addr", addr).Dur("ttl", ttl).Msg("Redis report cache connected")
	return &redisReportCache{client: client, ttl: ttl}
}

func (c *redisReportCache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("Report cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Report cache entry is not valid JSON")
		return false
	}
	return true
}

func (c *redisReportCache) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Report cache value could not be encoded")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Report cache write failed")
	}
}

func (c *redisReportCache) InvalidateReports(ctx context.Context) {
	var keys []string
	iter := c.client.Scan(ctx, 0, ReportKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("Report cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Int("keys", len(keys)).Msg("Report cache invalidation failed")
	}
}

type noopReportCache struct{}

// NewNoopReportCache returns a cache that never stores anything.
func NewNoopReportCache() ReportCache {
	return noopReportCache{}
}

func (noopReportCache) Get(context.Context, string, interface{}) bool { return false }
func (noopReportCache) Set(context.Context, string, interface{})      {}
func (noopReportCache) InvalidateReports(context.Context)             {}
