package storage

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
)

// CachedPriceStore wraps a primary price store with a Redis read-through
// cache. Misses are cached too, so an instrument without quotes does not hit
// Postgres on every pass. Redis failures fall back to the primary.
type CachedPriceStore struct {
	primary pricing.PriceStore
	rdb     redis.Cmdable
	ttl     time.Duration
}

var _ pricing.PriceStore = (*CachedPriceStore)(nil)

// NewCachedPriceStore creates a cached wrapper around primary.
func NewCachedPriceStore(primary pricing.PriceStore, rdb redis.Cmdable, ttl time.Duration) *CachedPriceStore {
	return &CachedPriceStore{primary: primary, rdb: rdb, ttl: ttl}
}

type cachedQuote struct {
	Price float64 `json:"p"`
	OK    bool    `json:"ok"`
}

func (s *CachedPriceStore) MonthlyAveragePrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	return s.readThrough(ctx, priceKey(pricing.SourceMonthlyAverage, instrument, string(month)), func() (float64, bool, error) {
		return s.primary.MonthlyAveragePrice(ctx, instrument, month)
	})
}

func (s *CachedPriceStore) ForwardPrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	return s.readThrough(ctx, priceKey(pricing.SourceForward, instrument, string(month)), func() (float64, bool, error) {
		return s.primary.ForwardPrice(ctx, instrument, month)
	})
}

func (s *CachedPriceStore) DailyPrice(ctx context.Context, instrument product.Canonical, day time.Time) (float64, bool, error) {
	return s.readThrough(ctx, priceKey(pricing.SourceDaily, instrument, day.Format(time.DateOnly)), func() (float64, bool, error) {
		return s.primary.DailyPrice(ctx, instrument, day)
	})
}

// Invalidate drops every cached quote of instrument.
func (s *CachedPriceStore) Invalidate(ctx context.Context, instrument product.Canonical) error {
	iter := s.rdb.Scan(ctx, 0, fmt.Sprintf("price:*:%s:*", instrument), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan cached prices: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func (s *CachedPriceStore) readThrough(ctx context.Context, key string, load func() (float64, bool, error)) (float64, bool, error) {
	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var q cachedQuote
		if json.Unmarshal(data, &q) == nil {
			return q.Price, q.OK, nil
		}
	}

	p, ok, err := load()
	if err != nil {
		return 0, false, err
	}
	if data, err := json.Marshal(cachedQuote{Price: p, OK: ok}); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
	return p, ok, nil
}

func priceKey(src pricing.Source, instrument product.Canonical, at string) string {
	return fmt.Sprintf("price:%s:%s:%s", src, instrument, at)
}
