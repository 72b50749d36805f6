package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/guttosm/mtmengine/internal/metrics"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

type quote struct {
	price float64
	ok    bool
}

// Resolver memoizes price lookups for one aggregation or valuation pass.
//
// Every leg that references the same (source, instrument, month) during a
// pass sees the same price; concurrent lookups of one key share a single
// store round-trip. The cache is discarded by Reset when the pass boundary
// changes.
type Resolver struct {
	store PriceStore
	group singleflight.Group

	mu        sync.Mutex
	cache     map[string]quote
	passStart time.Time
	passEnd   time.Time
}

// NewResolver creates a resolver over store with an empty cache.
func NewResolver(store PriceStore) *Resolver {
	return &Resolver{store: store, cache: make(map[string]quote)}
}

// Reset starts a pass for [start, end]. The cache survives only if the
// boundary is unchanged.
func (r *Resolver) Reset(start, end time.Time) {
	start, end = period.Normalize(period.TruncateToDate(start), period.TruncateToDate(end))
	r.mu.Lock()
	defer r.mu.Unlock()
	if start.Equal(r.passStart) && end.Equal(r.passEnd) {
		return
	}
	r.passStart, r.passEnd = start, end
	r.cache = make(map[string]quote)
}

// Price resolves instrument for month using the source selected by periodType.
func (r *Resolver) Price(ctx context.Context, instrument product.Canonical, month period.MonthCode, periodType period.Type) (float64, bool, error) {
	return r.monthly(ctx, SourceFor(periodType), instrument, month)
}

// EFPPrice resolves the futures price for an EFP designated month. EFP legs
// have no historical-average path.
func (r *Resolver) EFPPrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	return r.monthly(ctx, SourceForward, instrument, month)
}

// PeriodPrice is the mean of the per-month prices over the calendar months
// touched by [start, end], every month read from the one source chosen for
// the whole period. Months without data are returned in gaps and left out of
// the mean; a period is fully priced only when gaps is empty.
func (r *Resolver) PeriodPrice(ctx context.Context, instrument product.Canonical, start, end time.Time, periodType period.Type) (float64, []period.MonthCode, error) {
	start, end = period.Normalize(start, end)
	src := SourceFor(periodType)

	var sum float64
	var n int
	var gaps []period.MonthCode
	for _, m := range period.MonthsBetween(start, end) {
		p, ok, err := r.monthly(ctx, src, instrument, m)
		if err != nil {
			return 0, nil, err
		}
		if !ok {
			gaps = append(gaps, m)
			continue
		}
		sum += p
		n++
	}
	if n == 0 {
		return 0, gaps, nil
	}
	return sum / float64(n), gaps, nil
}

// DailyPoint is one working day of a daily price series.
type DailyPoint struct {
	Date   time.Time
	Price  float64
	OK     bool
	Source Source
}

// DailySeries resolves each working day in [start, end] independently.
// Days up to today read the daily history; later days repeat the forward
// quote of their month, since no daily forward curve exists.
func (r *Resolver) DailySeries(ctx context.Context, instrument product.Canonical, start, end, today time.Time) ([]DailyPoint, error) {
	start, end = period.Normalize(period.TruncateToDate(start), period.TruncateToDate(end))
	cutoff := period.TruncateToDate(today)

	out := make([]DailyPoint, 0, period.CountWorkingDays(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !period.IsWorkingDay(d) {
			continue
		}
		pt := DailyPoint{Date: d}
		var err error
		if d.After(cutoff) {
			pt.Source = SourceForward
			pt.Price, pt.OK, err = r.monthly(ctx, SourceForward, instrument, period.MonthOf(d))
		} else {
			pt.Source = SourceDaily
			pt.Price, pt.OK, err = r.daily(ctx, instrument, d)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, nil
}

func (r *Resolver) monthly(ctx context.Context, src Source, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	key := fmt.Sprintf("%s|%s|%s", src, instrument, month)
	return r.lookup(ctx, src, key, func(ctx context.Context) (float64, bool, error) {
		if src == SourceMonthlyAverage {
			return r.store.MonthlyAveragePrice(ctx, instrument, month)
		}
		return r.store.ForwardPrice(ctx, instrument, month)
	})
}

func (r *Resolver) daily(ctx context.Context, instrument product.Canonical, day time.Time) (float64, bool, error) {
	key := fmt.Sprintf("%s|%s|%s", SourceDaily, instrument, day.Format(time.DateOnly))
	return r.lookup(ctx, SourceDaily, key, func(ctx context.Context) (float64, bool, error) {
		return r.store.DailyPrice(ctx, instrument, day)
	})
}

func (r *Resolver) lookup(ctx context.Context, src Source, key string, fetch func(context.Context) (float64, bool, error)) (float64, bool, error) {
	r.mu.Lock()
	q, hit := r.cache[key]
	r.mu.Unlock()
	if hit {
		metrics.PriceLookups.WithLabelValues(string(src), "cached").Inc()
		return q.price, q.ok, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		r.mu.Lock()
		q, hit := r.cache[key]
		r.mu.Unlock()
		if hit {
			return q, nil
		}
		p, ok, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		q = quote{price: p, ok: ok}
		r.mu.Lock()
		r.cache[key] = q
		r.mu.Unlock()
		return q, nil
	})
	if err != nil {
		metrics.PriceLookups.WithLabelValues(string(src), "error").Inc()
		return 0, false, fmt.Errorf("resolve %s price: %w", src, err)
	}
	q = v.(quote)
	if q.ok {
		metrics.PriceLookups.WithLabelValues(string(src), "hit").Inc()
	} else {
		metrics.PriceLookups.WithLabelValues(string(src), "miss").Inc()
	}
	return q.price, q.ok, nil
}
