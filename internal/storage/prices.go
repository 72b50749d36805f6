package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
)

// PriceRepository reads the historical and forward price tables. It
// implements pricing.PriceStore: a missing row is ok=false, never an error.
type PriceRepository struct {
	db *sql.DB
}

var _ pricing.PriceStore = (*PriceRepository)(nil)

// NewPriceRepository creates a Postgres-backed price store.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// MonthlyAveragePrice averages every daily price of the calendar month.
func (r *PriceRepository) MonthlyAveragePrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT AVG(price)
		FROM historical_prices
		WHERE instrument = $1 AND price_date >= $2 AND price_date < $3
	`, string(instrument), month.Start(), month.Add(1).Start()).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("monthly average %s %s: %w", instrument, month, err)
	}
	return avg.Float64, avg.Valid, nil
}

// ForwardPrice returns the forward-curve quote for one month.
func (r *PriceRepository) ForwardPrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error) {
	return r.single(ctx, `SELECT price FROM forward_prices WHERE instrument = $1 AND month = $2`,
		"forward price", string(instrument), string(month))
}

// DailyPrice returns the price recorded on one day.
func (r *PriceRepository) DailyPrice(ctx context.Context, instrument product.Canonical, day time.Time) (float64, bool, error) {
	return r.single(ctx, `SELECT price FROM historical_prices WHERE instrument = $1 AND price_date = $2`,
		"daily price", string(instrument), period.TruncateToDate(day))
}

func (r *PriceRepository) single(ctx context.Context, query, what string, args ...interface{}) (float64, bool, error) {
	var p float64
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&p)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s %v: %w", what, args, err)
	}
	return p, true, nil
}

// ActiveInstruments lists the instruments that have a forward quote in any
// month of [from, to].
func (r *PriceRepository) ActiveInstruments(ctx context.Context, from, to period.MonthCode) ([]product.Canonical, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT instrument
		FROM forward_prices
		WHERE month >= $1 AND month <= $2
		ORDER BY instrument
	`, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("active instruments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []product.Canonical
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan instrument: %w", err)
		}
		out = append(out, product.Canonical(s))
	}
	return out, rows.Err()
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid || t.Time.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
