// Package pricing resolves instrument prices for a period from an external
// price store, following the past → monthly average / otherwise → forward
// selection rule.
package pricing

import (
	"context"
	"time"

	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// PriceStore is the price-table collaborator the resolver consumes.
//
// Every method returns ok=false (and a nil error) when no row exists; an
// error is reserved for infrastructure failures.
type PriceStore interface {
	// MonthlyAveragePrice is the arithmetic mean of the historical daily
	// prices recorded for instrument within month.
	MonthlyAveragePrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error)

	// ForwardPrice is the single forward-curve quote for instrument/month.
	ForwardPrice(ctx context.Context, instrument product.Canonical, month period.MonthCode) (float64, bool, error)

	// DailyPrice is the historical price recorded for instrument on day.
	DailyPrice(ctx context.Context, instrument product.Canonical, day time.Time) (float64, bool, error)
}

// Source names the price table a value was read from.
type Source string

const (
	SourceMonthlyAverage Source = "monthly_average"
	SourceForward        Source = "forward"
	SourceDaily          Source = "daily"
)

// SourceFor applies the selection rule: past periods use the historical
// monthly average, current and future periods use the forward curve.
func SourceFor(t period.Type) Source {
	if t == period.Past {
		return SourceMonthlyAverage
	}
	return SourceForward
}
