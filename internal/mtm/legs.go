package mtm

import (
	"strings"
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// pricingWindow returns the range a physical leg prices over: the pricing
// period, else the loading period, else the trading period month, else for
// EFP legs the designated contract month. A range with only one bound set
// collapses to that day.
func pricingWindow(leg models.PhysicalLeg) (time.Time, time.Time, bool) {
	if s, e, ok := bounds(leg.PricingPeriodStart, leg.PricingPeriodEnd); ok {
		return s, e, true
	}
	if s, e, ok := bounds(leg.LoadingPeriodStart, leg.LoadingPeriodEnd); ok {
		return s, e, true
	}
	if m, err := period.ParseMonthCode(leg.TradingPeriod); err == nil {
		return m.Start(), m.End(), true
	}
	if leg.PricingType.IsEFP() {
		if m, err := period.ParseMonthCode(leg.EFPDesignatedMonth); err == nil {
			return m.Start(), m.End(), true
		}
	}
	return time.Time{}, time.Time{}, false
}

func bounds(start, end *time.Time) (time.Time, time.Time, bool) {
	hasStart, hasEnd := start != nil && !start.IsZero(), end != nil && !end.IsZero()
	switch {
	case hasStart && hasEnd:
		return *start, *end, true
	case hasStart:
		return *start, *start, true
	case hasEnd:
		return *end, *end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func missingBoth(i product.Canonical, m period.MonthCode) []models.MissingPrice {
	return []models.MissingPrice{
		{Instrument: i, Month: m, Role: models.RoleTrade},
		{Instrument: i, Month: m, Role: models.RoleMTM},
	}
}

func withRole(in []models.MissingPrice, role models.PriceRole) []models.MissingPrice {
	out := make([]models.MissingPrice, 0, len(in))
	for _, m := range in {
		m.Role = role
		out = append(out, m)
	}
	return out
}

func dropRole(in []models.MissingPrice, role models.PriceRole) []models.MissingPrice {
	var out []models.MissingPrice
	for _, m := range in {
		if m.Role != role {
			out = append(out, m)
		}
	}
	return out
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
