// Package exposure aggregates physical and paper trade legs into a monthly
// exposure matrix per canonical product.
package exposure

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/formula"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/metrics"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// positionSign is the aggregation direction factor: exposure tracks position
// direction, so buys add and sells subtract. The valuation engine uses the
// opposite convention for P&L; the two must not be shared.
func positionSign(d models.Direction) float64 {
	if d.IsSell() {
		return -1
	}
	return 1
}

// Net is the net exposure of one cell. Pricing-only instruments carry their
// net in the pricing figure alone; every other product nets physical and
// pricing.
func Net(physical, pricing float64, pricingOnly bool) float64 {
	if pricingOnly {
		return pricing
	}
	return physical + pricing
}

// Config tunes an Engine.
//
// Fields:
//   - ProratePricingPeriods: when a pricing formula declares pricing
//     exposures without a monthly distribution and the leg has a full
//     pricing period, prorate the exposures over the period's working days
//     instead of booking them in a single month.
type Config struct {
	ProratePricingPeriods bool
}

// Report is the result of one aggregation pass.
type Report struct {
	Monthly         []models.MonthlyExposure
	Grand           models.GrandTotals
	Group           models.GroupTotals
	SkippedLegCount int
	Skipped         []models.SkippedLeg
}

// Engine is the exposure aggregation engine. It is stateless between calls
// and safe for concurrent use.
type Engine struct {
	mapper *product.Mapper
	cfg    Config
	log    zerolog.Logger
}

// NewEngine creates an Engine keyed by mapper's vocabulary.
func NewEngine(mapper *product.Mapper, cfg Config) *Engine {
	return &Engine{mapper: mapper, cfg: cfg, log: logger.With("exposure")}
}

// Compute aggregates every leg into the months of horizon.
//
// Behavior:
//   - Contributions to months outside the horizon are dropped.
//   - Legs with no resolvable month are skipped and listed in the report.
//   - Net exposure, month totals, grand totals and group totals are all
//     recomputed from the cells after the last leg is applied.
func (e *Engine) Compute(physical []models.PhysicalLeg, paper []models.PaperLeg, horizon period.Horizon) Report {
	defer metrics.ObservePass("exposure", time.Now())

	m := newMatrix(horizon)
	var skipped []models.SkippedLeg
	for _, leg := range physical {
		if reason, ok := e.applyPhysical(m, leg); !ok {
			skipped = append(skipped, models.SkippedLeg{ID: leg.ID, Kind: models.KindPhysical, Reason: reason})
		}
	}
	for _, leg := range paper {
		if reason, ok := e.applyPaper(m, leg); !ok {
			skipped = append(skipped, models.SkippedLeg{ID: leg.ID, Kind: models.KindPaper, Reason: reason})
		}
	}

	for _, s := range skipped {
		metrics.SkippedLegs.WithLabelValues(string(s.Kind)).Inc()
		e.log.Debug().Str("leg_id", s.ID).Str("kind", string(s.Kind)).Str("reason", s.Reason).Msg("leg skipped")
	}

	monthly := m.rows(e.mapper)
	grand, group := e.totals(monthly)
	return Report{
		Monthly:         monthly,
		Grand:           grand,
		Group:           group,
		SkippedLegCount: len(skipped),
		Skipped:         skipped,
	}
}

func (e *Engine) applyPhysical(m *matrix, leg models.PhysicalLeg) (string, bool) {
	if !isBlank(leg.TradingPeriod) {
		if _, err := period.ParseMonthCode(leg.TradingPeriod); err != nil {
			return "unparsable trading period", false
		}
	}
	physMonth, ok := physicalMonth(leg)
	if !ok {
		return "no loading, trading or pricing period", false
	}
	sign := positionSign(leg.Direction)

	if leg.MTMFormula.Exposures.HasPhysical() {
		for instrument, v := range leg.MTMFormula.Exposures.Physical {
			m.add(physMonth, instrument, fieldPhysical, v)
		}
	} else {
		m.add(physMonth, e.mapper.Canonical(leg.Product), fieldPhysical, leg.Quantity*sign)
	}

	f := leg.PricingFormula
	if e.cfg.ProratePricingPeriods && leg.PricingPeriodStart != nil && leg.PricingPeriodEnd != nil {
		f = formula.Distribute(f, *leg.PricingPeriodStart, *leg.PricingPeriodEnd)
	}

	// Explicit distributions are authoritative per instrument; anything else
	// declared under exposures.pricing lands in the single pricing month.
	for instrument, months := range f.MonthlyDistribution {
		for month, v := range months {
			m.add(month, instrument, fieldPricing, v)
		}
	}
	if f.Exposures.HasPricing() {
		priceMonth, ok := pricingMonth(leg)
		if !ok {
			priceMonth = physMonth
		}
		for instrument, v := range f.Exposures.Pricing {
			if _, explicit := f.MonthlyDistribution[instrument]; explicit {
				continue
			}
			m.add(priceMonth, instrument, fieldPricing, v)
		}
	}
	return "", true
}

func (e *Engine) applyPaper(m *matrix, leg models.PaperLeg) (string, bool) {
	month, err := period.ParseMonthCode(leg.Period)
	if err != nil {
		return "missing or invalid period", false
	}
	sign := positionSign(leg.Direction)
	qty := leg.Quantity * sign

	switch {
	case !isBlank(leg.Instrument):
		d := e.mapper.ParsePaperInstrument(leg.Instrument)
		m.add(month, d.Base, fieldPaper, qty)
		m.add(month, d.Base, fieldPricing, qty)
		if d.HasOpposite {
			m.add(month, d.Opposite, fieldPaper, -qty)
			m.add(month, d.Opposite, fieldPricing, -qty)
		}
	case leg.Exposures != nil && !leg.Exposures.IsEmpty():
		applyPaperExposures(m, month, *leg.Exposures, 1)
	case !leg.MTMFormula.Exposures.IsEmpty():
		applyPaperExposures(m, month, leg.MTMFormula.Exposures, sign)
	default:
		m.add(month, e.mapper.Canonical(leg.Product), fieldPaper, qty)
		m.add(month, e.mapper.Canonical(leg.Product), fieldPricing, qty)
	}
	return "", true
}

// applyPaperExposures books explicit exposure maps for a paper leg. A
// physical weight counts as paper, and as pricing too unless the same
// instrument has its own pricing weight.
func applyPaperExposures(m *matrix, month period.MonthCode, x formula.Exposures, scale float64) {
	for instrument, v := range x.Physical {
		m.add(month, instrument, fieldPaper, v*scale)
		if _, priced := x.Pricing[instrument]; !priced {
			m.add(month, instrument, fieldPricing, v*scale)
		}
	}
	for instrument, v := range x.Pricing {
		m.add(month, instrument, fieldPricing, v*scale)
	}
}

func (e *Engine) totals(monthly []models.MonthlyExposure) (models.GrandTotals, models.GroupTotals) {
	grand := models.GrandTotals{ProductTotals: make(map[product.Canonical]models.ExposureData)}
	var group models.GroupTotals
	for _, row := range monthly {
		for p, cell := range row.Products {
			grand.ProductTotals[p] = grand.ProductTotals[p].Add(cell)
			if e.mapper.IsBiodiesel(p) {
				group.Biodiesel = group.Biodiesel.Add(cell)
			} else {
				group.PricingInstrument = group.PricingInstrument.Add(cell)
			}
		}
		grand.TotalPhysical += row.Totals.Physical
		grand.TotalPricing += row.Totals.Pricing
		grand.TotalPaper += row.Totals.Paper
		grand.TotalNet += row.Totals.NetExposure
	}
	group.TotalRow = group.Biodiesel.Add(group.PricingInstrument)
	return grand, group
}

// Products returns the products present in a report's grand totals, with
// vocabulary products first in vocabulary order and the rest sorted by name.
func (e *Engine) Products(r Report) []product.Canonical {
	seen := make(map[product.Canonical]bool)
	var out []product.Canonical
	for _, p := range e.mapper.Products() {
		if _, ok := r.Grand.ProductTotals[p]; ok {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []product.Canonical
	for p := range r.Grand.ProductTotals {
		if !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}
