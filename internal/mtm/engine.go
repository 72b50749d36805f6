// Package mtm values single trade legs against market prices.
//
// A valuation yields the leg's trade price, its mark-to-market price and
// mtmValue = (tradePrice - mtmPrice) × quantity × valuationSign. A leg whose
// prices cannot all be found is reported as unresolved, never priced at zero.
package mtm

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/formula"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/metrics"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
)

// valuationSign is the P&L direction factor: -1 for buys, +1 for sells.
// It is deliberately the inverse of the exposure engine's position sign.
func valuationSign(d models.Direction) float64 {
	if d.IsSell() {
		return 1
	}
	return -1
}

// Config tunes an Engine.
type Config struct {
	// EFPInstrument is the futures contract EFP legs are priced against.
	EFPInstrument product.Canonical
}

// Engine is the MTM valuation engine.
type Engine struct {
	mapper   *product.Mapper
	resolver *pricing.Resolver
	cfg      Config
	log      zerolog.Logger
}

// NewEngine creates an Engine. An empty EFPInstrument defaults to ICE gasoil
// futures. Engines are built per valuation pass and log under their own
// pass id.
func NewEngine(mapper *product.Mapper, resolver *pricing.Resolver, cfg Config) *Engine {
	if cfg.EFPInstrument == "" {
		cfg.EFPInstrument = product.ICEGasoil
	}
	return &Engine{mapper: mapper, resolver: resolver, cfg: cfg, log: logger.ForPass("mtm")}
}

// ComputeLegMTM values one physical leg as of today.
//
// Behavior:
//   - The pricing period is normalized so start <= end and classified
//     against today.
//   - EFP legs price off the EFP futures contract plus premium.
//   - Other legs evaluate the pricing formula for the trade price and the
//     MTM formula (falling back to the pricing formula) for the MTM price.
//   - Past periods read monthly averages, all others forward quotes.
//
// Returns an error only when the price store fails.
func (e *Engine) ComputeLegMTM(ctx context.Context, leg models.PhysicalLeg, today time.Time) (models.Valuation, error) {
	v := models.Valuation{LegID: leg.ID, Kind: models.KindPhysical}

	start, end, ok := pricingWindow(leg)
	if !ok {
		return e.unresolved(v, "no pricing period"), nil
	}
	start, end = period.Normalize(start, end)
	v.PeriodType = period.Classify(start, end, today)

	var q quotes
	var err error
	if leg.PricingType.IsEFP() {
		q, err = e.efpQuotes(ctx, leg, start, today)
	} else {
		q, err = e.formulaQuotes(ctx, leg, start, end, v.PeriodType)
	}
	if err != nil {
		return models.Valuation{}, err
	}
	return e.finish(v, q, leg.Quantity, leg.Direction), nil
}

// ComputePaperMTM values one paper leg as of today. DIFF and SPREAD codes
// price as left minus right, each side resolved on its own; the agreed
// price, when set, is the trade price.
func (e *Engine) ComputePaperMTM(ctx context.Context, leg models.PaperLeg, today time.Time) (models.Valuation, error) {
	v := models.Valuation{LegID: leg.ID, Kind: models.KindPaper}

	month, err := period.ParseMonthCode(leg.Period)
	if err != nil {
		return e.unresolved(v, "missing or invalid period"), nil
	}
	v.PeriodType = period.ClassifyMonth(month, today)

	var q quotes
	switch {
	case !isBlank(leg.Instrument):
		q, err = e.instrumentQuotes(ctx, e.mapper.ParsePaperInstrument(leg.Instrument), month, v.PeriodType)
	case !leg.MTMFormula.IsEmpty():
		var price float64
		var missing []models.MissingPrice
		price, missing, err = e.evaluate(ctx, leg.MTMFormula, month.Start(), month.End(), v.PeriodType, models.RoleMTM)
		q = quotes{trade: price, mtm: price, missing: append(withRole(missing, models.RoleTrade), missing...)}
	default:
		base := e.mapper.Canonical(leg.Product)
		q, err = e.instrumentQuotes(ctx, product.Descriptor{Base: base, Relationship: product.FP}, month, v.PeriodType)
	}
	if err != nil {
		return models.Valuation{}, err
	}

	if leg.Price != nil {
		q.trade = *leg.Price
		q.missing = dropRole(q.missing, models.RoleTrade)
	}
	return e.finish(v, q, leg.Quantity, leg.Direction), nil
}

// quotes carries the two prices of a valuation and what was missing.
// noTrade and noMTM mark a side with nothing to price from.
type quotes struct {
	trade, mtm     float64
	missing        []models.MissingPrice
	note           string
	noTrade, noMTM bool
}

// priced reports whether the side for role resolved.
func (q quotes) priced(role models.PriceRole) bool {
	if (role == models.RoleTrade && q.noTrade) || (role == models.RoleMTM && q.noMTM) {
		return false
	}
	for _, m := range q.missing {
		if m.Role == role {
			return false
		}
	}
	return true
}

func (e *Engine) efpQuotes(ctx context.Context, leg models.PhysicalLeg, start, today time.Time) (quotes, error) {
	month, err := period.ParseMonthCode(leg.EFPDesignatedMonth)
	if err != nil {
		month = period.MonthOf(start)
	}
	// An expired designated contract marks against the current month.
	mtmMonth := month
	if current := period.MonthOf(today); month.Before(current) {
		mtmMonth = current
	}

	var q quotes
	fut, ok, err := e.resolver.EFPPrice(ctx, e.cfg.EFPInstrument, mtmMonth)
	if err != nil {
		return q, err
	}
	if ok {
		q.mtm = fut + leg.EFPPremium
	} else {
		q.missing = append(q.missing, models.MissingPrice{Instrument: e.cfg.EFPInstrument, Month: mtmMonth, Role: models.RoleMTM})
	}

	if leg.EFPAgreedStatus {
		if leg.EFPFixedValue == nil {
			q.note = "agreed EFP without fixed value"
			q.missing = append(q.missing, models.MissingPrice{Instrument: e.cfg.EFPInstrument, Month: month, Role: models.RoleTrade})
			return q, nil
		}
		q.trade = *leg.EFPFixedValue + leg.EFPPremium
		return q, nil
	}

	ref, ok, err := e.resolver.EFPPrice(ctx, e.cfg.EFPInstrument, month)
	if err != nil {
		return q, err
	}
	if !ok {
		q.missing = append(q.missing, models.MissingPrice{Instrument: e.cfg.EFPInstrument, Month: month, Role: models.RoleTrade})
		return q, nil
	}
	q.trade = ref + leg.EFPPremium
	return q, nil
}

func (e *Engine) formulaQuotes(ctx context.Context, leg models.PhysicalLeg, start, end time.Time, pt period.Type) (quotes, error) {
	var q quotes
	trade := leg.PricingFormula
	mark := leg.MTMFormula
	if mark.IsEmpty() {
		mark = trade
	}
	if trade.IsEmpty() && mark.IsEmpty() {
		q.note, q.noTrade, q.noMTM = "no pricing formula", true, true
		return q, nil
	}

	if trade.IsEmpty() {
		q.note, q.noTrade = "no pricing formula", true
	} else {
		p, missing, err := e.evaluate(ctx, trade, start, end, pt, models.RoleTrade)
		if err != nil {
			return q, err
		}
		q.trade, q.missing = p, append(q.missing, missing...)
	}

	// The MTM side follows the same rule as the trade side: the period's own
	// type decides the source. MTMFutureMonth pins it to one forward month.
	var p float64
	var missing []models.MissingPrice
	var err error
	if fm, perr := period.ParseMonthCode(leg.MTMFutureMonth); perr == nil && pt != period.Past {
		p, missing, err = e.evaluate(ctx, mark, fm.Start(), fm.End(), period.Future, models.RoleMTM)
	} else {
		p, missing, err = e.evaluate(ctx, mark, start, end, pt, models.RoleMTM)
	}
	if err != nil {
		return q, err
	}
	q.mtm, q.missing = p, append(q.missing, missing...)
	return q, nil
}

func (e *Engine) instrumentQuotes(ctx context.Context, d product.Descriptor, month period.MonthCode, pt period.Type) (quotes, error) {
	var q quotes
	left, ok, err := e.resolver.Price(ctx, d.Base, month, pt)
	if err != nil {
		return q, err
	}
	if !ok {
		q.missing = append(q.missing, missingBoth(d.Base, month)...)
	}
	price := left
	if d.HasOpposite {
		right, ok, err := e.resolver.Price(ctx, d.Opposite, month, pt)
		if err != nil {
			return q, err
		}
		if !ok {
			q.missing = append(q.missing, missingBoth(d.Opposite, month)...)
		}
		price = left - right
	}
	q.trade, q.mtm = price, price
	return q, nil
}

// evaluate resolves every instrument of f over [start, end] and applies it.
// Every month of the period must be priced: one MissingPrice is reported per
// month without a quote.
func (e *Engine) evaluate(ctx context.Context, f formula.PricingFormula, start, end time.Time, pt period.Type, role models.PriceRole) (float64, []models.MissingPrice, error) {
	var lookupErr error
	gaps := make(map[product.Canonical][]period.MonthCode)
	price, unpriced := formula.Resolve(f, func(i product.Canonical) (float64, bool) {
		if lookupErr != nil {
			return 0, false
		}
		p, missingMonths, err := e.resolver.PeriodPrice(ctx, i, start, end, pt)
		if err != nil {
			lookupErr = err
			return 0, false
		}
		if len(missingMonths) > 0 {
			gaps[i] = missingMonths
			return p, false
		}
		return p, true
	})
	if lookupErr != nil {
		return 0, nil, lookupErr
	}
	var missing []models.MissingPrice
	for _, i := range unpriced {
		months := gaps[i]
		if len(months) == 0 {
			months = []period.MonthCode{period.MonthOf(start)}
		}
		for _, m := range months {
			missing = append(missing, models.MissingPrice{Instrument: i, Month: m, Role: role})
		}
	}
	return price, missing, nil
}

// finish keeps whichever side resolved; the value needs both.
func (e *Engine) finish(v models.Valuation, q quotes, quantity float64, d models.Direction) models.Valuation {
	v.Note = q.note
	v.Missing = q.missing
	if q.priced(models.RoleTrade) {
		v.TradePrice, v.TradeResolved = q.trade, true
	}
	if q.priced(models.RoleMTM) {
		v.MTMPrice, v.MTMResolved = q.mtm, true
	}
	if !v.TradeResolved || !v.MTMResolved {
		v.Status = models.StatusUnresolved
		metrics.UnresolvedValuations.Inc()
		e.log.Debug().Str("leg_id", v.LegID).Int("missing", len(q.missing)).Str("note", q.note).Msg("valuation unresolved")
		return v
	}
	v.Status = models.StatusResolved
	v.MTMValue = (q.trade - q.mtm) * quantity * valuationSign(d)
	return v
}

func (e *Engine) unresolved(v models.Valuation, note string) models.Valuation {
	v.Status = models.StatusUnresolved
	v.Note = note
	metrics.UnresolvedValuations.Inc()
	e.log.Debug().Str("leg_id", v.LegID).Str("note", note).Msg("valuation unresolved")
	return v
}
