package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/formula"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/metrics"
)

// ErrLegNotFound is returned when a leg id does not exist.
var ErrLegNotFound = errors.New("trade leg not found")

// TradeRepository defines the read contract for trade legs.
type TradeRepository interface {
	ListPhysicalLegs(ctx context.Context, ids []string) ([]models.PhysicalLeg, error)
	ListPaperLegs(ctx context.Context, ids []string) ([]models.PaperLeg, error)
	GetPhysicalLeg(ctx context.Context, id string) (*models.PhysicalLeg, error)
	GetPaperLeg(ctx context.Context, id string) (*models.PaperLeg, error)
}

type tradeRepository struct {
	db    *sql.DB
	canon formula.Canonicalizer
	log   zerolog.Logger
}

// NewTradeRepository creates a Postgres-backed TradeRepository. Formulas are
// parsed on read with canon so legs leave storage fully typed.
func NewTradeRepository(db *sql.DB, canon formula.Canonicalizer) TradeRepository {
	return &tradeRepository{db: db, canon: canon, log: logger.With("storage")}
}

const physicalColumns = `
	id, trade_reference, buy_sell, product, quantity,
	loading_period_start, loading_period_end, trading_period,
	pricing_period_start, pricing_period_end, pricing_type,
	efp_agreed_status, efp_fixed_value, efp_premium, efp_designated_month,
	pricing_formula, mtm_formula, mtm_future_month`

const paperColumns = `
	id, trade_reference, buy_sell, instrument, product, quantity,
	period, price, exposures, mtm_formula`

// ListPhysicalLegs returns physical legs, all of them when ids is empty.
func (r *tradeRepository) ListPhysicalLegs(ctx context.Context, ids []string) ([]models.PhysicalLeg, error) {
	query, args := listQuery("physical_trade_legs", physicalColumns, ids)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list physical legs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.PhysicalLeg
	for rows.Next() {
		leg, err := r.scanPhysical(rows)
		if err != nil {
			return nil, fmt.Errorf("scan physical leg: %w", err)
		}
		out = append(out, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list physical legs: %w", err)
	}
	return out, nil
}

// ListPaperLegs returns paper legs, all of them when ids is empty.
func (r *tradeRepository) ListPaperLegs(ctx context.Context, ids []string) ([]models.PaperLeg, error) {
	query, args := listQuery("paper_trade_legs", paperColumns, ids)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list paper legs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.PaperLeg
	for rows.Next() {
		leg, err := r.scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper leg: %w", err)
		}
		out = append(out, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list paper legs: %w", err)
	}
	return out, nil
}

// GetPhysicalLeg returns one physical leg or ErrLegNotFound.
func (r *tradeRepository) GetPhysicalLeg(ctx context.Context, id string) (*models.PhysicalLeg, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+physicalColumns+` FROM physical_trade_legs WHERE id = $1`, id)
	leg, err := r.scanPhysical(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLegNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get physical leg %s: %w", id, err)
	}
	return &leg, nil
}

// GetPaperLeg returns one paper leg or ErrLegNotFound.
func (r *tradeRepository) GetPaperLeg(ctx context.Context, id string) (*models.PaperLeg, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paperColumns+` FROM paper_trade_legs WHERE id = $1`, id)
	leg, err := r.scanPaper(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLegNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get paper leg %s: %w", id, err)
	}
	return &leg, nil
}

// listQuery builds the SELECT for a leg table. An id filter is passed as a
// single text[] parameter.
func listQuery(table, columns string, ids []string) (string, []interface{}) {
	query := fmt.Sprintf(`SELECT %s FROM %s`, columns, table)
	if len(ids) == 0 {
		return query + ` ORDER BY id`, nil
	}
	return query + ` WHERE id = ANY($1) ORDER BY id`, []interface{}{pq.Array(ids)}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *tradeRepository) scanPhysical(s scanner) (models.PhysicalLeg, error) {
	var (
		leg                                      models.PhysicalLeg
		side, pricingType                        string
		product, tradingPeriod                   sql.NullString
		designated, futureMonth                  sql.NullString
		loadStart, loadEnd, priceStart, priceEnd sql.NullTime
		fixed                                    sql.NullFloat64
		pricingRaw, mtmRaw                       []byte
	)
	if err := s.Scan(
		&leg.ID, &leg.TradeReference, &side, &product, &leg.Quantity,
		&loadStart, &loadEnd, &tradingPeriod,
		&priceStart, &priceEnd, &pricingType,
		&leg.EFPAgreedStatus, &fixed, &leg.EFPPremium, &designated,
		&pricingRaw, &mtmRaw, &futureMonth,
	); err != nil {
		return models.PhysicalLeg{}, err
	}

	leg.Direction = models.ParseDirection(side)
	leg.Product = product.String
	leg.LoadingPeriodStart = timePtr(loadStart)
	leg.LoadingPeriodEnd = timePtr(loadEnd)
	leg.TradingPeriod = tradingPeriod.String
	leg.PricingPeriodStart = timePtr(priceStart)
	leg.PricingPeriodEnd = timePtr(priceEnd)
	leg.PricingType = models.PricingType(pricingType)
	leg.EFPDesignatedMonth = designated.String
	leg.MTMFutureMonth = futureMonth.String
	if fixed.Valid {
		v := fixed.Float64
		leg.EFPFixedValue = &v
	}
	leg.PricingFormula = r.decode(leg.ID, "pricing_formula", pricingRaw)
	leg.MTMFormula = r.decode(leg.ID, "mtm_formula", mtmRaw)
	return leg, nil
}

func (r *tradeRepository) scanPaper(s scanner) (models.PaperLeg, error) {
	var (
		leg                         models.PaperLeg
		side                        string
		instrument, product, period sql.NullString
		price                       sql.NullFloat64
		exposuresRaw, mtmRaw        []byte
	)
	if err := s.Scan(
		&leg.ID, &leg.TradeReference, &side, &instrument, &product, &leg.Quantity,
		&period, &price, &exposuresRaw, &mtmRaw,
	); err != nil {
		return models.PaperLeg{}, err
	}

	leg.Direction = models.ParseDirection(side)
	leg.Instrument = instrument.String
	leg.Product = product.String
	leg.Period = period.String
	if price.Valid {
		v := price.Float64
		leg.Price = &v
	}
	if x, ok := formula.ParseExposures(exposuresRaw, r.canon); ok {
		leg.Exposures = &x
	}
	leg.MTMFormula = r.decode(leg.ID, "mtm_formula", mtmRaw)
	return leg, nil
}

// decode parses a stored formula. Malformed payloads become the empty
// formula so one bad row never fails a whole book.
func (r *tradeRepository) decode(id, field string, raw []byte) formula.PricingFormula {
	f, ok := formula.Decode(raw, r.canon)
	if !ok {
		metrics.MalformedFormulas.WithLabelValues(field).Inc()
		r.log.Debug().Str("leg_id", id).Str("field", field).Msg("malformed formula replaced by empty formula")
	}
	return f
}
