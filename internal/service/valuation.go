package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/mtm"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
	"github.com/guttosm/mtmengine/internal/storage"
)

// ErrUnknownLegKind is returned for a leg kind other than physical or paper.
var ErrUnknownLegKind = errors.New("unknown leg kind")

// InstrumentLister lists instruments quoted on the forward curve.
type InstrumentLister interface {
	ActiveInstruments(ctx context.Context, from, to period.MonthCode) ([]product.Canonical, error)
}

// ValuationService marks legs and books to market and exposes the price
// series behind them.
type ValuationService interface {
	ValueLeg(ctx context.Context, kind models.LegKind, id string, today time.Time) (*models.Valuation, error)
	ValueBook(ctx context.Context, today time.Time) (*models.BookValuation, error)
	PriceSeries(ctx context.Context, instrument string, start, end, today time.Time) ([]pricing.DailyPoint, error)
	ActiveInstruments(ctx context.Context, today time.Time) ([]product.Canonical, error)
}

type valuationService struct {
	repo        storage.TradeRepository
	prices      pricing.PriceStore
	instruments InstrumentLister
	mapper      *product.Mapper
	cfg         mtm.Config
}

// NewValuationService creates a ValuationService. instruments may be nil,
// in which case ActiveInstruments returns the vocabulary's products.
func NewValuationService(repo storage.TradeRepository, prices pricing.PriceStore, instruments InstrumentLister, mapper *product.Mapper, cfg mtm.Config) ValuationService {
	return &valuationService{repo: repo, prices: prices, instruments: instruments, mapper: mapper, cfg: cfg}
}

// engine builds a fresh engine per request. The resolver cache lives for one
// pass only; cross-request reuse is the price store's job.
func (s *valuationService) engine(today time.Time) (*mtm.Engine, *pricing.Resolver) {
	r := pricing.NewResolver(s.prices)
	r.Reset(today, today)
	return mtm.NewEngine(s.mapper, r, s.cfg), r
}

func (s *valuationService) ValueLeg(ctx context.Context, kind models.LegKind, id string, today time.Time) (*models.Valuation, error) {
	e, _ := s.engine(today)

	switch models.LegKind(strings.ToLower(string(kind))) {
	case models.KindPhysical, "":
		leg, err := s.repo.GetPhysicalLeg(ctx, id)
		if err != nil {
			return nil, err
		}
		v, err := e.ComputeLegMTM(ctx, *leg, today)
		if err != nil {
			return nil, fmt.Errorf("value physical leg %s: %w", id, err)
		}
		return &v, nil
	case models.KindPaper:
		leg, err := s.repo.GetPaperLeg(ctx, id)
		if err != nil {
			return nil, err
		}
		v, err := e.ComputePaperMTM(ctx, *leg, today)
		if err != nil {
			return nil, fmt.Errorf("value paper leg %s: %w", id, err)
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownLegKind, kind)
	}
}

func (s *valuationService) ValueBook(ctx context.Context, today time.Time) (*models.BookValuation, error) {
	physical, paper, err := loadLegs(ctx, s.repo)
	if err != nil {
		return nil, err
	}
	e, _ := s.engine(today)
	book, err := e.ValueBook(ctx, physical, paper, today)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// PriceSeries returns one point per working day of [start, end]. Reversed
// ranges are swapped.
func (s *valuationService) PriceSeries(ctx context.Context, instrument string, start, end, today time.Time) ([]pricing.DailyPoint, error) {
	start, end = period.Normalize(start, end)
	_, r := s.engine(today)
	return r.DailySeries(ctx, s.mapper.Canonical(instrument), start, end, today)
}

// ActiveInstruments lists instruments with forward quotes over the exposure
// horizon starting at today's month.
func (s *valuationService) ActiveInstruments(ctx context.Context, today time.Time) ([]product.Canonical, error) {
	if s.instruments == nil {
		return s.mapper.Products(), nil
	}
	h := period.ExposureHorizon(today)
	return s.instruments.ActiveInstruments(ctx, h.First(), h.Last())
}
