package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/exposure"
	"github.com/guttosm/mtmengine/internal/logger"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
	"github.com/guttosm/mtmengine/internal/storage"
)

// ExposureResult is one exposure pass over the whole book.
type ExposureResult struct {
	Horizon        period.Horizon
	Products       []product.Canonical
	Report         exposure.Report
	TradesPerMonth []models.MonthTradeCount
}

// ExposureService builds the monthly exposure table.
type ExposureService interface {
	ComputeExposure(ctx context.Context, start period.MonthCode, today time.Time) (*ExposureResult, error)
}

type exposureService struct {
	repo    storage.TradeRepository
	engine  *exposure.Engine
	horizon int
}

// NewExposureService creates an ExposureService. horizonMonths <= 0 falls
// back to the default 13-month horizon.
func NewExposureService(repo storage.TradeRepository, engine *exposure.Engine, horizonMonths int) ExposureService {
	if horizonMonths <= 0 {
		horizonMonths = period.ExposureHorizonMonths
	}
	return &exposureService{repo: repo, engine: engine, horizon: horizonMonths}
}

// ComputeExposure aggregates every stored leg over the horizon starting at
// start (today's month when empty).
func (s *exposureService) ComputeExposure(ctx context.Context, start period.MonthCode, today time.Time) (*ExposureResult, error) {
	if start == "" {
		start = period.MonthOf(today)
	}
	physical, paper, err := loadLegs(ctx, s.repo)
	if err != nil {
		return nil, err
	}

	horizon := period.NewHorizon(start, s.horizon)
	report := s.engine.Compute(physical, paper, horizon)

	log := logger.ForPass("exposure")
	log.Info().
		Str("from", horizon.First().String()).
		Str("to", horizon.Last().String()).
		Int("physical_legs", len(physical)).
		Int("paper_legs", len(paper)).
		Int("skipped", report.SkippedLegCount).
		Msg("exposure computed")

	return &ExposureResult{
		Horizon:        horizon,
		Products:       s.engine.Products(report),
		Report:         report,
		TradesPerMonth: exposure.TradesPerMonth(physical, paper, period.TradesWindow(today)),
	}, nil
}

// loadLegs reads both leg tables concurrently; the first failure cancels the
// other query.
func loadLegs(ctx context.Context, repo storage.TradeRepository) ([]models.PhysicalLeg, []models.PaperLeg, error) {
	var (
		physical []models.PhysicalLeg
		paper    []models.PaperLeg
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		legs, err := repo.ListPhysicalLegs(gctx, nil)
		if err != nil {
			return fmt.Errorf("load physical legs: %w", err)
		}
		physical = legs
		return nil
	})
	g.Go(func() error {
		legs, err := repo.ListPaperLegs(gctx, nil)
		if err != nil {
			return fmt.Errorf("load paper legs: %w", err)
		}
		paper = legs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return physical, paper, nil
}
