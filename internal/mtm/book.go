package mtm

import (
	"context"
	"fmt"
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/metrics"
)

// ValueBook values every leg of a book as of today in one pass, so legs that
// share an instrument and month see the same price. Unresolved legs are
// listed but left out of the total.
func (e *Engine) ValueBook(ctx context.Context, physical []models.PhysicalLeg, paper []models.PaperLeg, today time.Time) (models.BookValuation, error) {
	defer metrics.ObservePass("mtm", time.Now())
	e.resolver.Reset(today, today)

	out := models.BookValuation{Valuations: make([]models.Valuation, 0, len(physical)+len(paper))}
	add := func(v models.Valuation) {
		out.Valuations = append(out.Valuations, v)
		if v.Resolved() {
			out.TotalMTMValue += v.MTMValue
		} else {
			out.Unresolved++
		}
	}

	for _, leg := range physical {
		v, err := e.ComputeLegMTM(ctx, leg, today)
		if err != nil {
			return models.BookValuation{}, fmt.Errorf("value physical leg %s: %w", leg.ID, err)
		}
		add(v)
	}
	for _, leg := range paper {
		v, err := e.ComputePaperMTM(ctx, leg, today)
		if err != nil {
			return models.BookValuation{}, fmt.Errorf("value paper leg %s: %w", leg.ID, err)
		}
		add(v)
	}

	e.log.Info().Int("legs", len(out.Valuations)).Int("unresolved", out.Unresolved).Float64("total_mtm_value", out.TotalMTMValue).Msg("book valued")
	return out, nil
}
