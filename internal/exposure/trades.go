package exposure

import (
	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/period"
)

// TradesPerMonth counts legs per month of window. Physical legs are placed
// by the same month priority as physical exposure; paper legs by their
// period. Legs outside the window or without a month are not counted.
func TradesPerMonth(physical []models.PhysicalLeg, paper []models.PaperLeg, window period.Horizon) []models.MonthTradeCount {
	idx := make(map[period.MonthCode]int, len(window))
	out := make([]models.MonthTradeCount, len(window))
	for i, m := range window {
		idx[m] = i
		out[i].Month, out[i].Label = m, m.Label()
	}
	for _, leg := range physical {
		if m, ok := physicalMonth(leg); ok {
			if i, in := idx[m]; in {
				out[i].Physical++
			}
		}
	}
	for _, leg := range paper {
		if m, err := period.ParseMonthCode(leg.Period); err == nil {
			if i, in := idx[m]; in {
				out[i].Paper++
			}
		}
	}
	return out
}
