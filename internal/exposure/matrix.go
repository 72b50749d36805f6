package exposure

import (
	"strings"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

type field int

const (
	fieldPhysical field = iota
	fieldPricing
	fieldPaper
)

// matrix accumulates raw contributions for the months of a horizon.
// NetExposure is never written here; rows derives it from the cells.
type matrix struct {
	horizon period.Horizon
	cells   map[period.MonthCode]map[product.Canonical]*models.ExposureData
	touched map[product.Canonical]bool
}

func newMatrix(h period.Horizon) *matrix {
	cells := make(map[period.MonthCode]map[product.Canonical]*models.ExposureData, len(h))
	for _, m := range h {
		cells[m] = make(map[product.Canonical]*models.ExposureData)
	}
	return &matrix{horizon: h, cells: cells, touched: make(map[product.Canonical]bool)}
}

// add books v on one cell. Months outside the horizon are dropped.
func (m *matrix) add(month period.MonthCode, p product.Canonical, f field, v float64) {
	row, ok := m.cells[month]
	if !ok {
		return
	}
	cell := row[p]
	if cell == nil {
		cell = &models.ExposureData{}
		row[p] = cell
	}
	switch f {
	case fieldPhysical:
		cell.Physical += v
	case fieldPricing:
		cell.Pricing += v
	case fieldPaper:
		cell.Paper += v
	}
	m.touched[p] = true
}

// rows materializes the horizon in order. Every product touched anywhere
// appears in every month so the matrix is rectangular.
func (m *matrix) rows(mapper *product.Mapper) []models.MonthlyExposure {
	out := make([]models.MonthlyExposure, 0, len(m.horizon))
	for _, month := range m.horizon {
		row := models.MonthlyExposure{
			Month:    month,
			Products: make(map[product.Canonical]models.ExposureData, len(m.touched)),
		}
		for p := range m.touched {
			var cell models.ExposureData
			if c := m.cells[month][p]; c != nil {
				cell = *c
			}
			row.Products[p] = cell
		}
		recompute(&row, mapper)
		out = append(out, row)
	}
	return out
}

// recompute rewrites every cell's net and the month totals from scratch.
func recompute(row *models.MonthlyExposure, mapper *product.Mapper) {
	var totals models.ExposureData
	for p, cell := range row.Products {
		cell.NetExposure = Net(cell.Physical, cell.Pricing, mapper.IsPricingOnly(p))
		row.Products[p] = cell
		totals = totals.Add(cell)
	}
	row.Totals = totals
}

// physicalMonth picks the first non-empty of loading period start, trading
// period and pricing period start. A trading period that is set but does not
// parse yields no month.
func physicalMonth(leg models.PhysicalLeg) (period.MonthCode, bool) {
	if leg.LoadingPeriodStart != nil && !leg.LoadingPeriodStart.IsZero() {
		return period.MonthOf(*leg.LoadingPeriodStart), true
	}
	if !isBlank(leg.TradingPeriod) {
		m, err := period.ParseMonthCode(leg.TradingPeriod)
		return m, err == nil
	}
	if leg.PricingPeriodStart != nil && !leg.PricingPeriodStart.IsZero() {
		return period.MonthOf(*leg.PricingPeriodStart), true
	}
	return "", false
}

// pricingMonth picks the EFP designated month for EFP legs, then trading
// period, then pricing period start.
func pricingMonth(leg models.PhysicalLeg) (period.MonthCode, bool) {
	if leg.PricingType.IsEFP() {
		if m, err := period.ParseMonthCode(leg.EFPDesignatedMonth); err == nil {
			return m, true
		}
	}
	if !isBlank(leg.TradingPeriod) {
		m, err := period.ParseMonthCode(leg.TradingPeriod)
		return m, err == nil
	}
	if leg.PricingPeriodStart != nil && !leg.PricingPeriodStart.IsZero() {
		return period.MonthOf(*leg.PricingPeriodStart), true
	}
	return "", false
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
