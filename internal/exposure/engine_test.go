package exposure

import (
	"math"
	"testing"
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/formula"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

var (
	defaultMapper = product.NewMapper(product.DefaultVocabulary())
	horizon       = period.NewHorizon("2024-06", period.ExposureHorizonMonths)
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func f(raw string) formula.PricingFormula { return formula.Parse([]byte(raw), defaultMapper) }

func cell(r Report, month period.MonthCode, p product.Canonical) models.ExposureData {
	for _, row := range r.Monthly {
		if row.Month == month {
			return row.Products[p]
		}
	}
	return models.ExposureData{}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCompute_SimplePhysicalLeg(t *testing.T) {
	// Empty vocabulary: "UCOME" stays "UCOME".
	e := NewEngine(product.NewMapper(product.Vocabulary{}), Config{})
	r := e.Compute([]models.PhysicalLeg{{
		ID: "p1", Direction: models.Buy, Product: "UCOME", Quantity: 1000,
		LoadingPeriodStart: date(2024, 6, 10),
	}}, nil, horizon)

	if len(r.Monthly) != 13 {
		t.Fatalf("expected 13 months, got %d", len(r.Monthly))
	}
	for _, row := range r.Monthly {
		want := 0.0
		if row.Month == "2024-06" {
			want = 1000
		}
		if got := row.Products["UCOME"].Physical; got != want {
			t.Fatalf("%s physical=%v want %v", row.Month, got, want)
		}
	}
	if r.SkippedLegCount != 0 {
		t.Fatalf("unexpected skipped legs: %+v", r.Skipped)
	}
}

func TestCompute_PhysicalMonthPriority(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	cases := []struct {
		name string
		leg  models.PhysicalLeg
		want period.MonthCode
	}{
		{"loading wins", models.PhysicalLeg{LoadingPeriodStart: date(2024, 7, 3), TradingPeriod: "Aug-24", PricingPeriodStart: date(2024, 9, 1)}, "2024-07"},
		{"then trading period", models.PhysicalLeg{TradingPeriod: "Aug-24", PricingPeriodStart: date(2024, 9, 1)}, "2024-08"},
		{"then pricing start", models.PhysicalLeg{PricingPeriodStart: date(2024, 9, 1)}, "2024-09"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.leg.Product, tc.leg.Quantity, tc.leg.Direction = "RME", 100, models.Sell
			r := e.Compute([]models.PhysicalLeg{tc.leg}, nil, horizon)
			if got := cell(r, tc.want, product.ArgusRME).Physical; got != -100 {
				t.Fatalf("physical in %s = %v want -100", tc.want, got)
			}
			if r.Grand.TotalPhysical != -100 {
				t.Fatalf("leg booked more than once: %v", r.Grand.TotalPhysical)
			}
		})
	}
}

func TestCompute_MTMFormulaReplacesPhysical(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	leg := models.PhysicalLeg{
		ID: "p1", Direction: models.Buy, Product: "UCOME", Quantity: 1000,
		LoadingPeriodStart: date(2024, 6, 1),
		MTMFormula:         f(`{"tokens":[{"type":"instrument","value":"UCOME"}],"exposures":{"physical":{"FAME0":950,"GASOIL":-50}}}`),
	}
	r := e.Compute([]models.PhysicalLeg{leg}, nil, horizon)
	if got := cell(r, "2024-06", product.ArgusUCOME).Physical; got != 0 {
		t.Fatalf("own product should not be booked when overridden, got %v", got)
	}
	if cell(r, "2024-06", product.ArgusFAME0).Physical != 950 || cell(r, "2024-06", product.ICEGasoil).Physical != -50 {
		t.Fatalf("formula physical exposures not applied: %+v", r.Monthly[0].Products)
	}
}

func TestCompute_PricingExposures(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	efp := models.PhysicalLeg{
		ID: "efp", Direction: models.Buy, Product: "FAME0", Quantity: 1000,
		LoadingPeriodStart: date(2024, 6, 15),
		TradingPeriod:      "2024-07",
		PricingType:        models.PricingEFP,
		EFPDesignatedMonth: "Sep-24",
		PricingFormula:     f(`{"tokens":[{"type":"instrument","value":"GASOIL"}],"exposures":{"pricing":{"GASOIL":-1000}}}`),
	}
	std := efp
	std.ID, std.PricingType = "std", models.PricingStandard

	r := e.Compute([]models.PhysicalLeg{efp, std}, nil, horizon)
	if got := cell(r, "2024-09", product.ICEGasoil).Pricing; got != -1000 {
		t.Fatalf("EFP pricing should land in designated month, got %v", got)
	}
	if got := cell(r, "2024-07", product.ICEGasoil).Pricing; got != -1000 {
		t.Fatalf("standard pricing should land in trading period, got %v", got)
	}
	if got := cell(r, "2024-06", product.ICEGasoil).Pricing; got != 0 {
		t.Fatalf("pricing must not follow the loading month, got %v", got)
	}
}

func TestCompute_NoPricingWithoutFormula(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	r := e.Compute([]models.PhysicalLeg{{
		Direction: models.Buy, Product: "HVO", Quantity: 500, TradingPeriod: "2024-06",
	}}, nil, horizon)
	if r.Grand.TotalPricing != 0 {
		t.Fatalf("pricing exposure is formula-driven only, got %v", r.Grand.TotalPricing)
	}
}

func TestCompute_MonthlyDistributionOverride(t *testing.T) {
	e := NewEngine(defaultMapper, Config{ProratePricingPeriods: true})
	leg := models.PhysicalLeg{
		ID: "p1", Direction: models.Buy, Product: "UCOME", Quantity: 1000,
		LoadingPeriodStart: date(2024, 6, 1),
		PricingPeriodStart: date(2024, 10, 1),
		PricingPeriodEnd:   date(2024, 12, 31),
		PricingFormula: f(`{
			"tokens":[{"type":"instrument","value":"ICE GASOIL"}],
			"exposures":{"pricing":{"ICE GASOIL":1000}},
			"monthlyDistribution":{"ICE GASOIL":{"2024-07":300,"2024-08":700,"2023-01":55}}
		}`),
	}
	r := e.Compute([]models.PhysicalLeg{leg}, nil, horizon)
	for _, row := range r.Monthly {
		want := 0.0
		switch row.Month {
		case "2024-07":
			want = 300
		case "2024-08":
			want = 700
		}
		if got := row.Products[product.ICEGasoil].Pricing; got != want {
			t.Fatalf("%s pricing=%v want %v", row.Month, got, want)
		}
	}
}

func TestCompute_ProratesPricingPeriod(t *testing.T) {
	leg := models.PhysicalLeg{
		Direction: models.Buy, Product: "RME", Quantity: 1000,
		LoadingPeriodStart: date(2024, 6, 3),
		PricingPeriodStart: date(2024, 6, 24), // Mon; 5 working days in June
		PricingPeriodEnd:   date(2024, 7, 5),  // Fri; 5 working days in July
		PricingFormula:     f(`{"tokens":[{"type":"instrument","value":"RME"}],"exposures":{"pricing":{"RME":-1000}}}`),
	}

	single := NewEngine(defaultMapper, Config{}).Compute([]models.PhysicalLeg{leg}, nil, horizon)
	if got := cell(single, "2024-06", product.ArgusRME).Pricing; got != -1000 {
		t.Fatalf("default books pricing in one month, got %v", got)
	}

	prorated := NewEngine(defaultMapper, Config{ProratePricingPeriods: true}).Compute([]models.PhysicalLeg{leg}, nil, horizon)
	if !near(cell(prorated, "2024-06", product.ArgusRME).Pricing, -500) || !near(cell(prorated, "2024-07", product.ArgusRME).Pricing, -500) {
		t.Fatalf("expected -500/-500, got %+v / %+v",
			cell(prorated, "2024-06", product.ArgusRME), cell(prorated, "2024-07", product.ArgusRME))
	}
}

func TestCompute_DiffSymmetry(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	cases := []struct {
		name       string
		instrument string
		base, opp  product.Canonical
	}{
		{"pair", "UCOME/FAME0", product.ArgusUCOME, product.ArgusFAME0},
		{"spread", "RME VS FAME0 SPREAD", product.ArgusRME, product.ArgusFAME0},
		{"single sided diff", "HVO DIFF", product.ArgusHVO, product.ICEGasoil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := e.Compute(nil, []models.PaperLeg{{
				ID: "x", Direction: models.Buy, Instrument: tc.instrument, Quantity: 500, Period: "2024-07",
			}}, horizon)
			b, o := cell(r, "2024-07", tc.base), cell(r, "2024-07", tc.opp)
			if b.Paper != 500 || o.Paper != -500 {
				t.Fatalf("paper base=%v opp=%v", b.Paper, o.Paper)
			}
			if b.Pricing+o.Pricing != 0 {
				t.Fatalf("pair must net to zero pricing, got %v", b.Pricing+o.Pricing)
			}
		})
	}
}

func TestCompute_PaperPrecedence(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	explicit := &formula.Exposures{
		Physical: map[product.Canonical]float64{product.ArgusRME: 100},
		Pricing:  map[product.Canonical]float64{product.ArgusRME: -40, product.ArgusHVO: 20},
	}
	mtm := f(`{"tokens":[{"type":"instrument","value":"RME"}],"exposures":{"physical":{"RME":100}}}`)

	cases := []struct {
		name string
		leg  models.PaperLeg
		want map[product.Canonical]models.ExposureData
	}{
		{
			name: "instrument beats exposures",
			leg:  models.PaperLeg{Instrument: "SME FP", Exposures: explicit, Quantity: 10, Direction: models.Sell},
			want: map[product.Canonical]models.ExposureData{product.ArgusSME: {Paper: -10, Pricing: -10}},
		},
		{
			name: "explicit exposures are pre-signed",
			leg:  models.PaperLeg{Exposures: explicit, MTMFormula: mtm, Quantity: 10, Direction: models.Sell},
			want: map[product.Canonical]models.ExposureData{
				product.ArgusRME: {Paper: 100, Pricing: -40},
				product.ArgusHVO: {Pricing: 20},
			},
		},
		{
			name: "mtm formula exposures are scaled by direction",
			leg:  models.PaperLeg{MTMFormula: mtm, Quantity: 10, Direction: models.Sell},
			want: map[product.Canonical]models.ExposureData{product.ArgusRME: {Paper: -100, Pricing: -100}},
		},
		{
			name: "quantity fallback on own product",
			leg:  models.PaperLeg{Product: "HVO", Quantity: 50, Direction: models.Sell},
			want: map[product.Canonical]models.ExposureData{product.ArgusHVO: {Paper: -50, Pricing: -50}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.leg.Period = "Jun-24"
			r := e.Compute(nil, []models.PaperLeg{tc.leg}, horizon)
			for p, w := range tc.want {
				got := cell(r, "2024-06", p)
				if got.Paper != w.Paper || got.Pricing != w.Pricing {
					t.Fatalf("%s: got %+v want paper=%v pricing=%v", p, got, w.Paper, w.Pricing)
				}
			}
			if len(r.Grand.ProductTotals) != len(tc.want) {
				t.Fatalf("unexpected products booked: %v", r.Grand.ProductTotals)
			}
		})
	}
}

func TestCompute_SkipsLegsWithoutMonth(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	r := e.Compute(
		[]models.PhysicalLeg{{ID: "p1", Product: "RME", Quantity: 10}, {ID: "p2", Product: "RME", Quantity: 10, TradingPeriod: "2024-06"}},
		[]models.PaperLeg{{ID: "x1", Instrument: "RME", Quantity: 5, Period: "someday"}},
		horizon,
	)
	if r.SkippedLegCount != 2 || len(r.Skipped) != 2 {
		t.Fatalf("expected 2 skipped legs, got %d %+v", r.SkippedLegCount, r.Skipped)
	}
	if r.Skipped[0].ID != "p1" || r.Skipped[1].Kind != models.KindPaper {
		t.Fatalf("unexpected skipped list: %+v", r.Skipped)
	}
	if r.Grand.TotalPhysical != 10 {
		t.Fatalf("valid leg must still aggregate, got %v", r.Grand.TotalPhysical)
	}
}

func TestCompute_SkipsUnparsableTradingPeriod(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	cases := []struct {
		name string
		leg  models.PhysicalLeg
	}{
		{"with pricing period", models.PhysicalLeg{ID: "q3", Product: "RME", Quantity: 10, TradingPeriod: "Q3-24", PricingPeriodStart: date(2024, 9, 1)}},
		{"with loading period", models.PhysicalLeg{ID: "q4", Product: "RME", Quantity: 10, TradingPeriod: "Q4-24", LoadingPeriodStart: date(2024, 10, 1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := e.Compute([]models.PhysicalLeg{tc.leg}, nil, horizon)
			if r.SkippedLegCount != 1 || r.Skipped[0].ID != tc.leg.ID {
				t.Fatalf("expected %s skipped, got %+v", tc.leg.ID, r.Skipped)
			}
			if r.Grand.TotalPhysical != 0 {
				t.Fatalf("skipped leg must not aggregate, got %v", r.Grand.TotalPhysical)
			}
		})
	}
}

func TestCompute_TotalsInvariants(t *testing.T) {
	e := NewEngine(defaultMapper, Config{})
	physical := []models.PhysicalLeg{
		{Direction: models.Buy, Product: "UCOME", Quantity: 1000, LoadingPeriodStart: date(2024, 6, 5),
			PricingFormula: f(`{"tokens":[{"type":"instrument","value":"GASOIL"}],"exposures":{"pricing":{"GASOIL":-1000,"UCOME":1000}}}`),
			TradingPeriod:  "2024-07"},
		{Direction: models.Sell, Product: "GASOIL", Quantity: 300, TradingPeriod: "2024-08"},
		{Direction: models.Sell, Product: "Some New Grade", Quantity: 75, TradingPeriod: "2025-06"},
		{Direction: models.Buy, Product: "RME", Quantity: 40, TradingPeriod: "2026-01"}, // outside horizon
	}
	paper := []models.PaperLeg{
		{Direction: models.Buy, Instrument: "UCOME/GASOIL", Quantity: 200, Period: "2024-07"},
		{Direction: models.Sell, Instrument: "FAME0", Quantity: 100, Period: "2024-12"},
	}
	r := e.Compute(physical, paper, horizon)

	var sum models.ExposureData
	for _, row := range r.Monthly {
		var rowSum models.ExposureData
		for p, c := range row.Products {
			if c.NetExposure != Net(c.Physical, c.Pricing, defaultMapper.IsPricingOnly(p)) {
				t.Fatalf("stale net for %s/%s: %+v", row.Month, p, c)
			}
			rowSum = rowSum.Add(c)
		}
		if rowSum != row.Totals {
			t.Fatalf("%s totals %+v != sum of products %+v", row.Month, row.Totals, rowSum)
		}
		sum = sum.Add(row.Totals)
	}
	if !near(sum.Physical, r.Grand.TotalPhysical) || !near(sum.Pricing, r.Grand.TotalPricing) ||
		!near(sum.Paper, r.Grand.TotalPaper) || !near(sum.NetExposure, r.Grand.TotalNet) {
		t.Fatalf("grand totals %+v disagree with monthly sum %+v", r.Grand, sum)
	}

	var products models.ExposureData
	for _, c := range r.Grand.ProductTotals {
		products = products.Add(c)
	}
	if !near(products.Physical, r.Grand.TotalPhysical) || !near(products.Paper, r.Grand.TotalPaper) {
		t.Fatalf("product totals do not add up: %+v vs %+v", products, r.Grand)
	}
	if r.Group.TotalRow != r.Group.Biodiesel.Add(r.Group.PricingInstrument) {
		t.Fatalf("total row must equal biodiesel + pricing instruments: %+v", r.Group)
	}
	if r.Group.Biodiesel.Physical != 1000 {
		t.Fatalf("biodiesel physical=%v want 1000", r.Group.Biodiesel.Physical)
	}

	gas := cell(r, "2024-08", product.ICEGasoil)
	if gas.Physical != -300 || gas.NetExposure != gas.Pricing {
		t.Fatalf("pricing-only instrument nets on pricing alone: %+v", gas)
	}
	if _, ok := r.Grand.ProductTotals[product.ArgusRME]; ok {
		t.Fatalf("leg outside the horizon must be dropped")
	}
	if got := cell(r, "2025-06", "SOME NEW GRADE").Physical; got != -75 {
		t.Fatalf("unknown product should pass through, got %v", got)
	}

	order := e.Products(r)
	if order[0] != product.ArgusUCOME || order[len(order)-1] != "SOME NEW GRADE" {
		t.Fatalf("unexpected product order: %v", order)
	}
}

func TestTradesPerMonth(t *testing.T) {
	window := period.TradesWindow(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	counts := TradesPerMonth(
		[]models.PhysicalLeg{
			{LoadingPeriodStart: date(2024, 4, 2)},
			{TradingPeriod: "2024-06"},
			{TradingPeriod: "2024-11"}, // outside
			{},
		},
		[]models.PaperLeg{{Period: "2024-06"}, {Period: "2024-10"}, {Period: ""}},
		window,
	)
	if len(counts) != 7 || counts[0].Month != "2024-04" || counts[6].Month != "2024-10" || counts[2].Label != "Jun-24" {
		t.Fatalf("unexpected window: %+v", counts)
	}
	if counts[0].Physical != 1 || counts[2].Physical != 1 || counts[2].Paper != 1 || counts[6].Paper != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
