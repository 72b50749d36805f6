package mtm

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/formula"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/pricing"
	"github.com/guttosm/mtmengine/internal/product"
)

type stubStore struct {
	average map[string]float64
	forward map[string]float64
	err     error
}

func pk(i product.Canonical, m period.MonthCode) string { return string(i) + "|" + string(m) }

func (s *stubStore) MonthlyAveragePrice(_ context.Context, i product.Canonical, m period.MonthCode) (float64, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	p, ok := s.average[pk(i, m)]
	return p, ok, nil
}

func (s *stubStore) ForwardPrice(_ context.Context, i product.Canonical, m period.MonthCode) (float64, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	p, ok := s.forward[pk(i, m)]
	return p, ok, nil
}

func (s *stubStore) DailyPrice(context.Context, product.Canonical, time.Time) (float64, bool, error) {
	return 0, false, nil
}

var (
	mapper = product.NewMapper(product.DefaultVocabulary())
	today  = time.Date(2024, 6, 14, 15, 30, 0, 0, time.UTC)
)

func newEngine(s *stubStore) *Engine {
	return NewEngine(mapper, pricing.NewResolver(s), Config{})
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func ptr(v float64) *float64 { return &v }

func pf(raw string) formula.PricingFormula { return formula.Parse([]byte(raw), mapper) }

const ucomePlus15 = `{"tokens":[{"type":"instrument","value":"UCOME"},{"type":"operator","value":"+"},{"type":"fixedValue","value":15}]}`

func TestValuationSign_IsInverseOfPosition(t *testing.T) {
	s := &stubStore{forward: map[string]float64{pk(product.ArgusRME, "2024-09"): 90}}
	e := newEngine(s)

	cases := []struct {
		dir  models.Direction
		want float64
	}{
		{models.Buy, -100},
		{models.Sell, 100},
	}
	for _, tc := range cases {
		t.Run(string(tc.dir), func(t *testing.T) {
			v, err := e.ComputePaperMTM(context.Background(), models.PaperLeg{
				ID: "x", Direction: tc.dir, Instrument: "RME", Quantity: 10, Period: "2024-09", Price: ptr(100),
			}, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.TradePrice != 100 || v.MTMPrice != 90 || v.MTMValue != tc.want {
				t.Fatalf("got trade=%v mtm=%v value=%v want value %v", v.TradePrice, v.MTMPrice, v.MTMValue, tc.want)
			}
			if v.PeriodType != period.Future || !v.Resolved() {
				t.Fatalf("unexpected valuation %+v", v)
			}
		})
	}
}

func TestComputeLegMTM_EFP(t *testing.T) {
	s := &stubStore{forward: map[string]float64{
		pk(product.ICEGasoil, "2024-08"): 620,
		pk(product.ICEGasoil, "2024-06"): 600,
	}}
	e := newEngine(s)
	base := models.PhysicalLeg{
		ID: "efp", Direction: models.Buy, Product: "FAME0", Quantity: 100,
		PricingPeriodStart: date(2024, 8, 1), PricingPeriodEnd: date(2024, 8, 31),
		PricingType: models.PricingEFP, EFPPremium: 5, EFPDesignatedMonth: "Aug-24",
	}

	cases := []struct {
		name              string
		mutate            func(l *models.PhysicalLeg)
		trade, mtm, value float64
	}{
		{"unagreed prices off designated month", func(*models.PhysicalLeg) {}, 625, 625, 0},
		{"agreed uses fixed value", func(l *models.PhysicalLeg) { l.EFPAgreedStatus, l.EFPFixedValue = true, ptr(600) }, 605, 625, 2000},
		{"expired contract marks on current month", func(l *models.PhysicalLeg) {
			l.EFPDesignatedMonth = "2024-03"
			l.EFPAgreedStatus, l.EFPFixedValue = true, ptr(610)
		}, 615, 605, -1000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			leg := base
			tc.mutate(&leg)
			v, err := e.ComputeLegMTM(context.Background(), leg, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !v.Resolved() || v.TradePrice != tc.trade || v.MTMPrice != tc.mtm || v.MTMValue != tc.value {
				t.Fatalf("got %+v want trade=%v mtm=%v value=%v", v, tc.trade, tc.mtm, tc.value)
			}
		})
	}
}

func TestComputeLegMTM_EFPUnresolved(t *testing.T) {
	e := newEngine(&stubStore{})
	v, err := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{
		ID: "efp", Quantity: 1, TradingPeriod: "2024-09",
		PricingType: models.PricingEFP, EFPDesignatedMonth: "2024-09", EFPPremium: 5,
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Resolved() || v.MTMValue != 0 || len(v.Missing) != 2 {
		t.Fatalf("missing futures price must be unresolved, got %+v", v)
	}
}

func TestComputeLegMTM_EFPDesignatedMonthIsTheWindow(t *testing.T) {
	e := newEngine(&stubStore{forward: map[string]float64{pk(product.ICEGasoil, "2024-08"): 620}})
	v, err := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{
		ID: "efp-dated", Direction: models.Buy, Quantity: 1,
		PricingType: models.PricingEFP, EFPDesignatedMonth: "2024-08", EFPPremium: 5,
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Resolved() || v.TradePrice != 625 || v.MTMPrice != 625 || v.PeriodType != period.Future {
		t.Fatalf("EFP leg with only a designated month should value, got %+v", v)
	}
}

func TestComputeLegMTM_PartialKeepsResolvedSide(t *testing.T) {
	e := newEngine(&stubStore{})
	v, err := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{
		ID: "efp-agreed", Direction: models.Sell, Quantity: 10,
		PricingType: models.PricingEFP, EFPDesignatedMonth: "2024-08", EFPPremium: 5,
		EFPAgreedStatus: true, EFPFixedValue: ptr(600),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Resolved() || !v.TradeResolved || v.TradePrice != 605 {
		t.Fatalf("trade side should survive a missing mtm quote, got %+v", v)
	}
	if v.MTMResolved || v.MTMValue != 0 {
		t.Fatalf("mtm side and value must stay unresolved, got %+v", v)
	}
	if len(v.Missing) != 1 || v.Missing[0].Role != models.RoleMTM || v.Missing[0].Month != "2024-08" {
		t.Fatalf("unexpected missing list: %+v", v.Missing)
	}
}

func TestComputeLegMTM_MonthWithoutQuoteIsUnresolved(t *testing.T) {
	e := newEngine(&stubStore{forward: map[string]float64{pk(product.ArgusUCOME, "2024-09"): 1200}})
	v, err := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{
		ID: "gap", Direction: models.Buy, Quantity: 10,
		PricingPeriodStart: date(2024, 9, 2), PricingPeriodEnd: date(2024, 10, 31),
		PricingFormula: pf(ucomePlus15),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Resolved() || v.TradeResolved || v.MTMResolved {
		t.Fatalf("a period month without a quote must not price, got %+v", v)
	}
	want := []models.MissingPrice{
		{Instrument: product.ArgusUCOME, Month: "2024-10", Role: models.RoleTrade},
		{Instrument: product.ArgusUCOME, Month: "2024-10", Role: models.RoleMTM},
	}
	if len(v.Missing) != len(want) {
		t.Fatalf("missing=%+v want %+v", v.Missing, want)
	}
	for i := range want {
		if v.Missing[i] != want[i] {
			t.Fatalf("missing[%d]=%+v want %+v", i, v.Missing[i], want[i])
		}
	}
}

func TestComputeLegMTM_Formula(t *testing.T) {
	s := &stubStore{
		average: map[string]float64{
			pk(product.ArgusUCOME, "2024-03"): 1000,
			pk(product.ArgusFAME0, "2024-03"): 1100,
		},
		forward: map[string]float64{
			pk(product.ArgusUCOME, "2024-09"): 1200,
			pk(product.ArgusUCOME, "2024-10"): 1250,
			pk(product.ArgusUCOME, "2024-06"): 1180,
			pk(product.ArgusUCOME, "2024-07"): 1190,
		},
	}
	e := newEngine(s)

	cases := []struct {
		name              string
		leg               models.PhysicalLeg
		pt                period.Type
		trade, mtm, value float64
	}{
		{
			name: "past period uses averages on both sides",
			leg: models.PhysicalLeg{Direction: models.Buy, Quantity: 10,
				PricingPeriodStart: date(2024, 3, 1), PricingPeriodEnd: date(2024, 3, 28),
				PricingFormula: pf(ucomePlus15), MTMFormula: pf(`{"tokens":[{"type":"instrument","value":"FAME0"},{"type":"operator","value":"+"},{"type":"fixedValue","value":10}]}`)},
			pt: period.Past, trade: 1015, mtm: 1110, value: 950,
		},
		{
			name: "reversed period is swapped",
			leg: models.PhysicalLeg{Direction: models.Buy, Quantity: 10,
				PricingPeriodStart: date(2024, 3, 28), PricingPeriodEnd: date(2024, 3, 1),
				PricingFormula: pf(ucomePlus15)},
			pt: period.Past, trade: 1015, mtm: 1015, value: 0,
		},
		{
			name: "future period with pinned mtm month",
			leg: models.PhysicalLeg{Direction: models.Sell, Quantity: 2,
				PricingPeriodStart: date(2024, 9, 2), PricingPeriodEnd: date(2024, 9, 30),
				PricingFormula: pf(ucomePlus15), MTMFutureMonth: "Oct-24"},
			pt: period.Future, trade: 1215, mtm: 1265, value: -100,
		},
		{
			name: "current period averages forward months",
			leg: models.PhysicalLeg{Direction: models.Buy, Quantity: 1,
				PricingPeriodStart: date(2024, 6, 3), PricingPeriodEnd: date(2024, 7, 31),
				PricingFormula: pf(ucomePlus15)},
			pt: period.Current, trade: 1200, mtm: 1200, value: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := e.ComputeLegMTM(context.Background(), tc.leg, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.PeriodType != tc.pt || !v.Resolved() {
				t.Fatalf("unexpected valuation %+v", v)
			}
			if math.Abs(v.TradePrice-tc.trade) > 1e-9 || math.Abs(v.MTMPrice-tc.mtm) > 1e-9 || math.Abs(v.MTMValue-tc.value) > 1e-9 {
				t.Fatalf("got trade=%v mtm=%v value=%v want %v/%v/%v", v.TradePrice, v.MTMPrice, v.MTMValue, tc.trade, tc.mtm, tc.value)
			}
		})
	}
}

func TestComputeLegMTM_UnresolvedIsNotZero(t *testing.T) {
	e := newEngine(&stubStore{})
	v, err := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{
		ID: "p1", Direction: models.Buy, Quantity: 10,
		PricingPeriodStart: date(2024, 9, 1), PricingPeriodEnd: date(2024, 9, 30),
		PricingFormula: pf(ucomePlus15),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Status != models.StatusUnresolved {
		t.Fatalf("expected unresolved, got %+v", v)
	}
	if len(v.Missing) != 2 || v.Missing[0].Instrument != product.ArgusUCOME || v.Missing[0].Role != models.RoleTrade || v.Missing[1].Role != models.RoleMTM {
		t.Fatalf("unexpected missing list: %+v", v.Missing)
	}

	noPeriod, _ := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{ID: "p2", PricingFormula: pf(ucomePlus15)}, today)
	if noPeriod.Resolved() || noPeriod.Note == "" {
		t.Fatalf("leg without any period must be unresolved with a note: %+v", noPeriod)
	}

	noFormula, _ := e.ComputeLegMTM(context.Background(), models.PhysicalLeg{ID: "p3", TradingPeriod: "2024-09"}, today)
	if noFormula.Resolved() {
		t.Fatalf("leg without formula must be unresolved: %+v", noFormula)
	}
}

func TestComputePaperMTM_Diff(t *testing.T) {
	s := &stubStore{forward: map[string]float64{
		pk(product.ArgusUCOME, "2024-07"): 1500,
		pk(product.ArgusFAME0, "2024-07"): 1300,
	}}
	e := newEngine(s)

	v, err := e.ComputePaperMTM(context.Background(), models.PaperLeg{
		ID: "d1", Direction: models.Buy, Instrument: "UCOME/FAME0", Quantity: 100, Period: "Jul-24", Price: ptr(180),
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Resolved() || v.TradePrice != 180 || v.MTMPrice != 200 || v.MTMValue != 2000 {
		t.Fatalf("unexpected valuation %+v", v)
	}

	half, _ := e.ComputePaperMTM(context.Background(), models.PaperLeg{
		ID: "d2", Direction: models.Buy, Instrument: "UCOME/HVO", Quantity: 100, Period: "Jul-24",
	}, today)
	if half.Resolved() {
		t.Fatalf("a missing side must not price as zero: %+v", half)
	}
	for _, m := range half.Missing {
		if m.Instrument != product.ArgusHVO {
			t.Fatalf("only the missing side should be listed: %+v", half.Missing)
		}
	}
}

func TestComputePaperMTM_FormulaAndFallback(t *testing.T) {
	s := &stubStore{average: map[string]float64{pk(product.ArgusUCOME, "2024-04"): 1000}}
	e := newEngine(s)

	v, err := e.ComputePaperMTM(context.Background(), models.PaperLeg{
		Direction: models.Sell, Quantity: 3, Period: "2024-04", Price: ptr(1020), MTMFormula: pf(ucomePlus15),
	}, today)
	if err != nil || !v.Resolved() || v.MTMPrice != 1015 || v.MTMValue != 15 {
		t.Fatalf("formula paper leg: %+v err=%v", v, err)
	}

	fb, _ := e.ComputePaperMTM(context.Background(), models.PaperLeg{
		Direction: models.Buy, Quantity: 1, Period: "2024-04", Product: "ucome", Price: ptr(990),
	}, today)
	if !fb.Resolved() || fb.MTMPrice != 1000 || fb.MTMValue != 10 {
		t.Fatalf("product fallback: %+v", fb)
	}

	bad, _ := e.ComputePaperMTM(context.Background(), models.PaperLeg{Instrument: "RME"}, today)
	if bad.Resolved() {
		t.Fatalf("leg without period must be unresolved")
	}
}

func TestCompute_StoreErrorPropagates(t *testing.T) {
	e := newEngine(&stubStore{err: errors.New("db down")})
	if _, err := e.ComputePaperMTM(context.Background(), models.PaperLeg{Instrument: "RME", Period: "2024-09"}, today); err == nil {
		t.Fatalf("expected error")
	}
	_, err := e.ValueBook(context.Background(), []models.PhysicalLeg{{
		ID: "p1", TradingPeriod: "2024-09", PricingFormula: pf(ucomePlus15),
	}}, nil, today)
	if err == nil {
		t.Fatalf("expected error from ValueBook")
	}
}

func TestValueBook(t *testing.T) {
	s := &stubStore{forward: map[string]float64{pk(product.ArgusRME, "2024-09"): 90}}
	e := newEngine(s)

	book, err := e.ValueBook(context.Background(), nil, []models.PaperLeg{
		{ID: "a", Direction: models.Buy, Instrument: "RME", Quantity: 10, Period: "2024-09", Price: ptr(100)},
		{ID: "b", Direction: models.Sell, Instrument: "RME", Quantity: 5, Period: "2024-09", Price: ptr(100)},
		{ID: "c", Direction: models.Buy, Instrument: "HVO", Quantity: 5, Period: "2024-09"},
	}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(book.Valuations) != 3 || book.Unresolved != 1 || book.TotalMTMValue != -50 {
		t.Fatalf("unexpected book: %+v", book)
	}
}
