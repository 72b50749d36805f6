package models

import (
	"strings"
	"time"

	"github.com/guttosm/mtmengine/internal/formula"
)

// Direction is the buy/sell side of a trade leg.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// ParseDirection reads a stored side ("Buy", "SELL", "s", ...). Anything that
// is not a sell is treated as a buy.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sell", "s", "sale":
		return Sell
	default:
		return Buy
	}
}

// IsSell reports whether d is the sell side.
func (d Direction) IsSell() bool { return strings.EqualFold(string(d), string(Sell)) }

// PricingType is how a physical leg is priced.
type PricingType string

const (
	PricingStandard PricingType = "STANDARD"
	PricingEFP      PricingType = "EFP"
	PricingFixed    PricingType = "FIXED"
)

// IsEFP reports whether the leg is priced as Exchange for Physical.
func (p PricingType) IsEFP() bool { return strings.EqualFold(string(p), string(PricingEFP)) }

// LegKind distinguishes physical from paper legs in reports.
type LegKind string

const (
	KindPhysical LegKind = "physical"
	KindPaper    LegKind = "paper"
)

// PhysicalLeg is one leg of a physical trade as read from the trade store.
//
// Product and the period strings are raw; the engines canonicalize and parse
// them. Formulas are parsed once when the leg is loaded.
type PhysicalLeg struct {
	ID                 string
	TradeReference     string
	Direction          Direction
	Product            string
	Quantity           float64
	LoadingPeriodStart *time.Time
	LoadingPeriodEnd   *time.Time
	TradingPeriod      string
	PricingPeriodStart *time.Time
	PricingPeriodEnd   *time.Time
	PricingType        PricingType
	EFPAgreedStatus    bool
	EFPFixedValue      *float64
	EFPPremium         float64
	EFPDesignatedMonth string
	PricingFormula     formula.PricingFormula
	MTMFormula         formula.PricingFormula
	MTMFutureMonth     string
}

// PaperLeg is one leg of a paper (derivative) trade. It settles over a
// single Period; Exposures, when set, are pre-signed by the trade author.
type PaperLeg struct {
	ID             string
	TradeReference string
	Direction      Direction
	Instrument     string
	Product        string
	Quantity       float64
	Period         string
	Price          *float64
	Exposures      *formula.Exposures
	MTMFormula     formula.PricingFormula
}
