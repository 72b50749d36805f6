package models

import (
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// ValuationStatus tells a priced valuation apart from one that is missing
// market data. An unresolved valuation must be shown as N/A, never as zero.
type ValuationStatus string

const (
	StatusResolved   ValuationStatus = "resolved"
	StatusUnresolved ValuationStatus = "unresolved"
)

// PriceRole says which side of a valuation needed a price.
type PriceRole string

const (
	RoleTrade PriceRole = "trade"
	RoleMTM   PriceRole = "mtm"
)

// MissingPrice names one instrument/month the price store could not supply.
type MissingPrice struct {
	Instrument product.Canonical `json:"instrument"`
	Month      period.MonthCode  `json:"month"`
	Role       PriceRole         `json:"role"`
}

// Valuation is the mark-to-market of a single leg. An unresolved valuation
// still carries the side that did resolve: TradeResolved and MTMResolved say
// which prices are meaningful. MTMValue is only meaningful when resolved.
type Valuation struct {
	LegID         string          `json:"leg_id"`
	Kind          LegKind         `json:"kind"`
	TradePrice    float64         `json:"trade_price"`
	MTMPrice      float64         `json:"mtm_price"`
	MTMValue      float64         `json:"mtm_value"`
	TradeResolved bool            `json:"trade_resolved"`
	MTMResolved   bool            `json:"mtm_resolved"`
	PeriodType    period.Type     `json:"period_type"`
	Status        ValuationStatus `json:"status"`
	Missing       []MissingPrice  `json:"missing,omitempty"`
	Note          string          `json:"note,omitempty"`
}

// Resolved reports whether every price the valuation needed was found.
func (v Valuation) Resolved() bool { return v.Status == StatusResolved }

// BookValuation is the valuation of a whole book in one pass.
// TotalMTMValue sums resolved valuations only.
type BookValuation struct {
	Valuations    []Valuation `json:"valuations"`
	TotalMTMValue float64     `json:"total_mtm_value"`
	Unresolved    int         `json:"unresolved"`
}
