package models

import (
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/product"
)

// ExposureData is the exposure of one product in one month.
//
// NetExposure is derived from Physical and Pricing and is rewritten by the
// engine whenever either changes.
type ExposureData struct {
	Physical    float64 `json:"physical" example:"1000"`
	Pricing     float64 `json:"pricing" example:"-500"`
	Paper       float64 `json:"paper" example:"0"`
	NetExposure float64 `json:"net_exposure" example:"500"`
}

// Add returns the field-wise sum of e and o.
func (e ExposureData) Add(o ExposureData) ExposureData {
	return ExposureData{
		Physical:    e.Physical + o.Physical,
		Pricing:     e.Pricing + o.Pricing,
		Paper:       e.Paper + o.Paper,
		NetExposure: e.NetExposure + o.NetExposure,
	}
}

// MonthlyExposure is one row of the exposure matrix.
type MonthlyExposure struct {
	Month    period.MonthCode                   `json:"month" example:"2024-06"`
	Products map[product.Canonical]ExposureData `json:"products"`
	Totals   ExposureData                       `json:"totals"`
}

// GrandTotals sums the matrix over the whole horizon.
type GrandTotals struct {
	ProductTotals map[product.Canonical]ExposureData `json:"product_totals"`
	TotalPhysical float64                            `json:"total_physical"`
	TotalPricing  float64                            `json:"total_pricing"`
	TotalPaper    float64                            `json:"total_paper"`
	TotalNet      float64                            `json:"total_net"`
}

// GroupTotals splits the grand totals into biodiesel grades and the
// remaining pricing instruments. TotalRow is always their sum.
type GroupTotals struct {
	Biodiesel         ExposureData `json:"biodiesel"`
	PricingInstrument ExposureData `json:"pricing_instrument"`
	TotalRow          ExposureData `json:"total_row"`
}

// SkippedLeg records a leg an exposure pass could not place in any month.
type SkippedLeg struct {
	ID     string  `json:"id"`
	Kind   LegKind `json:"kind"`
	Reason string  `json:"reason"`
}

// MonthTradeCount is the number of legs falling in one month of the
// trades-per-month window.
type MonthTradeCount struct {
	Month    period.MonthCode `json:"month"`
	Label    string           `json:"label"`
	Physical int              `json:"physical"`
	Paper    int              `json:"paper"`
}
