package dto

import (
	"time"

	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/pricing"
)

// ValuationResponse is the API view of one leg valuation. A price is null
// when its side could not be resolved and the value is null unless both
// were, so clients render N/A instead of a misleading zero.
type ValuationResponse struct {
	LegID      string                `json:"leg_id" example:"PH-001"`
	Kind       string                `json:"kind" example:"physical"`
	TradePrice *float64              `json:"trade_price" example:"1015"`
	MTMPrice   *float64              `json:"mtm_price" example:"1110"`
	MTMValue   *float64              `json:"mtm_value" example:"950"`
	PeriodType string                `json:"period_type" example:"past"`
	Status     string                `json:"status" example:"resolved"`
	Missing    []models.MissingPrice `json:"missing,omitempty"`
	Note       string                `json:"note,omitempty"`
}

// NewValuationResponse maps a valuation to its API view.
func NewValuationResponse(v models.Valuation) ValuationResponse {
	resp := ValuationResponse{
		LegID:      v.LegID,
		Kind:       string(v.Kind),
		PeriodType: string(v.PeriodType),
		Status:     string(v.Status),
		Missing:    v.Missing,
		Note:       v.Note,
	}
	if v.Resolved() || v.TradeResolved {
		trade := v.TradePrice
		resp.TradePrice = &trade
	}
	if v.Resolved() || v.MTMResolved {
		mark := v.MTMPrice
		resp.MTMPrice = &mark
	}
	if v.Resolved() {
		value := v.MTMValue
		resp.MTMValue = &value
	}
	return resp
}

// BookValuationResponse is the body of GET /api/v1/book/mtm.
type BookValuationResponse struct {
	AsOf          string              `json:"as_of" example:"2024-06-14"`
	Valuations    []ValuationResponse `json:"valuations"`
	TotalMTMValue float64             `json:"total_mtm_value" example:"-50"`
	Unresolved    int                 `json:"unresolved" example:"1"`
}

// NewBookValuationResponse maps a book valuation to its API view.
func NewBookValuationResponse(b models.BookValuation, asOf time.Time) BookValuationResponse {
	resp := BookValuationResponse{
		AsOf:          asOf.Format(time.DateOnly),
		Valuations:    make([]ValuationResponse, 0, len(b.Valuations)),
		TotalMTMValue: b.TotalMTMValue,
		Unresolved:    b.Unresolved,
	}
	for _, v := range b.Valuations {
		resp.Valuations = append(resp.Valuations, NewValuationResponse(v))
	}
	return resp
}

// PricePoint is one day of a price series; Price is null without data.
type PricePoint struct {
	Date   string   `json:"date" example:"2024-06-14"`
	Price  *float64 `json:"price" example:"712.5"`
	Source string   `json:"source" example:"daily"`
}

// PriceSeriesResponse is the body of GET /api/v1/prices/{instrument}/series.
type PriceSeriesResponse struct {
	Instrument string       `json:"instrument" example:"ICE GASOIL FUTURES"`
	Points     []PricePoint `json:"points"`
}

// NewPriceSeriesResponse maps resolver points to their API view.
func NewPriceSeriesResponse(instrument string, pts []pricing.DailyPoint) PriceSeriesResponse {
	resp := PriceSeriesResponse{Instrument: instrument, Points: make([]PricePoint, 0, len(pts))}
	for _, p := range pts {
		pp := PricePoint{Date: p.Date.Format(time.DateOnly), Source: string(p.Source)}
		if p.OK {
			price := p.Price
			pp.Price = &price
		}
		resp.Points = append(resp.Points, pp)
	}
	return resp
}

// InstrumentsResponse is the body of GET /api/v1/instruments.
type InstrumentsResponse struct {
	Instruments []string `json:"instruments"`
}
