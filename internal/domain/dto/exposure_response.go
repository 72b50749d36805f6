package dto

import "github.com/guttosm/mtmengine/internal/domain/models"

// ExposureResponse is the body of GET /api/v1/exposure.
//
// Products lists the table's columns in display order: vocabulary products
// first, then any pass-through product in alphabetical order.
type ExposureResponse struct {
	From            string                   `json:"from" example:"2024-06"`
	To              string                   `json:"to" example:"2025-06"`
	Products        []string                 `json:"products"`
	Months          []models.MonthlyExposure `json:"months"`
	GrandTotals     models.GrandTotals       `json:"grand_totals"`
	GroupTotals     models.GroupTotals       `json:"group_totals"`
	SkippedLegCount int                      `json:"skipped_leg_count" example:"0"`
	SkippedLegs     []models.SkippedLeg      `json:"skipped_legs,omitempty"`
	TradesPerMonth  []models.MonthTradeCount `json:"trades_per_month"`
}
