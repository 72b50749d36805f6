package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/mtmengine/internal/domain/dto"
	"github.com/guttosm/mtmengine/internal/domain/models"
	"github.com/guttosm/mtmengine/internal/middleware"
	"github.com/guttosm/mtmengine/internal/period"
	"github.com/guttosm/mtmengine/internal/service"
	"github.com/guttosm/mtmengine/internal/storage"
)

const (
	dateLayout = time.DateOnly

	// maxSeriesDays bounds one price series request.
	maxSeriesDays = 400
)

// Handler serves the exposure and valuation endpoints.
//
// Every endpoint accepts an optional "today" query parameter (YYYY-MM-DD)
// so a report can be rebuilt as of an earlier date; it defaults to the
// current UTC date.
type Handler struct {
	exposure  service.ExposureService
	valuation service.ValuationService
	now       func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(exposure service.ExposureService, valuation service.ValuationService) *Handler {
	return &Handler{exposure: exposure, valuation: valuation, now: time.Now}
}

// GetExposure godoc
// @Summary      Monthly exposure table
// @Description  Aggregates every physical and paper leg into the monthly exposure matrix per canonical product
// @Tags         exposure
// @Produce      json
// @Param        start  query     string  false  "First month of the horizon (YYYY-MM or Mon-YY)" example(2024-06)
// @Param        today  query     string  false  "As-of date in YYYY-MM-DD" example(2024-06-14)
// @Success      200    {object}  dto.ExposureResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse     "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse     "Internal Error"
// @Router       /api/v1/exposure [get]
func (h *Handler) GetExposure(c *gin.Context) {
	today, ok := h.today(c)
	if !ok {
		return
	}

	var start period.MonthCode
	if s := strings.TrimSpace(c.Query("start")); s != "" {
		m, err := period.ParseMonthCode(s)
		if err != nil {
			middleware.AbortWithError(c, http.StatusBadRequest, "invalid start month", err)
			return
		}
		start = m
	}

	res, err := h.exposure.ComputeExposure(c.Request.Context(), start, today)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to compute exposure", err)
		return
	}

	resp := dto.ExposureResponse{
		From:            res.Horizon.First().String(),
		To:              res.Horizon.Last().String(),
		Products:        make([]string, 0, len(res.Products)),
		Months:          res.Report.Monthly,
		GrandTotals:     res.Report.Grand,
		GroupTotals:     res.Report.Group,
		SkippedLegCount: res.Report.SkippedLegCount,
		SkippedLegs:     res.Report.Skipped,
		TradesPerMonth:  res.TradesPerMonth,
	}
	for _, p := range res.Products {
		resp.Products = append(resp.Products, p.String())
	}
	c.JSON(http.StatusOK, resp)
}

// GetLegMTM godoc
// @Summary      Mark one leg to market
// @Description  Returns trade price, MTM price and MTM value of a physical or paper leg. A side without a price is null and the missing quotes are listed; the value is null unless both sides resolved.
// @Tags         mtm
// @Produce      json
// @Param        id     path      string  true   "Leg id" example(PH-001)
// @Param        kind   query     string  false  "physical (default) or paper" example(physical)
// @Param        today  query     string  false  "As-of date in YYYY-MM-DD" example(2024-06-14)
// @Success      200    {object}  dto.ValuationResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse      "Bad Request"
// @Failure      404    {object}  dto.ErrorResponse      "Not Found"
// @Failure      500    {object}  dto.ErrorResponse      "Internal Error"
// @Router       /api/v1/legs/{id}/mtm [get]
func (h *Handler) GetLegMTM(c *gin.Context) {
	today, ok := h.today(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	kind := models.LegKind(c.DefaultQuery("kind", string(models.KindPhysical)))

	v, err := h.valuation.ValueLeg(c.Request.Context(), kind, id, today)
	switch {
	case errors.Is(err, storage.ErrLegNotFound):
		middleware.AbortWithError(c, http.StatusNotFound, "leg not found", err)
		return
	case errors.Is(err, service.ErrUnknownLegKind):
		middleware.AbortWithError(c, http.StatusBadRequest, "kind must be physical or paper", err)
		return
	case err != nil:
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to value leg", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewValuationResponse(*v))
}

// GetBookMTM godoc
// @Summary      Mark the whole book to market
// @Description  Values every leg in one pass. The total sums resolved legs only.
// @Tags         mtm
// @Produce      json
// @Param        today  query     string  false  "As-of date in YYYY-MM-DD" example(2024-06-14)
// @Success      200    {object}  dto.BookValuationResponse  "Success"
// @Failure      400    {object}  dto.ErrorResponse          "Bad Request"
// @Failure      500    {object}  dto.ErrorResponse          "Internal Error"
// @Router       /api/v1/book/mtm [get]
func (h *Handler) GetBookMTM(c *gin.Context) {
	today, ok := h.today(c)
	if !ok {
		return
	}
	book, err := h.valuation.ValueBook(c.Request.Context(), today)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to value book", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewBookValuationResponse(*book, today))
}

// GetPriceSeries godoc
// @Summary      Daily price series
// @Description  One point per working day: daily history up to today, the month's forward quote after
// @Tags         prices
// @Produce      json
// @Param        instrument  path      string  true   "Instrument (any alias)" example(GASOIL)
// @Param        start       query     string  true   "First date in YYYY-MM-DD" example(2024-06-01)
// @Param        end         query     string  true   "Last date in YYYY-MM-DD" example(2024-07-31)
// @Param        today       query     string  false  "As-of date in YYYY-MM-DD" example(2024-06-14)
// @Success      200         {object}  dto.PriceSeriesResponse  "Success"
// @Failure      400         {object}  dto.ErrorResponse        "Bad Request"
// @Failure      500         {object}  dto.ErrorResponse        "Internal Error"
// @Router       /api/v1/prices/{instrument}/series [get]
func (h *Handler) GetPriceSeries(c *gin.Context) {
	today, ok := h.today(c)
	if !ok {
		return
	}
	instrument := strings.TrimSpace(c.Param("instrument"))
	start, errStart := time.Parse(dateLayout, c.Query("start"))
	end, errEnd := time.Parse(dateLayout, c.Query("end"))
	if err := errors.Join(errStart, errEnd); err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "start and end are required, expected YYYY-MM-DD", err)
		return
	}
	if span := end.Sub(start).Hours() / 24; span > maxSeriesDays || -span > maxSeriesDays {
		middleware.AbortWithError(c, http.StatusBadRequest, "date range too long", nil)
		return
	}

	pts, err := h.valuation.PriceSeries(c.Request.Context(), instrument, start, end, today)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to resolve prices", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPriceSeriesResponse(instrument, pts))
}

// GetInstruments godoc
// @Summary      Instruments with forward quotes
// @Description  Lists instruments quoted on the forward curve over the exposure horizon
// @Tags         prices
// @Produce      json
// @Param        today  query     string  false  "As-of date in YYYY-MM-DD" example(2024-06-14)
// @Success      200    {object}  dto.InstrumentsResponse  "Success"
// @Failure      500    {object}  dto.ErrorResponse        "Internal Error"
// @Router       /api/v1/instruments [get]
func (h *Handler) GetInstruments(c *gin.Context) {
	today, ok := h.today(c)
	if !ok {
		return
	}
	list, err := h.valuation.ActiveInstruments(c.Request.Context(), today)
	if err != nil {
		middleware.AbortWithError(c, http.StatusInternalServerError, "failed to list instruments", err)
		return
	}
	resp := dto.InstrumentsResponse{Instruments: make([]string, 0, len(list))}
	for _, i := range list {
		resp.Instruments = append(resp.Instruments, i.String())
	}
	c.JSON(http.StatusOK, resp)
}

// today reads the optional "today" parameter. On a malformed value it has
// already answered 400 and returns false.
func (h *Handler) today(c *gin.Context) (time.Time, bool) {
	s := strings.TrimSpace(c.Query("today"))
	if s == "" {
		return period.TruncateToDate(h.now().UTC()), true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, "invalid today, expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return t, true
}
