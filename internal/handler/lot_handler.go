package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/models"
	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// LotHandler handles diamond lot ledger endpoints.
type LotHandler struct {
	service *service.LotService
}

// NewLotHandler constructs a lot handler.
func NewLotHandler(svc *service.LotService) *LotHandler {
	return &LotHandler{service: svc}
}

// lotListRequest decodes the ledger grid's query string: four tri-state sort
// toggles, JSON-stringified id arrays for the multi-select filters, a unique
// id search and a date window.
func lotListRequest(c *gin.Context) (service.LotListRequest, error) {
	var req service.LotListRequest

	req.Sort = models.LotSort{
		UniqueID:   models.SortDirection(c.DefaultQuery("uniqueIdReverse", "default")),
		Date:       models.SortDirection(c.DefaultQuery("dateReverse", "default")),
		PolishDate: models.SortDirection(c.DefaultQuery("polishDateReverse", "default")),
		HPHTDate:   models.SortDirection(c.DefaultQuery("HPHTDateReverse", "default")),
	}

	var err error
	if req.PartyIDs, err = idsFromQuery(c, "party"); err != nil {
		return req, err
	}
	if req.StatusIDs, err = idsFromQuery(c, "status"); err != nil {
		return req, err
	}
	if req.PaymentStatusIDs, err = idsFromQuery(c, "paymentStatus"); err != nil {
		return req, err
	}
	if req.KapanNumbers, err = idsFromQuery(c, "kapan"); err != nil {
		return req, err
	}

	req.Search = strings.TrimSpace(c.Query("search"))
	if req.StartDate, err = dateFromQuery(c, "startDate"); err != nil {
		return req, err
	}
	if req.EndDate, err = dateFromQuery(c, "endDate"); err != nil {
		return req, err
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if record, err := strconv.Atoi(c.DefaultQuery("record", "20")); err == nil {
		req.Record = record
	}
	return req, nil
}

// List godoc
// @Summary List one ledger page with selection-wide totals
// @Tags DiamondLots
// @Produce json
// @Param uniqueIdReverse query string false "asc, desc or default"
// @Param dateReverse query string false "asc, desc or default"
// @Param polishDateReverse query string false "asc, desc or default"
// @Param HPHTDateReverse query string false "asc, desc or default"
// @Param party query string false "JSON array of party ids"
// @Param status query string false "JSON array of status ids"
// @Param paymentStatus query string false "JSON array of payment status ids"
// @Param kapan query string false "JSON array of kapan numbers"
// @Param search query string false "Unique id prefix"
// @Param startDate query string false "Issue date from (YYYY-MM-DD)"
// @Param endDate query string false "Issue date to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param record query int false "Rows per page"
// @Success 200 {object} response.Envelope
// @Router /diamondLot [get]
func (h *LotHandler) List(c *gin.Context) {
	req, err := lotListRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.service.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, page, nil)
}

// GetByUniqueID godoc
// @Summary Look up one ledger row by its sequential display id
// @Tags DiamondLots
// @Produce json
// @Param uniqueId query int true "Unique id"
// @Success 200 {object} response.Envelope
// @Router /diamondLot/lot [get]
func (h *LotHandler) GetByUniqueID(c *gin.Context) {
	uniqueID, err := strconv.ParseInt(c.Query("uniqueId"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "uniqueId must be a number"))
		return
	}
	row, err := h.service.GetByUniqueID(c.Request.Context(), uniqueID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

// Create godoc
// @Summary Issue a batch of lots under one party and kapan number
// @Tags DiamondLots
// @Accept json
// @Produce json
// @Param payload body service.LotCreateRequest true "Lot batch payload"
// @Success 201 {object} response.Envelope
// @Router /diamondLot [post]
func (h *LotHandler) Create(c *gin.Context) {
	var req service.LotCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lots, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lots)
}

// Update godoc
// @Summary Apply an inline cell edit to one lot
// @Tags DiamondLots
// @Accept json
// @Produce json
// @Param id path string true "Lot ID"
// @Param payload body service.LotUpdateRequest true "Changed fields"
// @Success 200 {object} response.Envelope
// @Router /diamondLot/{id} [put]
func (h *LotHandler) Update(c *gin.Context) {
	var req service.LotUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	lot, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lot, nil)
}

// dateFromQuery parses a date query param, accepting the date-picker's plain
// day format and RFC3339.
func dateFromQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "dates must be YYYY-MM-DD")
}
