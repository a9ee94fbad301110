package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// RateHandler handles per-party rate tier endpoints.
type RateHandler struct {
	service *service.RateService
}

// NewRateHandler constructs a rate handler.
func NewRateHandler(svc *service.RateService) *RateHandler {
	return &RateHandler{service: svc}
}

// ListByParty godoc
// @Summary Rate tiers for one party
// @Tags Rates
// @Produce json
// @Param partyId query string true "Party ID"
// @Success 200 {object} response.Envelope
// @Router /rate [get]
func (h *RateHandler) ListByParty(c *gin.Context) {
	tiers, err := h.service.ListByParty(c.Request.Context(), c.Query("partyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tiers, nil)
}

// CreateTier godoc
// @Summary Add a value range with its first rate entry
// @Tags Rates
// @Accept json
// @Produce json
// @Param payload body service.RateTierCreateRequest true "Tier payload"
// @Success 201 {object} response.Envelope
// @Router /rate [post]
func (h *RateHandler) CreateTier(c *gin.Context) {
	var req service.RateTierCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tier, err := h.service.CreateTier(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tier)
}

// UpdateTier godoc
// @Summary Append a rate entry, edit one, or move the tier's range
// @Tags Rates
// @Accept json
// @Produce json
// @Param id path string true "Tier ID"
// @Param payload body service.RateTierUpdateRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /rate/{id} [put]
func (h *RateHandler) UpdateTier(c *gin.Context) {
	var req service.RateTierUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tier, err := h.service.UpdateTier(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tier, nil)
}

// DeleteItem godoc
// @Summary Remove one rate history entry
// @Tags Rates
// @Produce json
// @Param id path string true "Rate entry ID"
// @Success 204
// @Router /rate/deleteItem/{id} [put]
func (h *RateHandler) DeleteItem(c *gin.Context) {
	if err := h.service.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteTier godoc
// @Summary Remove a tier together with its history
// @Tags Rates
// @Produce json
// @Param id path string true "Tier ID"
// @Success 204
// @Router /rate/{id} [delete]
func (h *RateHandler) DeleteTier(c *gin.Context) {
	if err := h.service.DeleteTier(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
