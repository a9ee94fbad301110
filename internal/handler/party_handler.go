package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// PartyHandler handles trading-party endpoints.
type PartyHandler struct {
	service *service.PartyService
}

// NewPartyHandler constructs a party handler.
func NewPartyHandler(svc *service.PartyService) *PartyHandler {
	return &PartyHandler{service: svc}
}

// List godoc
// @Summary List parties
// @Tags Parties
// @Produce json
// @Param search query string false "Name search"
// @Param status query string false "All, Active or Deactive"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /party [get]
func (h *PartyHandler) List(c *gin.Context) {
	parties, pagination, err := h.service.List(c.Request.Context(), referenceListRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parties, pagination)
}

// All godoc
// @Summary List every party for select population, active first
// @Tags Parties
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /party/allParty [get]
func (h *PartyHandler) All(c *gin.Context) {
	parties, err := h.service.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parties, nil)
}

// KapanNumbers godoc
// @Summary Union of kapan numbers for the selected parties
// @Tags Parties
// @Produce json
// @Param party query string false "JSON array of party ids"
// @Success 200 {object} response.Envelope
// @Router /party/kapanNumbers [get]
func (h *PartyHandler) KapanNumbers(c *gin.Context) {
	partyIDs, err := idsFromQuery(c, "party")
	if err != nil {
		response.Error(c, err)
		return
	}
	kapans, err := h.service.KapanNumbersFor(c.Request.Context(), partyIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kapans, nil)
}

// Create godoc
// @Summary Add one party
// @Tags Parties
// @Accept json
// @Produce json
// @Param payload body service.PartyCreateRequest true "Party payload"
// @Success 201 {object} response.Envelope
// @Router /party [post]
func (h *PartyHandler) Create(c *gin.Context) {
	var req service.PartyCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	party, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, party)
}

// Update godoc
// @Summary Edit one party
// @Tags Parties
// @Accept json
// @Produce json
// @Param id path string true "Party ID"
// @Param payload body service.PartyUpdateRequest true "Party payload"
// @Success 200 {object} response.Envelope
// @Router /party/{id} [put]
func (h *PartyHandler) Update(c *gin.Context) {
	var req service.PartyUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	party, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, party, nil)
}

// Delete godoc
// @Summary Remove one party
// @Tags Parties
// @Produce json
// @Param id path string true "Party ID"
// @Success 204
// @Router /party/{id} [delete]
func (h *PartyHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// idsFromQuery decodes a JSON-stringified id array query param, the format the
// filter panel sends its multi-select state in.
func idsFromQuery(c *gin.Context, name string) ([]string, error) {
	raw := c.Query(name)
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "filter params must be JSON arrays")
	}
	return ids, nil
}
