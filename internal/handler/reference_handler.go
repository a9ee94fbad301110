package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/models"
	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// ReferenceHandler serves one reference resource. The same handler backs
// colors, clarities, shapes, statuses, payment statuses and employees; the
// router registers one instance per resource path.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler constructs a reference handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

func referenceListRequest(c *gin.Context) service.ReferenceListRequest {
	var req service.ReferenceListRequest
	req.Search = strings.TrimSpace(c.Query("search"))
	req.Status = models.ActiveFilter(c.DefaultQuery("status", string(models.ActiveFilterAll)))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("pageSize", "10")); err == nil {
		req.PageSize = size
	}
	return req
}

// List godoc
// @Summary List entries of one reference table
// @Tags Reference
// @Produce json
// @Param search query string false "Name search"
// @Param status query string false "All, Active or Deactive"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
func (h *ReferenceHandler) List(c *gin.Context) {
	items, pagination, err := h.service.List(c.Request.Context(), referenceListRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// All godoc
// @Summary List every entry for select population, active first
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
func (h *ReferenceHandler) All(c *gin.Context) {
	items, err := h.service.All(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Add one entry
// @Tags Reference
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
func (h *ReferenceHandler) Create(c *gin.Context) {
	var req service.ReferenceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Edit one entry's name or active state
// @Tags Reference
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
func (h *ReferenceHandler) Update(c *gin.Context) {
	var req service.ReferenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Remove one entry
// @Tags Reference
// @Produce json
// @Success 204
func (h *ReferenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
