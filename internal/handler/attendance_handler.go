package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/service"
	appErrors "github.com/shreeji-gems/diamond-api/pkg/errors"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// AttendanceHandler handles the monthly attendance grid.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Month godoc
// @Summary Attendance grid for one month
// @Tags Attendance
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Month(c *gin.Context) {
	now := time.Now().UTC()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year must be a number"))
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month must be a number"))
		return
	}

	rows, err := h.service.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Mark godoc
// @Summary Record one employee's status for one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.AttendanceMarkRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.AttendanceMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// MarkAll godoc
// @Summary Mark every active employee for one day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.AttendanceBulkRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/markAll [post]
func (h *AttendanceHandler) MarkAll(c *gin.Context) {
	var req service.AttendanceBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.MarkAll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
