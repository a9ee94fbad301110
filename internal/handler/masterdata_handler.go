package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreeji-gems/diamond-api/internal/service"
	"github.com/shreeji-gems/diamond-api/pkg/response"
)

// MasterDataHandler serves the aggregated select-population payload.
type MasterDataHandler struct {
	service *service.MasterDataService
}

// NewMasterDataHandler constructs a master data handler.
func NewMasterDataHandler(svc *service.MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{service: svc}
}

// Get godoc
// @Summary Every reference list the dashboard's selects need, in one call
// @Tags MasterData
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /masterData [get]
func (h *MasterDataHandler) Get(c *gin.Context) {
	data, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}
