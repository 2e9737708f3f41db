package handlers

import (
	"document-access/internal/domain/services"
	"document-access/internal/interfaces/dto"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	sweeper *services.Sweeper
}

func NewAdminHandler(sweeper *services.Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sweeper}
}

// Sweep runs one notification and expiry pass synchronously.
func (h *AdminHandler) Sweep(c *gin.Context) {
	if !authFrom(c).IsAdmin {
		handleServiceError(c, services.ErrPermissionDenied)
		return
	}

	report, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadGateway, dto.APIResponse{
			Error: &dto.ErrorResponse{Code: 502, Text: err.Error()},
			Data:  report,
		})
		return
	}

	respondWithSuccess(c, nil, report)
}
