package handlers

import (
	"document-access/internal/domain/entities"
	"document-access/internal/domain/services"
	"document-access/internal/interfaces/dto"
	"document-access/pkg/errors"

	"github.com/gin-gonic/gin"
)

type StatisticHandler struct {
	statSvc *services.StatisticService
}

func NewStatisticHandler(statSvc *services.StatisticService) *StatisticHandler {
	return &StatisticHandler{statSvc: statSvc}
}

// Count records a download or view. Anonymous callers and unknown
// documents answer counted=-1.
func (h *StatisticHandler) Count(c *gin.Context) {
	var req dto.CountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("documentId and countType are required"))
		return
	}

	outcome, err := h.statSvc.RecordEvent(c.Request.Context(), authFrom(c), req.DocumentID, entities.CountType(req.CountType))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, dto.CountResponse{Counted: int(outcome)})
}

func (h *StatisticHandler) Query(c *gin.Context) {
	var req dto.StatisticQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("invalid query"))
		return
	}

	_, hasFrom := c.GetQuery("dateFrom")
	_, hasTo := c.GetQuery("dateTo")

	res, err := h.statSvc.Query(c.Request.Context(), authFrom(c), services.StatisticQuery{
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		UserID:    req.UserID,
		Submitted: hasFrom || hasTo,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, res)
}
