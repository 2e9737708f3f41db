package handlers

import (
	"document-access/internal/domain/services"
	"document-access/internal/interfaces/dto"
	"document-access/pkg/errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AccessHandler struct {
	accessSvc *services.AccessService
	notifySvc *services.NotificationService
}

func NewAccessHandler(accessSvc *services.AccessService, notifySvc *services.NotificationService) *AccessHandler {
	return &AccessHandler{
		accessSvc: accessSvc,
		notifySvc: notifySvc,
	}
}

// List returns the caller's records grouped by state. Admins may pass
// ?user= to inspect another user.
func (h *AccessHandler) List(c *gin.Context) {
	var req dto.AccessListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("invalid query"))
		return
	}

	overview, err := h.accessSvc.ListForUser(c.Request.Context(), authFrom(c), req.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, overview)
}

func (h *AccessHandler) Request(c *gin.Context) {
	var req dto.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("recordId is required"))
		return
	}

	rec, err := h.accessSvc.RequestAccess(c.Request.Context(), authFrom(c), req.RecordID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.AccessResponse{Access: rec, State: h.accessSvc.StateOf(rec)},
	})
}

func (h *AccessHandler) Grant(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("userId and recordId are required"))
		return
	}

	rec, err := h.accessSvc.Grant(c.Request.Context(), authFrom(c), req.UserID, req.RecordID, req.EndTime)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.APIResponse{
		Data: dto.AccessResponse{Access: rec, State: h.accessSvc.StateOf(rec)},
	})
}

func (h *AccessHandler) Approve(c *gin.Context) {
	var req dto.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("invalid request body"))
		return
	}

	res, err := h.accessSvc.Approve(c.Request.Context(), authFrom(c), c.Param("id"), req.EndTime, req.Edit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, dto.ApproveResponse{
		Access:  res.Record,
		State:   res.State,
		Outcome: res.Outcome,
	})
}

func (h *AccessHandler) Reject(c *gin.Context) {
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("invalid request body"))
		return
	}

	rec, err := h.accessSvc.Reject(c.Request.Context(), authFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, dto.AccessResponse{Access: rec, State: h.accessSvc.StateOf(rec)})
}

// Inform queues and immediately mails the pending grant and rejection
// notices of a user.
func (h *AccessHandler) Inform(c *gin.Context) {
	res, err := h.notifySvc.InformUser(c.Request.Context(), authFrom(c), c.Param("user"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, res)
}

func (h *AccessHandler) OpenRequests(c *gin.Context) {
	userID := c.Param("user")
	open, err := h.accessSvc.CountOpenRequests(c.Request.Context(), authFrom(c), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	respondWithSuccess(c, nil, dto.OpenRequestsResponse{UserID: userID, Open: open})
}

// Check reports whether the caller may currently open a document.
func (h *AccessHandler) Check(c *gin.Context) {
	var req dto.HasAccessRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		handleServiceError(c, errors.NewBadRequestError("documentId is required"))
		return
	}

	auth := authFrom(c)
	ok := false
	if auth.Authenticated() {
		var err error
		ok, err = h.accessSvc.HasAccess(c.Request.Context(), auth.UserID, req.DocumentID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
	}

	respondWithSuccess(c, nil, dto.HasAccessResponse{DocumentID: req.DocumentID, Access: ok})
}

