package dto

import "document-access/internal/domain/entities"

type AccessRequest struct {
	RecordID string `json:"recordId" binding:"required"`
}

type GrantRequest struct {
	UserID   string `json:"userId" binding:"required"`
	RecordID string `json:"recordId" binding:"required"`
	EndTime  int64  `json:"endTime" binding:"gte=0"`
}

type ApproveRequest struct {
	EndTime int64 `json:"endTime" binding:"gte=0"`
	Edit    bool  `json:"edit"`
}

type RejectRequest struct {
	Reason string `json:"reason" binding:"max=2000"`
}

type AccessListRequest struct {
	UserID string `form:"user"`
}

type HasAccessRequest struct {
	DocumentID string `form:"documentId" binding:"required"`
}

type AccessResponse struct {
	Access *entities.AccessRecord `json:"access"`
	State  entities.AccessState   `json:"state"`
}

type ApproveResponse struct {
	Access  *entities.AccessRecord `json:"access"`
	State   entities.AccessState   `json:"state"`
	Outcome string                 `json:"outcome"`
}

type OpenRequestsResponse struct {
	UserID string `json:"userId"`
	Open   int    `json:"open"`
}

type HasAccessResponse struct {
	DocumentID string `json:"documentId"`
	Access     bool   `json:"access"`
}
