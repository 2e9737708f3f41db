package dto

type CountRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	CountType  string `json:"countType" binding:"required"`
}

type CountResponse struct {
	Counted int `json:"counted"`
}

type StatisticQueryRequest struct {
	DateFrom string `form:"dateFrom"`
	DateTo   string `form:"dateTo"`
	UserID   string `form:"user"`
}
