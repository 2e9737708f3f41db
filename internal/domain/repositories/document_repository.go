package repositories

import (
	"context"

	"document-access/internal/domain/entities"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Document, error)
	GetByRecordID(ctx context.Context, recordID string) (*entities.Document, error)
}
