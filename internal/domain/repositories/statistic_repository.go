package repositories

import (
	"context"

	"document-access/internal/domain/entities"
)

type StatisticRepository interface {
	// FindRecent returns the newest entry for the pair created at or after
	// since, or ErrNotFound.
	FindRecent(ctx context.Context, userID, documentID string, since int64) (*entities.StatisticEntry, error)
	Create(ctx context.Context, entry *entities.StatisticEntry) error
	Update(ctx context.Context, entry *entities.StatisticEntry) error
	Find(ctx context.Context, filter entities.StatisticFilter) ([]*entities.StatisticEntry, error)
}
