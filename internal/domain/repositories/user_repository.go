package repositories

import (
	"context"

	"document-access/internal/domain/entities"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entities.User, error)
}
