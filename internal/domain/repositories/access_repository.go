package repositories

import (
	"context"
	"errors"

	"document-access/internal/domain/entities"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an update carries a stale version.
	ErrConflict = errors.New("record was modified concurrently")
	// ErrDuplicate is returned by Create when the (user, document) pair
	// already has a pending record.
	ErrDuplicate = errors.New("pending record already exists")
)

type AccessRepository interface {
	Create(ctx context.Context, rec *entities.AccessRecord) error
	// Update persists rec if its Version still matches the stored one and
	// bumps rec.Version on success.
	Update(ctx context.Context, rec *entities.AccessRecord) error
	GetByID(ctx context.Context, id string, vis entities.QueryVisibility) (*entities.AccessRecord, error)
	FindByUser(ctx context.Context, userID string, vis entities.QueryVisibility) ([]*entities.AccessRecord, error)
	FindByUserAndDocument(ctx context.Context, userID, documentID string) ([]*entities.AccessRecord, error)
	CountOpenByUser(ctx context.Context, userID string) (int, error)

	// QueueNotifications sets inform_user on the user's granted or rejected
	// records that were never announced. Records expired before now are
	// not queued.
	QueueNotifications(ctx context.Context, userID string, now int64) (int64, error)
	// FindQueuedByUser returns inform_user=true, access_granted_notification=0
	// records ordered ascending by the rejected flag.
	FindQueuedByUser(ctx context.Context, userID string) ([]*entities.AccessRecord, error)
	FindUsersWithQueued(ctx context.Context) ([]string, error)
	// MarkNotified latches access_granted_notification and clears inform_user
	// only if the record is still queued. It reports whether it won the latch.
	MarkNotified(ctx context.Context, id string, at int64) (bool, error)
	// Unqueue clears inform_user on a queued record that no longer needs a
	// notice, leaving access_granted_notification untouched.
	Unqueue(ctx context.Context, id string) (bool, error)

	FindExpiringByUser(ctx context.Context, userID string, horizon int64) ([]*entities.AccessRecord, error)
	FindExpiringUsers(ctx context.Context, horizon int64) ([]string, error)
	MarkExpireNotified(ctx context.Context, id string, at int64) (bool, error)
}
