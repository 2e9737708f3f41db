package services

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ExpiryService selects granted records whose end time falls before a
// horizon and warns their users once per end time.
type ExpiryService struct {
	accessRepo repositories.AccessRepository
	notifier
}

func NewExpiryService(
	accessRepo repositories.AccessRepository,
	userRepo repositories.UserRepository,
	catalog DocumentCatalog,
	mailer Mailer,
	locker Locker,
	cfg NotificationConfig,
	opts ...Option,
) *ExpiryService {
	if cfg.ExpirySubject == "" {
		cfg.ExpirySubject = "Document access expires soon"
	}
	return &ExpiryService{
		accessRepo: accessRepo,
		notifier: notifier{
			userRepo: userRepo,
			catalog:  catalog,
			mailer:   mailer,
			locker:   locker,
			cfg:      cfg,
			options:  newOptions(opts),
		},
	}
}

func (s *ExpiryService) FindExpiringForUser(ctx context.Context, userID string, horizon time.Time) ([]*entities.AccessRecord, error) {
	records, err := s.accessRepo.FindExpiringByUser(ctx, userID, horizon.Unix())
	if err != nil {
		return nil, fmt.Errorf("find expiring access of %s: %w", userID, err)
	}
	return records, nil
}

// FindAllExpiring returns each user with expiring records once.
func (s *ExpiryService) FindAllExpiring(ctx context.Context, horizon time.Time) ([]string, error) {
	users, err := s.accessRepo.FindExpiringUsers(ctx, horizon.Unix())
	if err != nil {
		return nil, fmt.Errorf("find users with expiring access: %w", err)
	}
	return users, nil
}

// NotifyExpiring mails every user with expiring records and latches
// expire_notification on the mailed records.
func (s *ExpiryService) NotifyExpiring(ctx context.Context, horizon time.Time) (*NotificationResult, error) {
	users, err := s.FindAllExpiring(ctx, horizon)
	if err != nil {
		return nil, err
	}

	total := &NotificationResult{}
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.notifyUser(ctx, userID, horizon)
		total.add(res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

func (s *ExpiryService) notifyUser(ctx context.Context, userID string, horizon time.Time) (*NotificationResult, error) {
	release, err := s.lock(ctx, "notify:expiry:"+userID)
	if err != nil {
		return nil, err
	}
	defer release()

	res := &NotificationResult{}

	// Re-read under the lock; a concurrent sweep may have latched them.
	records, err := s.FindExpiringForUser(ctx, userID, horizon)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return res, nil
	}

	items, records, err := s.mailItems(ctx, records)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return res, nil
	}

	if err := s.deliver(ctx, userID, s.cfg.ExpirySubject, mailExpiry, items); err != nil {
		s.logger.Error("expiry notification failed", zap.String("user_id", userID), zap.Error(err))
		return res, err
	}
	res.Sent = len(items)

	now := s.clock().Unix()
	for _, rec := range records {
		won, err := s.accessRepo.MarkExpireNotified(ctx, rec.ID, now)
		if err != nil {
			return res, fmt.Errorf("mark access %s expire-notified: %w", rec.ID, err)
		}
		if won {
			res.Marked++
		}
	}

	s.logger.Info("expiry notification sent",
		zap.String("user_id", userID),
		zap.Int("documents", res.Sent),
		zap.Int("marked", res.Marked),
	)
	return res, nil
}
