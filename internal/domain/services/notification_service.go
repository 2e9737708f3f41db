package services

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"document-access/internal/utils"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidRecipient = errors.New("recipient has no valid e-mail address")
	ErrMissingSender    = errors.New("sender e-mail configuration is missing")
)

// Mailer hands a composed message to the mail transport. Send returns only
// after the transport accepted or refused the message.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

type Message struct {
	Subject   string
	FromEmail string
	FromName  string
	ToEmail   string
	ToName    string
	Text      string
	HTML      string
}

type NotificationConfig struct {
	FromEmail     string
	FromName      string
	GrantSubject  string
	ExpirySubject string
	LoginURL      string
	// LockTTL bounds how long one user's batch may hold its lock.
	LockTTL time.Duration
}

// DeliveryError reports a notification that could not be handed to the
// mailer. The affected records stay queued.
type DeliveryError struct {
	UserID string
	Err    error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver notification to user %s: %v", e.UserID, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type NotificationResult struct {
	Queued  int64 `json:"queued"`
	Sent    int   `json:"sent"`
	Marked  int   `json:"marked"`
	// Dropped counts queued records that no longer needed a notice.
	Dropped int   `json:"dropped,omitempty"`
}

func (r *NotificationResult) add(o *NotificationResult) {
	if o == nil {
		return
	}
	r.Queued += o.Queued
	r.Sent += o.Sent
	r.Marked += o.Marked
	r.Dropped += o.Dropped
}

// notifier holds what grant and expiry notifications share: recipient
// lookup, composition, delivery and per-user locking.
type notifier struct {
	userRepo repositories.UserRepository
	catalog  DocumentCatalog
	mailer   Mailer
	locker   Locker
	cfg      NotificationConfig
	options
}

func (n *notifier) lock(ctx context.Context, key string) (func(), error) {
	ttl := n.cfg.LockTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	return acquire(ctx, n.locker, key, ttl)
}

// mailItems resolves the documents of records. Records whose document left
// the catalog are skipped and stay unmarked.
func (n *notifier) mailItems(ctx context.Context, records []*entities.AccessRecord) ([]MailItem, []*entities.AccessRecord, error) {
	items := make([]MailItem, 0, len(records))
	kept := make([]*entities.AccessRecord, 0, len(records))
	for _, rec := range records {
		doc, err := n.catalog.FindByID(ctx, rec.DocumentID)
		if errors.Is(err, repositories.ErrNotFound) {
			n.logger.Warn("notification skips record without document",
				zap.String("access_id", rec.ID),
				zap.String("document_id", rec.DocumentID),
			)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("look up document %s: %w", rec.DocumentID, err)
		}
		items = append(items, newMailItem(rec, doc, n.location))
		kept = append(kept, rec)
	}
	return items, kept, nil
}

// deliver composes and sends one message to userID. Every failure up to and
// including the transport is a DeliveryError.
func (n *notifier) deliver(ctx context.Context, userID, subject string, kind mailKind, items []MailItem) error {
	user, err := n.userRepo.GetByID(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return &DeliveryError{UserID: userID, Err: ErrInvalidRecipient}
	}
	if err != nil {
		return fmt.Errorf("look up user %s: %w", userID, err)
	}
	if err := utils.ValidateEmail(user.Email); err != nil {
		return &DeliveryError{UserID: userID, Err: ErrInvalidRecipient}
	}
	if n.cfg.FromEmail == "" || n.cfg.FromName == "" {
		return &DeliveryError{UserID: userID, Err: ErrMissingSender}
	}

	msg, err := composeMessage(kind, mailData{
		FullName: user.FullName,
		LoginURL: n.cfg.LoginURL,
		Items:    items,
	})
	if err != nil {
		return fmt.Errorf("compose notification: %w", err)
	}
	msg.Subject = subject
	msg.FromEmail = n.cfg.FromEmail
	msg.FromName = n.cfg.FromName
	msg.ToEmail = user.Email
	msg.ToName = user.FullName

	if err := n.mailer.Send(ctx, msg); err != nil {
		return &DeliveryError{UserID: userID, Err: err}
	}
	return nil
}

// NotificationService announces grants and rejections to their users.
type NotificationService struct {
	accessRepo repositories.AccessRepository
	notifier
}

func NewNotificationService(
	accessRepo repositories.AccessRepository,
	userRepo repositories.UserRepository,
	catalog DocumentCatalog,
	mailer Mailer,
	locker Locker,
	cfg NotificationConfig,
	opts ...Option,
) *NotificationService {
	if cfg.GrantSubject == "" {
		cfg.GrantSubject = "Document access"
	}
	return &NotificationService{
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

// InformUser queues every unannounced grant or rejection of userID and
// sends the batch right away.
func (s *NotificationService) InformUser(ctx context.Context, auth entities.AuthContext, userID string) (*NotificationResult, error) {
	if !auth.IsAdmin {
		return nil, ErrPermissionDenied
	}

	queued, err := s.accessRepo.QueueNotifications(ctx, userID, s.clock().Unix())
	if err != nil {
		return nil, fmt.Errorf("queue notifications of %s: %w", userID, err)
	}

	res, err := s.QueueGrantOrRejectNotifications(ctx, userID)
	if res != nil {
		res.Queued = queued
	}
	return res, err
}

// QueueGrantOrRejectNotifications mails one batch with every queued record
// of userID and latches each mailed record afterwards. On delivery failure
// nothing is latched and the records stay queued for the next run.
func (s *NotificationService) QueueGrantOrRejectNotifications(ctx context.Context, userID string) (*NotificationResult, error) {
	release, err := s.lock(ctx, "notify:grant:"+userID)
	if err != nil {
		return nil, err
	}
	defer release()

	res := &NotificationResult{}

	queued, err := s.accessRepo.FindQueuedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find queued notifications of %s: %w", userID, err)
	}

	now := s.clock()
	candidates := make([]*entities.AccessRecord, 0, len(queued))
	for _, rec := range queued {
		if rec.NeedsNotice(now) {
			candidates = append(candidates, rec)
			continue
		}
		// Expired or back to pending since it was queued; nothing to announce.
		if _, err := s.accessRepo.Unqueue(ctx, rec.ID); err != nil {
			return res, fmt.Errorf("unqueue access %s: %w", rec.ID, err)
		}
		res.Dropped++
	}
	if len(candidates) == 0 {
		return res, nil
	}

	items, records, err := s.mailItems(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return res, nil
	}

	if err := s.deliver(ctx, userID, s.cfg.GrantSubject, mailGrant, items); err != nil {
		s.logger.Error("grant notification failed", zap.String("user_id", userID), zap.Error(err))
		return res, err
	}
	res.Sent = len(items)

	for _, rec := range records {
		won, err := s.accessRepo.MarkNotified(ctx, rec.ID, now.Unix())
		if err != nil {
			return res, fmt.Errorf("mark access %s notified: %w", rec.ID, err)
		}
		if won {
			res.Marked++
		}
	}

	s.logger.Info("grant notification sent",
		zap.String("user_id", userID),
		zap.Int("documents", res.Sent),
		zap.Int("marked", res.Marked),
	)
	return res, nil
}

// DispatchQueued runs QueueGrantOrRejectNotifications for every user with
// queued records. A failing user does not stop the others.
func (s *NotificationService) DispatchQueued(ctx context.Context) (*NotificationResult, error) {
	users, err := s.accessRepo.FindUsersWithQueued(ctx)
	if err != nil {
		return nil, fmt.Errorf("find users with queued notifications: %w", err)
	}

	total := &NotificationResult{}
	var errs []error
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.QueueGrantOrRejectNotifications(ctx, userID)
		total.add(res)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}
