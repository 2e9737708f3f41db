package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

type SweeperConfig struct {
	// Interval between runs. 0 disables the sweeper.
	Interval time.Duration
	// Horizon is added to now to pick records that expire soon.
	Horizon time.Duration
}

// Sweeper periodically dispatches queued grant notifications and warns users
// about expiring access. Every step is a compare-and-set on the record, so
// overlapping sweepers in other processes do not double-notify.
type Sweeper struct {
	notifications *NotificationService
	expiry        *ExpiryService
	cfg           SweeperConfig
	logger        *zap.Logger
	now           func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

type SweepReport struct {
	Notifications *NotificationResult `json:"notifications"`
	Expiry        *NotificationResult `json:"expiry"`
}

// NewSweeper creates a sweeper but does not start it.
func NewSweeper(notifications *NotificationService, expiry *ExpiryService, cfg SweeperConfig, opts ...Option) *Sweeper {
	o := newOptions(opts)
	return &Sweeper{
		notifications: notifications,
		expiry:        expiry,
		cfg:           cfg,
		logger:        o.logger,
		now:           o.clock,
		done:          make(chan struct{}),
	}
}

// Start runs one sweep immediately, then repeats on the interval until ctx
// is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		s.logger.Info("sweeper disabled")
		s.once.Do(func() { close(s.done) })
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)

	s.logger.Info("sweeper started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("horizon", s.cfg.Horizon),
	)
}

// Stop signals the loop to exit and waits for it. Stopping a sweeper that
// was never started returns at once.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		s.once.Do(func() { close(s.done) })
		return
	}
	s.cancel()
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer s.once.Do(func() { close(s.done) })

	s.sweep(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	report, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("sweep finished with errors", zap.Error(err))
	}
	if report.Notifications.Sent > 0 || report.Expiry.Sent > 0 {
		s.logger.Info("sweep sent notifications",
			zap.Int("granted_or_rejected", report.Notifications.Sent),
			zap.Int("expiring", report.Expiry.Sent),
		)
	}
}

// RunOnce performs one sweep. Both halves always run; their errors are
// joined. The report is never nil.
func (s *Sweeper) RunOnce(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{
		Notifications: &NotificationResult{},
		Expiry:        &NotificationResult{},
	}

	res, dispatchErr := s.notifications.DispatchQueued(ctx)
	report.Notifications.add(res)

	res, expiryErr := s.expiry.NotifyExpiring(ctx, s.now().Add(s.cfg.Horizon))
	report.Expiry.add(res)

	return report, errors.Join(dispatchErr, expiryErr)
}
