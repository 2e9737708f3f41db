package services

import (
	"context"
	"document-access/pkg/errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrPermissionDenied is returned when the caller lacks admin capability.
// It carries no detail.
var ErrPermissionDenied = errors.NewForbiddenError("permission denied")

// Validation codes reported through pkg/errors.ValidationError.
const (
	CodeMissingRecordID  = "missing_record_id"
	CodeDocumentNotFound = "document_not_found"
	CodeDuplicateAccess  = "duplicate_access"
	CodeInvalidEndTime   = "invalid_end_time"
	CodeInvalidCountType = "invalid_count_type"
	CodeInvalidDateFrom  = "invalid_date_from"
	CodeInvalidDateTo    = "invalid_date_to"
	CodeInvalidDateRange = "invalid_date_range"
)

// Locker serializes work on a key across goroutines or processes. Acquire
// blocks until the key is free or ctx is done; release is safe to call once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// acquire takes key on l. A nil Locker hands out no-op locks.
func acquire(ctx context.Context, l Locker, key string, ttl time.Duration) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	release, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return release, nil
}

type options struct {
	now      func() time.Time
	logger   *zap.Logger
	location *time.Location
}

type Option func(*options)

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithLocation sets the time zone that defines "today" for grant windows
// and statistic date filters.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		logger:   zap.NewNop(),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) clock() time.Time {
	return o.now().In(o.location)
}
