package services

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"document-access/internal/utils"
	"document-access/pkg/errors"
	"fmt"
	"strings"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CountOutcome int

const (
	NotCounted   CountOutcome = -1
	CountUpdated CountOutcome = 1
	CountCreated CountOutcome = 2
)

const DefaultStatisticWindow = 24 * time.Hour

type StatisticQuery struct {
	DateFrom string
	DateTo   string
	UserID   string
	// Submitted is false when no filter form was sent; the query then
	// covers all time through today.
	Submitted bool
}

type StatisticResult struct {
	Entries  []*entities.StatisticEntry `json:"entries"`
	DateFrom string                     `json:"date_from"`
	DateTo   string                     `json:"date_to"`
	Errors   []string                   `json:"errors,omitempty"`
}

type StatisticService struct {
	statRepo repositories.StatisticRepository
	catalog  DocumentCatalog
	locker   Locker
	window   time.Duration
	options
}

func NewStatisticService(statRepo repositories.StatisticRepository, catalog DocumentCatalog, locker Locker, window time.Duration, opts ...Option) *StatisticService {
	if window <= 0 {
		window = DefaultStatisticWindow
	}
	return &StatisticService{
		statRepo: statRepo,
		catalog:  catalog,
		locker:   locker,
		window:   window,
		options:  newOptions(opts),
	}
}

// RecordEvent counts one download or view of documentID by the caller.
// Anonymous callers and unknown documents are not counted and not an error.
func (s *StatisticService) RecordEvent(ctx context.Context, auth entities.AuthContext, documentID string, countType entities.CountType) (CountOutcome, error) {
	if !countType.Valid() {
		return NotCounted, errors.NewValidationError(CodeInvalidCountType)
	}
	if !auth.Authenticated() {
		return NotCounted, nil
	}

	doc, err := s.catalog.FindByID(ctx, documentID)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return NotCounted, nil
	}
	if err != nil {
		return NotCounted, fmt.Errorf("look up document %s: %w", documentID, err)
	}

	release, err := acquire(ctx, s.locker, fmt.Sprintf("stat:%s:%s", auth.UserID, doc.ID), 10*time.Second)
	if err != nil {
		return NotCounted, err
	}
	defer release()

	now := s.clock()
	entry, err := s.statRepo.FindRecent(ctx, auth.UserID, doc.ID, now.Add(-s.window).Unix())
	switch {
	case err == nil:
		entry.Count(countType)
		entry.UpdatedAt = now.Unix()
		if err := s.statRepo.Update(ctx, entry); err != nil {
			return NotCounted, fmt.Errorf("update statistic %s: %w", entry.ID, err)
		}
		s.logger.Debug("statistic updated", zap.String("user_id", auth.UserID), zap.String("document_id", doc.ID), zap.String("count_type", string(countType)))
		return CountUpdated, nil

	case stderrors.Is(err, repositories.ErrNotFound):
		entry = &entities.StatisticEntry{
			ID:         uuid.NewString(),
			UserID:     auth.UserID,
			DocumentID: doc.ID,
			CreatedAt:  now.Unix(),
			UpdatedAt:  now.Unix(),
		}
		entry.Count(countType)
		if err := s.statRepo.Create(ctx, entry); err != nil {
			return NotCounted, fmt.Errorf("create statistic: %w", err)
		}
		s.logger.Debug("statistic created", zap.String("user_id", auth.UserID), zap.String("document_id", doc.ID), zap.String("count_type", string(countType)))
		return CountCreated, nil

	default:
		return NotCounted, fmt.Errorf("find statistic: %w", err)
	}
}

// Query lists statistic entries. Non-admins only see their own entries;
// admins see everyone unless q.UserID is set. Invalid dates are reported in
// the result, not as an error.
func (s *StatisticService) Query(ctx context.Context, auth entities.AuthContext, q StatisticQuery) (*StatisticResult, error) {
	if !auth.Authenticated() {
		return nil, ErrPermissionDenied
	}

	filter := entities.StatisticFilter{UserID: q.UserID}
	if !auth.IsAdmin {
		filter.UserID = auth.UserID
	}

	now := s.clock()
	res := &StatisticResult{Entries: []*entities.StatisticEntry{}}

	if !q.Submitted {
		filter.To = utils.EndOfDay(now).Unix()
		res.DateTo = now.Format(utils.DateLayout)
	} else {
		res.DateFrom = strings.TrimSpace(q.DateFrom)
		res.DateTo = strings.TrimSpace(q.DateTo)

		var from, to time.Time
		var fromErr, toErr error
		if res.DateFrom != "" {
			if from, fromErr = utils.ParseDate(res.DateFrom, s.location); fromErr != nil {
				res.Errors = append(res.Errors, CodeInvalidDateFrom)
			} else {
				filter.From = utils.StartOfDay(from).Unix()
			}
		}
		if res.DateTo != "" {
			if to, toErr = utils.ParseDate(res.DateTo, s.location); toErr != nil {
				res.Errors = append(res.Errors, CodeInvalidDateTo)
			} else {
				filter.To = utils.EndOfDay(to).Unix()
			}
		}
		if res.DateFrom != "" && res.DateTo != "" && fromErr == nil && toErr == nil && from.After(to) {
			res.Errors = append(res.Errors, CodeInvalidDateRange)
		}
		if len(res.Errors) > 0 {
			return res, nil
		}
	}

	entries, err := s.statRepo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query statistics: %w", err)
	}
	res.Entries = entries
	return res, nil
}
