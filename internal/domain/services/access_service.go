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

const (
	OutcomeGranted = "granted"
	OutcomeUpdated = "updated"
)

// accessLockTTL bounds how long a crashed process can block new records of
// one (user, document) pair.
const accessLockTTL = 10 * time.Second

type ApproveResult struct {
	Record  *entities.AccessRecord
	State   entities.AccessState
	Outcome string
}

// AccessService drives access records through pending, granted and
// rejected. Every operation validates fully before touching a record.
type AccessService struct {
	accessRepo repositories.AccessRepository
	catalog    DocumentCatalog
	locker     Locker
	options
}

// NewAccessService wires the lifecycle engine. locker serializes new
// records per (user, document); nil disables locking.
func NewAccessService(accessRepo repositories.AccessRepository, catalog DocumentCatalog, locker Locker, opts ...Option) *AccessService {
	return &AccessService{
		accessRepo: accessRepo,
		catalog:    catalog,
		locker:     locker,
		options:    newOptions(opts),
	}
}

// StateOf classifies rec against the service clock.
func (s *AccessService) StateOf(rec *entities.AccessRecord) entities.AccessState {
	return entities.Classify(rec, s.clock())
}

// RequestAccess files a pending request of the caller for the catalog
// document identified by recordID.
func (s *AccessService) RequestAccess(ctx context.Context, auth entities.AuthContext, recordID string) (*entities.AccessRecord, error) {
	if !auth.Authenticated() {
		return nil, ErrPermissionDenied
	}

	now := s.clock()
	rec, err := s.createNew(ctx, auth.UserID, recordID, nil, func(doc *entities.Document) *entities.AccessRecord {
		return entities.NewPendingAccess(uuid.NewString(), auth.UserID, doc, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("access requested",
		zap.String("access_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.String("record_id", rec.RecordID),
	)
	return rec, nil
}

// Grant lets an admin create an already granted record for userID.
func (s *AccessService) Grant(ctx context.Context, auth entities.AuthContext, userID, recordID string, endTime int64) (*entities.AccessRecord, error) {
	if !auth.IsAdmin {
		return nil, ErrPermissionDenied
	}

	now := s.clock()
	rec, err := s.createNew(ctx, userID, recordID, s.validateEndTime(endTime, now), func(doc *entities.Document) *entities.AccessRecord {
		rec := entities.NewPendingAccess(uuid.NewString(), userID, doc, now)
		rec.Grant(utils.StartOfDay(now).Unix(), endTime, now)
		return rec
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("access granted",
		zap.String("access_id", rec.ID),
		zap.String("user_id", rec.UserID),
		zap.String("admin_id", auth.UserID),
		zap.Int64("end_time", rec.EndTime),
	)
	return rec, nil
}

// Approve grants (or, with isEdit, re-times) an existing record. The
// transition is the same either way; isEdit only selects the outcome label.
func (s *AccessService) Approve(ctx context.Context, auth entities.AuthContext, accessID string, endTime int64, isEdit bool) (*ApproveResult, error) {
	if !auth.IsAdmin {
		return nil, ErrPermissionDenied
	}

	now := s.clock()
	if codes := s.validateEndTime(endTime, now); len(codes) > 0 {
		return nil, errors.NewValidationError(codes...)
	}

	rec, err := s.load(ctx, accessID)
	if err != nil {
		return nil, err
	}

	rec.Grant(utils.StartOfDay(now).Unix(), endTime, now)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}

	outcome := OutcomeGranted
	if isEdit {
		outcome = OutcomeUpdated
	}

	s.logger.Info("access approved",
		zap.String("access_id", rec.ID),
		zap.String("admin_id", auth.UserID),
		zap.String("outcome", outcome),
		zap.Int64("end_time", rec.EndTime),
	)
	return &ApproveResult{Record: rec, State: entities.Classify(rec, now), Outcome: outcome}, nil
}

// Reject soft-revokes a record. Rejecting twice yields the same flags.
func (s *AccessService) Reject(ctx context.Context, auth entities.AuthContext, accessID, reason string) (*entities.AccessRecord, error) {
	if !auth.IsAdmin {
		return nil, ErrPermissionDenied
	}

	rec, err := s.load(ctx, accessID)
	if err != nil {
		return nil, err
	}

	rec.Reject(utils.StripTags(reason), s.clock())
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("access rejected",
		zap.String("access_id", rec.ID),
		zap.String("admin_id", auth.UserID),
	)
	return rec, nil
}

// ListForUser groups a user's records by state. Non-admins, and admins
// without a target, always get their own list.
func (s *AccessService) ListForUser(ctx context.Context, auth entities.AuthContext, userID string) (*entities.AccessOverview, error) {
	if !auth.Authenticated() {
		return nil, ErrPermissionDenied
	}
	if !auth.IsAdmin || userID == "" {
		userID = auth.UserID
	}

	records, err := s.accessRepo.FindByUser(ctx, userID, entities.AllRecords)
	if err != nil {
		return nil, fmt.Errorf("list access of %s: %w", userID, err)
	}

	now := s.clock()
	overview := &entities.AccessOverview{
		UserID:   userID,
		Granted:  []*entities.AccessRecord{},
		Pending:  []*entities.AccessRecord{},
		Expired:  []*entities.AccessRecord{},
		Rejected: []*entities.AccessRecord{},
	}
	for _, rec := range records {
		switch entities.Classify(rec, now) {
		case entities.AccessRejected:
			overview.Rejected = append(overview.Rejected, rec)
			if !rec.InformUser && rec.AccessGrantedNotification == 0 {
				overview.Uninformed++
			}
		case entities.AccessPending:
			overview.Pending = append(overview.Pending, rec)
		case entities.AccessExpired:
			overview.Expired = append(overview.Expired, rec)
		default:
			overview.Granted = append(overview.Granted, rec)
			if !rec.InformUser && rec.AccessGrantedNotification == 0 {
				overview.Uninformed++
			}
		}
	}

	return overview, nil
}

func (s *AccessService) CountOpenRequests(ctx context.Context, auth entities.AuthContext, userID string) (int, error) {
	if !auth.IsAdmin {
		return 0, ErrPermissionDenied
	}
	return s.accessRepo.CountOpenByUser(ctx, userID)
}

// HasAccess reports whether userID currently holds a granted record for the
// document.
func (s *AccessService) HasAccess(ctx context.Context, userID, documentID string) (bool, error) {
	records, err := s.accessRepo.FindByUserAndDocument(ctx, userID, documentID)
	if err != nil {
		return false, err
	}
	now := s.clock()
	for _, rec := range records {
		if rec.StartTime <= now.Unix() && entities.Classify(rec, now) == entities.AccessGranted {
			return true, nil
		}
	}
	return false, nil
}

// createNew validates a new record of userID for recordID and stores the
// record built by newRecord. The duplicate check and the insert run under
// the pair's lock. extra codes are reported after the record checks.
func (s *AccessService) createNew(ctx context.Context, userID, recordID string, extra []string, newRecord func(*entities.Document) *entities.AccessRecord) (*entities.AccessRecord, error) {
	doc, codes, err := s.resolve(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.NewValidationError(append(codes, extra...)...)
	}

	release, err := acquire(ctx, s.locker, fmt.Sprintf("access:%s:%s", userID, doc.ID), accessLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.accessRepo.FindByUserAndDocument(ctx, userID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("look up access of %s: %w", userID, err)
	}
	now := s.clock()
	for _, rec := range existing {
		if rec.Active(now) {
			codes = append(codes, CodeDuplicateAccess)
			break
		}
	}
	codes = append(codes, extra...)
	if len(codes) > 0 {
		return nil, errors.NewValidationError(codes...)
	}

	rec := newRecord(doc)
	err = s.accessRepo.Create(ctx, rec)
	if stderrors.Is(err, repositories.ErrDuplicate) {
		return nil, errors.NewValidationError(CodeDuplicateAccess)
	}
	if err != nil {
		return nil, fmt.Errorf("create access of %s: %w", userID, err)
	}
	return rec, nil
}

// resolve looks up the catalog document for recordID. A missing or unknown
// record id is reported as a code, infrastructure failures as err.
func (s *AccessService) resolve(ctx context.Context, recordID string) (*entities.Document, []string, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return nil, []string{CodeMissingRecordID}, nil
	}

	doc, err := s.catalog.FindByRecordID(ctx, recordID)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, []string{CodeDocumentNotFound}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("look up document %s: %w", recordID, err)
	}
	return doc, nil, nil
}

func (s *AccessService) load(ctx context.Context, accessID string) (*entities.AccessRecord, error) {
	rec, err := s.accessRepo.GetByID(ctx, accessID, entities.AllRecords)
	if stderrors.Is(err, repositories.ErrNotFound) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("access record %s not found", accessID))
	}
	if err != nil {
		return nil, fmt.Errorf("load access %s: %w", accessID, err)
	}
	return rec, nil
}

func (s *AccessService) update(ctx context.Context, rec *entities.AccessRecord) error {
	err := s.accessRepo.Update(ctx, rec)
	switch {
	case stderrors.Is(err, repositories.ErrConflict):
		return errors.NewConflictError(fmt.Sprintf("access record %s was modified, reload and retry", rec.ID))
	case stderrors.Is(err, repositories.ErrNotFound):
		return errors.NewNotFoundError(fmt.Sprintf("access record %s not found", rec.ID))
	case err != nil:
		return fmt.Errorf("update access %s: %w", rec.ID, err)
	}
	return nil
}

// validateEndTime requires a set end time to lie strictly after the start
// of tomorrow.
func (s *AccessService) validateEndTime(endTime int64, now time.Time) []string {
	if endTime != 0 && endTime <= utils.Tomorrow(now).Unix() {
		return []string{CodeInvalidEndTime}
	}
	return nil
}
