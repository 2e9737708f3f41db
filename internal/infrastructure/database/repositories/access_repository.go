package repositories

import (
	"context"
	"database/sql"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"document-access/internal/infrastructure/database"
	"errors"
	"fmt"
)

const accessColumns = `uid, fe_user, dlf_document, record_id, hidden, rejected, rejected_reason,
	start_time, end_time, inform_user, access_granted_notification, expire_notification,
	version, crdate, tstamp`

// expiringPredicate selects granted, not yet warned records ending by a horizon.
const expiringPredicate = `expire_notification = 0 AND end_time > 0 AND end_time <= ?
	AND hidden = ? AND rejected = ?`

type accessRepository struct {
	db *database.DB
}

func NewAccessRepository(db *database.DB) repositories.AccessRepository {
	return &accessRepository{db: db}
}

func (r *accessRepository) Create(ctx context.Context, rec *entities.AccessRecord) error {
	query := r.db.Rebind(`INSERT INTO document_access (` + accessColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.DocumentID, rec.RecordID, rec.Hidden, rec.Rejected, rec.RejectedReason,
		rec.StartTime, rec.EndTime, rec.InformUser, rec.AccessGrantedNotification, rec.ExpireNotification,
		rec.Version, rec.CreatedAt, rec.UpdatedAt,
	)
	if database.IsUniqueViolation(err) {
		return repositories.ErrDuplicate
	}
	return err
}

func (r *accessRepository) Update(ctx context.Context, rec *entities.AccessRecord) error {
	query := r.db.Rebind(`UPDATE document_access SET hidden = ?, rejected = ?, rejected_reason = ?,
		start_time = ?, end_time = ?, inform_user = ?, access_granted_notification = ?,
		expire_notification = ?, tstamp = ?, version = version + 1
		WHERE uid = ? AND version = ?`)

	res, err := r.db.ExecContext(ctx, query,
		rec.Hidden, rec.Rejected, rec.RejectedReason,
		rec.StartTime, rec.EndTime, rec.InformUser, rec.AccessGrantedNotification,
		rec.ExpireNotification, rec.UpdatedAt,
		rec.ID, rec.Version,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, rec.ID, entities.AllRecords); err != nil {
			return err
		}
		return repositories.ErrConflict
	}

	rec.Version++
	return nil
}

func (r *accessRepository) GetByID(ctx context.Context, id string, vis entities.QueryVisibility) (*entities.AccessRecord, error) {
	query := `SELECT ` + accessColumns + ` FROM document_access WHERE uid = ?`
	args := []any{id}
	if !vis.IncludeHidden {
		query += ` AND hidden = ?`
		args = append(args, false)
	}

	var rec entities.AccessRecord
	err := r.db.GetContext(ctx, &rec, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *accessRepository) FindByUser(ctx context.Context, userID string, vis entities.QueryVisibility) ([]*entities.AccessRecord, error) {
	query := `SELECT ` + accessColumns + ` FROM document_access WHERE fe_user = ?`
	args := []any{userID}
	if !vis.IncludeHidden {
		query += ` AND hidden = ?`
		args = append(args, false)
	}
	query += ` ORDER BY crdate DESC, uid ASC`

	return r.selectRecords(ctx, query, args...)
}

func (r *accessRepository) FindByUserAndDocument(ctx context.Context, userID, documentID string) ([]*entities.AccessRecord, error) {
	query := `SELECT ` + accessColumns + ` FROM document_access
		WHERE fe_user = ? AND dlf_document = ? ORDER BY crdate DESC, uid ASC`
	return r.selectRecords(ctx, query, userID, documentID)
}

func (r *accessRepository) CountOpenByUser(ctx context.Context, userID string) (int, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM document_access WHERE fe_user = ? AND hidden = ? AND rejected = ?`)

	var n int
	err := r.db.GetContext(ctx, &n, query, userID, true, false)
	return n, err
}

func (r *accessRepository) QueueNotifications(ctx context.Context, userID string, now int64) (int64, error) {
	query := r.db.Rebind(`UPDATE document_access SET inform_user = ?, version = version + 1
		WHERE fe_user = ? AND access_granted_notification = 0 AND inform_user = ?
		AND ((hidden = ? AND (end_time = 0 OR end_time >= ?)) OR (hidden = ? AND rejected = ?))`)

	res, err := r.db.ExecContext(ctx, query, true, userID, false, false, now, true, true)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *accessRepository) FindQueuedByUser(ctx context.Context, userID string) ([]*entities.AccessRecord, error) {
	query := `SELECT ` + accessColumns + ` FROM document_access
		WHERE fe_user = ? AND inform_user = ? AND access_granted_notification = 0
		ORDER BY rejected ASC, crdate ASC, uid ASC`
	return r.selectRecords(ctx, query, userID, true)
}

func (r *accessRepository) FindUsersWithQueued(ctx context.Context) ([]string, error) {
	query := r.db.Rebind(`SELECT DISTINCT fe_user FROM document_access
		WHERE inform_user = ? AND access_granted_notification = 0 ORDER BY fe_user`)

	users := []string{}
	err := r.db.SelectContext(ctx, &users, query, true)
	return users, err
}

func (r *accessRepository) MarkNotified(ctx context.Context, id string, at int64) (bool, error) {
	query := r.db.Rebind(`UPDATE document_access SET access_granted_notification = ?, inform_user = ?,
		version = version + 1
		WHERE uid = ? AND inform_user = ? AND access_granted_notification = 0`)
	return r.latch(ctx, query, at, false, id, true)
}

func (r *accessRepository) Unqueue(ctx context.Context, id string) (bool, error) {
	query := r.db.Rebind(`UPDATE document_access SET inform_user = ?, version = version + 1
		WHERE uid = ? AND inform_user = ? AND access_granted_notification = 0`)
	return r.latch(ctx, query, false, id, true)
}

func (r *accessRepository) FindExpiringByUser(ctx context.Context, userID string, horizon int64) ([]*entities.AccessRecord, error) {
	query := `SELECT ` + accessColumns + ` FROM document_access
		WHERE fe_user = ? AND ` + expiringPredicate + ` ORDER BY end_time ASC, uid ASC`
	return r.selectRecords(ctx, query, userID, horizon, false, false)
}

func (r *accessRepository) FindExpiringUsers(ctx context.Context, horizon int64) ([]string, error) {
	query := r.db.Rebind(`SELECT fe_user FROM document_access
		WHERE ` + expiringPredicate + ` GROUP BY fe_user ORDER BY fe_user`)

	users := []string{}
	err := r.db.SelectContext(ctx, &users, query, horizon, false, false)
	return users, err
}

func (r *accessRepository) MarkExpireNotified(ctx context.Context, id string, at int64) (bool, error) {
	query := r.db.Rebind(`UPDATE document_access SET expire_notification = ?, version = version + 1
		WHERE uid = ? AND expire_notification = 0`)
	return r.latch(ctx, query, at, id)
}

// latch runs a compare-and-set update and reports whether it changed a row.
func (r *accessRepository) latch(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *accessRepository) selectRecords(ctx context.Context, query string, args ...any) ([]*entities.AccessRecord, error) {
	records := []*entities.AccessRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return records, nil
}
