package repositories

import (
	"context"
	"database/sql"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"document-access/internal/infrastructure/database"
	"errors"
)

const statisticColumns = `uid, fe_user, document, download_work, download_pages, work_views, crdate, tstamp`

type statisticRepository struct {
	db *database.DB
}

func NewStatisticRepository(db *database.DB) repositories.StatisticRepository {
	return &statisticRepository{db: db}
}

func (r *statisticRepository) FindRecent(ctx context.Context, userID, documentID string, since int64) (*entities.StatisticEntry, error) {
	query := r.db.Rebind(`SELECT ` + statisticColumns + ` FROM document_statistic
		WHERE fe_user = ? AND document = ? AND crdate >= ?
		ORDER BY crdate DESC LIMIT 1`)

	var entry entities.StatisticEntry
	err := r.db.GetContext(ctx, &entry, query, userID, documentID, since)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *statisticRepository) Create(ctx context.Context, entry *entities.StatisticEntry) error {
	query := r.db.Rebind(`INSERT INTO document_statistic (` + statisticColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.DocumentID,
		entry.DownloadWork, entry.DownloadPages, entry.WorkViews,
		entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

func (r *statisticRepository) Update(ctx context.Context, entry *entities.StatisticEntry) error {
	query := r.db.Rebind(`UPDATE document_statistic SET download_work = ?, download_pages = ?,
		work_views = ?, tstamp = ? WHERE uid = ?`)

	res, err := r.db.ExecContext(ctx, query,
		entry.DownloadWork, entry.DownloadPages, entry.WorkViews, entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *statisticRepository) Find(ctx context.Context, filter entities.StatisticFilter) ([]*entities.StatisticEntry, error) {
	query := `SELECT ` + statisticColumns + ` FROM document_statistic WHERE 1=1`
	args := []any{}

	if filter.UserID != "" {
		query += ` AND fe_user = ?`
		args = append(args, filter.UserID)
	}
	if filter.From != 0 {
		query += ` AND crdate >= ?`
		args = append(args, filter.From)
	}
	if filter.To != 0 {
		query += ` AND crdate <= ?`
		args = append(args, filter.To)
	}

	query += ` ORDER BY crdate DESC, uid ASC`

	entries := []*entities.StatisticEntry{}
	if err := r.db.SelectContext(ctx, &entries, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return entries, nil
}
