package repositories

import (
	"context"
	"database/sql"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"document-access/internal/infrastructure/database"
	"errors"
)

type documentRepository struct {
	db *database.DB
}

func NewDocumentRepository(db *database.DB) repositories.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*entities.Document, error) {
	return r.get(ctx, `SELECT uid, record_id, title FROM documents WHERE uid = ?`, id)
}

func (r *documentRepository) GetByRecordID(ctx context.Context, recordID string) (*entities.Document, error) {
	return r.get(ctx, `SELECT uid, record_id, title FROM documents WHERE record_id = ?`, recordID)
}

func (r *documentRepository) get(ctx context.Context, query string, arg any) (*entities.Document, error) {
	var doc entities.Document
	err := r.db.GetContext(ctx, &doc, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	query := r.db.Rebind(`SELECT uid, email, full_name, locale FROM users WHERE uid = ?`)

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
