package repositories_test

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/infrastructure/database"
	"testing"
)

// openTestDB returns a private in-memory sqlite database migrated with the
// production migrations.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewSQLiteDB(context.Background(), "")
	if err != nil {
		t.Fatalf("openTestDB: open: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func seedDocument(t *testing.T, db *database.DB, doc entities.Document) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`INSERT INTO documents (uid, record_id, title) VALUES (?, ?, ?)`),
		doc.ID, doc.RecordID, doc.Title)
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func seedUser(t *testing.T, db *database.DB, user entities.User) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`INSERT INTO users (uid, email, full_name, locale) VALUES (?, ?, ?, ?)`),
		user.ID, user.Email, user.FullName, user.Locale)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}
