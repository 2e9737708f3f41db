package services_test

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/services"
	"document-access/internal/infrastructure/memory"
	"sync"
	"testing"
	"time"
)

var (
	admin  = entities.AuthContext{UserID: "admin", GroupIDs: []string{"5"}, IsAdmin: true}
	reader = entities.AuthContext{UserID: "7", GroupIDs: []string{"2"}}
	other  = entities.AuthContext{UserID: "8", GroupIDs: []string{"2"}}
)

// fixedNow is 2024-03-10 10:30 UTC.
var fixedNow = time.Date(2024, 3, 10, 10, 30, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []*services.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg *services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) Sent() []*services.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*services.Message(nil), m.sent...)
}

func (m *fakeMailer) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type fixture struct {
	clock  *testClock
	access *memory.AccessStore
	stats  *memory.StatisticStore
	docs   *memory.DocumentStore
	users  *memory.UserStore
	mailer *fakeMailer

	catalog       *services.CatalogService
	accessSvc     *services.AccessService
	notifications *services.NotificationService
	expiry        *services.ExpiryService
	statistics    *services.StatisticService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:  &testClock{now: fixedNow},
		access: memory.NewAccessStore(),
		stats:  memory.NewStatisticStore(),
		docs: memory.NewDocumentStore(
			entities.Document{ID: "101", RecordID: "DOC-1", Title: "Chronicle of Dresden"},
			entities.Document{ID: "102", RecordID: "DOC-2", Title: "Saxon Atlas"},
			entities.Document{ID: "103", RecordID: "DOC-3", Title: "Court Letters"},
		),
		users: memory.NewUserStore(
			entities.User{ID: "7", Email: "ada@example.org", FullName: "Ada Reader"},
			entities.User{ID: "8", Email: "ben@example.org", FullName: "Ben Reader"},
			entities.User{ID: "9", Email: "broken", FullName: "No Mail"},
		),
		mailer: &fakeMailer{},
	}

	opts := []services.Option{
		services.WithClock(f.clock.Now),
		services.WithLocation(time.UTC),
	}
	cfg := services.NotificationConfig{
		FromEmail: "library@example.org",
		FromName:  "Digital Library",
		LoginURL:  "https://library.example.org/login",
	}
	locker := memory.NewLocker()

	f.catalog = services.NewCatalogService(f.docs, nil, opts...)
	f.accessSvc = services.NewAccessService(f.access, f.catalog, locker, opts...)
	f.notifications = services.NewNotificationService(f.access, f.users, f.catalog, f.mailer, locker, cfg, opts...)
	f.expiry = services.NewExpiryService(f.access, f.users, f.catalog, f.mailer, locker, cfg, opts...)
	f.statistics = services.NewStatisticService(f.stats, f.catalog, locker, 0, opts...)
	return f
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// todayStart is the start of fixedNow's day.
func todayStart() time.Time {
	return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
}
