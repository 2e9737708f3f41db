package services_test

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/services"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grantAndReject leaves reader with one granted, one rejected and one pending
// record.
func grantAndReject(t *testing.T, f *fixture) (granted, rejected, pending *entities.AccessRecord) {
	t.Helper()
	ctx := context.Background()

	g, err := f.accessSvc.RequestAccess(ctx, reader, "DOC-1")
	require.NoError(t, err)
	r, err := f.accessSvc.RequestAccess(ctx, reader, "DOC-2")
	require.NoError(t, err)
	p, err := f.accessSvc.RequestAccess(ctx, reader, "DOC-3")
	require.NoError(t, err)

	_, err = f.accessSvc.Approve(ctx, admin, g.ID, fixedNow.Add(days(30)).Unix(), false)
	require.NoError(t, err)
	_, err = f.accessSvc.Reject(ctx, admin, r.ID, "<em>missing</em> license")
	require.NoError(t, err)

	return g, r, p
}

func TestInformUserSendsOneBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, r, p := grantAndReject(t, f)

	res, err := f.notifications.InformUser(ctx, admin, reader.UserID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Queued)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, res.Marked)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "ada@example.org", msg.ToEmail)
	assert.Equal(t, "Ada Reader", msg.ToName)
	assert.Equal(t, "library@example.org", msg.FromEmail)
	assert.Equal(t, "Digital Library", msg.FromName)
	assert.Equal(t, "Document access", msg.Subject)
	assert.Contains(t, msg.Text, "Chronicle of Dresden")
	assert.Contains(t, msg.Text, "Saxon Atlas")
	assert.Contains(t, msg.Text, "missing license")
	assert.Contains(t, msg.Text, "https://library.example.org/login")
	assert.NotContains(t, msg.Text, "Court Letters", "pending records are not announced")
	assert.Contains(t, msg.HTML, "<strong>Chronicle of Dresden</strong>")
	assert.Less(t, strings.Index(msg.Text, "Chronicle of Dresden"), strings.Index(msg.Text, "Saxon Atlas"),
		"granted records come before rejected ones")

	for _, id := range []string{g.ID, r.ID} {
		rec, err := f.access.GetByID(ctx, id, entities.AllRecords)
		require.NoError(t, err)
		assert.Equal(t, fixedNow.Unix(), rec.AccessGrantedNotification)
		assert.False(t, rec.InformUser)
	}
	pend, err := f.access.GetByID(ctx, p.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.Zero(t, pend.AccessGrantedNotification)

	again, err := f.notifications.QueueGrantOrRejectNotifications(ctx, reader.UserID)
	require.NoError(t, err)
	assert.Zero(t, again.Sent)
	assert.Len(t, f.mailer.Sent(), 1)

	res, err = f.notifications.InformUser(ctx, admin, reader.UserID)
	require.NoError(t, err)
	assert.Zero(t, res.Queued)
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestInformUserRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	grantAndReject(t, f)

	_, err := f.notifications.InformUser(context.Background(), reader, reader.UserID)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)

	users, err := f.access.FindUsersWithQueued(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMailerFailureLeavesRecordsQueued(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, _, _ := grantAndReject(t, f)

	f.mailer.Fail(errors.New("smtp: connection refused"))

	res, err := f.notifications.InformUser(ctx, admin, reader.UserID)
	var derr *services.DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, reader.UserID, derr.UserID)
	assert.Equal(t, int64(2), res.Queued)
	assert.Zero(t, res.Marked)

	rec, err := f.access.GetByID(ctx, g.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.True(t, rec.InformUser)
	assert.Zero(t, rec.AccessGrantedNotification)

	f.mailer.Fail(nil)

	retry, err := f.notifications.QueueGrantOrRejectNotifications(ctx, reader.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, retry.Marked)
	assert.Len(t, f.mailer.Sent(), 1)
}

func TestInvalidRecipientIsDeliveryError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	broken := entities.AuthContext{UserID: "9"}

	rec, err := f.accessSvc.RequestAccess(ctx, broken, "DOC-1")
	require.NoError(t, err)
	_, err = f.accessSvc.Approve(ctx, admin, rec.ID, 0, false)
	require.NoError(t, err)

	_, err = f.notifications.InformUser(ctx, admin, broken.UserID)
	assert.ErrorIs(t, err, services.ErrInvalidRecipient)
	assert.Empty(t, f.mailer.Sent())

	stored, err := f.access.GetByID(ctx, rec.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.True(t, stored.InformUser)
}

func TestMissingSenderIsDeliveryError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grantAndReject(t, f)

	svc := services.NewNotificationService(f.access, f.users, f.catalog, f.mailer, nil,
		services.NotificationConfig{}, services.WithClock(f.clock.Now))

	_, err := svc.InformUser(ctx, admin, reader.UserID)
	assert.ErrorIs(t, err, services.ErrMissingSender)
	assert.Empty(t, f.mailer.Sent())
}

func TestNotificationSkipsRecordWithoutDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, r, _ := grantAndReject(t, f)

	f.docs.Delete(g.DocumentID)

	res, err := f.notifications.InformUser(ctx, admin, reader.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	stored, err := f.access.GetByID(ctx, r.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.NotZero(t, stored.AccessGrantedNotification)

	orphan, err := f.access.GetByID(ctx, g.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.Zero(t, orphan.AccessGrantedNotification)
	assert.True(t, orphan.InformUser)
}

func TestDispatchQueuedContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grantAndReject(t, f)

	broken := entities.AuthContext{UserID: "9"}
	rec, err := f.accessSvc.RequestAccess(ctx, broken, "DOC-1")
	require.NoError(t, err)
	_, err = f.accessSvc.Approve(ctx, admin, rec.ID, 0, false)
	require.NoError(t, err)

	for _, user := range []string{reader.UserID, broken.UserID} {
		_, err := f.access.QueueNotifications(ctx, user, f.clock.Now().Unix())
		require.NoError(t, err)
	}

	res, err := f.notifications.DispatchQueued(ctx)
	assert.ErrorIs(t, err, services.ErrInvalidRecipient)
	assert.Equal(t, 2, res.Marked)
	assert.Len(t, f.mailer.Sent(), 1)

	users, err := f.access.FindUsersWithQueued(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{broken.UserID}, users)
}

func TestConcurrentDispatchNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	grantAndReject(t, f)

	_, err := f.access.QueueNotifications(ctx, reader.UserID, f.clock.Now().Unix())
	require.NoError(t, err)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := f.notifications.DispatchQueued(ctx)
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		assert.NoError(t, <-done)
	}

	assert.Len(t, f.mailer.Sent(), 1)
}

func TestInformUserIgnoresAccessExpiredBeforeQueueing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.accessSvc.RequestAccess(ctx, reader, "DOC-1")
	require.NoError(t, err)
	_, err = f.accessSvc.Approve(ctx, admin, rec.ID, fixedNow.Add(days(3)).Unix(), false)
	require.NoError(t, err)

	f.clock.Advance(days(5))

	res, err := f.notifications.InformUser(ctx, admin, reader.UserID)
	require.NoError(t, err)
	assert.Zero(t, res.Queued)
	assert.Zero(t, res.Sent)
	assert.Empty(t, f.mailer.Sent())

	users, err := f.access.FindUsersWithQueued(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestDispatchDropsAccessThatExpiredWhileQueued(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.accessSvc.RequestAccess(ctx, reader, "DOC-1")
	require.NoError(t, err)
	_, err = f.accessSvc.Approve(ctx, admin, rec.ID, fixedNow.Add(days(3)).Unix(), false)
	require.NoError(t, err)
	n, err := f.access.QueueNotifications(ctx, reader.UserID, f.clock.Now().Unix())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	f.clock.Advance(days(5))

	res, err := f.notifications.DispatchQueued(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.Equal(t, 1, res.Dropped)
	assert.Empty(t, f.mailer.Sent())

	users, err := f.access.FindUsersWithQueued(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	stored, err := f.access.GetByID(ctx, rec.ID, entities.AllRecords)
	require.NoError(t, err)
	assert.False(t, stored.InformUser)
	assert.Zero(t, stored.AccessGrantedNotification)

	res, err = f.notifications.DispatchQueued(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Dropped)
}
