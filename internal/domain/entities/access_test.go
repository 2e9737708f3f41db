package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour).Unix()
	future := now.Add(time.Hour).Unix()

	tests := []struct {
		name   string
		rec    AccessRecord
		expect AccessState
	}{
		{"pending", AccessRecord{Hidden: true}, AccessPending},
		{"pending with stale end", AccessRecord{Hidden: true, EndTime: past}, AccessPending},
		{"rejected", AccessRecord{Hidden: true, Rejected: true}, AccessRejected},
		{"granted unlimited", AccessRecord{}, AccessGranted},
		{"granted until future", AccessRecord{EndTime: future}, AccessGranted},
		{"granted ending now", AccessRecord{EndTime: now.Unix()}, AccessGranted},
		{"expired", AccessRecord{EndTime: past}, AccessExpired},
		{"visible rejected counts as granted", AccessRecord{Rejected: true, EndTime: future}, AccessGranted},
		{"visible rejected past end expires", AccessRecord{Rejected: true, EndTime: past}, AccessExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, Classify(&tt.rec, now))
			assert.Equal(t, tt.expect, tt.rec.State(now))
		})
	}
}

func TestActive(t *testing.T) {
	now := time.Unix(10_000, 0)

	assert.True(t, (&AccessRecord{Hidden: true}).Active(now))
	assert.True(t, (&AccessRecord{EndTime: 20_000}).Active(now))
	assert.False(t, (&AccessRecord{EndTime: 5_000}).Active(now))
	assert.False(t, (&AccessRecord{Hidden: true, Rejected: true}).Active(now))
}

func TestGrantThenReject(t *testing.T) {
	now := time.Unix(10_000, 0)
	doc := &Document{ID: "17", RecordID: "DOC-1"}

	rec := NewPendingAccess("a1", "u1", doc, now)
	assert.Equal(t, AccessPending, Classify(rec, now))
	assert.Equal(t, "17", rec.DocumentID)
	assert.Equal(t, "DOC-1", rec.RecordID)

	rec.ExpireNotification = 9_000
	rec.Grant(9_000, 50_000, now)
	assert.Equal(t, AccessGranted, Classify(rec, now))
	assert.Zero(t, rec.ExpireNotification)

	rec.ExpireNotification = 11_000
	rec.Grant(9_000, 50_000, now)
	assert.Equal(t, int64(11_000), rec.ExpireNotification, "same end time keeps the latch")

	rec.InformUser = true
	rec.AccessGrantedNotification = 12_000
	rec.Reject("not licensed", now)
	first := *rec
	assert.Equal(t, AccessRejected, Classify(rec, now))
	assert.Zero(t, rec.StartTime)
	assert.Zero(t, rec.EndTime)
	assert.Zero(t, rec.ExpireNotification)
	assert.Zero(t, rec.AccessGrantedNotification)
	assert.False(t, rec.InformUser)

	rec.Reject("not licensed", now)
	assert.Equal(t, first, *rec)

	rec.Grant(9_000, 0, now)
	assert.Equal(t, AccessGranted, Classify(rec, now))
	assert.Empty(t, rec.RejectedReason)
	assert.False(t, rec.Rejected)
}

func TestNeedsNotice(t *testing.T) {
	now := time.Unix(10_000, 0)

	assert.False(t, (&AccessRecord{Hidden: true}).NeedsNotice(now), "pending")
	assert.True(t, (&AccessRecord{}).NeedsNotice(now), "granted")
	assert.True(t, (&AccessRecord{Hidden: true, Rejected: true}).NeedsNotice(now), "rejected")
	assert.False(t, (&AccessRecord{EndTime: 1}).NeedsNotice(now), "expired")
	assert.False(t, (&AccessRecord{AccessGrantedNotification: 5}).NeedsNotice(now), "already sent")
}
