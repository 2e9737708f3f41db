package entities

import "time"

type AccessState string

const (
	AccessPending  AccessState = "pending"
	AccessGranted  AccessState = "granted"
	AccessRejected AccessState = "rejected"
	AccessExpired  AccessState = "expired"
)

// AccessRecord is one user's access to one catalog document. Times are
// epoch seconds; a zero StartTime/EndTime means "not granted" or "no limit".
type AccessRecord struct {
	ID                        string `json:"id" db:"uid"`
	UserID                    string `json:"user_id" db:"fe_user"`
	DocumentID                string `json:"document_id" db:"dlf_document"`
	RecordID                  string `json:"record_id" db:"record_id"`
	Hidden                    bool   `json:"hidden" db:"hidden"`
	Rejected                  bool   `json:"rejected" db:"rejected"`
	RejectedReason            string `json:"rejected_reason" db:"rejected_reason"`
	StartTime                 int64  `json:"start_time" db:"start_time"`
	EndTime                   int64  `json:"end_time" db:"end_time"`
	InformUser                bool   `json:"inform_user" db:"inform_user"`
	AccessGrantedNotification int64  `json:"access_granted_notification" db:"access_granted_notification"`
	ExpireNotification        int64  `json:"expire_notification" db:"expire_notification"`
	Version                   int64  `json:"version" db:"version"`
	CreatedAt                 int64  `json:"created_at" db:"crdate"`
	UpdatedAt                 int64  `json:"updated_at" db:"tstamp"`
}

// Classify derives the lifecycle state from the stored flags. The legacy
// combination rejected=true, hidden=false falls through to the visible
// branches and classifies as granted or expired.
func Classify(r *AccessRecord, now time.Time) AccessState {
	switch {
	case r.Hidden && r.Rejected:
		return AccessRejected
	case r.Hidden:
		return AccessPending
	case r.EndTime != 0 && r.EndTime < now.Unix():
		return AccessExpired
	default:
		return AccessGranted
	}
}

func (r *AccessRecord) State(now time.Time) AccessState {
	return Classify(r, now)
}

// Active reports whether the record blocks a new request for the same document.
func (r *AccessRecord) Active(now time.Time) bool {
	s := Classify(r, now)
	return s == AccessPending || s == AccessGranted
}

// NewPendingAccess builds a fresh request awaiting review.
func NewPendingAccess(id, userID string, doc *Document, now time.Time) *AccessRecord {
	return &AccessRecord{
		ID:         id,
		UserID:     userID,
		DocumentID: doc.ID,
		RecordID:   doc.RecordID,
		Hidden:     true,
		CreatedAt:  now.Unix(),
		UpdatedAt:  now.Unix(),
	}
}

// Grant makes the record visible for [startTime, endTime]. A changed end
// time re-arms the expiry notification.
func (r *AccessRecord) Grant(startTime, endTime int64, now time.Time) {
	if r.EndTime != endTime {
		r.ExpireNotification = 0
	}
	r.StartTime = startTime
	r.EndTime = endTime
	r.Hidden = false
	r.Rejected = false
	r.RejectedReason = ""
	r.UpdatedAt = now.Unix()
}

// Reject soft-revokes the record and clears every notification latch so a
// rejection notice can be queued.
func (r *AccessRecord) Reject(reason string, now time.Time) {
	r.Hidden = true
	r.Rejected = true
	r.RejectedReason = reason
	r.StartTime = 0
	r.EndTime = 0
	r.ExpireNotification = 0
	r.AccessGrantedNotification = 0
	r.InformUser = false
	r.UpdatedAt = now.Unix()
}

// NeedsNotice reports whether a grant or rejection has not been announced yet.
func (r *AccessRecord) NeedsNotice(now time.Time) bool {
	if r.AccessGrantedNotification != 0 {
		return false
	}
	s := Classify(r, now)
	return s == AccessGranted || s == AccessRejected
}

// QueryVisibility controls whether hidden (pending or rejected) records are
// returned by store reads.
type QueryVisibility struct {
	IncludeHidden bool
}

var (
	VisibleOnly = QueryVisibility{}
	AllRecords  = QueryVisibility{IncludeHidden: true}
)

// AccessOverview is a user's records grouped by state.
type AccessOverview struct {
	UserID     string          `json:"user_id"`
	Granted    []*AccessRecord `json:"granted"`
	Pending    []*AccessRecord `json:"pending"`
	Expired    []*AccessRecord `json:"expired"`
	Rejected   []*AccessRecord `json:"rejected"`
	Uninformed int             `json:"uninformed"`
}
