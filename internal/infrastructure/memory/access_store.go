package memory

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"sort"
	"sync"
)

// AccessStore keeps access records in a map. Reads return copies so callers
// cannot mutate stored state without Update.
type AccessStore struct {
	mu      sync.RWMutex
	records map[string]entities.AccessRecord
}

func NewAccessStore() *AccessStore {
	return &AccessStore{records: make(map[string]entities.AccessRecord)}
}

var _ repositories.AccessRepository = (*AccessStore)(nil)

// Create enforces at most one pending record per (user, document), like the
// partial unique index of the SQL schema.
func (s *AccessStore) Create(_ context.Context, rec *entities.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pending(rec) {
		for _, r := range s.records {
			if r.UserID == rec.UserID && r.DocumentID == rec.DocumentID && pending(&r) {
				return repositories.ErrDuplicate
			}
		}
	}
	s.records[rec.ID] = *rec
	return nil
}

func pending(r *entities.AccessRecord) bool {
	return r.Hidden && !r.Rejected
}

func (s *AccessStore) Update(_ context.Context, rec *entities.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.records[rec.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.Version != rec.Version {
		return repositories.ErrConflict
	}

	rec.Version++
	next := *rec
	next.UserID, next.DocumentID, next.RecordID = stored.UserID, stored.DocumentID, stored.RecordID
	next.CreatedAt = stored.CreatedAt
	s.records[rec.ID] = next
	return nil
}

func (s *AccessStore) GetByID(_ context.Context, id string, vis entities.QueryVisibility) (*entities.AccessRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok || (rec.Hidden && !vis.IncludeHidden) {
		return nil, repositories.ErrNotFound
	}
	return &rec, nil
}

func (s *AccessStore) FindByUser(_ context.Context, userID string, vis entities.QueryVisibility) ([]*entities.AccessRecord, error) {
	out := s.filter(func(r *entities.AccessRecord) bool {
		return r.UserID == userID && (vis.IncludeHidden || !r.Hidden)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AccessStore) FindByUserAndDocument(_ context.Context, userID, documentID string) ([]*entities.AccessRecord, error) {
	return s.filter(func(r *entities.AccessRecord) bool {
		return r.UserID == userID && r.DocumentID == documentID
	}), nil
}

func (s *AccessStore) CountOpenByUser(_ context.Context, userID string) (int, error) {
	return len(s.filter(func(r *entities.AccessRecord) bool {
		return r.UserID == userID && r.Hidden && !r.Rejected
	})), nil
}

func (s *AccessStore) QueueNotifications(_ context.Context, userID string, now int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.records {
		if r.UserID != userID || r.AccessGrantedNotification != 0 || r.InformUser {
			continue
		}
		if r.Hidden && !r.Rejected {
			continue
		}
		if !r.Hidden && r.EndTime != 0 && r.EndTime < now {
			continue
		}
		r.InformUser = true
		r.Version++
		s.records[id] = r
		n++
	}
	return n, nil
}

func (s *AccessStore) FindQueuedByUser(_ context.Context, userID string) ([]*entities.AccessRecord, error) {
	out := s.filter(func(r *entities.AccessRecord) bool {
		return r.UserID == userID && r.InformUser && r.AccessGrantedNotification == 0
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rejected != out[j].Rejected {
			return !out[i].Rejected
		}
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AccessStore) FindUsersWithQueued(_ context.Context) ([]string, error) {
	return s.users(func(r *entities.AccessRecord) bool {
		return r.InformUser && r.AccessGrantedNotification == 0
	}), nil
}

func (s *AccessStore) MarkNotified(_ context.Context, id string, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || !r.InformUser || r.AccessGrantedNotification != 0 {
		return false, nil
	}
	r.AccessGrantedNotification = at
	r.InformUser = false
	r.Version++
	s.records[id] = r
	return true, nil
}

func (s *AccessStore) Unqueue(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || !r.InformUser || r.AccessGrantedNotification != 0 {
		return false, nil
	}
	r.InformUser = false
	r.Version++
	s.records[id] = r
	return true, nil
}

func (s *AccessStore) FindExpiringByUser(_ context.Context, userID string, horizon int64) ([]*entities.AccessRecord, error) {
	out := s.filter(func(r *entities.AccessRecord) bool {
		return r.UserID == userID && expiring(r, horizon)
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].EndTime != out[j].EndTime {
			return out[i].EndTime < out[j].EndTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *AccessStore) FindExpiringUsers(_ context.Context, horizon int64) ([]string, error) {
	return s.users(func(r *entities.AccessRecord) bool {
		return expiring(r, horizon)
	}), nil
}

func (s *AccessStore) MarkExpireNotified(_ context.Context, id string, at int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.ExpireNotification != 0 {
		return false, nil
	}
	r.ExpireNotification = at
	r.Version++
	s.records[id] = r
	return true, nil
}

func expiring(r *entities.AccessRecord, horizon int64) bool {
	return r.ExpireNotification == 0 && r.EndTime > 0 && r.EndTime <= horizon && !r.Hidden && !r.Rejected
}

func (s *AccessStore) filter(match func(*entities.AccessRecord) bool) []*entities.AccessRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entities.AccessRecord{}
	for _, r := range s.records {
		if match(&r) {
			rec := r
			out = append(out, &rec)
		}
	}
	return out
}

func (s *AccessStore) users(match func(*entities.AccessRecord) bool) []string {
	seen := map[string]struct{}{}
	users := []string{}
	for _, r := range s.filter(match) {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		users = append(users, r.UserID)
	}
	sort.Strings(users)
	return users
}
