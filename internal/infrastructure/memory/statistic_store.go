package memory

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"sort"
	"sync"
)

type StatisticStore struct {
	mu      sync.RWMutex
	entries map[string]entities.StatisticEntry
}

func NewStatisticStore() *StatisticStore {
	return &StatisticStore{entries: make(map[string]entities.StatisticEntry)}
}

var _ repositories.StatisticRepository = (*StatisticStore)(nil)

func (s *StatisticStore) FindRecent(_ context.Context, userID, documentID string, since int64) (*entities.StatisticEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *entities.StatisticEntry
	for _, e := range s.entries {
		if e.UserID != userID || e.DocumentID != documentID || e.CreatedAt < since {
			continue
		}
		if found == nil || e.CreatedAt > found.CreatedAt {
			entry := e
			found = &entry
		}
	}
	if found == nil {
		return nil, repositories.ErrNotFound
	}
	return found, nil
}

func (s *StatisticStore) Create(_ context.Context, entry *entities.StatisticEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.ID] = *entry
	return nil
}

func (s *StatisticStore) Update(_ context.Context, entry *entities.StatisticEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.entries[entry.ID] = *entry
	return nil
}

func (s *StatisticStore) Find(_ context.Context, filter entities.StatisticFilter) ([]*entities.StatisticEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entities.StatisticEntry{}
	for _, e := range s.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.From != 0 && e.CreatedAt < filter.From {
			continue
		}
		if filter.To != 0 && e.CreatedAt > filter.To {
			continue
		}
		entry := e
		out = append(out, &entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
