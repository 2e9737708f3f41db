package memory

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"
	"sync"
)

// DocumentStore is a catalog held in memory.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]entities.Document
}

func NewDocumentStore(docs ...entities.Document) *DocumentStore {
	s := &DocumentStore{docs: make(map[string]entities.Document)}
	for _, d := range docs {
		s.docs[d.ID] = d
	}
	return s
}

var _ repositories.DocumentRepository = (*DocumentStore)(nil)

func (s *DocumentStore) Put(doc entities.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
}

func (s *DocumentStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
}

func (s *DocumentStore) GetByID(_ context.Context, id string) (*entities.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (s *DocumentStore) GetByRecordID(_ context.Context, recordID string) (*entities.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.docs {
		if d.RecordID == recordID {
			return &d, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type UserStore struct {
	mu    sync.RWMutex
	users map[string]entities.User
}

func NewUserStore(users ...entities.User) *UserStore {
	s := &UserStore{users: make(map[string]entities.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

var _ repositories.UserRepository = (*UserStore)(nil)

func (s *UserStore) Put(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *UserStore) GetByID(_ context.Context, id string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}
