package services

import (
	"context"
	"document-access/internal/domain/entities"
	"encoding/json"
	"fmt"
	"time"
)

type CacheService interface {
	GetDocument(ctx context.Context, key string) (*entities.Document, error)
	SetDocument(ctx context.Context, doc *entities.Document) error
}

type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, duration time.Duration) error
}

type redisCacheService struct {
	client        RedisClient
	cacheDuration time.Duration
}

func NewRedisCacheService(client RedisClient, cacheDuration time.Duration) *redisCacheService {
	return &redisCacheService{
		client:        client,
		cacheDuration: cacheDuration,
	}
}

func DocumentIDKey(id string) string {
	return fmt.Sprintf("doc:id:%s", id)
}

func DocumentRecordKey(recordID string) string {
	return fmt.Sprintf("doc:record:%s", recordID)
}

func (s *redisCacheService) GetDocument(ctx context.Context, key string) (*entities.Document, error) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var doc entities.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}

	return &doc, nil
}

// SetDocument stores doc under both of its lookup keys.
func (s *redisCacheService) SetDocument(ctx context.Context, doc *entities.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, DocumentIDKey(doc.ID), data, s.cacheDuration); err != nil {
		return err
	}
	return s.client.Set(ctx, DocumentRecordKey(doc.RecordID), data, s.cacheDuration)
}
