package services

import (
	"context"
	"document-access/internal/domain/entities"
	"document-access/internal/domain/repositories"

	"go.uber.org/zap"
)

// DocumentCatalog resolves catalog documents. Lookups that find nothing
// return repositories.ErrNotFound.
type DocumentCatalog interface {
	FindByRecordID(ctx context.Context, recordID string) (*entities.Document, error)
	FindByID(ctx context.Context, id string) (*entities.Document, error)
}

type CatalogService struct {
	docRepo repositories.DocumentRepository
	cache   CacheService
	logger  *zap.Logger
}

// NewCatalogService reads through cache when it is non-nil.
func NewCatalogService(docRepo repositories.DocumentRepository, cache CacheService, opts ...Option) *CatalogService {
	o := newOptions(opts)
	return &CatalogService{
		docRepo: docRepo,
		cache:   cache,
		logger:  o.logger,
	}
}

func (s *CatalogService) FindByRecordID(ctx context.Context, recordID string) (*entities.Document, error) {
	return s.lookup(ctx, DocumentRecordKey(recordID), func() (*entities.Document, error) {
		return s.docRepo.GetByRecordID(ctx, recordID)
	})
}

func (s *CatalogService) FindByID(ctx context.Context, id string) (*entities.Document, error) {
	return s.lookup(ctx, DocumentIDKey(id), func() (*entities.Document, error) {
		return s.docRepo.GetByID(ctx, id)
	})
}

func (s *CatalogService) lookup(ctx context.Context, key string, load func() (*entities.Document, error)) (*entities.Document, error) {
	if s.cache != nil {
		if doc, err := s.cache.GetDocument(ctx, key); err == nil {
			return doc, nil
		}
	}

	doc, err := load()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetDocument(ctx, doc); err != nil {
			s.logger.Warn("cache document", zap.String("key", key), zap.Error(err))
		}
	}

	return doc, nil
}
