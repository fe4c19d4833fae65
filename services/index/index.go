package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meghashyamc/pagesearch/db/kvdb"
	"github.com/meghashyamc/pagesearch/db/searchdb"
	"github.com/meghashyamc/pagesearch/logger"
)

// Indexer represents the search database operations needed to seed the index
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
	GetDocCount() (uint64, error)
}

var ErrDocumentNotFound = errors.New("document not found")

type Service struct {
	logger  logger.Logger
	indexer Indexer
	records RecordStore
	now     func() time.Time
}

func New(logger logger.Logger, indexer Indexer, records RecordStore) *Service {
	return &Service{
		logger:  logger,
		indexer: indexer,
		records: records,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Add stores and indexes documents, replacing documents with the same ID. It
// returns the IDs of the documents in the order they were given.
func (s *Service) Add(ctx context.Context, documents []searchdb.Document) ([]string, error) {
	now := s.now()
	ids := make([]string, len(documents))

	for start := 0; start < len(documents); start += searchdb.IndexingBatchSize {
		if err := ctx.Err(); err != nil {
			s.logger.Info("indexing cancelled", "indexed", start, "total", len(documents), "reason", err)
			return nil, err
		}

		end := min(start+searchdb.IndexingBatchSize, len(documents))
		batch := make([]searchdb.Document, 0, end-start)
		for i := start; i < end; i++ {
			doc := prepareDocument(documents[i], now)
			if err := s.setRecord(doc); err != nil {
				return nil, err
			}
			ids[i] = doc.ID
			batch = append(batch, doc)
		}

		if err := s.indexer.BuildIndex(batch); err != nil {
			s.logger.Error("failed to build index", "err", err.Error())
			return nil, fmt.Errorf("failed to build index: %w", err)
		}
	}

	s.logger.Info("indexed documents", "count", len(documents))
	return ids, nil
}

// Remove deletes a document from the index and from the record store.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.records.Get(kvdb.RecordsBucket, id); err != nil {
		if errors.Is(err, kvdb.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
		}
		return err
	}

	if err := s.indexer.DeleteDocuments([]string{id}); err != nil {
		s.logger.Error("failed to delete document from search index", "id", id, "err", err.Error())
		return fmt.Errorf("failed to delete document from search index: %w", err)
	}

	if err := s.records.Delete(kvdb.RecordsBucket, id); err != nil {
		s.logger.Error("failed to delete document record", "id", id, "err", err.Error())
		return err
	}

	return nil
}

// Count returns the number of documents in the index.
func (s *Service) Count() (uint64, error) {
	return s.indexer.GetDocCount()
}

// StoredCount returns the number of stored records, which can differ from Count
// when indexing failed halfway.
func (s *Service) StoredCount() (int, error) {
	keys, err := s.records.GetAllKeys(kvdb.RecordsBucket)
	if err != nil {
		s.logger.Error("failed to get all keys from database", "err", err.Error())
		return 0, fmt.Errorf("failed to get all keys from database: %w", err)
	}
	return len(keys), nil
}

func (s *Service) setRecord(doc searchdb.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("failed to marshal document", "id", doc.ID, "err", err.Error())
		return fmt.Errorf("failed to marshal document %s: %w", doc.ID, err)
	}

	if err := s.records.Set(kvdb.RecordsBucket, doc.ID, string(data)); err != nil {
		s.logger.Error("failed to store document", "id", doc.ID, "err", err.Error())
		return err
	}

	return nil
}
