// Package memory provides in-memory implementations of driven port
// interfaces, used in tests and as a zero-setup fallback store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure KnowledgeStore implements the interface.
var _ driven.KnowledgeStore = (*KnowledgeStore)(nil)

// KnowledgeStore is an in-memory knowledge store. All operations are
// safe for concurrent use.
type KnowledgeStore struct {
	mu      sync.RWMutex
	records map[string]domain.KnowledgeRecord
}

// NewKnowledgeStore creates an empty in-memory knowledge store.
func NewKnowledgeStore() *KnowledgeStore {
	return &KnowledgeStore{
		records: make(map[string]domain.KnowledgeRecord),
	}
}

// InsertOne stores a single record.
func (s *KnowledgeStore) InsertOne(_ context.Context, record *domain.KnowledgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(*record)
	return nil
}

// InsertBulk stores records under a single write lock.
func (s *KnowledgeStore) InsertBulk(_ context.Context, records []domain.KnowledgeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range records {
		s.put(records[i])
	}
	return nil
}

// put assumes the write lock is held.
func (s *KnowledgeStore) put(record domain.KnowledgeRecord) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records[record.ID] = record
}

// QueryByFilter returns all records matching the provenance filter.
func (s *KnowledgeStore) QueryByFilter(_ context.Context, filter domain.RecordFilter) ([]domain.KnowledgeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.KnowledgeRecord
	for _, record := range s.records {
		if record.MatchesFilter(filter) {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// SimilaritySearch ranks the tag-filtered candidate set against the
// query vector.
func (s *KnowledgeStore) SimilaritySearch(_ context.Context, query []float32, opts domain.SearchOptions) ([]domain.RetrievalResult, error) {
	s.mu.RLock()
	candidates := make([]domain.KnowledgeRecord, 0, len(s.records))
	for _, record := range s.records {
		if record.MatchesTags(opts.SourceTags) {
			candidates = append(candidates, record)
		}
	}
	s.mu.RUnlock()

	return domain.TopKBySimilarity(candidates, query, opts), nil
}

// DeleteByFile removes all records for a source file.
func (s *KnowledgeStore) DeleteByFile(_ context.Context, sourceFile string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, record := range s.records {
		if record.SourceFile == sourceFile {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// DeleteBySource removes all records for a source tag.
func (s *KnowledgeStore) DeleteBySource(_ context.Context, tag domain.SourceTag) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, record := range s.records {
		if record.SourceTag == tag {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Stats returns record counts grouped by provenance.
func (s *KnowledgeStore) Stats(_ context.Context) (*domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.StoreStats{
		Total:        len(s.records),
		BySourceTag:  make(map[domain.SourceTag]int),
		BySourceFile: make(map[string]int),
	}
	for _, record := range s.records {
		stats.BySourceTag[record.SourceTag]++
		stats.BySourceFile[record.SourceFile]++
	}
	return stats, nil
}

// Close releases resources.
func (s *KnowledgeStore) Close() error {
	return nil
}
