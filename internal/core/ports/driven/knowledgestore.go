package driven

import (
	"context"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// KnowledgeStore persists knowledge records and answers similarity
// queries over them. Records are append-only; the only mutation is bulk
// deletion by source file or source tag.
//
// Similarity search is a brute-force scan: the store computes cosine
// similarity itself and does not assume native vector search from its
// backend. This is appropriate up to roughly 10^4-10^5 records; a future
// swap to an approximate-nearest-neighbour index must preserve the exact
// (TopK, MinSimilarity, SourceTags) contract.
type KnowledgeStore interface {
	// InsertOne stores a single record.
	InsertOne(ctx context.Context, record *domain.KnowledgeRecord) error

	// InsertBulk stores records, batching writes internally to bound
	// payload size.
	InsertBulk(ctx context.Context, records []domain.KnowledgeRecord) error

	// QueryByFilter returns all records matching the provenance filter.
	QueryByFilter(ctx context.Context, filter domain.RecordFilter) ([]domain.KnowledgeRecord, error)

	// SimilaritySearch scores the tag-filtered candidate set against the
	// query vector and returns ranked, thresholded, truncated results.
	SimilaritySearch(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.RetrievalResult, error)

	// DeleteByFile removes all records for a source file and returns the
	// number removed.
	DeleteByFile(ctx context.Context, sourceFile string) (int, error)

	// DeleteBySource removes all records for a source tag and returns the
	// number removed.
	DeleteBySource(ctx context.Context, tag domain.SourceTag) (int, error)

	// Stats returns record counts, total and grouped by provenance.
	Stats(ctx context.Context) (*domain.StoreStats, error)

	// Close releases resources.
	Close() error
}
