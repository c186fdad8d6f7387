package driving

import (
	"context"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// Ingestor runs the document-to-knowledge pipeline.
type Ingestor interface {
	// Ingest processes one document: read, chunk, embed, store.
	// It returns domain.ErrNotFound when the path does not exist and
	// domain.ErrConfig for invalid chunking parameters; provider and
	// store failures are recorded in the result's Errors.
	Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error)

	// IngestDirectory scans a directory for eligible documents, infers
	// each one's source tag from filename rules, and ingests each
	// document independently with per-document fault isolation.
	IngestDirectory(ctx context.Context, dir string, opts domain.DirectoryOptions) (*domain.DirectoryResult, error)
}
