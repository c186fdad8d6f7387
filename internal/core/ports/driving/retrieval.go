package driving

import (
	"context"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// Retriever answers "what stored knowledge is relevant to this query"
// and formats results for downstream prompt consumption.
type Retriever interface {
	// RetrieveContext embeds the query and returns ranked results.
	// An empty list is the correct response to "nothing sufficiently
	// similar", not an error.
	RetrieveContext(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievalResult, error)

	// Guidelines retrieves style/feedback knowledge for a content type
	// and platform with a strict threshold.
	Guidelines(ctx context.Context, contentType, platform string) ([]domain.RetrievalResult, error)

	// Examples retrieves example/knowledge-base content for a content
	// type and platform with a loose threshold.
	Examples(ctx context.Context, contentType, platform string) ([]domain.RetrievalResult, error)

	// ComprehensiveContext runs the guidelines and examples retrievals
	// concurrently and returns one labelled prompt bundle, guidelines
	// first, each group keeping its internal rank order.
	ComprehensiveContext(ctx context.Context, contentType, platform string) (string, error)

	// FormatForPrompt renders results as labelled sections with
	// provenance headers.
	FormatForPrompt(results []domain.RetrievalResult) string

	// IsInitialized reports whether the store holds any records.
	// Callers use it as a precondition gate before querying.
	IsInitialized(ctx context.Context) (bool, error)
}
