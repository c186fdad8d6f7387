package driven

import "context"

// EmbedBatchResult is the output of a batched embedding call.
type EmbedBatchResult struct {
	// Vectors holds one embedding per input text, in input order.
	Vectors [][]float32

	// TotalTokens is the provider-reported token usage summed across
	// all sub-batches (estimated when the provider reports none).
	TotalTokens int
}

// EmbeddingService generates vector embeddings from text.
//
// Queries and document chunks are embedded through the same service and
// model so they share one vector space. The service performs no caching
// of repeated text; a caching layer is a valid optimisation above this
// boundary.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, issuing as many
	// provider requests as needed to stay under the per-request input
	// limit and reassembling results in input order. A failing sub-batch
	// aborts the whole operation with domain.ErrProvider; there is no
	// partial result and no automatic retry.
	EmbedBatch(ctx context.Context, texts []string) (*EmbedBatchResult, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	// Uniform across all records ever compared.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
