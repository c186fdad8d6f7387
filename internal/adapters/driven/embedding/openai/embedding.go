// Package openai provides an embedding service adapter using the
// OpenAI API.
package openai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel             = "text-embedding-3-small"
	DefaultRequestsPerMinute = 60
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedding service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Used for Azure OpenAI,
	// compatible APIs and tests.
	BaseURL string

	// Model is the embedding model to use (default: text-embedding-3-small).
	Model string

	// Dimensions overrides the default dimension for the model.
	// Only applicable to text-embedding-3-* models.
	Dimensions int

	// BatchSize caps how many texts go into one API request
	// (default: domain.DefaultEmbeddingBatchSize).
	BatchSize int

	// RequestsPerMinute paces API calls (default: 60).
	RequestsPerMinute int
}

// EmbeddingService generates embeddings using the OpenAI API. Calls are
// paced with a client-side rate limiter so large ingestions do not trip
// provider throttling.
type EmbeddingService struct {
	client     *openai.Client
	limiter    *rate.Limiter
	model      string
	dimensions int
	batchSize  int
}

// NewEmbeddingService creates a new OpenAI embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", domain.ErrConfig)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultEmbeddingBatchSize
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}

	dimensions := cfg.Dimensions
	if dimensions == 0 {
		var ok bool
		dimensions, ok = modelDimensions[cfg.Model]
		if !ok {
			dimensions = 1536
		}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &EmbeddingService{
		client:     openai.NewClientWithConfig(clientCfg),
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1),
		model:      cfg.Model,
		dimensions: dimensions,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result.Vectors) == 0 {
		return nil, fmt.Errorf("%w: openai returned no embedding", domain.ErrProvider)
	}
	return result.Vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts, splitting the
// input into sub-batches of at most the configured batch size. Vectors
// come back in input order; token usage is summed across sub-batches.
// A failing sub-batch aborts the whole call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) (*driven.EmbedBatchResult, error) {
	if len(texts) == 0 {
		return &driven.EmbedBatchResult{}, nil
	}

	result := &driven.EmbedBatchResult{
		Vectors: make([][]float32, len(texts)),
	}

	for offset := 0; offset < len(texts); offset += s.batchSize {
		end := offset + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrProvider, err)
		}

		req := openai.EmbeddingRequestStrings{
			Input: texts[offset:end],
			Model: openai.EmbeddingModel(s.model),
		}
		if s.model == "text-embedding-3-small" || s.model == "text-embedding-3-large" {
			req.Dimensions = s.dimensions
		}

		resp, err := s.client.CreateEmbeddings(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: openai embeddings (batch at %d): %v", domain.ErrProvider, offset, err)
		}
		if len(resp.Data) != end-offset {
			return nil, fmt.Errorf("%w: openai returned %d embeddings for %d inputs", domain.ErrProvider, len(resp.Data), end-offset)
		}

		for _, data := range resp.Data {
			result.Vectors[offset+data.Index] = data.Embedding
		}
		result.TotalTokens += resp.Usage.TotalTokens
	}

	return result, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping validates the API key with a models listing, which runs no
// inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("%w: openai ping: %v", domain.ErrProvider, err)
	}
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
