package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driving"
	"github.com/inkwell-labs/corpus-cli/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.Retriever = (*RetrievalService)(nil)

// Preset search parameters. Guidelines use a strict threshold because
// style advice applied wrongly is worse than none; examples use a loose
// one because loosely related posts still illustrate tone.
const (
	guidelinesTopK          = 3
	guidelinesMinSimilarity = 0.5
	examplesTopK            = 5
	examplesMinSimilarity   = 0.3
)

// RetrievalService answers similarity queries over the knowledge store.
type RetrievalService struct {
	embedder driven.EmbeddingService
	store    driven.KnowledgeStore
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.KnowledgeStore) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
	}
}

// RetrieveContext embeds the query and returns ranked results. An empty
// result list means nothing was sufficiently similar; it is not an error.
func (s *RetrievalService) RetrieveContext(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.RetrievalResult, error) {
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}

	logger.Debug("retrieving context for %q (topK=%d, minSim=%.2f, tags=%v)",
		query, opts.TopK, opts.MinSimilarity, opts.SourceTags)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.store.SimilaritySearch(ctx, vector, opts)
	if err != nil {
		return nil, fmt.Errorf("searching store: %w", err)
	}

	logger.Debug("retrieved %d results", len(results))
	return results, nil
}

// Guidelines retrieves style and feedback knowledge for a content type
// and platform.
func (s *RetrievalService) Guidelines(ctx context.Context, contentType, platform string) ([]domain.RetrievalResult, error) {
	query := fmt.Sprintf("Guidelines for %s on %s", contentType, platform)
	return s.RetrieveContext(ctx, query, domain.SearchOptions{
		TopK:          guidelinesTopK,
		MinSimilarity: guidelinesMinSimilarity,
		SourceTags:    []domain.SourceTag{domain.TagStyleGuide, domain.TagFeedback},
	})
}

// Examples retrieves example posts and knowledge-base content for a
// content type and platform.
func (s *RetrievalService) Examples(ctx context.Context, contentType, platform string) ([]domain.RetrievalResult, error) {
	query := fmt.Sprintf("Example %s posts for %s", contentType, platform)
	return s.RetrieveContext(ctx, query, domain.SearchOptions{
		TopK:          examplesTopK,
		MinSimilarity: examplesMinSimilarity,
		SourceTags:    []domain.SourceTag{domain.TagExamplePost, domain.TagKnowledgeBase},
	})
}

// ComprehensiveContext runs the guidelines and examples retrievals
// concurrently and returns one prompt bundle, guidelines first. Each
// group keeps its internal rank order; the groups are never re-sorted
// against each other.
func (s *RetrievalService) ComprehensiveContext(ctx context.Context, contentType, platform string) (string, error) {
	var (
		wg            sync.WaitGroup
		guidelines    []domain.RetrievalResult
		examples      []domain.RetrievalResult
		guidelinesErr error
		examplesErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		guidelines, guidelinesErr = s.Guidelines(ctx, contentType, platform)
	}()
	go func() {
		defer wg.Done()
		examples, examplesErr = s.Examples(ctx, contentType, platform)
	}()
	wg.Wait()

	if guidelinesErr != nil {
		return "", fmt.Errorf("retrieving guidelines: %w", guidelinesErr)
	}
	if examplesErr != nil {
		return "", fmt.Errorf("retrieving examples: %w", examplesErr)
	}

	var b strings.Builder
	if len(guidelines) > 0 {
		b.WriteString("# Guidelines\n\n")
		b.WriteString(s.FormatForPrompt(guidelines))
	}
	if len(examples) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# Examples\n\n")
		b.WriteString(s.FormatForPrompt(examples))
	}

	return b.String(), nil
}

// FormatForPrompt renders results as labelled sections, each with a
// provenance header so downstream consumers can cite their sources.
func (s *RetrievalService) FormatForPrompt(results []domain.RetrievalResult) string {
	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s (%.2f)\n%s\n",
			result.Record.SourceTag, result.Record.SourceFile,
			result.Similarity, result.Record.Text)
	}
	return b.String()
}

// IsInitialized reports whether the store holds any records.
func (s *RetrievalService) IsInitialized(ctx context.Context) (bool, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return false, fmt.Errorf("reading store stats: %w", err)
	}
	return stats.Total > 0, nil
}
