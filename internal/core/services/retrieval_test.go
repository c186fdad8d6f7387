package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/storage/memory"
	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// seedRecord embeds the text with the stub model and stores it.
func seedRecord(t *testing.T, store *memory.KnowledgeStore, id string, tag domain.SourceTag, file, text string) {
	t.Helper()
	require.NoError(t, store.InsertOne(context.Background(), &domain.KnowledgeRecord{
		ID:         id,
		SourceTag:  tag,
		SourceFile: file,
		Text:       text,
		Embedding:  lexicalVector(text),
		Dimensions: stubDimensions,
	}))
}

func newRetrievalFixture(t *testing.T) (*RetrievalService, *memory.KnowledgeStore) {
	t.Helper()
	store := memory.NewKnowledgeStore()
	return NewRetrievalService(&stubEmbedder{}, store), store
}

func TestRetrieveContext_RanksByRelevance(t *testing.T) {
	ctx := context.Background()
	service, store := newRetrievalFixture(t)

	seedRecord(t, store, "style", domain.TagStyleGuide, "guide.md",
		"Our tone is friendly and direct.")
	seedRecord(t, store, "release", domain.TagExamplePost, "post.txt",
		"Announcing the new release with gratitude to contributors.")

	results, err := service.RetrieveContext(ctx, "friendly direct tone", domain.SearchOptions{
		TopK:          5,
		MinSimilarity: 0.1,
	})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "style", results[0].Record.ID)
	assert.Greater(t, results[0].Similarity, 0.1)
}

func TestRetrieveContext_EmptyIsNotAnError(t *testing.T) {
	service, _ := newRetrievalFixture(t)

	results, err := service.RetrieveContext(context.Background(), "anything", domain.SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveContext_EmbedderFailure(t *testing.T) {
	store := memory.NewKnowledgeStore()
	service := NewRetrievalService(&stubEmbedder{failWith: errors.New("provider down")}, store)

	_, err := service.RetrieveContext(context.Background(), "query", domain.SearchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding query")
}

func TestGuidelines_FiltersToStyleAndFeedback(t *testing.T) {
	ctx := context.Background()
	service, store := newRetrievalFixture(t)

	// All three share the query's vocabulary; only tags separate them.
	seedRecord(t, store, "style", domain.TagStyleGuide, "guide.md",
		"Guidelines for article content on linkedin")
	seedRecord(t, store, "feedback", domain.TagFeedback, "review.md",
		"Guidelines for article content on linkedin platform")
	seedRecord(t, store, "example", domain.TagExamplePost, "post.txt",
		"Guidelines for article content on linkedin here too")

	results, err := service.Guidelines(ctx, "article", "linkedin")
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, result := range results {
		assert.Contains(t, []domain.SourceTag{domain.TagStyleGuide, domain.TagFeedback},
			result.Record.SourceTag)
	}
}

func TestExamples_FiltersToExamplesAndKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	service, store := newRetrievalFixture(t)

	seedRecord(t, store, "example", domain.TagExamplePost, "post.txt",
		"Example article posts for linkedin")
	seedRecord(t, store, "kb", domain.TagKnowledgeBase, "kb.txt",
		"Example article posts for the linkedin audience")
	seedRecord(t, store, "style", domain.TagStyleGuide, "guide.md",
		"Example article posts for linkedin as well")

	results, err := service.Examples(ctx, "article", "linkedin")
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, result := range results {
		assert.Contains(t, []domain.SourceTag{domain.TagExamplePost, domain.TagKnowledgeBase},
			result.Record.SourceTag)
	}
}

func TestComprehensiveContext(t *testing.T) {
	ctx := context.Background()
	service, store := newRetrievalFixture(t)

	seedRecord(t, store, "style", domain.TagStyleGuide, "guide.md",
		"Guidelines for article content on linkedin")
	seedRecord(t, store, "example", domain.TagExamplePost, "post.txt",
		"Example article posts for linkedin")

	bundle, err := service.ComprehensiveContext(ctx, "article", "linkedin")
	require.NoError(t, err)

	guidelinesAt := strings.Index(bundle, "# Guidelines")
	examplesAt := strings.Index(bundle, "# Examples")
	require.GreaterOrEqual(t, guidelinesAt, 0)
	require.Greater(t, examplesAt, guidelinesAt, "guidelines come first")

	assert.Contains(t, bundle, "[style_guide] guide.md")
	assert.Contains(t, bundle, "[example_post] post.txt")
}

func TestComprehensiveContext_EmptyStore(t *testing.T) {
	service, _ := newRetrievalFixture(t)

	bundle, err := service.ComprehensiveContext(context.Background(), "article", "linkedin")
	require.NoError(t, err)
	assert.Empty(t, bundle)
}

func TestFormatForPrompt(t *testing.T) {
	service, _ := newRetrievalFixture(t)

	out := service.FormatForPrompt([]domain.RetrievalResult{
		{
			Record: domain.KnowledgeRecord{
				SourceTag:  domain.TagStyleGuide,
				SourceFile: "guide.md",
				Text:       "Keep it short.",
			},
			Similarity: 0.8251,
		},
		{
			Record: domain.KnowledgeRecord{
				SourceTag:  domain.TagFeedback,
				SourceFile: "review.md",
				Text:       "Less jargon.",
			},
			Similarity: 0.61,
		},
	})

	want := "[style_guide] guide.md (0.83)\nKeep it short.\n\n[feedback] review.md (0.61)\nLess jargon.\n"
	assert.Equal(t, want, out)
}

func TestFormatForPrompt_Empty(t *testing.T) {
	service, _ := newRetrievalFixture(t)
	assert.Empty(t, service.FormatForPrompt(nil))
}

func TestIsInitialized(t *testing.T) {
	ctx := context.Background()
	service, store := newRetrievalFixture(t)

	ok, err := service.IsInitialized(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	seedRecord(t, store, "a", domain.TagOther, "f.txt", "content")

	ok, err = service.IsInitialized(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}
