package services

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/storage/memory"
	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/readers"
)

const stubDimensions = 64

// lexicalVector maps a text to a bag-of-words vector, so cosine
// similarity between stub embeddings tracks lexical overlap. That makes
// ranking assertions deterministic without a real model.
func lexicalVector(text string) []float32 {
	vec := make([]float32, stubDimensions)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?:;\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%stubDimensions]++
	}
	return vec
}

// stubEmbedder is a deterministic in-process embedding service.
type stubEmbedder struct {
	failWith   error
	batchCalls int
}

var _ driven.EmbeddingService = (*stubEmbedder)(nil)

func (e *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failWith != nil {
		return nil, e.failWith
	}
	return lexicalVector(text), nil
}

func (e *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) (*driven.EmbedBatchResult, error) {
	e.batchCalls++
	result := &driven.EmbedBatchResult{Vectors: make([][]float32, len(texts))}
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		result.Vectors[i] = vec
		result.TotalTokens += domain.EstimateTokens(text)
	}
	return result, nil
}

func (e *stubEmbedder) Dimensions() int              { return stubDimensions }
func (e *stubEmbedder) ModelName() string            { return "stub-lexical" }
func (e *stubEmbedder) Ping(_ context.Context) error { return nil }
func (e *stubEmbedder) Close() error                 { return nil }

// failingStore wraps the memory store to force an insert failure.
type failingStore struct {
	driven.KnowledgeStore
}

func (f *failingStore) InsertBulk(_ context.Context, _ []domain.KnowledgeRecord) error {
	return domain.ErrStore
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newIngestFixture() (*IngestService, *memory.KnowledgeStore, *stubEmbedder) {
	store := memory.NewKnowledgeStore()
	embedder := &stubEmbedder{}
	service := NewIngestService(readers.NewDefaultRegistry(), embedder, store)
	return service, store, embedder
}

func TestIngest(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newIngestFixture()

	path := writeDoc(t, t.TempDir(), "brand_style_guide.txt",
		"Our tone is friendly and direct. Avoid jargon and corporate filler.")

	result, err := service.Ingest(ctx, path, domain.IngestOptions{SourceTag: domain.TagStyleGuide})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "brand_style_guide.txt", result.FileName)
	assert.Equal(t, domain.TagStyleGuide, result.SourceTag)
	assert.Equal(t, 1, result.Stats.Chunks)
	assert.Equal(t, 1, result.Stats.EmbeddingsStored)
	assert.Positive(t, result.Stats.Characters)
	assert.Positive(t, result.Stats.Tokens)

	records, err := store.QueryByFilter(ctx, domain.RecordFilter{SourceFile: "brand_style_guide.txt"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TagStyleGuide, records[0].SourceTag)
	assert.Equal(t, stubDimensions, records[0].Dimensions)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, "brand style guide", records[0].Metadata["title"])
}

func TestIngest_MissingFile(t *testing.T) {
	service, _, _ := newIngestFixture()
	_, err := service.Ingest(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), domain.IngestOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_InvalidChunkOptions(t *testing.T) {
	service, _, _ := newIngestFixture()
	path := writeDoc(t, t.TempDir(), "doc.txt", "content")

	_, err := service.Ingest(context.Background(), path, domain.IngestOptions{
		ChunkSize:    100,
		ChunkOverlap: 100,
	})
	assert.ErrorIs(t, err, domain.ErrConfig)
}

func TestIngest_UnsupportedExtension(t *testing.T) {
	service, _, _ := newIngestFixture()
	path := writeDoc(t, t.TempDir(), "deck.pptx", "binaryish")

	result, err := service.Ingest(context.Background(), path, domain.IngestOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "unsupported file type")
}

func TestIngest_EmbedderFailureIsRecorded(t *testing.T) {
	store := memory.NewKnowledgeStore()
	embedder := &stubEmbedder{failWith: errors.New("provider down")}
	service := NewIngestService(readers.NewDefaultRegistry(), embedder, store)

	path := writeDoc(t, t.TempDir(), "doc.txt", "some content to embed")

	result, err := service.Ingest(context.Background(), path, domain.IngestOptions{})
	require.NoError(t, err, "provider failures belong in the result, not the error")
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "provider down")
	assert.Zero(t, result.Stats.EmbeddingsStored)

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.Total, "nothing may be stored when embedding fails")
}

func TestIngest_StoreFailureIsRecorded(t *testing.T) {
	service := NewIngestService(readers.NewDefaultRegistry(), &stubEmbedder{},
		&failingStore{KnowledgeStore: memory.NewKnowledgeStore()})

	path := writeDoc(t, t.TempDir(), "doc.txt", "some content to store")

	result, err := service.Ingest(context.Background(), path, domain.IngestOptions{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "storing records")
}

func TestIngest_ReIngestReplaces(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newIngestFixture()
	dir := t.TempDir()

	path := writeDoc(t, dir, "guide.md", "# Guide\n\nFirst version of the tone advice.")
	_, err := service.Ingest(ctx, path, domain.IngestOptions{SourceTag: domain.TagStyleGuide})
	require.NoError(t, err)

	// Rewrite and re-ingest; the store must hold only the new records.
	path = writeDoc(t, dir, "guide.md", "# Guide\n\nSecond version, rewritten advice.")
	result, err := service.Ingest(ctx, path, domain.IngestOptions{
		SourceTag: domain.TagStyleGuide,
		ReIngest:  true,
	})
	require.NoError(t, err)
	require.True(t, result.Success)

	records, err := store.QueryByFilter(ctx, domain.RecordFilter{SourceFile: "guide.md"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].Text, "Second version")
}

func TestIngest_LongDocumentMultipleChunks(t *testing.T) {
	ctx := context.Background()
	service, store, embedder := newIngestFixture()

	paragraphs := make([]string, 12)
	for i := range paragraphs {
		paragraphs[i] = strings.Repeat("Write short sentences. ", 12)
	}
	path := writeDoc(t, t.TempDir(), "kb_article.txt", strings.Join(paragraphs, "\n\n"))

	result, err := service.Ingest(ctx, path, domain.IngestOptions{
		SourceTag: domain.TagKnowledgeBase,
		ChunkSize: 400, ChunkOverlap: 50,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Greater(t, result.Stats.Chunks, 1)
	assert.Equal(t, result.Stats.Chunks, result.Stats.EmbeddingsStored)
	assert.Equal(t, 1, embedder.batchCalls, "all chunks embed in one batch call")

	records, err := store.QueryByFilter(ctx, domain.RecordFilter{SourceFile: "kb_article.txt"})
	require.NoError(t, err)
	indexes := make(map[int]bool)
	for _, record := range records {
		indexes[record.ChunkIndex] = true
	}
	assert.Len(t, indexes, len(records), "chunk indexes must be distinct")
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newIngestFixture()

	dir := t.TempDir()
	writeDoc(t, dir, "brand_style.txt", "Friendly and direct tone.")
	writeDoc(t, dir, "launch_post.md", "Example launch announcement.")
	writeDoc(t, dir, "random_notes.txt", "Assorted notes with no category hint.")
	writeDoc(t, dir, "ignored.csv", "a,b,c")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	result, err := service.IngestDirectory(ctx, dir, domain.DirectoryOptions{})
	require.NoError(t, err)

	require.Len(t, result.Results, 3, "csv and subdirectory are skipped")
	assert.True(t, result.Success)

	byFile := make(map[string]domain.IngestResult)
	for _, r := range result.Results {
		byFile[r.FileName] = r
	}
	assert.Equal(t, domain.TagStyleGuide, byFile["brand_style.txt"].SourceTag)
	assert.Equal(t, domain.TagExamplePost, byFile["launch_post.md"].SourceTag)
	assert.Equal(t, domain.TagOther, byFile["random_notes.txt"].SourceTag)
	assert.Equal(t, []string{"random_notes.txt"}, result.Unmatched)

	assert.Equal(t, 3, result.Stats.Chunks)
	assert.Equal(t, 3, result.Stats.EmbeddingsStored)
}

func TestIngestDirectory_ForceTag(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newIngestFixture()

	dir := t.TempDir()
	writeDoc(t, dir, "whatever.txt", "Content under a forced tag.")

	result, err := service.IngestDirectory(ctx, dir, domain.DirectoryOptions{
		ForceTag: domain.TagFeedback,
	})
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, domain.TagFeedback, result.Results[0].SourceTag)
	assert.Empty(t, result.Unmatched, "forced tags bypass inference entirely")
}

func TestIngestDirectory_FaultIsolation(t *testing.T) {
	ctx := context.Background()
	service, store, _ := newIngestFixture()

	dir := t.TempDir()
	writeDoc(t, dir, "good_guide.txt", "Perfectly fine content.")
	writeDoc(t, dir, "bad_post.txt", "   \n\t ")

	result, err := service.IngestDirectory(ctx, dir, domain.DirectoryOptions{})
	require.NoError(t, err)

	assert.False(t, result.Success, "one failed document fails the aggregate")
	require.Len(t, result.Results, 2)

	byFile := make(map[string]domain.IngestResult)
	for _, r := range result.Results {
		byFile[r.FileName] = r
	}
	assert.True(t, byFile["good_guide.txt"].Success)
	assert.False(t, byFile["bad_post.txt"].Success)
	assert.NotEmpty(t, byFile["bad_post.txt"].Errors)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total, "the good document still landed")
}

func TestIngestDirectory_MissingDir(t *testing.T) {
	service, _, _ := newIngestFixture()
	_, err := service.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"), domain.DirectoryOptions{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
