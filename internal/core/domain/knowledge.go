package domain

import (
	"fmt"
	"time"
)

// SourceTag categorises where a knowledge record came from.
type SourceTag string

const (
	// TagStyleGuide marks content from brand/style guide documents.
	TagStyleGuide SourceTag = "style_guide"
	// TagExamplePost marks content from example posts.
	TagExamplePost SourceTag = "example_post"
	// TagKnowledgeBase marks content from knowledge-base articles.
	TagKnowledgeBase SourceTag = "knowledge_base"
	// TagFeedback marks content from editorial feedback notes.
	TagFeedback SourceTag = "feedback"
	// TagOther is the catch-all for documents no rule matched.
	TagOther SourceTag = "other"
)

// AllSourceTags lists every valid tag, in display order.
func AllSourceTags() []SourceTag {
	return []SourceTag{TagStyleGuide, TagExamplePost, TagKnowledgeBase, TagFeedback, TagOther}
}

// Valid reports whether the tag is one of the known categories.
func (t SourceTag) Valid() bool {
	switch t {
	case TagStyleGuide, TagExamplePost, TagKnowledgeBase, TagFeedback, TagOther:
		return true
	}
	return false
}

// ParseSourceTag converts a string to a SourceTag.
// Unknown values are rejected rather than silently mapped to TagOther.
func ParseSourceTag(s string) (SourceTag, error) {
	tag := SourceTag(s)
	if !tag.Valid() {
		return "", fmt.Errorf("%w: unknown source tag %q", ErrConfig, s)
	}
	return tag, nil
}

// KnowledgeRecord is the persisted unit of retrievable knowledge: one
// embedded chunk of a source document plus its provenance.
// Records are append-only; the only mutation is bulk deletion by
// SourceFile or SourceTag.
type KnowledgeRecord struct {
	// ID is the unique record identifier.
	ID string

	// SourceTag is the document category this record came from.
	SourceTag SourceTag

	// SourceFile is the basename of the original document.
	// Many records share one SourceFile; it is the key for
	// re-ingestion replace semantics.
	SourceFile string

	// Text is the chunk text that was embedded.
	Text string

	// Embedding is the vector representation of Text.
	Embedding []float32

	// ChunkIndex is the chunk's ordinal position within its document.
	ChunkIndex int

	// Dimensions is the embedding vector length at insert time.
	Dimensions int

	// TokenCount is the estimated token usage for Text.
	TokenCount int

	// Metadata contains arbitrary key-value pairs (title, page count, ...).
	Metadata map[string]any

	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}

// EstimateTokens approximates the token count of a text as ceil(len/4),
// the conventional chars-per-token heuristic for English prose.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// RecordFilter selects records by provenance. Zero-value fields match all.
type RecordFilter struct {
	// SourceTag restricts to one category when non-empty.
	SourceTag SourceTag

	// SourceFile restricts to one original document when non-empty.
	SourceFile string
}

// SearchOptions control a similarity search.
type SearchOptions struct {
	// TopK is the maximum number of results to return.
	TopK int

	// MinSimilarity drops candidates scoring below this value.
	MinSimilarity float64

	// SourceTags restricts the candidate set when non-empty.
	SourceTags []SourceTag
}

// RetrievalResult is a knowledge record scored against a query vector.
type RetrievalResult struct {
	// Record is the matched knowledge record.
	Record KnowledgeRecord

	// Similarity is the cosine similarity to the query, in [-1, 1].
	Similarity float64
}

// StoreStats summarises the contents of a knowledge store.
type StoreStats struct {
	// Total is the number of stored records.
	Total int

	// BySourceTag counts records per category.
	BySourceTag map[SourceTag]int

	// BySourceFile counts records per original document.
	BySourceFile map[string]int
}

// Default processing parameters.
const (
	// DefaultChunkSize is the target chunk size in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the overlap between adjacent chunks in characters.
	DefaultChunkOverlap = 200

	// DefaultEmbeddingBatchSize is the maximum texts per provider request.
	DefaultEmbeddingBatchSize = 100

	// DefaultTopK is the default result count for similarity search.
	DefaultTopK = 5

	// DefaultMinSimilarity is the default similarity floor.
	DefaultMinSimilarity = 0.7
)
