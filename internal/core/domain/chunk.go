package domain

// Chunk is a bounded, contiguous span of source text prepared for
// embedding. Chunks are transient: they exist only within one ingestion
// call and are never persisted on their own.
//
// Invariants: Text is non-empty and trimmed; Index is strictly
// increasing within a document.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Index is the ordinal position within the document.
	Index int

	// StartOffset is the byte offset of the chunk in the normalised text.
	StartOffset int

	// EndOffset is the byte offset just past the chunk.
	EndOffset int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ExtractedDocument is the reader output for one source document:
// plain text plus structural metadata, before chunking.
type ExtractedDocument struct {
	// Text is the extracted plain text.
	Text string

	// Title is the human-readable document title.
	Title string

	// PageCount is the number of pages, when the format has pages.
	// Plain text and markdown report 1.
	PageCount int

	// Metadata contains format-specific key-value pairs.
	Metadata map[string]any
}
