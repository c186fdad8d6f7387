package domain

// IngestOptions configure the ingestion of one document.
type IngestOptions struct {
	// ChunkSize is the target chunk size in characters (default 1000).
	ChunkSize int

	// ChunkOverlap is the overlap between chunks in characters (default 200).
	ChunkOverlap int

	// SourceTag is the category to record for every chunk.
	SourceTag SourceTag

	// ReIngest deletes all records for the document's SourceFile before
	// inserting new ones (replace semantics, not update-in-place).
	ReIngest bool
}

// WithDefaults returns a copy with zero-value fields filled in.
func (o IngestOptions) WithDefaults() IngestOptions {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ChunkOverlap == 0 {
		o.ChunkOverlap = DefaultChunkOverlap
	}
	if o.SourceTag == "" {
		o.SourceTag = TagOther
	}
	return o
}

// IngestStats count what one ingestion produced.
type IngestStats struct {
	// Pages is the source document's page count.
	Pages int

	// Characters is the length of the extracted text.
	Characters int

	// Chunks is the number of chunks produced.
	Chunks int

	// EmbeddingsStored is the number of records written to the store.
	EmbeddingsStored int

	// Tokens is the provider-reported (or estimated) token usage.
	Tokens int
}

// Add accumulates another document's stats into this one.
func (s *IngestStats) Add(other IngestStats) {
	s.Pages += other.Pages
	s.Characters += other.Characters
	s.Chunks += other.Chunks
	s.EmbeddingsStored += other.EmbeddingsStored
	s.Tokens += other.Tokens
}

// IngestResult is the structured outcome for one document.
// A failed step aborts the remaining steps for that document only and is
// recorded as a human-readable string in Errors.
type IngestResult struct {
	// Success is true when every step completed.
	Success bool

	// FileName is the document's basename.
	FileName string

	// SourceTag is the category the document was ingested under.
	SourceTag SourceTag

	// Stats count what was processed.
	Stats IngestStats

	// Errors holds human-readable failure descriptions.
	Errors []string
}

// DirectoryOptions configure a directory ingestion.
type DirectoryOptions struct {
	// IngestOptions apply to every document. SourceTag is ignored;
	// each file's tag is inferred from TagRules unless ForceTag is set.
	IngestOptions

	// TagRules override the default filename-based tag inference.
	TagRules TagRules

	// ForceTag, when non-empty, bypasses inference for every file.
	ForceTag SourceTag

	// Extensions restricts eligible files (default: registry extensions).
	Extensions []string
}

// DirectoryResult aggregates the per-document outcomes of a directory
// ingestion. Per-document failures never abort sibling documents.
type DirectoryResult struct {
	// Success is the logical AND of all per-document successes.
	Success bool

	// Results holds one entry per eligible document, in scan order.
	Results []IngestResult

	// Stats is the sum of all per-document stats.
	Stats IngestStats

	// Unmatched lists files whose tag no rule matched and which fell
	// back to TagOther, so mis-tagging is surfaced rather than silent.
	Unmatched []string
}
