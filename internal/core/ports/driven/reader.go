package driven

import (
	"context"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// DocumentReader extracts plain text and structural metadata from a
// source document. Each reader handles specific file extensions.
// Format parsing is a black box behind this port: the pipeline only
// sees (text, page count, metadata).
type DocumentReader interface {
	// Extensions returns the file extensions this reader handles,
	// lowercase with leading dot (e.g. ".pdf").
	Extensions() []string

	// Read extracts the document at path. It returns
	// domain.ErrMalformedInput when the document is unreadable or its
	// extracted text is empty. PDFs must already be text-extractable;
	// no OCR is performed.
	Read(ctx context.Context, path string) (*domain.ExtractedDocument, error)
}

// ReaderRegistry selects the reader for a file by extension.
type ReaderRegistry interface {
	// ReaderFor returns the reader for the file's extension, or
	// domain.ErrMalformedInput when no reader supports it.
	ReaderFor(path string) (DocumentReader, error)

	// Extensions returns every extension a registered reader handles.
	Extensions() []string
}
