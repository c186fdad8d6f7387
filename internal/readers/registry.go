// Package readers routes documents to the format reader matching their
// file extension.
package readers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/readers/markdown"
	"github.com/inkwell-labs/corpus-cli/internal/readers/pdf"
	"github.com/inkwell-labs/corpus-cli/internal/readers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ReaderRegistry = (*Registry)(nil)

// Registry maps file extensions to document readers. Later
// registrations win when two readers claim the same extension.
type Registry struct {
	byExt map[string]driven.DocumentReader
}

// NewRegistry creates a registry with the given readers.
func NewRegistry(rs ...driven.DocumentReader) *Registry {
	reg := &Registry{byExt: make(map[string]driven.DocumentReader)}
	for _, r := range rs {
		reg.Register(r)
	}
	return reg
}

// NewDefaultRegistry creates a registry with the built-in plaintext,
// markdown and PDF readers.
func NewDefaultRegistry() *Registry {
	return NewRegistry(plaintext.New(), markdown.New(), pdf.New())
}

// Register adds a reader for every extension it declares.
func (r *Registry) Register(reader driven.DocumentReader) {
	for _, ext := range reader.Extensions() {
		r.byExt[strings.ToLower(ext)] = reader
	}
}

// ReaderFor returns the reader for the file's extension.
func (r *Registry) ReaderFor(path string) (driven.DocumentReader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, fmt.Errorf("%w: %s has no file extension", domain.ErrMalformedInput, path)
	}
	reader, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %s", domain.ErrMalformedInput, ext)
	}
	return reader, nil
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
