// Package pdf reads PDF documents by shelling out to pdftotext from
// poppler-utils. Documents must already contain a text layer; scanned
// PDFs without one come back empty and are rejected.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/readers/plaintext"
)

// Ensure Reader implements the interface.
var _ driven.DocumentReader = (*Reader)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can run without a pdftotext binary.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Reader handles PDF documents.
type Reader struct {
	runner CommandRunner
}

// New creates a PDF reader that shells out to pdftotext.
func New() *Reader {
	return &Reader{runner: execRunner{}}
}

// NewWithRunner creates a PDF reader with a custom command runner.
func NewWithRunner(runner CommandRunner) *Reader {
	return &Reader{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform-specific install guidance for
// pdftotext.
func InstallInstructions() string {
	return strings.Join([]string{
		"pdftotext is required to ingest PDF documents.",
		"  macOS:         brew install poppler",
		"  Debian/Ubuntu: apt install poppler-utils",
		"  Fedora:        dnf install poppler-utils",
	}, "\n")
}

// Extensions returns the file extensions this reader handles.
func (r *Reader) Extensions() []string {
	return []string{".pdf"}
}

// Read extracts the document at path. Page count is derived from the
// form feeds pdftotext emits between pages.
func (r *Reader) Read(ctx context.Context, path string) (*domain.ExtractedDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrMalformedInput, path, err)
	}

	out, err := r.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed for %s: %v", domain.ErrMalformedInput, path, err)
	}

	text := string(out)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s has no extractable text (scanned without OCR?)", domain.ErrMalformedInput, path)
	}

	pages := strings.Count(text, "\f")
	if !strings.HasSuffix(text, "\f") {
		pages++
	}

	return &domain.ExtractedDocument{
		Text:      strings.ReplaceAll(text, "\f", "\n\n"),
		Title:     extractTitle(text, path),
		PageCount: pages,
		Metadata:  map[string]any{"format": "pdf"},
	}, nil
}

// extractTitle uses the first short non-empty line as the title, falling
// back to the filename for documents that open with a wall of text.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) <= 200 {
			return line
		}
	}
	return plaintext.TitleFromPath(path)
}
