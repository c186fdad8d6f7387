// Package chunker splits normalised text into overlapping, size-bounded
// chunks using a separator-preference cascade.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
)

// Separator search window around a proposed cut point, in bytes.
const (
	searchBefore = 200
	searchAfter  = 100
)

// DefaultSeparators is the separator-preference cascade, highest
// priority first: paragraph break, line break, sentence end, clause
// end, word boundary.
var DefaultSeparators = []string{"\n\n", "\n", ". ", ", ", " "}

var (
	spaceRuns    = regexp.MustCompile(`[ \t]+`)
	blankLineRun = regexp.MustCompile(`\n{3,}`)
)

// Chunker produces a finite, ordered sequence of chunks covering a text.
type Chunker struct {
	size               int
	overlap            int
	separators         []string
	preserveWhitespace bool
}

// Option configures the chunker.
type Option func(*Chunker)

// WithSize sets the target chunk size in characters.
func WithSize(size int) Option {
	return func(c *Chunker) {
		c.size = size
	}
}

// WithOverlap sets the overlap between adjacent chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// WithSeparators replaces the separator-preference cascade.
func WithSeparators(separators []string) Option {
	return func(c *Chunker) {
		if len(separators) > 0 {
			c.separators = separators
		}
	}
}

// WithPreserveWhitespace disables whitespace normalisation.
func WithPreserveWhitespace() Option {
	return func(c *Chunker) {
		c.preserveWhitespace = true
	}
}

// New creates a chunker. Invalid parameters are rejected here, before
// any document I/O: overlap >= size would stall the cursor and is a
// configuration error, never silently clamped.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		size:       domain.DefaultChunkSize,
		overlap:    domain.DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfig, c.size)
	}
	if c.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must be non-negative, got %d", domain.ErrConfig, c.overlap)
	}
	if c.overlap >= c.size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrConfig, c.overlap, c.size)
	}

	return c, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int {
	return c.size
}

// Overlap returns the configured chunk overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split chunks the text. Whitespace is normalised first unless
// preservation was requested. Offsets refer to the normalised text.
// Whitespace-only spans are dropped; emitted chunks are trimmed and
// carry strictly increasing indexes.
func (c *Chunker) Split(text string) []domain.Chunk {
	if !c.preserveWhitespace {
		text = NormaliseWhitespace(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	length := len(text)
	estimated := length/(c.size-c.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	index := 0

	for start < length {
		cutEnd := c.cut(text, start)

		if chunk, ok := makeChunk(text, start, cutEnd, index); ok {
			chunks = append(chunks, chunk)
			index++
		}

		if cutEnd >= length {
			break
		}

		// Advance by cutEnd-overlap, but never at or behind the current
		// start: strictly increasing progress guarantees termination.
		next := runeBoundary(text, cutEnd-c.overlap)
		if next <= start {
			next = cutEnd
		}
		start = next
	}

	return chunks
}

// cut picks the end of the chunk starting at start: the proposed end is
// start+size, and a bounded window around it is searched for the
// highest-priority separator. With no separator present, the chunk is
// hard-cut at the proposed end.
func (c *Chunker) cut(text string, start int) int {
	end := start + c.size
	if end >= len(text) {
		return len(text)
	}

	lo := end - searchBefore
	if lo <= start {
		lo = start + 1
	}
	hi := end + searchAfter
	if hi > len(text) {
		hi = len(text)
	}

	window := text[lo:hi]
	for _, sep := range c.separators {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return lo + idx + len(sep)
		}
	}

	return runeBoundary(text, end)
}

// makeChunk trims the span and reports whether anything remains.
// Offsets are adjusted to the trimmed region.
func makeChunk(text string, start, end, index int) (domain.Chunk, bool) {
	span := text[start:end]
	trimmed := strings.TrimSpace(span)
	if trimmed == "" {
		return domain.Chunk{}, false
	}

	leading := strings.Index(span, trimmed)

	return domain.Chunk{
		Text:        trimmed,
		Index:       index,
		StartOffset: start + leading,
		EndOffset:   start + leading + len(trimmed),
	}, true
}

// runeBoundary backs pos off to the start of the UTF-8 sequence it
// falls inside, so hard cuts never split a rune.
func runeBoundary(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(text) {
		return len(text)
	}
	for pos > 0 && !utf8.RuneStart(text[pos]) {
		pos--
	}
	return pos
}

// NormaliseWhitespace collapses space and tab runs to a single space,
// converts Windows line endings, and caps consecutive blank lines at one.
func NormaliseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
