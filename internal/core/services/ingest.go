// Package services implements the driving ports: the ingestion pipeline
// and retrieval orchestration. Services hold no state beyond their
// injected collaborators.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-labs/corpus-cli/internal/chunker"
	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driving"
	"github.com/inkwell-labs/corpus-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the document-to-knowledge pipeline: read, chunk,
// embed, store.
type IngestService struct {
	readers  driven.ReaderRegistry
	embedder driven.EmbeddingService
	store    driven.KnowledgeStore

	// fileMus serialises concurrent ingestions of the same source file,
	// which the watcher can trigger on rapid successive writes.
	mu      sync.Mutex
	fileMus map[string]*sync.Mutex
}

// NewIngestService creates an ingestion service.
func NewIngestService(readers driven.ReaderRegistry, embedder driven.EmbeddingService, store driven.KnowledgeStore) *IngestService {
	return &IngestService{
		readers:  readers,
		embedder: embedder,
		store:    store,
		fileMus:  make(map[string]*sync.Mutex),
	}
}

// fileLock returns the mutex for a source file, creating it on first use.
func (s *IngestService) fileLock(fileName string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.fileMus[fileName]
	if !ok {
		m = &sync.Mutex{}
		s.fileMus[fileName] = m
	}
	return m
}

// Ingest processes one document. A missing path and invalid chunking
// parameters fail fast as errors; every later failure is recorded in
// the result and aborts only the remaining steps for this document.
func (s *IngestService) Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	opts = opts.WithDefaults()
	fileName := filepath.Base(path)

	result := &domain.IngestResult{
		FileName:  fileName,
		SourceTag: opts.SourceTag,
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", domain.ErrNotFound, path, err)
	}

	chk, err := chunker.New(
		chunker.WithSize(opts.ChunkSize),
		chunker.WithOverlap(opts.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}

	lock := s.fileLock(fileName)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Ingest " + fileName)

	if opts.ReIngest {
		deleted, err := s.store.DeleteByFile(ctx, fileName)
		if err != nil {
			return fail(result, fmt.Errorf("deleting previous records: %w", err)), nil
		}
		logger.Debug("re-ingest: removed %d previous records for %s", deleted, fileName)
	}

	reader, err := s.readers.ReaderFor(path)
	if err != nil {
		return fail(result, err), nil
	}

	doc, err := reader.Read(ctx, path)
	if err != nil {
		return fail(result, fmt.Errorf("reading document: %w", err)), nil
	}
	result.Stats.Pages = doc.PageCount
	result.Stats.Characters = len(doc.Text)
	logger.Debug("extracted %d characters over %d pages", len(doc.Text), doc.PageCount)

	chunks := chk.Split(doc.Text)
	if len(chunks) == 0 {
		return fail(result, fmt.Errorf("%w: %s produced no chunks", domain.ErrMalformedInput, fileName)), nil
	}
	result.Stats.Chunks = len(chunks)
	logger.Debug("split into %d chunks (size %d, overlap %d)", len(chunks), opts.ChunkSize, opts.ChunkOverlap)

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	batch, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fail(result, fmt.Errorf("embedding chunks: %w", err)), nil
	}
	if len(batch.Vectors) != len(chunks) {
		return fail(result, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrProvider, len(batch.Vectors), len(chunks))), nil
	}
	result.Stats.Tokens = batch.TotalTokens

	now := time.Now().UTC()
	records := make([]domain.KnowledgeRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.KnowledgeRecord{
			ID:         uuid.New().String(),
			SourceTag:  opts.SourceTag,
			SourceFile: fileName,
			Text:       chunk.Text,
			Embedding:  batch.Vectors[i],
			ChunkIndex: chunk.Index,
			Dimensions: len(batch.Vectors[i]),
			TokenCount: domain.EstimateTokens(chunk.Text),
			Metadata: map[string]any{
				"title":      doc.Title,
				"page_count": doc.PageCount,
			},
			CreatedAt: now,
		}
	}

	if err := s.store.InsertBulk(ctx, records); err != nil {
		return fail(result, fmt.Errorf("storing records: %w", err)), nil
	}
	result.Stats.EmbeddingsStored = len(records)
	result.Success = true
	logger.Info("stored %d records for %s (%d tokens)", len(records), fileName, batch.TotalTokens)

	return result, nil
}

// IngestDirectory scans dir (non-recursive) for eligible files and
// ingests each one independently. A failing document never aborts its
// siblings.
func (s *IngestService) IngestDirectory(ctx context.Context, dir string, opts domain.DirectoryOptions) (*domain.DirectoryResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = s.readers.Extensions()
	}
	rules := opts.TagRules
	if len(rules) == 0 {
		rules = domain.DefaultTagRules()
	}

	dirResult := &domain.DirectoryResult{Success: true}

	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), extensions) {
			continue
		}

		tag := opts.ForceTag
		if tag == "" {
			var matched bool
			tag, matched = rules.Infer(entry.Name())
			if !matched {
				dirResult.Unmatched = append(dirResult.Unmatched, entry.Name())
				logger.Warn("no tag rule matched %s, falling back to %s", entry.Name(), tag)
			}
		}

		fileOpts := opts.IngestOptions
		fileOpts.SourceTag = tag

		result, err := s.Ingest(ctx, filepath.Join(dir, entry.Name()), fileOpts)
		if err != nil {
			// Fault isolation: fold hard errors into this document's
			// result so siblings still run.
			result = &domain.IngestResult{
				FileName:  entry.Name(),
				SourceTag: tag,
				Errors:    []string{err.Error()},
			}
		}

		dirResult.Results = append(dirResult.Results, *result)
		dirResult.Stats.Add(result.Stats)
		dirResult.Success = dirResult.Success && result.Success
	}

	return dirResult, nil
}

// hasExtension reports whether the filename carries one of the
// extensions, case-insensitively.
func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range extensions {
		if ext == strings.ToLower(candidate) {
			return true
		}
	}
	return false
}

// fail records the error on the result and returns it.
func fail(result *domain.IngestResult, err error) *domain.IngestResult {
	result.Success = false
	result.Errors = append(result.Errors, err.Error())
	logger.Warn("%s: %v", result.FileName, err)
	return result
}
