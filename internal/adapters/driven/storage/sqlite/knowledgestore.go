package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/inkwell-labs/corpus-cli/internal/core/domain"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
)

// insertBatchSize caps how many records go into one transaction during
// bulk insert.
const insertBatchSize = 50

// Ensure Store implements the interface.
var _ driven.KnowledgeStore = (*Store)(nil)

// Store is a SQLite-backed knowledge store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store in the given data directory.
// If dataDir is empty, defaults to ~/.corpus/data/knowledge.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".corpus", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")

	// WAL mode for better concurrency between the watcher and queries.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// InsertOne stores a single record.
func (s *Store) InsertOne(ctx context.Context, record *domain.KnowledgeRecord) error {
	return s.InsertBulk(ctx, []domain.KnowledgeRecord{*record})
}

// InsertBulk stores records in transactions of at most insertBatchSize
// rows each, so one huge document cannot produce an unbounded write.
func (s *Store) InsertBulk(ctx context.Context, records []domain.KnowledgeRecord) error {
	for offset := 0; offset < len(records); offset += insertBatchSize {
		end := offset + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.insertBatch(ctx, records[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertBatch(ctx context.Context, records []domain.KnowledgeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", domain.ErrStore, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO knowledge_records
			(id, source_tag, source_file, chunk_index, text, embedding, dimensions, token_count, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_tag = excluded.source_tag,
			source_file = excluded.source_file,
			chunk_index = excluded.chunk_index,
			text = excluded.text,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			token_count = excluded.token_count,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("%w: preparing statement: %v", domain.ErrStore, err)
	}
	defer stmt.Close()

	for i := range records {
		record := &records[i]

		metadataJSON, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("%w: marshalling metadata: %v", domain.ErrStore, err)
		}

		createdAt := record.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := stmt.ExecContext(ctx,
			record.ID, string(record.SourceTag), record.SourceFile, record.ChunkIndex,
			record.Text, float32SliceToBytes(record.Embedding), record.Dimensions,
			record.TokenCount, string(metadataJSON), createdAt,
		); err != nil {
			return fmt.Errorf("%w: inserting record %s: %v", domain.ErrStore, record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", domain.ErrStore, err)
	}
	return nil
}

// QueryByFilter returns all records matching the provenance filter.
func (s *Store) QueryByFilter(ctx context.Context, filter domain.RecordFilter) ([]domain.KnowledgeRecord, error) {
	query := `
		SELECT id, source_tag, source_file, chunk_index, text, embedding, dimensions, token_count, metadata, created_at
		FROM knowledge_records
	`
	var conditions []string
	var args []any
	if filter.SourceTag != "" {
		conditions = append(conditions, "source_tag = ?")
		args = append(args, string(filter.SourceTag))
	}
	if filter.SourceFile != "" {
		conditions = append(conditions, "source_file = ?")
		args = append(args, filter.SourceFile)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY source_file, chunk_index"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying records: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// SimilaritySearch loads the tag-filtered candidate set and ranks it in
// memory. Brute force holds up fine at the store sizes this tool targets.
func (s *Store) SimilaritySearch(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.RetrievalResult, error) {
	sqlQuery := `
		SELECT id, source_tag, source_file, chunk_index, text, embedding, dimensions, token_count, metadata, created_at
		FROM knowledge_records
	`
	var args []any
	if len(opts.SourceTags) > 0 {
		placeholders := make([]string, len(opts.SourceTags))
		for i, tag := range opts.SourceTags {
			placeholders[i] = "?"
			args = append(args, string(tag))
		}
		sqlQuery += " WHERE source_tag IN (" + strings.Join(placeholders, ", ") + ")"
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying candidates: %v", domain.ErrStore, err)
	}
	defer rows.Close()

	candidates, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	return domain.TopKBySimilarity(candidates, query, opts), nil
}

// DeleteByFile removes all records for a source file.
func (s *Store) DeleteByFile(ctx context.Context, sourceFile string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_records WHERE source_file = ?", sourceFile)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting by file: %v", domain.ErrStore, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: counting deleted rows: %v", domain.ErrStore, err)
	}
	return int(affected), nil
}

// DeleteBySource removes all records for a source tag.
func (s *Store) DeleteBySource(ctx context.Context, tag domain.SourceTag) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM knowledge_records WHERE source_tag = ?", string(tag))
	if err != nil {
		return 0, fmt.Errorf("%w: deleting by tag: %v", domain.ErrStore, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: counting deleted rows: %v", domain.ErrStore, err)
	}
	return int(affected), nil
}

// Stats returns record counts grouped by provenance.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	stats := &domain.StoreStats{
		BySourceTag:  make(map[domain.SourceTag]int),
		BySourceFile: make(map[string]int),
	}

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_records")
	if err := row.Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("%w: counting records: %v", domain.ErrStore, err)
	}

	tagRows, err := s.db.QueryContext(ctx, "SELECT source_tag, COUNT(*) FROM knowledge_records GROUP BY source_tag")
	if err != nil {
		return nil, fmt.Errorf("%w: counting by tag: %v", domain.ErrStore, err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var tag string
		var count int
		if err := tagRows.Scan(&tag, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning tag count: %v", domain.ErrStore, err)
		}
		stats.BySourceTag[domain.SourceTag(tag)] = count
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating tag counts: %v", domain.ErrStore, err)
	}

	fileRows, err := s.db.QueryContext(ctx, "SELECT source_file, COUNT(*) FROM knowledge_records GROUP BY source_file")
	if err != nil {
		return nil, fmt.Errorf("%w: counting by file: %v", domain.ErrStore, err)
	}
	defer fileRows.Close()
	for fileRows.Next() {
		var file string
		var count int
		if err := fileRows.Scan(&file, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning file count: %v", domain.ErrStore, err)
		}
		stats.BySourceFile[file] = count
	}
	if err := fileRows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating file counts: %v", domain.ErrStore, err)
	}

	return stats, nil
}

// scanRecords drains rows into knowledge records.
func scanRecords(rows *sql.Rows) ([]domain.KnowledgeRecord, error) {
	var records []domain.KnowledgeRecord
	for rows.Next() {
		var record domain.KnowledgeRecord
		var tag string
		var embeddingBlob []byte
		var metadataJSON sql.NullString

		if err := rows.Scan(&record.ID, &tag, &record.SourceFile, &record.ChunkIndex,
			&record.Text, &embeddingBlob, &record.Dimensions, &record.TokenCount,
			&metadataJSON, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning record: %v", domain.ErrStore, err)
		}

		record.SourceTag = domain.SourceTag(tag)
		record.Embedding = bytesToFloat32Slice(embeddingBlob)
		if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &record.Metadata); err != nil {
				return nil, fmt.Errorf("%w: unmarshalling metadata: %v", domain.ErrStore, err)
			}
		}

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating records: %v", domain.ErrStore, err)
	}
	return records, nil
}

// float32SliceToBytes converts a []float32 to a little-endian byte slice
// for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
