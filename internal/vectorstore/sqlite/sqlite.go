package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"docvec/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS vector_records (
	id               TEXT PRIMARY KEY,
	original_text    TEXT NOT NULL,
	contextual_text  TEXT NOT NULL,
	document_name    TEXT NOT NULL,
	document_id      TEXT NOT NULL,
	page_number      TEXT NOT NULL,
	dimension        INTEGER NOT NULL,
	vector           BLOB NOT NULL,
	UNIQUE (document_name, page_number),
	UNIQUE (document_id, page_number)
);
CREATE INDEX IF NOT EXISTS idx_vector_records_document_id ON vector_records (document_id);
`

// Storage keeps vector records in a local SQLite database file.
type Storage struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Exists(ctx context.Context, documentName string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM vector_records WHERE document_name = ? LIMIT 1`, documentName).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: sqlite: find document: %w", domain.ErrPersistence, err)
	}
	return true, nil
}

func (s *Storage) Insert(ctx context.Context, r domain.VectorRecord) error {
	if len(r.VectorEmbeddings) == 0 {
		return fmt.Errorf("%w: sqlite: empty vector", domain.ErrPersistence)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vector_records
			(id, original_text, contextual_text, document_name, document_id, page_number, dimension, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OriginalText, r.ContextualText, r.DocumentName, r.DocumentID, r.PageNumber,
		len(r.VectorEmbeddings), vectorToBlob(r.VectorEmbeddings),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sqlite: %s page %s: %w", domain.ErrDuplicateDocument, r.DocumentName, r.PageNumber, err)
		}
		return fmt.Errorf("%w: sqlite: insert record: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *Storage) DeleteByNameOrID(ctx context.Context, input string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM vector_records WHERE document_name = ? OR document_id = ?`, input, input)
	if err != nil {
		return 0, fmt.Errorf("%w: sqlite: delete records: %w", domain.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: sqlite: rows affected: %w", domain.ErrPersistence, err)
	}
	return n, nil
}

func (s *Storage) DocumentNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT document_name FROM vector_records`)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite: list documents: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: sqlite: scan document name: %w", domain.ErrPersistence, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: sqlite: list documents: %w", domain.ErrPersistence, err)
	}
	return names, nil
}

// Vector loads the stored embedding of a record.
func (s *Storage) Vector(ctx context.Context, id string) ([]float32, error) {
	var blob []byte
	if err := s.db.QueryRowContext(ctx, `SELECT vector FROM vector_records WHERE id = ?`, id).Scan(&blob); err != nil {
		return nil, fmt.Errorf("sqlite: load vector %s: %w", id, err)
	}
	return blobToVector(blob)
}

func (s *Storage) Close(context.Context) error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func vectorToBlob(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:i*4+4], math.Float32bits(v))
	}
	return blob
}

func blobToVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("blob size %d is not a multiple of 4", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vector, nil
}
