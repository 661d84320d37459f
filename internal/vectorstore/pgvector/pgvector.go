package pgvector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"docvec/internal/domain"
)

const uniqueViolation = "23505"

// Pool is the subset of *pgxpool.Pool the store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Config contains connection details for postgres with the vector extension.
type Config struct {
	DSN       string
	Table     string
	Dimension int
}

// Storage keeps vector records in a postgres table with a vector column.
type Storage struct {
	pool       Pool
	tableIdent string
	dimension  int
}

// Open connects to postgres and ensures the schema exists.
func Open(ctx context.Context, cfg Config) (*Storage, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgvector: failed to connect to postgres: %w", err)
	}
	s, err := New(ctx, pool, cfg.Table, cfg.Dimension)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool and ensures the schema exists.
func New(ctx context.Context, pool Pool, table string, dimension int) (*Storage, error) {
	if dimension <= 0 {
		return nil, errors.New("pgvector: dimension must be positive")
	}
	if table == "" {
		table = "vector_records"
	}
	s := &Storage{pool: pool, tableIdent: pgx.Identifier{table}.Sanitize(), dimension: dimension}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Storage) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		original_text TEXT NOT NULL,
		contextual_text TEXT NOT NULL,
		document_name TEXT NOT NULL,
		document_id TEXT NOT NULL,
		page_number TEXT NOT NULL,
		vector_embeddings vector(%d) NOT NULL,
		UNIQUE (document_name, page_number),
		UNIQUE (document_id, page_number)
	)`, s.tableIdent, s.dimension)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, documentName string) (bool, error) {
	var found bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE document_name = $1)", s.tableIdent)
	if err := s.pool.QueryRow(ctx, q, documentName).Scan(&found); err != nil {
		return false, fmt.Errorf("%w: pgvector: find document: %w", domain.ErrPersistence, err)
	}
	return found, nil
}

func (s *Storage) Insert(ctx context.Context, r domain.VectorRecord) error {
	if len(r.VectorEmbeddings) != s.dimension {
		return fmt.Errorf(
			"%w: pgvector: record %q dimension mismatch (got %d want %d)",
			domain.ErrPersistence, r.ID, len(r.VectorEmbeddings), s.dimension,
		)
	}
	stmt := fmt.Sprintf(`INSERT INTO %s
(id, original_text, contextual_text, document_name, document_id, page_number, vector_embeddings)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, s.tableIdent)
	_, err := s.pool.Exec(ctx, stmt,
		r.ID, r.OriginalText, r.ContextualText, r.DocumentName, r.DocumentID, r.PageNumber,
		pgv.NewVector(r.VectorEmbeddings),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: pgvector: %s page %s: %w", domain.ErrDuplicateDocument, r.DocumentName, r.PageNumber, err)
		}
		return fmt.Errorf("%w: pgvector: insert %q: %w", domain.ErrPersistence, r.ID, err)
	}
	return nil
}

func (s *Storage) DeleteByNameOrID(ctx context.Context, input string) (int64, error) {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE document_name = $1 OR document_id = $1", s.tableIdent)
	tag, err := s.pool.Exec(ctx, stmt, input)
	if err != nil {
		return 0, fmt.Errorf("%w: pgvector: delete records: %w", domain.ErrPersistence, err)
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) DocumentNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT DISTINCT document_name FROM %s", s.tableIdent))
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: list documents: %w", domain.ErrPersistence, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: pgvector: scan documents: %w", domain.ErrPersistence, err)
	}
	return names, nil
}

func (s *Storage) Close(context.Context) error {
	s.pool.Close()
	return nil
}
