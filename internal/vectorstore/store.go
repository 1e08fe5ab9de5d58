// Package vectorstore persists Chunks and their embedding vectors in
// SQLite: an ordinary `chunks` table for chunk data, and a sqlite-vec
// `chunks_vec` vec0 virtual table for cosine-distance K-nearest-neighbor
// search. The on-disk path keeps the `.deepwiki/vectors.lance/chunks.db`
// layout for compatibility with existing deployments even though the file
// is plain SQLite, not a Lance dataset; see DESIGN.md.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/deepwiki-go/deepwiki/internal/deepwikierr"
	"github.com/deepwiki-go/deepwiki/internal/parsetree"
)

func init() {
	sqlite_vec.Auto()
}

var chunkColumns = []string{
	"id", "file_path", "language", "kind", "name", "docstring",
	"parent_name", "content", "start_line", "end_line", "metadata_json",
}

// SearchOptions filters and bounds a Search call.
type SearchOptions struct {
	Limit     int
	Language  string         // optional exact-match filter
	Kind      parsetree.Kind // optional exact-match filter; "" means any
	FilePaths []string       // optional restrict-to-these-files filter
}

// SearchResult is one ranked hit from Search.
type SearchResult struct {
	Chunk    parsetree.Chunk
	Distance float64 // cosine distance; lower is more similar
}

// Store is the chunk persistence and retrieval interface the indexer,
// wiki generator, and research pipeline all depend on.
type Store interface {
	Upsert(ctx context.Context, chunks []parsetree.Chunk, vectors [][]float32) error
	DeleteByFile(ctx context.Context, paths []string) error
	Search(ctx context.Context, queryVector []float32, opts SearchOptions) ([]SearchResult, error)
	GetByID(ctx context.Context, id string) (*parsetree.Chunk, bool, error)
	Count(ctx context.Context) (int, error)
	ListFiles(ctx context.Context) ([]string, error)
	ListByFile(ctx context.Context, path string) ([]parsetree.Chunk, error)
	ListAll(ctx context.Context) ([]parsetree.Chunk, error)
	Close() error
}

type sqliteStore struct {
	db         *sql.DB
	dimensions int
}

// Open opens (creating if absent) a SQLite-backed Store at path, sized for
// vectors of the given dimensionality.
func Open(path string, dimensions int) (Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", deepwikierr.ErrStore, path, err)
	}
	// SQLite serializes writers regardless; capping connections avoids
	// "database is locked" churn under concurrent goroutines.
	db.SetMaxOpenConns(1)

	if err := createSchema(db, dimensions); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", deepwikierr.ErrStore, err)
	}
	return &sqliteStore{db: db, dimensions: dimensions}, nil
}

// Upsert implements Store.
func (s *sqliteStore) Upsert(ctx context.Context, chunks []parsetree.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: chunks (%d) and vectors (%d) length mismatch", deepwikierr.ErrStore, len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %v", deepwikierr.ErrStore, err)
	}
	defer tx.Rollback()

	for i, c := range chunks {
		var metaJSON []byte
		if len(c.Metadata) > 0 {
			metaJSON, err = json.Marshal(c.Metadata)
			if err != nil {
				return fmt.Errorf("%w: marshal metadata for %s: %v", deepwikierr.ErrStore, c.ID, err)
			}
		}
		_, err = sq.Insert("chunks").
			Columns(chunkColumns...).
			Values(c.ID, c.FilePath, c.Language, string(c.Kind), c.Name, c.Docstring,
				c.ParentName, c.Content, c.StartLine, c.EndLine, string(metaJSON)).
			Options("OR REPLACE").
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: insert chunk %s: %v", deepwikierr.ErrStore, c.ID, err)
		}

		_, err = sq.Delete("chunks_vec").Where(sq.Eq{"id": c.ID}).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: delete vector for %s: %v", deepwikierr.ErrStore, c.ID, err)
		}
		embBytes, err := sqlite_vec.SerializeFloat32(vectors[i])
		if err != nil {
			return fmt.Errorf("%w: serialize embedding for %s: %v", deepwikierr.ErrStore, c.ID, err)
		}
		_, err = sq.Insert("chunks_vec").Columns("id", "embedding").Values(c.ID, embBytes).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: insert vector for %s: %v", deepwikierr.ErrStore, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %v", deepwikierr.ErrStore, err)
	}
	return nil
}

// DeleteByFile implements Store.
func (s *sqliteStore) DeleteByFile(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin delete: %v", deepwikierr.ErrStore, err)
	}
	defer tx.Rollback()

	ids, err := collectIDsForFiles(ctx, tx, paths)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		_, err = sq.Delete("chunks_vec").Where(sq.Eq{"id": ids}).RunWith(tx).ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("%w: delete vectors: %v", deepwikierr.ErrStore, err)
		}
	}
	_, err = sq.Delete("chunks").Where(sq.Eq{"file_path": paths}).RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete chunks: %v", deepwikierr.ErrStore, err)
	}
	return tx.Commit()
}

func collectIDsForFiles(ctx context.Context, tx *sql.Tx, paths []string) ([]string, error) {
	rows, err := sq.Select("id").From("chunks").Where(sq.Eq{"file_path": paths}).RunWith(tx).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query ids for files: %v", deepwikierr.ErrStore, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan id: %v", deepwikierr.ErrStore, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var validKindFilter = parsetree.ValidKinds

// Search implements Store.
func (s *sqliteStore) Search(ctx context.Context, queryVector []float32, opts SearchOptions) ([]SearchResult, error) {
	if opts.Kind != "" && !validKindFilter[opts.Kind] {
		return nil, fmt.Errorf("%w: unknown chunk kind filter %q", deepwikierr.ErrInput, opts.Kind)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	queryBytes, err := sqlite_vec.SerializeFloat32(queryVector)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize query vector: %v", deepwikierr.ErrStore, err)
	}

	// Over-fetch candidates from the vector index, then apply scalar
	// filters in Go: sqlite-vec's vec0 does not support arbitrary WHERE
	// joins against another table in one query plan.
	fetch := limit * 5
	if fetch < 50 {
		fetch = 50
	}

	rows, err := sq.Select("id").
		Column("vec_distance_cosine(embedding, ?) AS distance", queryBytes).
		From("chunks_vec").
		OrderBy("distance").
		Limit(uint64(fetch)).
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: vector query: %v", deepwikierr.ErrStore, err)
	}
	defer rows.Close()

	type candidate struct {
		id       string
		distance float64
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.distance); err != nil {
			return nil, fmt.Errorf("%w: scan vector row: %v", deepwikierr.ErrStore, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", deepwikierr.ErrStore, err)
	}

	fileSet := make(map[string]bool, len(opts.FilePaths))
	for _, p := range opts.FilePaths {
		fileSet[p] = true
	}

	out := make([]SearchResult, 0, limit)
	for _, c := range candidates {
		if len(out) >= limit {
			break
		}
		chunk, ok, err := s.GetByID(ctx, c.id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue // stale vec entry with no matching chunk row
		}
		if opts.Language != "" && chunk.Language != opts.Language {
			continue
		}
		if opts.Kind != "" && chunk.Kind != opts.Kind {
			continue
		}
		if len(fileSet) > 0 && !fileSet[chunk.FilePath] {
			continue
		}
		out = append(out, SearchResult{Chunk: *chunk, Distance: c.distance})
	}
	return out, nil
}

// GetByID implements Store.
func (s *sqliteStore) GetByID(ctx context.Context, id string) (*parsetree.Chunk, bool, error) {
	row := sq.Select(chunkColumns...).From("chunks").Where(sq.Eq{"id": id}).RunWith(s.db).QueryRowContext(ctx)

	var c parsetree.Chunk
	var kind, metaJSON string
	var docstring, parentName, name sql.NullString
	if err := row.Scan(&c.ID, &c.FilePath, &c.Language, &kind, &name, &docstring, &parentName, &c.Content, &c.StartLine, &c.EndLine, &metaJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: get %s: %v", deepwikierr.ErrStore, id, err)
	}
	c.Kind = parsetree.Kind(kind)
	c.Name = name.String
	c.Docstring = docstring.String
	c.ParentName = parentName.String
	if metaJSON != "" {
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			return nil, false, fmt.Errorf("%w: unmarshal metadata for %s: %v", deepwikierr.ErrStore, id, err)
		}
	}
	return &c, true, nil
}

// Count implements Store.
func (s *sqliteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := sq.Select("COUNT(*)").From("chunks").RunWith(s.db).QueryRowContext(ctx).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", deepwikierr.ErrStore, err)
	}
	return n, nil
}

// ListFiles implements Store.
func (s *sqliteStore) ListFiles(ctx context.Context) ([]string, error) {
	rows, err := sq.Select("DISTINCT file_path").From("chunks").OrderBy("file_path").RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list files: %v", deepwikierr.ErrStore, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("%w: scan file path: %v", deepwikierr.ErrStore, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListByFile implements Store.
func (s *sqliteStore) ListByFile(ctx context.Context, path string) ([]parsetree.Chunk, error) {
	rows, err := sq.Select(chunkColumns...).
		From("chunks").
		Where(sq.Eq{"file_path": path}).
		OrderBy("start_line").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list chunks for %s: %v", deepwikierr.ErrStore, path, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// ListAll implements Store.
func (s *sqliteStore) ListAll(ctx context.Context) ([]parsetree.Chunk, error) {
	rows, err := sq.Select(chunkColumns...).
		From("chunks").
		OrderBy("file_path", "start_line").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list all chunks: %v", deepwikierr.ErrStore, err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

func scanChunks(rows *sql.Rows) ([]parsetree.Chunk, error) {
	var out []parsetree.Chunk
	for rows.Next() {
		var c parsetree.Chunk
		var kind, metaJSON string
		var docstring, parentName, name sql.NullString
		if err := rows.Scan(&c.ID, &c.FilePath, &c.Language, &kind, &name, &docstring, &parentName, &c.Content, &c.StartLine, &c.EndLine, &metaJSON); err != nil {
			return nil, fmt.Errorf("%w: scan chunk row: %v", deepwikierr.ErrStore, err)
		}
		c.Kind = parsetree.Kind(kind)
		c.Name = name.String
		c.Docstring = docstring.String
		c.ParentName = parentName.String
		if metaJSON != "" {
			if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
				return nil, fmt.Errorf("%w: unmarshal metadata for %s: %v", deepwikierr.ErrStore, c.ID, err)
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close implements Store.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
