package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"docqa/internal/domain"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteStore is a persisted Index backed by SQLite + sqlite-vec. The whole
// index is replaced on every Build.
type SQLiteStore struct {
	db    *sql.DB
	count int
	dim   int
}

// Open creates or opens a SQLite database at the given path and initializes the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Init(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.loadStats(); err != nil {
		db.Close()
		return nil, fmt.Errorf("read index stats: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) loadStats() error {
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&s.count); err != nil {
		return err
	}
	dim, err := s.Meta(MetaDimension)
	if err != nil {
		return err
	}
	s.dim = 0
	if dim != "" {
		if s.dim, err = strconv.Atoi(dim); err != nil {
			return fmt.Errorf("bad dimension %q: %w", dim, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Len() int       { return s.count }
func (s *SQLiteStore) Dimension() int { return s.dim }

// Build replaces the stored index with entries in a single transaction.
// On error the previous index is left untouched.
func (s *SQLiteStore) Build(ctx context.Context, entries []domain.Entry, info BuildInfo) error {
	dim, err := dimensionOf(entries)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DROP TABLE IF EXISTS vec_chunks",
		"DELETE FROM chunks",
		"DELETE FROM documents",
		"DELETE FROM meta",
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}
	if dim > 0 {
		if _, err := tx.ExecContext(ctx, vecDDL(dim)); err != nil {
			return fmt.Errorf("create vector table: %w", err)
		}
	}

	docIDs, err := insertDocuments(ctx, tx, entries, info.Documents)
	if err != nil {
		return err
	}
	if err := insertEntries(ctx, tx, entries, docIDs); err != nil {
		return err
	}

	builtAt := info.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}
	meta := map[string]string{
		MetaEmbeddingModel: info.Model,
		MetaDimension:      strconv.Itoa(dim),
		MetaChunkSize:      strconv.Itoa(info.ChunkSize),
		MetaChunkOverlap:   strconv.Itoa(info.ChunkOverlap),
		MetaBuiltAt:        builtAt.UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.count = len(entries)
	s.dim = dim
	return nil
}

// insertDocuments records every listed document plus any source only seen
// in entries, and returns their row IDs by path.
func insertDocuments(ctx context.Context, tx *sql.Tx, entries []domain.Entry, docs []domain.Source) (map[string]int64, error) {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Chunk.Source]++
	}

	all := append([]domain.Source(nil), docs...)
	listed := make(map[string]bool, len(docs))
	for _, d := range docs {
		listed[d.Path] = true
	}
	for _, e := range entries {
		if !listed[e.Chunk.Source] {
			listed[e.Chunk.Source] = true
			all = append(all, domain.Source{Path: e.Chunk.Source})
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO documents (path, pages, chunks, summary) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	ids := make(map[string]int64, len(all))
	for _, d := range all {
		res, err := stmt.ExecContext(ctx, d.Path, d.Pages, counts[d.Path], d.Summary)
		if err != nil {
			return nil, fmt.Errorf("insert document %s: %w", d.Path, err)
		}
		if ids[d.Path], err = res.LastInsertId(); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// insertEntries stores chunks with IDs 1..n in entry order, so chunk ID
// doubles as insertion order.
func insertEntries(ctx context.Context, tx *sql.Tx, entries []domain.Entry, docIDs map[string]int64) error {
	if len(entries) == 0 {
		return nil
	}
	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, idx, page, start_off, end_off, overlap_start, overlap_end, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer chunkStmt.Close()

	vecStmt, err := tx.PrepareContext(ctx, "INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer vecStmt.Close()

	for i, e := range entries {
		id := int64(i + 1)
		c := e.Chunk
		if _, err := chunkStmt.ExecContext(ctx, id, docIDs[c.Source], c.Index, c.Page, c.Start, c.End, c.OverlapStart, c.OverlapEnd, c.Text); err != nil {
			return fmt.Errorf("insert chunk %d of %s: %w", c.Index, c.Source, err)
		}
		blob, err := sqlite_vec.SerializeFloat32(e.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding for chunk %d: %w", id, err)
		}
		if _, err := vecStmt.ExecContext(ctx, id, blob); err != nil {
			return fmt.Errorf("insert embedding for chunk %d: %w", id, err)
		}
	}
	return nil
}

const chunkColumns = `d.path, c.idx, c.page, c.start_off, c.end_off, c.overlap_start, c.overlap_end, c.content`

// Query runs a KNN search on the vector table. Results with equal distance
// are ordered by chunk ID.
func (s *SQLiteStore) Query(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if s.count == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", domain.ErrDimensionMismatch, len(vector), s.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > s.count {
		k = s.count
	}

	blob, err := sqlite_vec.SerializeFloat32(vector)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}
	hits, err := s.knn(ctx, blob, k)
	if err != nil {
		return nil, err
	}

	stmt, err := s.db.PrepareContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.id = ?`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		r := domain.SearchResult{Score: 1 - h.distance, Vector: h.vector}
		if err := stmt.QueryRowContext(ctx, h.id).Scan(chunkDest(&r.Chunk)...); err != nil {
			return nil, fmt.Errorf("load chunk %d: %w", h.id, err)
		}
		results = append(results, r)
	}
	return rank(results, k), nil
}

type neighbour struct {
	id       int64
	distance float64
	vector   []float32
}

// knn asks vec0 for the k nearest rows on its own, since vec0 refuses any
// ordering beyond its distance. Ties on distance are broken by chunk ID.
func (s *SQLiteStore) knn(ctx context.Context, blob []byte, k int) ([]neighbour, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, distance, embedding
		FROM vec_chunks
		WHERE embedding MATCH ? AND k = ?
	`, blob, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []neighbour
	for rows.Next() {
		var (
			n   neighbour
			emb []byte
		)
		if err := rows.Scan(&n.id, &n.distance, &emb); err != nil {
			return nil, err
		}
		n.vector = decodeFloat32(emb)
		hits = append(hits, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id < hits[j].id
	})
	return hits, nil
}

func chunkDest(c *domain.Chunk) []any {
	return []any{&c.Source, &c.Index, &c.Page, &c.Start, &c.End, &c.OverlapStart, &c.OverlapEnd, &c.Text}
}

// Chunks returns every stored chunk in insertion order.
func (s *SQLiteStore) Chunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		ORDER BY c.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(chunkDest(&c)...); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Sources lists indexed documents in build order.
func (s *SQLiteStore) Sources(ctx context.Context) ([]domain.Source, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, pages, chunks, summary FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Source
	for rows.Next() {
		var d domain.Source
		if err := rows.Scan(&d.Path, &d.Pages, &d.Chunks, &d.Summary); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SetSummary stores the generated summary of an indexed document.
func (s *SQLiteStore) SetSummary(ctx context.Context, path, summary string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE documents SET summary = ? WHERE path = ?", summary, path)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, path)
	}
	return nil
}

// Meta returns a metadata value by key, or "" if not set.
func (s *SQLiteStore) Meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetMeta sets a metadata key-value pair.
func (s *SQLiteStore) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// VerifyModel fails with domain.ErrInvalidConfiguration when the index was
// built with a different embedding model. Vectors from different models
// are not comparable.
func (s *SQLiteStore) VerifyModel(model string) error {
	built, err := s.Meta(MetaEmbeddingModel)
	if err != nil {
		return err
	}
	if built != "" && built != model {
		return fmt.Errorf("%w: index was built with embedding model %q, configured model is %q",
			domain.ErrInvalidConfiguration, built, model)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
