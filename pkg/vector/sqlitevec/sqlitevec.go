// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/tales/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if c.Dimensions == 0 {
		return nil, errors.New("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serializes
	// writers the way SQLite wants anyway.
	db.SetMaxOpenConns(1)

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// vec0 virtual tables use integer rowids, so string IDs, text and tags
	// live in ordinary tables keyed by the same rowid.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vec_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS vec_tags (
			doc_rowid INTEGER NOT NULL REFERENCES vec_documents(rowid),
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (doc_rowid, key)
		)`,
		`CREATE INDEX IF NOT EXISTS vec_tags_key_value ON vec_tags(key, value)`,
		fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`, c.Dimensions),
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	logger.Info("sqlite-vec vector driver initialized",
		"db_path", c.DBPath,
		"dimensions", c.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores documents inside one transaction. An existing ID aborts the
// whole batch with vector.ErrDuplicateID.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: document %s has %d, index has %d",
				vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}

		var existing int64
		err := tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_documents WHERE doc_id = ?`, doc.ID,
		).Scan(&existing)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO vec_documents(doc_id, text) VALUES (?, ?)`,
			doc.ID, doc.Text,
		)
		if err != nil {
			return fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}

		rowID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
		}

		for k, v := range doc.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_tags(doc_rowid, key, value) VALUES (?, ?, ?)`,
				rowID, k, v,
			); err != nil {
				return fmt.Errorf("inserting tag %s for doc %s: %w", k, doc.ID, err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
			rowID, serializeFloat32(doc.Embedding),
		); err != nil {
			return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec", "count", len(docs))
	return nil
}

// Query ranks the filtered documents by cosine distance. The vec0 KNN
// operator applies k before any join, so filtered queries scan with
// vec_distance_cosine instead of MATCH.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		return []vector.QueryResult{}, nil
	}
	if uint(len(embedding)) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d, index has %d",
			vector.ErrDimensions, len(embedding), d.dimensions)
	}

	var (
		where strings.Builder
		args  = []any{serializeFloat32(embedding)}
	)
	for _, k := range filter.Keys() {
		where.WriteString(` AND EXISTS (SELECT 1 FROM vec_tags t WHERE t.doc_rowid = d.rowid AND t.key = ? AND t.value = ?)`)
		args = append(args, k, filter[k])
	}
	args = append(args, topK)

	query := `
		SELECT d.rowid, d.doc_id, d.text, vec_distance_cosine(ve.embedding, ?) AS distance
		FROM vec_embeddings ve
		INNER JOIN vec_documents d ON d.rowid = ve.rowid
		WHERE 1 = 1` + where.String() + `
		ORDER BY distance, d.rowid
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	results := []vector.QueryResult{}
	rowIDs := []int64{}
	for rows.Next() {
		var (
			rowID    int64
			id, text string
			distance float64
		)
		if err := rows.Scan(&rowID, &id, &text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
		results = append(results, vector.QueryResult{
			Document: vector.Document{ID: id, Text: text},
			// cosine distance is 1 - cosine similarity
			Score: float32(1 - distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}
	rows.Close()

	tags, err := d.loadTags(ctx, rowIDs)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Tags = tags[rowIDs[i]]
	}

	d.logger.Debug("queried sqlite-vec", "results", len(results), "filter", filter)
	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT d.rowid, d.doc_id, d.text, ve.embedding
		FROM vec_documents d
		INNER JOIN vec_embeddings ve ON ve.rowid = d.rowid
		WHERE d.doc_id IN (%s)
		ORDER BY d.rowid
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var (
		docs   []vector.Document
		rowIDs []int64
	)
	for rows.Next() {
		var (
			rowID   int64
			doc     vector.Document
			embBlob []byte
		)
		if err := rows.Scan(&rowID, &doc.ID, &doc.Text, &embBlob); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		if doc.Embedding, err = deserializeFloat32(embBlob); err != nil {
			return nil, fmt.Errorf("decoding embedding for doc %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
		rowIDs = append(rowIDs, rowID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	// SQLite uses a single connection here; close the cursor before the
	// tag lookup.
	rows.Close()

	tags, err := d.loadTags(ctx, rowIDs)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i].Tags = tags[rowIDs[i]]
	}
	return docs, nil
}

func (d *Driver) loadTags(ctx context.Context, rowIDs []int64) (map[int64]map[string]string, error) {
	tags := make(map[int64]map[string]string, len(rowIDs))
	if len(rowIDs) == 0 {
		return tags, nil
	}

	placeholders := make([]string, len(rowIDs))
	args := make([]any, len(rowIDs))
	for i, id := range rowIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT doc_rowid, key, value FROM vec_tags WHERE doc_rowid IN (%s)`,
		strings.Join(placeholders, ","),
	), args...)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rowID      int64
			key, value string
		)
		if err := rows.Scan(&rowID, &key, &value); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		if tags[rowID] == nil {
			tags[rowID] = make(map[string]string)
		}
		tags[rowID][key] = value
	}
	return tags, rows.Err()
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}
