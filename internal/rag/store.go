// Package rag is the retrieval backend: documents embedded once at ingest
// time, stored in SQLite and searched by cosine distance.
package rag

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	content    TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	PRIMARY KEY (collection, id)
);`

// Document is one stored text with its embedding
type Document struct {
	Collection string    `db:"collection"`
	ID         string    `db:"id"`
	Content    string    `db:"content"`
	Embedding  []float32 `db:"-"`
}

type row struct {
	Document
	Blob []byte `db:"embedding"`
}

// Store keeps documents in a SQLite database
type Store struct {
	db *sqlx.DB
}

// OpenStore opens (or creates) the database at path. ":memory:" is allowed.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create rag directory: %w", err)
			}
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open rag db: %w", err)
	}
	// one connection keeps ":memory:" a single database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create rag schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert inserts documents, replacing any with the same collection and id
func (s *Store) Upsert(ctx context.Context, docs ...Document) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO documents (collection, id, content, embedding)
		VALUES (:collection, :id, :content, :embedding)
		ON CONFLICT (collection, id) DO UPDATE
		SET content = excluded.content, embedding = excluded.embedding;`
	for _, d := range docs {
		r := row{Document: d, Blob: SerializeVector(d.Embedding)}
		if _, err := tx.NamedExecContext(ctx, query, r); err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

// All returns every document of a collection ordered by id
func (s *Store) All(ctx context.Context, collection string) ([]Document, error) {
	rows := []row{}
	err := s.db.SelectContext(ctx, &rows,
		"SELECT collection, id, content, embedding FROM documents WHERE collection = ? ORDER BY id;", collection)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs := make([]Document, len(rows))
	for i, r := range rows {
		docs[i] = r.Document
		docs[i].Embedding = DeserializeVector(r.Blob)
	}
	return docs, nil
}

// Count returns the number of documents in a collection
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM documents WHERE collection = ?;", collection)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SerializeVector encodes a vector as little-endian float32 bytes
func SerializeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DeserializeVector reverses SerializeVector
func DeserializeVector(data []byte) []float32 {
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
