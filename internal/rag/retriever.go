package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultCollection is the collection documents go to when none is configured
const DefaultCollection = "rag_demo"

// Embedder turns texts into vectors
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever embeds queries and returns the nearest stored documents
type Retriever struct {
	store      *Store
	embedder   Embedder
	collection string
}

func NewRetriever(store *Store, embedder Embedder, collection string) *Retriever {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Retriever{
		store:      store,
		embedder:   embedder,
		collection: collection,
	}
}

// Ingest embeds docs and stores them as doc-0, doc-1, ... Re-ingesting the
// same list replaces the earlier copies.
func (r *Retriever) Ingest(ctx context.Context, docs []string) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	vecs, err := r.embedder.Embed(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return 0, fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}

	records := make([]Document, len(docs))
	for i, text := range docs {
		records[i] = Document{
			Collection: r.collection,
			ID:         fmt.Sprintf("doc-%d", i),
			Content:    text,
			Embedding:  vecs[i],
		}
	}
	if err := r.store.Upsert(ctx, records...); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Search returns up to k document texts, nearest first
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		return []string{}, nil
	}
	docs, err := r.store.All(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, errors.New("embedder returned no vector for query")
	}
	q := vecs[0]

	type scored struct {
		text string
		dist float64
	}
	ranked := make([]scored, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) != len(q) {
			return nil, fmt.Errorf("document %s has dimension %d, query has %d", d.ID, len(d.Embedding), len(q))
		}
		ranked = append(ranked, scored{text: d.Content, dist: CosineDistance(q, d.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].dist < ranked[j].dist
	})

	out := make([]string, 0, min(k, len(ranked)))
	for _, s := range ranked[:min(k, len(ranked))] {
		out = append(out, s.text)
	}
	return out, nil
}

// Count returns the number of documents in the retriever's collection
func (r *Retriever) Count(ctx context.Context) (int, error) {
	return r.store.Count(ctx, r.collection)
}

// CosineDistance is 1 - cosine similarity. Zero vectors are at distance 1.
func CosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// SeedCorpus is the knowledge base loaded by the ingest command
func SeedCorpus() []string {
	return []string{
		"The sun is a star at the center of the solar system.",
		"Planets orbit the sun due to gravity.",
		"Stars generate energy through nuclear fusion.",
		"The Earth is the third planet from the sun.",
		"The moon orbits the Earth and affects tides.",
	}
}
