// Package vectorindex is the backend-agnostic nearest-neighbor index over
// email embeddings. Chroma, Pinecone and an in-memory engine all satisfy
// Index and return results in the same nested shape.
package vectorindex

import (
	"context"
	"time"
)

const (
	DefaultDimension    = 768
	DefaultReadyTimeout = 10 * time.Second
	// MaxUpsertBatch is the largest batch sent in one physical upsert call.
	MaxUpsertBatch = 100

	MetricCosine = "cosine"
)

// Metadata is the per-entry metadata stored next to each vector.
type Metadata struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	Date    string `json:"date"`
	EmailID string `json:"email_id"`
}

func (m Metadata) toMap() map[string]string {
	return map[string]string{
		"subject":  m.Subject,
		"from":     m.From,
		"date":     m.Date,
		"email_id": m.EmailID,
	}
}

func metadataFromMap(m map[string]string) Metadata {
	return Metadata{
		Subject: m["subject"],
		From:    m["from"],
		Date:    m["date"],
		EmailID: m["email_id"],
	}
}

// Entry is one upsert unit. Upserting an existing ID replaces it.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata Metadata
	Text     string
}

// RankedResults holds one group per query vector, in input order. Within a
// group entries are sorted by descending cosine similarity.
type RankedResults struct {
	IDs       [][]string
	Metadatas [][]Metadata
	Scores    [][]float32
}

// Top returns the rank-0 id of the first group.
func (r *RankedResults) Top() (string, bool) {
	if r == nil || len(r.IDs) == 0 || len(r.IDs[0]) == 0 {
		return "", false
	}
	return r.IDs[0][0], true
}

type Index interface {
	// EnsureIndex creates the named index if it is missing and waits, bounded,
	// until it can serve queries. Existing indexes are left untouched.
	EnsureIndex(ctx context.Context, name string) error
	// UpsertBatch writes entries in chunks. Committed chunks are not rolled
	// back when a later one fails; the returned *UpsertError lists the ids
	// that were not written.
	UpsertBatch(ctx context.Context, name string, entries []Entry) error
	// Query returns the topK nearest entries for every query vector.
	Query(ctx context.Context, name string, vectors [][]float32, topK int) (*RankedResults, error)
}

func chunk(entries []Entry, size int) [][]Entry {
	if size <= 0 || size > MaxUpsertBatch {
		size = MaxUpsertBatch
	}
	var out [][]Entry
	for start := 0; start < len(entries); start += size {
		end := start + size
		if end > len(entries) {
			end = len(entries)
		}
		out = append(out, entries[start:end])
	}
	return out
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
