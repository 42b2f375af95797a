package vectorindex

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ChromaDocument is one record as sent to Chroma.
type ChromaDocument struct {
	ID        string
	Embedding []float32
	Metadata  map[string]string
	Document  string
}

// ChromaResult mirrors Chroma's nested query response. Distances are cosine
// distances.
type ChromaResult struct {
	IDs       [][]string
	Metadatas [][]map[string]string
	Distances [][]float32
}

// ChromaAPI is the subset of a Chroma client the index needs.
type ChromaAPI interface {
	GetOrCreateCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, docs []ChromaDocument) error
	Query(ctx context.Context, name string, vectors [][]float32, topK int) (*ChromaResult, error)
}

// ChromaIndex adapts a Chroma collection to Index. Chroma answers several
// query vectors in one call, so Query is a single round trip.
type ChromaIndex struct {
	api     ChromaAPI
	opts    options
	ensured ensureCache
}

func NewChromaIndex(api ChromaAPI, opts ...Option) *ChromaIndex {
	return &ChromaIndex{api: api, opts: buildOptions(opts)}
}

func (c *ChromaIndex) EnsureIndex(ctx context.Context, name string) error {
	return c.ensured.do(ctx, name, func(ctx context.Context, name string) error {
		ctx, cancel := context.WithTimeout(ctx, c.opts.readyTimeout)
		defer cancel()
		if err := c.api.GetOrCreateCollection(ctx, name); err != nil {
			return fmt.Errorf("chroma: ensure collection %s: %w", name, err)
		}
		c.opts.log.Info("chroma collection ready", zap.String("index", name))
		return nil
	})
}

func (c *ChromaIndex) UpsertBatch(ctx context.Context, name string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.EnsureIndex(ctx, name); err != nil {
		return &UpsertError{FailedIDs: entryIDs(entries), Err: err}
	}

	var failed []string
	var firstErr error
	for _, batch := range chunk(entries, c.opts.batchSize) {
		docs := make([]ChromaDocument, len(batch))
		for i, e := range batch {
			docs[i] = ChromaDocument{ID: e.ID, Embedding: e.Vector, Metadata: e.Metadata.toMap(), Document: e.Text}
		}
		if err := c.api.Upsert(ctx, name, docs); err != nil {
			c.opts.log.Warn("chroma upsert batch failed", zap.String("index", name), zap.Int("size", len(batch)), zap.Error(err))
			failed = append(failed, entryIDs(batch)...)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) > 0 {
		return &UpsertError{FailedIDs: failed, Err: fmt.Errorf("chroma: %w", firstErr)}
	}
	return nil
}

func (c *ChromaIndex) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*RankedResults, error) {
	if err := c.EnsureIndex(ctx, name); err != nil {
		return nil, err
	}
	raw, err := c.api.Query(ctx, name, vectors, topK)
	if err != nil {
		return nil, fmt.Errorf("chroma: query %s: %w", name, err)
	}
	if raw == nil || len(raw.IDs) != len(vectors) {
		return nil, fmt.Errorf("chroma: query %s returned %d groups for %d vectors", name, groupCount(raw), len(vectors))
	}

	res := &RankedResults{}
	for g, ids := range raw.IDs {
		matches := make([]match, len(ids))
		for i, id := range ids {
			matches[i] = match{id: id, score: 1}
			if g < len(raw.Distances) && i < len(raw.Distances[g]) {
				matches[i].score = 1 - raw.Distances[g][i]
			}
			if g < len(raw.Metadatas) && i < len(raw.Metadatas[g]) {
				matches[i].metadata = raw.Metadatas[g][i]
			}
		}
		appendGroup(res, matches)
	}
	return res, nil
}

func groupCount(r *ChromaResult) int {
	if r == nil {
		return 0
	}
	return len(r.IDs)
}
