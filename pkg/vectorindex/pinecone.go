package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TextMetadataKey is the Pinecone metadata field that carries the entry text.
const TextMetadataKey = "text_content"

// IndexDescription is the control-plane view of a Pinecone index.
type IndexDescription struct {
	Name  string
	Host  string
	Ready bool
}

type PineconeVector struct {
	ID       string
	Values   []float32
	Metadata map[string]string
}

type PineconeMatch struct {
	ID       string
	Score    float32
	Metadata map[string]string
}

// PineconeAPI is the subset of Pinecone the index needs. DescribeIndex
// returns ErrIndexNotFound for unknown names, CreateIndex treats an existing
// index as success.
type PineconeAPI interface {
	DescribeIndex(ctx context.Context, name string) (*IndexDescription, error)
	CreateIndex(ctx context.Context, name string, dimension int, metric string) error
	Upsert(ctx context.Context, name string, vectors []PineconeVector) error
	Query(ctx context.Context, name string, vector []float32, topK int) ([]PineconeMatch, error)
}

// PineconeIndex adapts Pinecone to Index. Pinecone answers one query vector
// per call, so Query loops and reassembles the nested result shape.
type PineconeIndex struct {
	api     PineconeAPI
	opts    options
	ensured ensureCache
}

func NewPineconeIndex(api PineconeAPI, opts ...Option) *PineconeIndex {
	return &PineconeIndex{api: api, opts: buildOptions(opts)}
}

func (p *PineconeIndex) EnsureIndex(ctx context.Context, name string) error {
	return p.ensured.do(ctx, name, p.ensure)
}

func (p *PineconeIndex) ensure(parent context.Context, name string) error {
	ctx, cancel := context.WithTimeout(parent, p.opts.readyTimeout)
	defer cancel()

	desc, err := p.api.DescribeIndex(ctx, name)
	switch {
	case errors.Is(err, ErrIndexNotFound):
		p.opts.log.Info("creating pinecone index", zap.String("index", name), zap.Int("dimension", p.opts.dimension))
		if err := p.api.CreateIndex(ctx, name, p.opts.dimension, MetricCosine); err != nil {
			return fmt.Errorf("pinecone: create index %s: %w", name, err)
		}
	case err != nil:
		return fmt.Errorf("pinecone: describe index %s: %w", name, err)
	case desc.Ready:
		return nil
	}

	ticker := time.NewTicker(p.opts.pollInterval)
	defer ticker.Stop()
	for {
		desc, err := p.api.DescribeIndex(ctx, name)
		if err == nil && desc.Ready {
			p.opts.log.Info("pinecone index ready", zap.String("index", name), zap.String("host", desc.Host))
			return nil
		}
		if err != nil && !errors.Is(err, ErrIndexNotFound) && ctx.Err() == nil {
			return fmt.Errorf("pinecone: describe index %s: %w", name, err)
		}
		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return parent.Err()
			}
			return fmt.Errorf("%w: %s not ready after %s", ErrIndexNotReady, name, p.opts.readyTimeout)
		case <-ticker.C:
		}
	}
}

func (p *PineconeIndex) UpsertBatch(ctx context.Context, name string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := p.EnsureIndex(ctx, name); err != nil {
		return &UpsertError{FailedIDs: entryIDs(entries), Err: err}
	}

	var failed []string
	var firstErr error
	for _, batch := range chunk(entries, p.opts.batchSize) {
		vectors := make([]PineconeVector, len(batch))
		for i, e := range batch {
			meta := e.Metadata.toMap()
			meta[TextMetadataKey] = e.Text
			vectors[i] = PineconeVector{ID: e.ID, Values: e.Vector, Metadata: meta}
		}
		if err := p.api.Upsert(ctx, name, vectors); err != nil {
			p.opts.log.Warn("pinecone upsert batch failed", zap.String("index", name), zap.Int("size", len(batch)), zap.Error(err))
			failed = append(failed, entryIDs(batch)...)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) > 0 {
		return &UpsertError{FailedIDs: failed, Err: fmt.Errorf("pinecone: %w", firstErr)}
	}
	return nil
}

func (p *PineconeIndex) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*RankedResults, error) {
	if err := p.EnsureIndex(ctx, name); err != nil {
		return nil, err
	}
	res := &RankedResults{}
	for i, v := range vectors {
		found, err := p.api.Query(ctx, name, v, topK)
		if err != nil {
			return nil, fmt.Errorf("pinecone: query %s vector %d: %w", name, i, err)
		}
		matches := make([]match, len(found))
		for j, m := range found {
			matches[j] = match{id: m.ID, score: m.Score, metadata: m.Metadata}
		}
		appendGroup(res, matches)
	}
	return res, nil
}
