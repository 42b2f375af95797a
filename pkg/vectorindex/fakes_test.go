package vectorindex

import (
	"context"
	"errors"
	"sync"
)

// fakeChroma serves ChromaAPI from the in-memory engine.
type fakeChroma struct {
	mu          sync.Mutex
	dim         int
	collections map[string]*collection
	creates     int
	upsertCalls [][]string
	failUpsert  func(ids []string) error
	queryErr    error
}

func newFakeChroma(dim int) *fakeChroma {
	return &fakeChroma{dim: dim, collections: make(map[string]*collection)}
}

func (f *fakeChroma) GetOrCreateCollection(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.collections[name]; !ok {
		f.collections[name] = newCollection(f.dim)
	}
	return nil
}

func (f *fakeChroma) Upsert(_ context.Context, name string, docs []ChromaDocument) error {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	f.mu.Lock()
	f.upsertCalls = append(f.upsertCalls, ids)
	c := f.collections[name]
	f.mu.Unlock()
	if f.failUpsert != nil {
		if err := f.failUpsert(ids); err != nil {
			return err
		}
	}
	for _, d := range docs {
		if err := c.upsert(d.ID, d.Embedding, d.Metadata, d.Document); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChroma) Query(_ context.Context, name string, vectors [][]float32, topK int) (*ChromaResult, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	f.mu.Lock()
	c := f.collections[name]
	f.mu.Unlock()
	res := &ChromaResult{}
	for _, v := range vectors {
		matches, err := c.search(v, topK)
		if err != nil {
			return nil, err
		}
		var ids []string
		var metas []map[string]string
		var dists []float32
		for _, m := range matches {
			ids = append(ids, m.id)
			metas = append(metas, m.metadata)
			dists = append(dists, 1-m.score)
		}
		res.IDs = append(res.IDs, ids)
		res.Metadatas = append(res.Metadatas, metas)
		res.Distances = append(res.Distances, dists)
	}
	return res, nil
}

// fakePinecone serves PineconeAPI from the in-memory engine and records calls.
type fakePinecone struct {
	mu           sync.Mutex
	dim          int
	indexes      map[string]*collection
	readyAfter   int // describe calls before a new index reports ready
	describes    map[string]int
	creates      int
	upsertCalls  [][]string
	queryCalls   int
	failUpsert   func(ids []string) error
	queryErr     error
	lastMetadata map[string]map[string]string
}

func newFakePinecone(dim int) *fakePinecone {
	return &fakePinecone{
		dim:          dim,
		indexes:      make(map[string]*collection),
		describes:    make(map[string]int),
		lastMetadata: make(map[string]map[string]string),
	}
}

func (f *fakePinecone) DescribeIndex(ctx context.Context, name string) (*IndexDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.indexes[name]; !ok {
		return nil, ErrIndexNotFound
	}
	f.describes[name]++
	ready := f.readyAfter >= 0 && f.describes[name] > f.readyAfter
	return &IndexDescription{Name: name, Host: name + ".svc.pinecone.io", Ready: ready}, nil
}

func (f *fakePinecone) CreateIndex(_ context.Context, name string, dimension int, metric string) error {
	if metric != MetricCosine {
		return errors.New("unexpected metric " + metric)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if _, ok := f.indexes[name]; !ok {
		f.indexes[name] = newCollection(dimension)
	}
	return nil
}

func (f *fakePinecone) Upsert(_ context.Context, name string, vectors []PineconeVector) error {
	ids := make([]string, len(vectors))
	for i, v := range vectors {
		ids[i] = v.ID
	}
	f.mu.Lock()
	f.upsertCalls = append(f.upsertCalls, ids)
	c := f.indexes[name]
	f.mu.Unlock()
	if f.failUpsert != nil {
		if err := f.failUpsert(ids); err != nil {
			return err
		}
	}
	for _, v := range vectors {
		if err := c.upsert(v.ID, v.Values, v.Metadata, ""); err != nil {
			return err
		}
		f.mu.Lock()
		f.lastMetadata[v.ID] = v.Metadata
		f.mu.Unlock()
	}
	return nil
}

func (f *fakePinecone) Query(_ context.Context, name string, vector []float32, topK int) ([]PineconeMatch, error) {
	f.mu.Lock()
	f.queryCalls++
	c := f.indexes[name]
	f.mu.Unlock()
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	matches, err := c.search(vector, topK)
	if err != nil {
		return nil, err
	}
	out := make([]PineconeMatch, len(matches))
	for i, m := range matches {
		out[i] = PineconeMatch{ID: m.id, Score: m.score, Metadata: m.metadata}
	}
	return out, nil
}
