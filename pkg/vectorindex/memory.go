package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

type memoryEntry struct {
	vector   []float32
	metadata map[string]string
	text     string
}

type match struct {
	id       string
	score    float32
	metadata map[string]string
}

// collection is a brute-force cosine store.
type collection struct {
	mu      sync.RWMutex
	dim     int
	entries map[string]memoryEntry
}

func newCollection(dim int) *collection {
	return &collection{dim: dim, entries: make(map[string]memoryEntry)}
}

func (c *collection) upsert(id string, vector []float32, metadata map[string]string, text string) error {
	if len(vector) != c.dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimension, len(vector), c.dim)
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	meta := make(map[string]string, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}
	c.mu.Lock()
	c.entries[id] = memoryEntry{vector: vec, metadata: meta, text: text}
	c.mu.Unlock()
	return nil
}

func (c *collection) search(query []float32, topK int) ([]match, error) {
	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(query), c.dim)
	}
	c.mu.RLock()
	matches := make([]match, 0, len(c.entries))
	for id, e := range c.entries {
		matches = append(matches, match{id: id, score: cosine(query, e.vector), metadata: e.metadata})
	}
	c.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].id < matches[j].id
		}
		return matches[i].score > matches[j].score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (c *collection) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// MemoryIndex keeps every index in process memory. It is used for local
// runs and as the reference engine in tests.
type MemoryIndex struct {
	mu          sync.Mutex
	dim         int
	collections map[string]*collection
}

func NewMemoryIndex(dim int) *MemoryIndex {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &MemoryIndex{dim: dim, collections: make(map[string]*collection)}
}

func (m *MemoryIndex) EnsureIndex(_ context.Context, name string) error {
	m.get(name)
	return nil
}

func (m *MemoryIndex) get(name string) *collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[name]
	if !ok {
		c = newCollection(m.dim)
		m.collections[name] = c
	}
	return c
}

func (m *MemoryIndex) UpsertBatch(ctx context.Context, name string, entries []Entry) error {
	c := m.get(name)
	var failed []string
	var firstErr error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return &UpsertError{FailedIDs: append(failed, entryIDs(entries[i:])...), Err: err}
		}
		if err := c.upsert(e.ID, e.Vector, e.Metadata.toMap(), e.Text); err != nil {
			failed = append(failed, e.ID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if len(failed) > 0 {
		return &UpsertError{FailedIDs: failed, Err: firstErr}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*RankedResults, error) {
	c := m.get(name)
	res := &RankedResults{}
	for _, v := range vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		matches, err := c.search(v, topK)
		if err != nil {
			return nil, err
		}
		appendGroup(res, matches)
	}
	return res, nil
}

// Len reports the number of entries in the named index.
func (m *MemoryIndex) Len(name string) int {
	return m.get(name).len()
}

func appendGroup(res *RankedResults, matches []match) {
	ids := make([]string, 0, len(matches))
	metas := make([]Metadata, 0, len(matches))
	scores := make([]float32, 0, len(matches))
	for _, mt := range matches {
		ids = append(ids, mt.id)
		metas = append(metas, metadataFromMap(mt.metadata))
		scores = append(scores, mt.score)
	}
	res.IDs = append(res.IDs, ids)
	res.Metadatas = append(res.Metadatas, metas)
	res.Scores = append(res.Scores, scores)
}
