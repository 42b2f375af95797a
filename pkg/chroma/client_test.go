package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mail-assistant/pkg/vectorindex"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

// countingFunction records how often chroma-go asks it to embed.
type countingFunction struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFunction) EmbedDocuments(_ context.Context, texts []string) ([]embeddings.Embedding, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	out := make([]embeddings.Embedding, len(texts))
	for i := range texts {
		out[i] = embeddings.NewEmbeddingFromFloat32([]float32{1, 0, 0})
	}
	return out, nil
}

func (f *countingFunction) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *countingFunction) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	embs, err := f.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embs[0], nil
}

type chromaServer struct {
	srv *httptest.Server

	mu      sync.Mutex
	creates []map[string]interface{}
	upserts []map[string]interface{}
	queries []map[string]interface{}
}

func newChromaServer(t *testing.T) *chromaServer {
	s := &chromaServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *chromaServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	var body map[string]interface{}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/v2/pre-flight-checks":
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && r.URL.Path == collectionsPath:
		s.creates = append(s.creates, body)
		_, _ = w.Write([]byte(`{"id":"col-1","name":"emails","tenant":"default_tenant","database":"default_database"}`))
	case r.Method == http.MethodPost && r.URL.Path == collectionsPath+"/col-1/upsert":
		s.upserts = append(s.upserts, body)
		_, _ = w.Write([]byte(`true`))
	case r.Method == http.MethodPost && r.URL.Path == collectionsPath+"/col-1/query":
		s.queries = append(s.queries, body)
		_, _ = w.Write([]byte(`{
			"ids":[["e1","e2"],["e2"]],
			"distances":[[0.25,0.5],[0.125]],
			"metadatas":[[{"subject":"Invoice #1042","from":"billing@acme.io","date":"Mon, 2 Jun 2025","email_id":"e1","size":3},null],[{"subject":"Lunch"}]],
			"documents":[["invoice body","lunch body"],["lunch body"]]
		}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"NotFound","message":"no route"}`))
	}
}

// recorded returns copies of the request bodies seen so far.
func (s *chromaServer) recorded() (creates, upserts, queries []map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]interface{}(nil), s.creates...),
		append([]map[string]interface{}(nil), s.upserts...),
		append([]map[string]interface{}(nil), s.queries...)
}

func newTestClient(t *testing.T, s *chromaServer, ef embeddings.EmbeddingFunction) *ChromaClient {
	c, err := NewChromaClient(Config{BaseURL: s.srv.URL, EmbeddingFunction: ef}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetOrCreateCollectionSendsCosineSpace(t *testing.T) {
	s := newChromaServer(t)
	ef := &countingFunction{}
	c := newTestClient(t, s, ef)

	require.NoError(t, c.GetOrCreateCollection(context.Background(), "emails"))

	creates, _, _ := s.recorded()
	require.Len(t, creates, 1)
	req := creates[0]
	require.Equal(t, "emails", req["name"])
	require.Equal(t, true, req["get_or_create"])
	meta, ok := req["metadata"].(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "cosine", meta["hnsw:space"])
	require.Zero(t, ef.count())
}

func TestUpsertAndQueryRequireCollection(t *testing.T) {
	s := newChromaServer(t)
	c := newTestClient(t, s, &countingFunction{})
	ctx := context.Background()

	err := c.Upsert(ctx, "emails", []vectorindex.ChromaDocument{{ID: "e1", Embedding: []float32{1, 0, 0}}})
	require.ErrorContains(t, err, "not initialized")
	_, err = c.Query(ctx, "emails", [][]float32{{1, 0, 0}}, 1)
	require.ErrorContains(t, err, "not initialized")
	_, upserts, queries := s.recorded()
	require.Empty(t, upserts)
	require.Empty(t, queries)
}

func TestUpsertSendsPrecomputedVectors(t *testing.T) {
	s := newChromaServer(t)
	ef := &countingFunction{}
	c := newTestClient(t, s, ef)
	ctx := context.Background()
	require.NoError(t, c.GetOrCreateCollection(ctx, "emails"))

	err := c.Upsert(ctx, "emails", []vectorindex.ChromaDocument{{
		ID:        "e1",
		Embedding: []float32{0.5, 0.25, 0},
		Metadata:  map[string]string{"subject": "Invoice #1042", "email_id": "e1"},
		Document:  "invoice body",
	}})
	require.NoError(t, err)
	require.Zero(t, ef.count())

	_, upserts, _ := s.recorded()
	require.Len(t, upserts, 1)
	req := upserts[0]
	require.Equal(t, []interface{}{"e1"}, req["ids"])
	require.Equal(t, []interface{}{"invoice body"}, req["documents"])
	require.Equal(t, []interface{}{[]interface{}{0.5, 0.25, 0.0}}, req["embeddings"])

	metas := req["metadatas"].([]interface{})
	require.Len(t, metas, 1)
	meta := metas[0].(map[string]interface{})
	require.Equal(t, "Invoice #1042", meta["subject"])
	require.Equal(t, "e1", meta["email_id"])
}

func TestQueryMapsGroups(t *testing.T) {
	s := newChromaServer(t)
	ef := &countingFunction{}
	c := newTestClient(t, s, ef)
	ctx := context.Background()
	require.NoError(t, c.GetOrCreateCollection(ctx, "emails"))

	res, err := c.Query(ctx, "emails", [][]float32{{1, 0, 0}, {0, 1, 0}}, 2)
	require.NoError(t, err)
	require.Zero(t, ef.count())

	_, _, queries := s.recorded()
	require.Len(t, queries, 1)
	require.EqualValues(t, 2, queries[0]["n_results"])
	require.Len(t, queries[0]["query_embeddings"], 2)

	require.Equal(t, [][]string{{"e1", "e2"}, {"e2"}}, res.IDs)
	require.Equal(t, [][]float32{{0.25, 0.5}, {0.125}}, res.Distances)
	require.Equal(t, map[string]string{
		"subject":  "Invoice #1042",
		"from":     "billing@acme.io",
		"date":     "Mon, 2 Jun 2025",
		"email_id": "e1",
	}, res.Metadatas[0][0])
	require.Empty(t, res.Metadatas[0][1])
	require.Equal(t, map[string]string{"subject": "Lunch"}, res.Metadatas[1][0])
}

func TestChromaIndexOverClient(t *testing.T) {
	s := newChromaServer(t)
	c := newTestClient(t, s, &countingFunction{})
	idx := vectorindex.NewChromaIndex(c)
	ctx := context.Background()

	require.NoError(t, idx.EnsureIndex(ctx, "emails"))
	require.NoError(t, idx.EnsureIndex(ctx, "emails"))
	creates, _, _ := s.recorded()
	require.Len(t, creates, 1)

	res, err := idx.Query(ctx, "emails", [][]float32{{1, 0, 0}, {0, 1, 0}}, 2)
	require.NoError(t, err)
	top, ok := res.Top()
	require.True(t, ok)
	require.Equal(t, "e1", top)
	require.InDelta(t, 0.75, res.Scores[0][0], 1e-6)
	require.Equal(t, "Invoice #1042", res.Metadatas[0][0].Subject)
}

func TestNewChromaClientValidation(t *testing.T) {
	_, err := NewChromaClient(Config{EmbeddingFunction: &countingFunction{}}, nil)
	require.Error(t, err)

	_, err = NewChromaClient(Config{BaseURL: "http://localhost:8000"}, nil)
	require.ErrorContains(t, err, "embedding function")
}
