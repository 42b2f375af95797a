package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	dim   int
	calls int
	out   []float32
	err   error
}

func (c *countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	if c.out != nil {
		return c.out, nil
	}
	v := make([]float32, c.dim)
	v[0] = 1
	return v, nil
}

func (c *countingEmbedder) Dimension() int { return c.dim }

func TestHashEmbedderDeterministic(t *testing.T) {
	e := Guard(NewHashEmbedder(768))
	texts := []string{"Invoice #1042 for March", "hello", "Subject: x\nFrom: y\n\nbody"}
	for _, text := range texts {
		a, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		b, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.Len(t, a, 768)
	}
}

func TestBlankInputIsZeroVector(t *testing.T) {
	inner := &countingEmbedder{dim: 768}
	e := Guard(inner)
	for _, text := range []string{"", "   ", "\n\t"} {
		v, err := e.Embed(context.Background(), text)
		require.NoError(t, err)
		require.Equal(t, make([]float32, 768), v)
	}
	require.Zero(t, inner.calls)
}

func TestGuardRejectsWrongDimension(t *testing.T) {
	e := Guard(&countingEmbedder{dim: 4, out: []float32{1, 2}})
	_, err := e.Embed(context.Background(), "text")
	require.Error(t, err)
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(768)
	q, _ := e.Embed(context.Background(), "invoice")
	near, _ := e.Embed(context.Background(), "Subject: Invoice #1042\nFrom: billing")
	far, _ := e.Embed(context.Background(), "Subject: Team lunch\nFrom: alice")
	require.Greater(t, dot(q, near), dot(q, far))
}

func TestLRUCacheServesRepeatsAndClones(t *testing.T) {
	inner := &countingEmbedder{dim: 3}
	e := WithLRUCache(inner, 16, time.Minute)

	a, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	a[0] = 42

	b, err := e.Embed(context.Background(), "x")
	require.NoError(t, err)
	require.Equal(t, float32(1), b[0])
	require.Equal(t, 1, inner.calls)
}

func TestLRUCacheDoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{dim: 3, err: errors.New("boom")}
	e := WithLRUCache(inner, 16, time.Minute)
	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "word2vec"})
	require.Error(t, err)

	e, err := New(Config{Backend: "hash", Dimension: 16})
	require.NoError(t, err)
	require.Equal(t, 16, e.Dimension())
}

func TestResolveBackend(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"explicit hash", Config{Backend: BackendHash, GeminiAPIKey: "k"}, BackendHash},
		{"auto with gemini key", Config{Backend: BackendAuto, GeminiAPIKey: "k"}, BackendGemini},
		{"auto without key", Config{Backend: BackendAuto}, BackendOllama},
		{"empty means auto", Config{}, BackendOllama},
		{"explicit ollama", Config{Backend: BackendOllama, GeminiAPIKey: "k"}, BackendOllama},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveBackend(tc.cfg))
		})
	}
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := New(Config{Backend: BackendGemini})
	require.Error(t, err)
}

func TestOllamaEmbedder(t *testing.T) {
	var got struct {
		Model string      `json:"model"`
		Input interface{} `json:"input"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3,0.4]]}`))
	}))
	defer srv.Close()

	e, err := New(Config{Backend: BackendOllama, OllamaBaseURL: srv.URL, Dimension: 4})
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "Invoice #1042")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, vec)
	require.Equal(t, DefaultOllamaModel, got.Model)
	require.Equal(t, []interface{}{"Invoice #1042"}, got.Input)
}

func TestOllamaEmbedderDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2]]}`))
	}))
	defer srv.Close()

	e, err := New(Config{Backend: BackendOllama, OllamaBaseURL: srv.URL, Dimension: 4})
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestOllamaEmbedderEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(srv.URL, "", 4)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestChromaFunctionUsesEmbedder(t *testing.T) {
	inner := NewHashEmbedder(32)
	ef := ChromaFunction(inner)

	want, err := inner.Embed(context.Background(), "invoice")
	require.NoError(t, err)

	q, err := ef.EmbedQuery(context.Background(), "invoice")
	require.NoError(t, err)
	require.Equal(t, want, q.ContentAsFloat32())

	docs, err := ef.EmbedDocuments(context.Background(), []string{"invoice", "lunch"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, want, docs[0].ContentAsFloat32())

	failing := ChromaFunction(&countingEmbedder{dim: 3, err: errors.New("boom")})
	_, err = failing.EmbedDocuments(context.Background(), []string{"x"})
	require.Error(t, err)
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
