package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VECTOR_INDEX_NAME", "")
	t.Setenv("SYNC_BATCH_SIZE", "")
	t.Setenv("SYNC_DEFAULT_MAX", "")
	t.Setenv("EMBEDDING_BACKEND", "")
	t.Setenv("IMAP_DIAL_TIMEOUT", "")

	cfg := Load()
	require.Equal(t, "email-embeddings", cfg.VectorIndexName)
	require.Equal(t, 768, cfg.VectorDimension)
	require.Equal(t, 10, cfg.SyncBatchSize)
	require.Equal(t, 100, cfg.VectorUpsertBatch)
	require.Equal(t, 10*time.Second, cfg.VectorReadyTimeout)
	require.Equal(t, "dev_user", cfg.DefaultUserID)
	require.Equal(t, 5, cfg.SearchTopK)
	require.Equal(t, 10, cfg.SyncDefaultMax)
	require.Equal(t, "auto", cfg.EmbeddingBackend)
	require.Equal(t, 30*time.Second, cfg.IMAPDialTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "Pinecone")
	t.Setenv("SYNC_BATCH_SIZE", "25")
	t.Setenv("SYNC_PACING", "250ms")
	t.Setenv("SYNC_RATE_LIMIT", "2.5")

	cfg := Load()
	require.Equal(t, "pinecone", cfg.VectorBackend)
	require.Equal(t, 25, cfg.SyncBatchSize)
	require.Equal(t, 250*time.Millisecond, cfg.SyncPacing)
	require.InDelta(t, 2.5, cfg.SyncRateLimit, 1e-9)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SEARCH_TOP_K", "many")
	t.Setenv("AI_TIMEOUT", "soon")

	cfg := Load()
	require.Equal(t, 5, cfg.SearchTopK)
	require.Equal(t, 60*time.Second, cfg.AITimeout)
}
