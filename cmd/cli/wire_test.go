package cli

import (
	"context"
	"testing"

	"mail-assistant/pkg/config"
	"mail-assistant/pkg/embedding"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryConfig() *config.Config {
	return &config.Config{
		DefaultUserID:   "dev_user",
		MailProvider:    "gmail",
		StoreBackend:    "memory",
		VectorBackend:   "memory",
		VectorIndexName: "email-embeddings",
		VectorDimension: 64,
		AIProvider:      "ollama",
		OllamaBaseURL:   "http://127.0.0.1:1",
		OllamaModel:     "llama3",
	}
}

func TestBuildInMemory(t *testing.T) {
	app, err := Build(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Auth)
	require.NotNil(t, app.Sync)
	require.NotNil(t, app.Search)
	require.Contains(t, app.Auth.LoginURL("alice"), "state=alice")
}

func TestBuildRejectsUnknownBackends(t *testing.T) {
	cases := map[string]func(*config.Config){
		"store":    func(c *config.Config) { c.StoreBackend = "mongo" },
		"vector":   func(c *config.Config) { c.VectorBackend = "faiss" },
		"provider": func(c *config.Config) { c.MailProvider = "pop3" },
		"ai":       func(c *config.Config) { c.AIProvider = "gpt" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := memoryConfig()
			mutate(cfg)
			_, err := Build(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
		})
	}
}

func TestSyncUsers(t *testing.T) {
	cfg := &config.Config{DefaultUserID: "dev_user"}
	require.Equal(t, []string{"dev_user"}, syncUsers(cfg))

	cfg.SyncUsers = " alice, ,bob "
	require.Equal(t, []string{"alice", "bob"}, syncUsers(cfg))
}

func TestEmbeddingBackend(t *testing.T) {
	cfg := memoryConfig()
	require.Equal(t, embedding.BackendHash, embeddingBackend(cfg))

	cfg.EmbeddingBackend = embedding.BackendAuto
	require.Equal(t, embedding.BackendHash, embeddingBackend(cfg))

	cfg.EmbeddingBackend = embedding.BackendOllama
	require.Equal(t, embedding.BackendOllama, embeddingBackend(cfg))

	cfg.VectorBackend = "chroma"
	cfg.EmbeddingBackend = embedding.BackendAuto
	require.Equal(t, embedding.BackendAuto, embeddingBackend(cfg))
}
