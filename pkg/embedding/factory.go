package embedding

import (
	"fmt"
	"time"
)

const (
	BackendAuto   = "auto"
	BackendHash   = "hash"
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

type Config struct {
	Backend   string // "auto", "hash", "gemini" or "ollama"
	Dimension int
	Model     string

	GeminiAPIKey  string
	OllamaBaseURL string

	CacheSize int
	CacheTTL  time.Duration
}

// ResolveBackend picks the model for "auto": Gemini when a key is set,
// otherwise the local Ollama host.
func ResolveBackend(cfg Config) string {
	if cfg.Backend != "" && cfg.Backend != BackendAuto {
		return cfg.Backend
	}
	if cfg.GeminiAPIKey != "" {
		return BackendGemini
	}
	return BackendOllama
}

// New builds the configured embedder, wrapped with the blank-input guard and
// an optional LRU cache.
func New(cfg Config) (Embedder, error) {
	var base Embedder
	switch backend := ResolveBackend(cfg); backend {
	case BackendHash:
		base = NewHashEmbedder(cfg.Dimension)
	case BackendGemini:
		g, err := NewGeminiEmbedder(cfg.GeminiAPIKey, cfg.Model, cfg.Dimension)
		if err != nil {
			return nil, err
		}
		base = g
	case BackendOllama:
		o, err := NewOllamaEmbedder(cfg.OllamaBaseURL, cfg.Model, cfg.Dimension)
		if err != nil {
			return nil, err
		}
		base = o
	default:
		return nil, fmt.Errorf("unknown embedding backend %q", backend)
	}
	return Guard(WithLRUCache(base, cfg.CacheSize, cfg.CacheTTL)), nil
}
