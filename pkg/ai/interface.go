package ai

import (
	"context"
	"errors"
)

var (
	ErrEmptyResponse = errors.New("empty ai response")
	ErrUnavailable   = errors.New("ai provider unavailable")
)

// Provider is a text-in, text-out language model.
// Implement this interface to add new AI providers (Gemini, Ollama, ...).
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)
