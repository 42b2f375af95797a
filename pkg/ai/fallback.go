package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"go.uber.org/zap"
)

// FallbackService routes generation between a local and a hosted provider:
// Ollama first (local, free), Gemini when Ollama fails, and Ollama once more
// when Gemini reports quota exhaustion.
type FallbackService struct {
	gemini Provider
	ollama Provider
	log    *zap.Logger
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(gemini, ollama Provider, log *zap.Logger) *FallbackService {
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackService{gemini: gemini, ollama: ollama, log: log}
}

func (f *FallbackService) Name() string {
	return "auto"
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	for _, indicator := range connectionIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
	}
	for _, indicator := range quotaIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}
	return false
}

func (f *FallbackService) Generate(ctx context.Context, prompt string) (string, error) {
	if f.ollama != nil {
		result, err := f.ollama.Generate(ctx, prompt)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		if isConnectionError(err) {
			f.log.Warn("ollama unreachable, falling back to gemini", zap.Error(err))
		} else {
			f.log.Warn("ollama error, falling back to gemini", zap.Error(err))
		}
	}

	if f.gemini != nil {
		result, err := f.gemini.Generate(ctx, prompt)
		if err == nil {
			return result, nil
		}
		if isQuotaError(err) && f.ollama != nil && ctx.Err() == nil {
			f.log.Warn("gemini quota exhausted, retrying ollama", zap.Error(err))
			return f.ollama.Generate(ctx, prompt)
		}
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	return "", ErrUnavailable
}
