package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	refinePrompt = "Refine the following user query into a concise search keyword string for email retrieval:\n\nUser Query: %s"

	summarizePrompt = "Summarize the following email into key points and action items:\n\nSubject: %s\nFrom: %s\nBody: %s"

	defaultMaxBodyChars = 8000
)

// Assistant builds the mail prompts and calls a Provider with a bounded
// timeout per call.
type Assistant struct {
	provider     Provider
	timeout      time.Duration
	maxBodyChars int
}

func NewAssistant(provider Provider, timeout time.Duration) *Assistant {
	return &Assistant{provider: provider, timeout: timeout, maxBodyChars: defaultMaxBodyChars}
}

// RefineQuery rewrites a free-form question into search keywords.
func (a *Assistant) RefineQuery(ctx context.Context, query string) (string, error) {
	return a.generate(ctx, fmt.Sprintf(refinePrompt, query))
}

// SummarizeEmail returns key points and action items for one email.
func (a *Assistant) SummarizeEmail(ctx context.Context, subject, from, body string) (string, error) {
	body = truncateRunes(body, a.maxBodyChars)
	return a.generate(ctx, fmt.Sprintf(summarizePrompt, subject, from, body))
}

func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	if a.provider == nil {
		return "", ErrUnavailable
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	out, err := a.provider.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.provider.Name(), err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
