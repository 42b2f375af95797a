// Package embedding turns text into fixed-length float32 vectors.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// DefaultDimension matches the vector index dimension.
const DefaultDimension = 768

// Embedder converts text to a vector of Dimension() floats. The same text
// always yields the same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Guard wraps an Embedder so blank input short-circuits to a zero vector and
// every result is checked against the configured dimension.
func Guard(next Embedder) Embedder {
	if g, ok := next.(*guard); ok {
		return g
	}
	return &guard{next: next}
}

type guard struct {
	next Embedder
}

func (g *guard) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := g.next.Dimension()
	if strings.TrimSpace(text) == "" {
		return make([]float32, dim), nil
	}
	vec, err := g.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) != dim {
		return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(vec), dim)
	}
	return vec, nil
}

func (g *guard) Dimension() int {
	return g.next.Dimension()
}
