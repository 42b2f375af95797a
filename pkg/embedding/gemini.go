package embedding

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

const DefaultGeminiModel = "text-embedding-004"

// GeminiEmbedder embeds text with the Gemini embedding model through the
// chroma-go embedding function.
type GeminiEmbedder struct {
	embedFunc *gemini.GeminiEmbeddingFunction
	dim       int
}

func NewGeminiEmbedder(apiKey, model string, dim int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for gemini embeddings")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if dim <= 0 {
		dim = DefaultDimension
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithAPIKey(apiKey),
		gemini.WithDefaultModel(embeddings.EmbeddingModel(model)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}
	return &GeminiEmbedder{embedFunc: embedFunc, dim: dim}, nil
}

func (g *GeminiEmbedder) Dimension() int {
	return g.dim
}

func (g *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	emb, err := g.embedFunc.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	return emb.ContentAsFloat32(), nil
}
