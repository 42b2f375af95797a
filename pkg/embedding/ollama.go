package embedding

import (
	"context"
	"fmt"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/ollama"
)

// DefaultOllamaModel produces 768-dimensional sentence embeddings.
const DefaultOllamaModel = "nomic-embed-text"

// OllamaEmbedder embeds text with a local Ollama model through the chroma-go
// embedding function.
type OllamaEmbedder struct {
	embedFunc *ollama.OllamaEmbeddingFunction
	dim       int
}

func NewOllamaEmbedder(baseURL, model string, dim int) (*OllamaEmbedder, error) {
	if model == "" {
		model = DefaultOllamaModel
	}
	if dim <= 0 {
		dim = DefaultDimension
	}
	embedFunc, err := ollama.NewOllamaEmbeddingFunction(
		ollama.WithBaseURL(baseURL),
		ollama.WithModel(embeddings.EmbeddingModel(model)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama embedding function: %w", err)
	}
	return &OllamaEmbedder{embedFunc: embedFunc, dim: dim}, nil
}

func (o *OllamaEmbedder) Dimension() int {
	return o.dim
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embs, err := o.embedFunc.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(embs) == 0 || embs[0] == nil {
		return nil, fmt.Errorf("ollama embed: empty response")
	}
	return embs[0].ContentAsFloat32(), nil
}
