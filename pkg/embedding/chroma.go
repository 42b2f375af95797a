package embedding

import (
	"context"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
)

// ChromaFunction exposes an Embedder as a chroma-go embedding function so a
// Chroma collection embeds any text-only input in the same space as the
// vectors this package produces.
func ChromaFunction(e Embedder) embeddings.EmbeddingFunction {
	return &chromaFunction{embedder: e}
}

type chromaFunction struct {
	embedder Embedder
}

var _ embeddings.EmbeddingFunction = (*chromaFunction)(nil)

func (f *chromaFunction) EmbedDocuments(ctx context.Context, texts []string) ([]embeddings.Embedding, error) {
	out := make([]embeddings.Embedding, len(texts))
	for i, text := range texts {
		emb, err := f.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

func (f *chromaFunction) EmbedQuery(ctx context.Context, text string) (embeddings.Embedding, error) {
	vec, err := f.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbeddingFromFloat32(vec), nil
}
