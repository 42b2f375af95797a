package chroma

import (
	"context"
	"fmt"
	"sync"

	"mail-assistant/pkg/vectorindex"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"go.uber.org/zap"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Tenant   string
	Database string
	// EmbeddingFunction is attached to every collection. Upserts and queries
	// always carry precomputed vectors, so it only embeds text-only input.
	EmbeddingFunction embeddings.EmbeddingFunction
}

// ChromaClient implements vectorindex.ChromaAPI on top of chroma-go.
type ChromaClient struct {
	client    chroma.Client
	embedFunc embeddings.EmbeddingFunction
	log       *zap.Logger

	mu          sync.RWMutex
	collections map[string]chroma.Collection
}

var _ vectorindex.ChromaAPI = (*ChromaClient)(nil)

func NewChromaClient(cfg Config, log *zap.Logger) (*ChromaClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.APIKey != "" {
		baseURL = chroma.ChromaCloudEndpoint
	}
	if baseURL == "" {
		return nil, fmt.Errorf("CHROMA_URL or CHROMA_API_KEY is required")
	}
	if cfg.EmbeddingFunction == nil {
		return nil, fmt.Errorf("chroma embedding function is required")
	}

	opts := []chroma.ClientOption{chroma.WithBaseURL(baseURL)}
	if cfg.APIKey != "" {
		opts = append(opts, chroma.WithCloudAPIKey(cfg.APIKey))
	}
	if cfg.Database != "" && cfg.Tenant != "" {
		opts = append(opts, chroma.WithDatabaseAndTenant(cfg.Database, cfg.Tenant))
	} else if cfg.Tenant != "" {
		opts = append(opts, chroma.WithTenant(cfg.Tenant))
	}

	client, err := chroma.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("initialized Chroma client", zap.String("url", baseURL))

	return &ChromaClient{
		client:      client,
		embedFunc:   cfg.EmbeddingFunction,
		log:         log,
		collections: make(map[string]chroma.Collection),
	}, nil
}

func (c *ChromaClient) collection(name string) (chroma.Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	col, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %s is not initialized", name)
	}
	return col, nil
}

func (c *ChromaClient) GetOrCreateCollection(ctx context.Context, name string) error {
	col, err := c.client.GetOrCreateCollection(
		ctx,
		name,
		chroma.WithEmbeddingFunctionCreate(c.embedFunc),
		chroma.WithHNSWSpaceCreate(embeddings.COSINE),
	)
	if err != nil {
		return fmt.Errorf("failed to get or create collection: %w", err)
	}
	c.mu.Lock()
	c.collections[name] = col
	c.mu.Unlock()
	return nil
}

func (c *ChromaClient) Close() error {
	return c.client.Close()
}

func (c *ChromaClient) Upsert(ctx context.Context, name string, docs []vectorindex.ChromaDocument) error {
	col, err := c.collection(name)
	if err != nil {
		return err
	}

	ids := make([]chroma.DocumentID, len(docs))
	embs := make([]embeddings.Embedding, len(docs))
	metas := make([]chroma.DocumentMetadata, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = chroma.DocumentID(d.ID)
		embs[i] = embeddings.NewEmbeddingFromFloat32(d.Embedding)
		raw := make(map[string]interface{}, len(d.Metadata))
		for k, v := range d.Metadata {
			raw[k] = v
		}
		meta, err := chroma.NewDocumentMetadataFromMap(raw)
		if err != nil {
			return fmt.Errorf("failed to create metadata: %w", err)
		}
		metas[i] = meta
		texts[i] = d.Document
	}

	// Upsert replaces documents whose id already exists
	err = col.Upsert(
		ctx,
		chroma.WithIDs(ids...),
		chroma.WithEmbeddings(embs...),
		chroma.WithMetadatas(metas...),
		chroma.WithTexts(texts...),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert email embeddings: %w", err)
	}
	return nil
}

func (c *ChromaClient) Query(ctx context.Context, name string, vectors [][]float32, topK int) (*vectorindex.ChromaResult, error) {
	col, err := c.collection(name)
	if err != nil {
		return nil, err
	}

	embs := make([]embeddings.Embedding, len(vectors))
	for i, v := range vectors {
		embs[i] = embeddings.NewEmbeddingFromFloat32(v)
	}
	results, err := col.Query(
		ctx,
		chroma.WithQueryEmbeddings(embs...),
		chroma.WithNResults(topK),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	metadataGroups := results.GetMetadatasGroups()
	c.log.Debug("chroma query completed", zap.String("collection", name), zap.Int("groups", len(idGroups)))

	out := &vectorindex.ChromaResult{
		IDs:       make([][]string, len(idGroups)),
		Metadatas: make([][]map[string]string, len(idGroups)),
		Distances: make([][]float32, len(idGroups)),
	}
	for g, group := range idGroups {
		for i, id := range group {
			out.IDs[g] = append(out.IDs[g], string(id))

			var dist float32
			if g < len(distanceGroups) && i < len(distanceGroups[g]) {
				dist = float32(distanceGroups[g][i])
			}
			out.Distances[g] = append(out.Distances[g], dist)

			meta := map[string]string{}
			if g < len(metadataGroups) && i < len(metadataGroups[g]) && metadataGroups[g][i] != nil {
				for _, key := range []string{"subject", "from", "date", "email_id"} {
					if v, ok := metadataGroups[g][i].GetString(key); ok {
						meta[key] = v
					}
				}
			}
			out.Metadatas[g] = append(out.Metadatas[g], meta)
		}
	}
	return out, nil
}
