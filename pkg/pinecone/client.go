package pinecone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"mail-assistant/pkg/vectorindex"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

type Config struct {
	APIKey string
	// ControlURL overrides the control plane host, mainly for tests.
	ControlURL string
	Cloud      string
	Region     string
	Namespace  string
	HTTPClient *http.Client
}

// Client wraps the Pinecone SDK: index lifecycle goes through the control
// plane, upserts and queries through a cached connection per index host.
type Client struct {
	pc        *pinecone.Client
	cloud     pinecone.Cloud
	region    string
	namespace string

	mu    sync.Mutex
	conns map[string]*pinecone.IndexConnection
}

var _ vectorindex.PineconeAPI = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("PINECONE_API_KEY is required")
	}
	if cfg.Cloud == "" {
		cfg.Cloud = "aws"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey:     cfg.APIKey,
		Host:       cfg.ControlURL,
		RestClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}
	return &Client{
		pc:        pc,
		cloud:     pinecone.Cloud(cfg.Cloud),
		region:    cfg.Region,
		namespace: cfg.Namespace,
		conns:     make(map[string]*pinecone.IndexConnection),
	}, nil
}

func (c *Client) DescribeIndex(ctx context.Context, name string) (*vectorindex.IndexDescription, error) {
	idx, err := c.pc.DescribeIndex(ctx, name)
	if err != nil {
		if hasStatus(err, http.StatusNotFound, "not found") {
			return nil, vectorindex.ErrIndexNotFound
		}
		return nil, err
	}
	desc := &vectorindex.IndexDescription{Name: idx.Name, Host: idx.Host}
	if idx.Status != nil {
		desc.Ready = idx.Status.Ready
	}
	return desc, nil
}

func (c *Client) CreateIndex(ctx context.Context, name string, dimension int, metric string) error {
	dim := int32(dimension)
	m := pinecone.IndexMetric(metric)
	_, err := c.pc.CreateServerlessIndex(ctx, &pinecone.CreateServerlessIndexRequest{
		Name:      name,
		Dimension: &dim,
		Metric:    &m,
		Cloud:     c.cloud,
		Region:    c.region,
	})
	if err != nil && hasStatus(err, http.StatusConflict, "already exists", "already_exists") {
		return nil
	}
	return err
}

func (c *Client) Upsert(ctx context.Context, name string, vectors []vectorindex.PineconeVector) error {
	conn, err := c.conn(ctx, name)
	if err != nil {
		return err
	}

	batch := make([]*pinecone.Vector, 0, len(vectors))
	for _, v := range vectors {
		meta, err := toStruct(v.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", v.ID, err)
		}
		values := v.Values
		batch = append(batch, &pinecone.Vector{Id: v.ID, Values: &values, Metadata: meta})
	}
	if _, err := conn.UpsertVectors(ctx, batch); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

func (c *Client) Query(ctx context.Context, name string, values []float32, topK int) ([]vectorindex.PineconeMatch, error) {
	conn, err := c.conn(ctx, name)
	if err != nil {
		return nil, err
	}
	res, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          values,
		TopK:            uint32(topK),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	matches := make([]vectorindex.PineconeMatch, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		matches = append(matches, vectorindex.PineconeMatch{
			ID:       m.Vector.Id,
			Score:    m.Score,
			Metadata: fromStruct(m.Vector.Metadata),
		})
	}
	return matches, nil
}

// Close releases every open index connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for name, conn := range c.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(c.conns, name)
	}
	return errors.Join(errs...)
}

// conn resolves the data plane host of an index on first use.
func (c *Client) conn(ctx context.Context, name string) (*pinecone.IndexConnection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[name]; ok {
		return conn, nil
	}

	idx, err := c.pc.DescribeIndex(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to describe index %s: %w", name, err)
	}
	if idx.Host == "" {
		return nil, fmt.Errorf("pinecone index %s has no host yet", name)
	}
	conn, err := c.pc.Index(pinecone.NewIndexConnParams{Host: idx.Host, Namespace: c.namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to index %s: %w", name, err)
	}
	c.conns[name] = conn
	return conn, nil
}

func toStruct(meta map[string]string) (*pinecone.Metadata, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	raw := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		raw[k] = v
	}
	return structpb.NewStruct(raw)
}

func fromStruct(meta *pinecone.Metadata) map[string]string {
	out := map[string]string{}
	if meta == nil {
		return out
	}
	for k, v := range meta.GetFields() {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out[k] = s.StringValue
		}
	}
	return out
}

// hasStatus reports whether err is a Pinecone API error with the given HTTP
// status, falling back to the error text for wrapped transport errors.
func hasStatus(err error, code int, hints ...string) bool {
	var pe *pinecone.PineconeError
	if errors.As(err, &pe) && pe.Code == code {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, h := range hints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}
