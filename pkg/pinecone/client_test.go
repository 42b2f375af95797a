package pinecone

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"mail-assistant/pkg/vectorindex"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

// controlPlane serves the index lifecycle endpoints of the Pinecone API.
type controlPlane struct {
	srv     *httptest.Server
	mu      sync.Mutex
	created map[string]map[string]interface{}
	apiKeys []string
	ready   bool
}

func newControlPlane(t *testing.T) *controlPlane {
	f := &controlPlane{created: map[string]map[string]interface{}{}, ready: true}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *controlPlane) indexModel(name string) map[string]interface{} {
	return map[string]interface{}{
		"name":                name,
		"dimension":           768,
		"metric":              "cosine",
		"host":                name + "-abc123.svc.aped-4627-b74a.pinecone.io",
		"vector_type":         "dense",
		"deletion_protection": "disabled",
		"spec": map[string]interface{}{
			"serverless": map[string]interface{}{"cloud": "aws", "region": "us-east-1"},
		},
		"status": map[string]interface{}{"ready": f.ready, "state": "Ready"},
	}
}

func (f *controlPlane) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apiKeys = append(f.apiKeys, r.Header.Get("Api-Key"))
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/indexes/emails":
		if _, ok := f.created["emails"]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Resource emails not found"},"status":404}`))
			return
		}
		_ = json.NewEncoder(w).Encode(f.indexModel("emails"))
	case r.Method == http.MethodPost && r.URL.Path == "/indexes":
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		name, _ := body["name"].(string)
		if _, ok := f.created[name]; ok {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"code":"ALREADY_EXISTS","message":"Resource already exists"},"status":409}`))
			return
		}
		f.created[name] = body
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(f.indexModel(name))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"not found"},"status":404}`))
	}
}

func newTestClient(t *testing.T, f *controlPlane) *Client {
	c, err := NewClient(Config{APIKey: "pk-test", ControlURL: f.srv.URL, Namespace: "ns"})
	require.NoError(t, err)
	return c
}

func TestDescribeMissingIndex(t *testing.T) {
	f := newControlPlane(t)
	c := newTestClient(t, f)
	_, err := c.DescribeIndex(context.Background(), "emails")
	require.True(t, errors.Is(err, vectorindex.ErrIndexNotFound))
}

func TestCreateIndexSendsServerlessSpecAndToleratesConflict(t *testing.T) {
	f := newControlPlane(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	require.NoError(t, c.CreateIndex(ctx, "emails", 768, vectorindex.MetricCosine))
	require.NoError(t, c.CreateIndex(ctx, "emails", 768, vectorindex.MetricCosine))

	body := f.created["emails"]
	require.EqualValues(t, 768, body["dimension"])
	require.Equal(t, "cosine", body["metric"])
	spec := body["spec"].(map[string]interface{})["serverless"].(map[string]interface{})
	require.Equal(t, "aws", spec["cloud"])
	require.Equal(t, "us-east-1", spec["region"])
	require.Equal(t, "pk-test", f.apiKeys[0])
}

func TestDescribeReadyIndex(t *testing.T) {
	f := newControlPlane(t)
	c := newTestClient(t, f)
	ctx := context.Background()
	require.NoError(t, c.CreateIndex(ctx, "emails", 768, vectorindex.MetricCosine))

	desc, err := c.DescribeIndex(ctx, "emails")
	require.NoError(t, err)
	require.Equal(t, "emails", desc.Name)
	require.True(t, desc.Ready)
	require.Contains(t, desc.Host, "emails-abc123")
}

func TestEnsureIndexOverSDK(t *testing.T) {
	f := newControlPlane(t)
	c := newTestClient(t, f)
	idx := vectorindex.NewPineconeIndex(c, vectorindex.WithDimension(768))

	require.NoError(t, idx.EnsureIndex(context.Background(), "emails"))
	require.Contains(t, f.created, "emails")
}

func TestMetadataConversion(t *testing.T) {
	meta, err := toStruct(map[string]string{"subject": "Invoice #1042", vectorindex.TextMetadataKey: "hello"})
	require.NoError(t, err)
	meta.Fields["size"] = structpb.NewNumberValue(3)

	out := fromStruct(meta)
	require.Equal(t, "Invoice #1042", out["subject"])
	require.Equal(t, "hello", out[vectorindex.TextMetadataKey])
	require.NotContains(t, out, "size")

	empty, err := toStruct(nil)
	require.NoError(t, err)
	require.Nil(t, empty)
	require.Empty(t, fromStruct(nil))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
