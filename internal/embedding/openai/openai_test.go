package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/internal/domain"
)

type embeddingsRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// newServer answers with vectors whose first value is the input position,
// returned in reverse order to exercise index reordering.
func newServer(t *testing.T, dim int, calls *[]embeddingsRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*calls = append(*calls, req)

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float32, dim)
			vec[0] = float32(i)
			data = append(data, map[string]any{"object": "embedding", "index": i, "embedding": vec})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
}

func newEmbedder(t *testing.T, url string, cfg Config) *Embedder {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "secret")
	cfg.BaseURL = url + "/v1"
	cfg.APIKeyEnv = "TEST_EMBED_KEY"
	e, err := NewEmbedder(cfg)
	require.NoError(t, err)
	return e
}

func TestEmbed_BatchesAndOrder(t *testing.T) {
	var calls []embeddingsRequest
	srv := newServer(t, 4, &calls)
	defer srv.Close()

	e := newEmbedder(t, srv.URL, Config{Model: "minilm", Dimension: 4, BatchSize: 2})
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"a", "b"}, calls[0].Input)
	assert.Equal(t, []string{"c"}, calls[1].Input)
	assert.Equal(t, "minilm", calls[0].Model)
	assert.Zero(t, calls[0].Dimensions)

	require.Len(t, vecs, 3)
	assert.Equal(t, float32(0), vecs[0][0])
	assert.Equal(t, float32(1), vecs[1][0])
	assert.Equal(t, float32(0), vecs[2][0])
}

func TestEmbedOne_SendsDimensions(t *testing.T) {
	var calls []embeddingsRequest
	srv := newServer(t, domain.DefaultDimension, &calls)
	defer srv.Close()

	e := newEmbedder(t, srv.URL, Config{Dimension: domain.DefaultDimension, SendDimensions: true})
	v, err := e.EmbedOne(context.Background(), "how to cook eggs")
	require.NoError(t, err)
	assert.Len(t, v, domain.DefaultDimension)
	require.Len(t, calls, 1)
	assert.Equal(t, domain.DefaultDimension, calls[0].Dimensions)
	assert.Equal(t, "sentence-transformers/all-MiniLM-L6-v2", calls[0].Model)
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	var calls []embeddingsRequest
	srv := newServer(t, 8, &calls)
	defer srv.Close()

	e := newEmbedder(t, srv.URL, Config{Dimension: 4})
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := newEmbedder(t, srv.URL, Config{Dimension: 4})
	_, err := e.Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestNewEmbedder_InvalidDimension(t *testing.T) {
	_, err := NewEmbedder(Config{})
	assert.Error(t, err)
}
