package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"reciperag/internal/domain"
	"reciperag/internal/embedding"
)

// Embedder calls an OpenAI-compatible /embeddings endpoint.
// Any server exposing all-MiniLM-L6-v2 behind that API can back it.
type Embedder struct {
	client         *goopenai.Client
	model          string
	dimension      int
	batchSize      int
	sendDimensions bool
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Dimension int
	BatchSize int
	// SendDimensions adds the "dimensions" field to requests. Servers that
	// only host fixed-size models usually reject it.
	SendDimensions bool
	Timeout        time.Duration
}

// NewEmbedder creates a new embeddings client using the provided configuration.
// The API key is optional since local servers rarely require one.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.Dimension <= 0 {
		return nil, errors.New("invalid dimension")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	clientCfg := goopenai.DefaultConfig(key)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: t}
	return &Embedder{
		client:         goopenai.NewClientWithConfig(clientCfg),
		model:          cfg.Model,
		dimension:      cfg.Dimension,
		batchSize:      cfg.BatchSize,
		sendDimensions: cfg.SendDimensions,
	}, nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// EmbedOne embeds a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) (domain.Vector, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	out := make([]domain.Vector, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, err)
		}
		out = append(out, vecs...)
	}
	if err := embedding.CheckDimension(out, e.dimension); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	req := goopenai.EmbeddingRequest{
		Input: texts,
		Model: goopenai.EmbeddingModel(e.model),
	}
	if e.sendDimensions {
		req.Dimensions = e.dimension
	}
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Data), len(texts))
	}
	out := make([]domain.Vector, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || out[d.Index] != nil {
			return nil, fmt.Errorf("unexpected embedding index %d", d.Index)
		}
		v := make(domain.Vector, len(d.Embedding))
		copy(v, d.Embedding)
		out[d.Index] = v
	}
	return out, nil
}
