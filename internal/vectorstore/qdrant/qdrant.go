package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"reciperag/internal/domain"
	"reciperag/internal/restclient"
	"reciperag/internal/vectorstore"
)

// Storage is a minimal REST client to Qdrant bound to one collection.
type Storage struct {
	rest       *restclient.RestClient
	collection string
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.URL == "" {
		return nil, errors.New("qdrant url is empty")
	}
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is empty")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{"api-key": cfg.APIKey}
	}
	return &Storage{
		rest:       restclient.NewRestClient(cfg.URL, headers, timeout),
		collection: cfg.Collection,
	}, nil
}

func (s *Storage) Collection() string { return s.collection }

func (s *Storage) collectionPath() string {
	return "/collections/" + url.PathEscape(s.collection)
}

// EnsureCollection checks for the collection first and only creates it when absent.
func (s *Storage) EnsureCollection(ctx context.Context, dimension int, distance domain.Distance) (bool, error) {
	if dimension <= 0 {
		return false, errors.New("invalid dimension")
	}
	var exists struct {
		Result struct {
			Exists bool `json:"exists"`
		} `json:"result"`
	}
	if err := s.call(ctx, "GET", s.collectionPath()+"/exists", nil, &exists); err != nil {
		return false, err
	}
	if exists.Result.Exists {
		return false, nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": string(distance),
		},
	}
	if err := s.call(ctx, "PUT", s.collectionPath(), body, nil); err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return true, nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":      r.ID,
			"vector":  r.Vector,
			"payload": vectorstore.PayloadMap(r.Payload),
		}
	}
	body := map[string]any{"points": points}
	return s.call(ctx, "PUT", s.collectionPath()+"/points?wait=true", body, nil)
}

func (s *Storage) Search(ctx context.Context, vector domain.Vector, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      json.RawMessage `json:"id"`
			Score   float64         `json:"score"`
			Payload map[string]any  `json:"payload"`
		} `json:"result"`
	}
	if err := s.call(ctx, "POST", s.collectionPath()+"/points/search", req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		var id uint64
		if err := json.Unmarshal(r.ID, &id); err != nil {
			var uuid string
			if json.Unmarshal(r.ID, &uuid) == nil {
				// UUID ids are never written by Ingest; skip points from other tools.
				continue
			}
			return nil, fmt.Errorf("qdrant search: point id %s: %w", r.ID, err)
		}
		results = append(results, domain.SearchResult{
			ID:      id,
			Score:   r.Score,
			Payload: vectorstore.PayloadFromMap(r.Payload),
		})
	}
	return results, nil
}

func (s *Storage) call(ctx context.Context, method, endpoint string, body, out any) error {
	var (
		data   []byte
		status int
		err    error
	)
	switch method {
	case "GET":
		data, status, err = s.rest.Get(ctx, endpoint, nil)
	case "PUT":
		data, status, err = s.rest.Put(ctx, endpoint, body, nil)
	default:
		data, status, err = s.rest.Post(ctx, endpoint, body, nil)
	}
	if err != nil {
		return fmt.Errorf("qdrant %s %s: %w", method, endpoint, err)
	}
	if !restclient.IsSuccess(status) {
		return fmt.Errorf("qdrant %s %s failed: HTTP %d: %s", method, endpoint, status, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("qdrant %s %s: decode response: %w", method, endpoint, err)
		}
	}
	return nil
}
