package qdrantgrpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"reciperag/internal/domain"
	"reciperag/internal/vectorstore"
)

// pointsAPI is the subset of *qdrant.Client used by Storage.
type pointsAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Close() error
}

// Storage talks to Qdrant over gRPC and is bound to one collection.
type Storage struct {
	client     pointsAPI
	collection string
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

func NewStorage(cfg Config) (*Storage, error) {
	if cfg.Collection == "" {
		return nil, errors.New("qdrant collection is empty")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant client: %w", err)
	}
	return &Storage{client: client, collection: cfg.Collection}, nil
}

func (s *Storage) Collection() string { return s.collection }

func (s *Storage) Close() error {
	return s.client.Close()
}

func (s *Storage) EnsureCollection(ctx context.Context, dimension int, distance domain.Distance) (bool, error) {
	if dimension <= 0 {
		return false, errors.New("invalid dimension")
	}
	d, err := toQdrantDistance(distance)
	if err != nil {
		return false, err
	}
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: d,
		}),
	}); err != nil {
		return false, fmt.Errorf("create collection: %w", err)
	}
	return true, nil
}

func (s *Storage) Upsert(ctx context.Context, records []domain.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	pts := make([]*qdrant.PointStruct, len(records))
	for i, r := range records {
		pts[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(vectorstore.PayloadMap(r.Payload)),
		}
	}
	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         pts,
	})
	return err
}

func (s *Storage) Search(ctx context.Context, vector domain.Vector, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = domain.DefaultTopK
	}
	limit := uint64(k)
	resp, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.SearchResult, 0, len(resp))
	for _, r := range resp {
		out = append(out, domain.SearchResult{
			ID:      r.GetId().GetNum(),
			Score:   float64(r.GetScore()),
			Payload: vectorstore.PayloadFromMap(payloadStrings(r.GetPayload())),
		})
	}
	return out, nil
}

func payloadStrings(payload map[string]*qdrant.Value) map[string]any {
	m := make(map[string]any, len(payload))
	for k, v := range payload {
		if sv, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			m[k] = sv.StringValue
		}
	}
	return m
}

func toQdrantDistance(d domain.Distance) (qdrant.Distance, error) {
	switch d {
	case domain.DistanceCosine:
		return qdrant.Distance_Cosine, nil
	case domain.DistanceDot:
		return qdrant.Distance_Dot, nil
	case domain.DistanceEuclid:
		return qdrant.Distance_Euclid, nil
	default:
		return qdrant.Distance_UnknownDistance, fmt.Errorf("%q: %w", d, domain.ErrUnsupportedDistance)
	}
}
