package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"reciperag/internal/domain"
	"reciperag/internal/embedding"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Records are keyed by id, so upserting an existing id overwrites it.
type Storage struct {
	mu         sync.RWMutex
	collection string
	created    bool
	dimension  int
	records    map[uint64]domain.StoredRecord
}

func NewStorage(collection string) *Storage {
	return &Storage{collection: collection, records: make(map[uint64]domain.StoredRecord)}
}

func (s *Storage) Collection() string { return s.collection }

func (s *Storage) EnsureCollection(_ context.Context, dimension int, distance domain.Distance) (bool, error) {
	if dimension <= 0 {
		return false, fmt.Errorf("invalid dimension %d", dimension)
	}
	if distance != domain.DistanceCosine {
		return false, fmt.Errorf("memory store %q: %w", distance, domain.ErrUnsupportedDistance)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		return false, nil
	}
	s.created = true
	s.dimension = dimension
	return true, nil
}

func (s *Storage) Upsert(_ context.Context, records []domain.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return fmt.Errorf("collection %s does not exist", s.collection)
	}
	for _, r := range records {
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("record %d: %w", r.ID, domain.ErrDimensionMismatch)
		}
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *Storage) Search(_ context.Context, vector domain.Vector, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.created {
		return nil, fmt.Errorf("collection %s does not exist", s.collection)
	}
	if len(vector) != s.dimension {
		return nil, domain.ErrDimensionMismatch
	}
	if k <= 0 {
		k = domain.DefaultTopK
	}
	if embedding.IsZero(vector) {
		return nil, nil
	}
	results := make([]domain.SearchResult, 0, len(s.records))
	for _, r := range s.records {
		results = append(results, domain.SearchResult{ID: r.ID, Score: cosine(vector, r.Vector), Payload: r.Payload})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored records.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cosine(a, b domain.Vector) float64 {
	var dot, na, nb float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		na += av * av
		nb += bv * bv
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
