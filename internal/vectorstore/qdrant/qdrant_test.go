package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/internal/domain"
)

type point struct {
	ID      uint64         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// fakeQdrant implements the subset of the Qdrant REST API used by Storage.
type fakeQdrant struct {
	mu        sync.Mutex
	exists    bool
	creates   int
	size      int
	distance  string
	points    map[uint64]point
	apiKeys   []string
	failWrite bool
}

func (f *fakeQdrant) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /collections/recipes/exists", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.apiKeys = append(f.apiKeys, r.Header.Get("api-key"))
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"exists": f.exists}, "status": "ok"})
	})
	mux.HandleFunc("PUT /collections/recipes", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.creates++
		f.exists = true
		f.size = body.Vectors.Size
		f.distance = body.Vectors.Distance
		_, _ = w.Write([]byte(`{"result":true,"status":"ok"}`))
	})
	mux.HandleFunc("PUT /collections/recipes/points", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		if f.failWrite {
			http.Error(w, `{"status":{"error":"Wrong input"}}`, http.StatusBadRequest)
			return
		}
		var body struct {
			Points []point `json:"points"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		for _, p := range body.Points {
			f.points[p.ID] = p
		}
		_, _ = w.Write([]byte(`{"result":{"operation_id":1,"status":"completed"},"status":"ok"}`))
	})
	mux.HandleFunc("POST /collections/recipes/points/search", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Vector      []float32 `json:"vector"`
			Limit       int       `json:"limit"`
			WithPayload bool      `json:"with_payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.WithPayload)
		type hit struct {
			ID      uint64         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		hits := make([]hit, 0, len(f.points))
		for _, p := range f.points {
			var dot float64
			for i := range p.Vector {
				dot += float64(p.Vector[i]) * float64(body.Vector[i])
			}
			hits = append(hits, hit{ID: p.ID, Score: dot, Payload: p.Payload})
		}
		sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
		if len(hits) > body.Limit {
			hits = hits[:body.Limit]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": hits, "status": "ok"})
	})
	return mux
}

func newStorage(t *testing.T, f *fakeQdrant) *Storage {
	t.Helper()
	f.points = make(map[uint64]point)
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{URL: srv.URL, APIKey: "k", Collection: "recipes"})
	require.NoError(t, err)
	return s
}

func TestEnsureCollection_CreatesOnce(t *testing.T) {
	f := &fakeQdrant{}
	s := newStorage(t, f)
	ctx := context.Background()

	created, err := s.EnsureCollection(ctx, domain.DefaultDimension, domain.DistanceCosine)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureCollection(ctx, domain.DefaultDimension, domain.DistanceCosine)
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, f.creates)
	assert.Equal(t, domain.DefaultDimension, f.size)
	assert.Equal(t, "Cosine", f.distance)
	assert.Equal(t, []string{"k", "k"}, f.apiKeys)
}

func TestEnsureCollection_ExistingIsNotMigrated(t *testing.T) {
	f := &fakeQdrant{exists: true, size: 768}
	s := newStorage(t, f)

	created, err := s.EnsureCollection(context.Background(), domain.DefaultDimension, domain.DistanceCosine)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, f.creates)
	assert.Equal(t, 768, f.size)
}

func TestUpsertAndSearch(t *testing.T) {
	f := &fakeQdrant{}
	s := newStorage(t, f)
	ctx := context.Background()
	_, err := s.EnsureCollection(ctx, 2, domain.DistanceCosine)
	require.NoError(t, err)

	records := []domain.StoredRecord{
		{ID: 0, Vector: domain.Vector{1, 0}, Payload: domain.Payload{RecipeName: "Boil pasta...", Directions: "Boil pasta."}},
		{ID: 1, Vector: domain.Vector{0, 1}, Payload: domain.Payload{RecipeName: "Fry eggs...", Directions: "Fry eggs."}},
	}
	require.NoError(t, s.Upsert(ctx, records))
	require.NoError(t, s.Upsert(ctx, records))
	assert.Len(t, f.points, 2)

	res, err := s.Search(ctx, domain.Vector{0.1, 0.9}, 3)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(1), res[0].ID)
	assert.Equal(t, "Fry eggs.", res[0].Payload.Directions)
	assert.Equal(t, "Fry eggs...", res[0].Payload.RecipeName)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)

	res, err = s.Search(ctx, domain.Vector{0.1, 0.9}, 1)
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestUpsert_EmptyIsNoop(t *testing.T) {
	f := &fakeQdrant{failWrite: true}
	s := newStorage(t, f)
	assert.NoError(t, s.Upsert(context.Background(), nil))
}

func TestUpsert_Failure(t *testing.T) {
	f := &fakeQdrant{exists: true, failWrite: true}
	s := newStorage(t, f)
	err := s.Upsert(context.Background(), []domain.StoredRecord{{ID: 0, Vector: domain.Vector{1}}})
	assert.ErrorContains(t, err, "HTTP 400")
}

func TestSearch_EmptyCollection(t *testing.T) {
	f := &fakeQdrant{exists: true}
	s := newStorage(t, f)
	res, err := s.Search(context.Background(), domain.Vector{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestNewStorage_Validation(t *testing.T) {
	_, err := NewStorage(Config{Collection: "recipes"})
	assert.Error(t, err)
	_, err = NewStorage(Config{URL: "http://localhost:6333"})
	assert.Error(t, err)
}

func searchServer(t *testing.T, result string) *Storage {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /collections/recipes/points/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":` + result + `,"status":"ok"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	s, err := NewStorage(Config{URL: srv.URL, Collection: "recipes"})
	require.NoError(t, err)
	return s
}

func TestSearch_PointIDs(t *testing.T) {
	s := searchServer(t, `[
		{"id":"5c56c793-69f3-4fbf-87e6-c4bf54c28c26","score":0.9,"payload":{"recipe_name":"foreign"}},
		{"id":0,"score":0.5,"payload":{"recipe_name":"Boil pasta...","directions":"Boil pasta."}}
	]`)
	res, err := s.Search(context.Background(), domain.Vector{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, uint64(0), res[0].ID)
	assert.Equal(t, "Boil pasta.", res[0].Payload.Directions)

	s = searchServer(t, `[{"id":-1,"score":0.9,"payload":{}}]`)
	_, err = s.Search(context.Background(), domain.Vector{1, 0}, 3)
	assert.ErrorContains(t, err, "point id -1")
}
