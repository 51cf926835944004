package qdrantgrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reciperag/internal/domain"
)

type mockPoints struct {
	mock.Mock
}

func (m *mockPoints) CollectionExists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *mockPoints) CreateCollection(ctx context.Context, req *qdrant.CreateCollection) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockPoints) Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	args := m.Called(ctx, req)
	return nil, args.Error(1)
}

func (m *mockPoints) Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	args := m.Called(ctx, req)
	pts, _ := args.Get(0).([]*qdrant.ScoredPoint)
	return pts, args.Error(1)
}

func (m *mockPoints) Close() error { return m.Called().Error(0) }

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()

	m.On("CollectionExists", ctx, "recipes").Return(false, nil).Once()
	m.On("CreateCollection", ctx, mock.MatchedBy(func(req *qdrant.CreateCollection) bool {
		p := req.GetVectorsConfig().GetParams()
		return req.CollectionName == "recipes" && p.GetSize() == 384 && p.GetDistance() == qdrant.Distance_Cosine
	})).Return(nil).Once()

	created, err := s.EnsureCollection(ctx, 384, domain.DistanceCosine)
	require.NoError(t, err)
	assert.True(t, created)
	m.AssertExpectations(t)
}

func TestEnsureCollection_SkipsExisting(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()

	m.On("CollectionExists", ctx, "recipes").Return(true, nil).Once()

	created, err := s.EnsureCollection(ctx, 384, domain.DistanceCosine)
	require.NoError(t, err)
	assert.False(t, created)
	m.AssertNotCalled(t, "CreateCollection", mock.Anything, mock.Anything)
}

func TestEnsureCollection_Errors(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()

	_, err := s.EnsureCollection(ctx, 384, domain.Distance("Hamming"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedDistance)

	m.On("CollectionExists", ctx, "recipes").Return(false, errors.New("unavailable")).Once()
	_, err = s.EnsureCollection(ctx, 384, domain.DistanceCosine)
	assert.ErrorContains(t, err, "unavailable")
}

func TestUpsert(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()

	m.On("Upsert", ctx, mock.MatchedBy(func(req *qdrant.UpsertPoints) bool {
		if req.CollectionName != "recipes" || !req.GetWait() || len(req.Points) != 2 {
			return false
		}
		p := req.Points[1]
		return p.GetId().GetNum() == 1 &&
			p.GetPayload()["directions"].GetStringValue() == "Fry eggs with butter." &&
			p.GetPayload()["recipe_name"].GetStringValue() == "Fry eggs with butter...."
	})).Return(nil, nil).Once()

	err := s.Upsert(ctx, []domain.StoredRecord{
		{ID: 0, Vector: domain.Vector{1, 0}, Payload: domain.Payload{RecipeName: "Boil...", Directions: "Boil."}},
		{ID: 1, Vector: domain.Vector{0, 1}, Payload: domain.Payload{RecipeName: "Fry eggs with butter....", Directions: "Fry eggs with butter."}},
	})
	require.NoError(t, err)
	m.AssertExpectations(t)

	assert.NoError(t, s.Upsert(ctx, nil))
}

func TestSearch(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()

	points := []*qdrant.ScoredPoint{
		{Id: qdrant.NewIDNum(1), Score: 0.9, Payload: qdrant.NewValueMap(map[string]any{"recipe_name": "Fry eggs...", "directions": "Fry eggs."})},
		{Id: qdrant.NewIDNum(0), Score: 0.1, Payload: qdrant.NewValueMap(map[string]any{"directions": "Boil."})},
	}
	m.On("Query", ctx, mock.MatchedBy(func(req *qdrant.QueryPoints) bool {
		return req.CollectionName == "recipes" && req.GetLimit() == 3
	})).Return(points, nil).Once()

	res, err := s.Search(ctx, domain.Vector{0, 1}, 0)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(1), res[0].ID)
	assert.InDelta(t, 0.9, res[0].Score, 1e-6)
	assert.Equal(t, "Fry eggs.", res[0].Payload.Directions)
	assert.Equal(t, "Unknown", res[1].Payload.RecipeName)
}

func TestSearch_Empty(t *testing.T) {
	m := &mockPoints{}
	s := &Storage{client: m, collection: "recipes"}
	ctx := context.Background()
	m.On("Query", ctx, mock.Anything).Return(nil, nil).Once()

	res, err := s.Search(ctx, domain.Vector{0, 1}, 3)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestClose(t *testing.T) {
	m := &mockPoints{}
	m.On("Close").Return(nil).Once()
	s := &Storage{client: m, collection: "recipes"}
	assert.NoError(t, s.Close())
}
