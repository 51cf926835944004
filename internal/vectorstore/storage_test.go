package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reciperag/internal/domain"
)

func TestPayloadMap(t *testing.T) {
	p := domain.Payload{RecipeName: "Fry eggs...", Directions: "Fry eggs with butter."}
	m := PayloadMap(p)
	assert.Equal(t, "Fry eggs...", m["recipe_name"])
	assert.Equal(t, "Fry eggs with butter.", m["directions"])
	assert.Equal(t, p, PayloadFromMap(m))
}

func TestPayloadFromMap_Missing(t *testing.T) {
	p := PayloadFromMap(map[string]any{"directions": 42})
	assert.Equal(t, UnknownRecipe, p.RecipeName)
	assert.Empty(t, p.Directions)
}

func TestParseDistance(t *testing.T) {
	cases := map[string]domain.Distance{
		"":          domain.DistanceCosine,
		"cosine":    domain.DistanceCosine,
		" Cosine ":  domain.DistanceCosine,
		"dot":       domain.DistanceDot,
		"euclid":    domain.DistanceEuclid,
		"Euclidean": domain.DistanceEuclid,
	}
	for in, want := range cases {
		got, err := ParseDistance(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDistance("hamming")
	assert.ErrorIs(t, err, domain.ErrUnsupportedDistance)
}
