package vectorstore

import (
	"fmt"
	"strings"

	"reciperag/internal/domain"
)

const (
	keyRecipeName = "recipe_name"
	keyDirections = "directions"

	// UnknownRecipe is shown when a stored point has no recipe name.
	UnknownRecipe = "Unknown"
)

// PayloadMap converts a payload into the JSON-like map stored with each point.
func PayloadMap(p domain.Payload) map[string]any {
	return map[string]any{
		keyRecipeName: p.RecipeName,
		keyDirections: p.Directions,
	}
}

// PayloadFromMap reads a payload back from a stored point.
func PayloadFromMap(m map[string]any) domain.Payload {
	p := domain.Payload{RecipeName: UnknownRecipe}
	if v, ok := m[keyRecipeName].(string); ok {
		p.RecipeName = v
	}
	if v, ok := m[keyDirections].(string); ok {
		p.Directions = v
	}
	return p
}

// ParseDistance maps a config value such as "cosine" to a Distance.
func ParseDistance(s string) (domain.Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return domain.DistanceCosine, nil
	case "dot":
		return domain.DistanceDot, nil
	case "euclid", "euclidean":
		return domain.DistanceEuclid, nil
	default:
		return "", fmt.Errorf("%q: %w", s, domain.ErrUnsupportedDistance)
	}
}
