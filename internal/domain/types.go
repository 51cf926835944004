package domain

import "errors"

// DefaultDimension is the vector size produced by all-MiniLM-L6-v2.
const DefaultDimension = 384

// DefaultTopK is the number of recipes retrieved per question.
const DefaultTopK = 3

var (
	ErrDimensionMismatch   = errors.New("vector dimension mismatch")
	ErrUnsupportedDistance = errors.New("unsupported distance")
	ErrEmptyCorpusPath     = errors.New("corpus path is empty")
)

// RecipeUnit is one non-empty line of the corpus.
type RecipeUnit struct {
	ID    uint64
	Text  string
	Label string
}

// Vector is a fixed-dimension embedding.
type Vector []float32

// Payload is the data stored next to each vector.
type Payload struct {
	RecipeName string `json:"recipe_name"`
	Directions string `json:"directions"`
}

// StoredRecord is a point in the vector store.
type StoredRecord struct {
	ID      uint64
	Vector  Vector
	Payload Payload
}

// SearchResult is a ranked hit returned by a vector store.
type SearchResult struct {
	ID      uint64
	Score   float64
	Payload Payload
}

// Distance names the similarity metric of a collection.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// Answer is the outcome of a single question.
// Grounded is false when retrieval returned nothing and no generation call was made.
type Answer struct {
	Question string
	Results  []SearchResult
	Prompt   string
	Text     string
	Grounded bool
}
