package domain

import "context"

// Embedder converts text into fixed-dimension vectors.
// Embed preserves input order and returns one vector per text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	EmbedOne(ctx context.Context, text string) (Vector, error)
	Dimension() int
}

// VectorStore persists records in a single named collection and supports
// nearest-neighbour search.
type VectorStore interface {
	// Collection returns the name of the collection the store is bound to.
	Collection() string
	// EnsureCollection creates the collection if it does not exist yet.
	// An existing collection is never dropped or migrated.
	EnsureCollection(ctx context.Context, dimension int, distance Distance) (created bool, err error)
	// Upsert writes all records in one call, overwriting records with the same id.
	Upsert(ctx context.Context, records []StoredRecord) error
	// Search returns at most k records ordered by descending score.
	Search(ctx context.Context, vector Vector, k int) ([]SearchResult, error)
}

// Generator sends a prompt to a text-generation model.
// Failures are reported inside the returned text, never as an error.
type Generator interface {
	Generate(ctx context.Context, prompt string) string
}

// Pipeline is the query-side surface used by the interactive front ends.
type Pipeline interface {
	Query(ctx context.Context, question string) (Answer, error)
}
