package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"reciperag/internal/corpus"
	"reciperag/internal/domain"
	"reciperag/internal/embedding"
	"reciperag/internal/history"
	"reciperag/internal/prompt"
)

// Options holds every collaborator of the pipeline. It is built once at
// startup and nothing in this package keeps process-wide state.
type Options struct {
	Embedder  domain.Embedder
	Store     domain.VectorStore
	Generator domain.Generator
	Assembler prompt.Assembler
	// History is optional.
	History  history.Recorder
	TopK     int
	Distance domain.Distance
	Logger   *log.Logger
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Records           int
	CollectionCreated bool
}

type RAGService struct {
	embedder  domain.Embedder
	store     domain.VectorStore
	generator domain.Generator
	assembler prompt.Assembler
	history   history.Recorder
	topK      int
	distance  domain.Distance
	logger    *log.Logger
}

var _ domain.Pipeline = (*RAGService)(nil)

func NewRAGService(opts Options) (*RAGService, error) {
	if opts.Embedder == nil || opts.Store == nil || opts.Generator == nil {
		return nil, errors.New("embedder, store and generator are required")
	}
	if opts.TopK <= 0 {
		opts.TopK = domain.DefaultTopK
	}
	if opts.Distance == "" {
		opts.Distance = domain.DistanceCosine
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &RAGService{
		embedder:  opts.Embedder,
		store:     opts.Store,
		generator: opts.Generator,
		assembler: opts.Assembler,
		history:   opts.History,
		topK:      opts.TopK,
		distance:  opts.Distance,
		logger:    opts.Logger,
	}, nil
}

// SetLogger replaces the progress logger. It is not safe to call while
// Ingest or Query is running.
func (s *RAGService) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.logger = l
}

// IngestFile loads the corpus at path, which may be a glob pattern, and
// ingests it.
func (s *RAGService) IngestFile(ctx context.Context, path string) (IngestReport, error) {
	s.logger.Println("🔹 Loading dataset...")
	units, files, err := corpus.LoadPattern(path)
	if err != nil {
		return IngestReport{}, err
	}
	s.logger.Printf("📚 Loaded %d recipes/snippets from %d file(s)", len(units), len(files))
	return s.Ingest(ctx, units)
}

// Ingest embeds all units in one batch, makes sure the collection exists and
// upserts every record. Any failure aborts the whole run.
func (s *RAGService) Ingest(ctx context.Context, units []domain.RecipeUnit) (IngestReport, error) {
	texts := make([]string, len(units))
	for i, u := range units {
		texts[i] = u.Text
	}

	s.logger.Println("🔹 Generating embeddings...")
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return IngestReport{}, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(units) {
		return IngestReport{}, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(units))
	}
	if err = embedding.CheckDimension(vectors, s.embedder.Dimension()); err != nil {
		return IngestReport{}, err
	}

	records := make([]domain.StoredRecord, len(units))
	for i, u := range units {
		records[i] = domain.StoredRecord{
			ID:     u.ID,
			Vector: vectors[i],
			Payload: domain.Payload{
				RecipeName: u.Label,
				Directions: u.Text,
			},
		}
	}

	s.logger.Printf("🔹 Setting up collection %s...", s.store.Collection())
	created, err := s.store.EnsureCollection(ctx, s.embedder.Dimension(), s.distance)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ensure collection %s: %w", s.store.Collection(), err)
	}
	if !created {
		s.logger.Println("ℹ️ Collection already exists, skipping creation.")
	}

	s.logger.Println("🔹 Uploading vectors...")
	if err = s.store.Upsert(ctx, records); err != nil {
		return IngestReport{}, fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	s.logger.Printf("✅ %d recipes uploaded to %s", len(records), s.store.Collection())
	return IngestReport{Records: len(records), CollectionCreated: created}, nil
}

// Query answers one question. When retrieval finds nothing the answer is
// returned ungrounded and the generator is not called. Embedding and search
// failures are returned; generation failures are inside Answer.Text.
func (s *RAGService) Query(ctx context.Context, question string) (domain.Answer, error) {
	answer := domain.Answer{Question: question}

	vec, err := s.embedder.EmbedOne(ctx, question)
	if err != nil {
		return answer, fmt.Errorf("embed query: %w", err)
	}
	// A query with no indexable words has nothing to match on.
	if embedding.IsZero(vec) {
		s.logger.Println("ℹ️ Query has no searchable terms.")
		s.record(ctx, answer)
		return answer, nil
	}
	results, err := s.store.Search(ctx, vec, s.topK)
	if err != nil {
		return answer, fmt.Errorf("search: %w", err)
	}
	answer.Results = results

	if len(results) > 0 {
		answer.Prompt = s.assembler.Assemble(results, question)
		answer.Text = s.generator.Generate(ctx, answer.Prompt)
		answer.Grounded = true
	}
	s.record(ctx, answer)
	return answer, nil
}

func (s *RAGService) record(ctx context.Context, answer domain.Answer) {
	if s.history == nil {
		return
	}
	err := s.history.Record(ctx, history.Entry{
		Question: answer.Question,
		Answer:   answer.Text,
		Hits:     len(answer.Results),
		Grounded: answer.Grounded,
	})
	if err != nil {
		s.logger.Printf("⚠️ Error saving history: %v", err)
	}
}
