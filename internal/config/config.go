package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"reciperag/internal/domain"
)

// CorpusConfig points at the line-oriented recipe dataset.
type CorpusConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL        string `yaml:"base_url" validate:"omitempty,url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	Model          string `yaml:"model"`
	TimeoutSecs    int    `yaml:"timeout_secs" validate:"gte=0"`
	BatchSize      int    `yaml:"batch_size" validate:"gte=0"`
	SendDimensions bool   `yaml:"send_dimensions"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type" validate:"oneof=hash openai"`
	Dimension int                   `yaml:"dimension" validate:"gt=0"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty" validate:"required_if=Type openai"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type   string       `yaml:"type" validate:"oneof=qdrant qdrant_grpc memory"`
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
// URL is used by the REST backend, Host and Port by the gRPC one.
type QdrantConfig struct {
	URL         string `yaml:"url" validate:"omitempty,url"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port" validate:"gte=0,lte=65535"`
	APIKey      string `yaml:"api_key"`
	UseTLS      bool   `yaml:"use_tls"`
	Collection  string `yaml:"collection" validate:"required"`
	Distance    string `yaml:"distance" validate:"omitempty,oneof=cosine dot euclid euclidean Cosine Dot Euclid"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// GeminiConfig configures the hosted generation model.
type GeminiConfig struct {
	BaseURL     string `yaml:"base_url" validate:"omitempty,url"`
	Model       string `yaml:"model"`
	APIKeyEnv   string `yaml:"api_key_env" validate:"required"`
	TimeoutSecs int    `yaml:"timeout_secs" validate:"gte=0"`
}

// GeneratorConfig selects the text generator.
type GeneratorConfig struct {
	Type   string       `yaml:"type" validate:"oneof=gemini"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// RetrievalConfig controls search depth and prompt size.
type RetrievalConfig struct {
	TopK              int    `yaml:"top_k" validate:"gte=1"`
	MaxContextRecords int    `yaml:"max_context_records" validate:"gte=0"`
	MaxContextChars   int    `yaml:"max_context_chars" validate:"gte=0"`
	Language          string `yaml:"language"`
}

// HistoryConfig enables the local query log.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Corpus      CorpusConfig      `yaml:"corpus"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	History     HistoryConfig     `yaml:"history"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints after defaults have been applied.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s fails %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// ${VAR} references are expanded from the environment before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*AppConfig, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/reciperag/config.yaml.
// If neither exists, it writes defaults to ~/.config/reciperag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "reciperag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Corpus:      CorpusConfig{Path: "recipes_final.txt"},
		Embedder:    EmbedderConfig{Type: "hash", Dimension: domain.DefaultDimension},
		VectorStore: VectorStoreConfig{Type: "qdrant"},
		Generator:   GeneratorConfig{Type: "gemini"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "recipes_final.txt"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = domain.DefaultDimension
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "http://localhost:8080/v1"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "sentence-transformers/all-MiniLM-L6-v2"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 64
		}
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "qdrant"
	}
	q := &cfg.VectorStore.Qdrant
	if q.URL == "" {
		q.URL = "http://localhost:6333"
	}
	if q.Host == "" {
		q.Host = "localhost"
	}
	if q.Port == 0 {
		q.Port = 6334
	}
	if q.Collection == "" {
		q.Collection = "recipes"
	}
	if q.Distance == "" {
		q.Distance = "cosine"
	}

	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "gemini"
	}
	if cfg.Generator.Gemini.APIKeyEnv == "" {
		cfg.Generator.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Generator.Gemini.Model == "" {
		cfg.Generator.Gemini.Model = "gemini-2.0-flash"
	}

	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = domain.DefaultTopK
	}
	if cfg.Retrieval.Language == "" {
		cfg.Retrieval.Language = "Indonesian"
	}

	if cfg.History.Path == "" {
		cfg.History.Path = "reciperag_history.db"
	}
}
