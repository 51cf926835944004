package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"reciperag/internal/cli"
	"reciperag/internal/config"
	"reciperag/internal/corpus"
	"reciperag/internal/domain"
	"reciperag/internal/embedding/hashing"
	"reciperag/internal/embedding/openai"
	"reciperag/internal/generation/gemini"
	"reciperag/internal/history"
	"reciperag/internal/prompt"
	"reciperag/internal/service"
	"reciperag/internal/tui"
	"reciperag/internal/vectorstore"
	"reciperag/internal/vectorstore/memory"
	"reciperag/internal/vectorstore/qdrant"
	"reciperag/internal/vectorstore/qdrantgrpc"
)

const tuiLogPath = "reciperag.log"

func main() {
	_ = godotenv.Load()

	var (
		cfgPath    string
		corpusPath string
		useTUI     bool
		skipIngest bool
		watch      bool
		showLast   int
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/reciperag/config.yaml if not provided)")
	flag.StringVar(&corpusPath, "corpus", "", "Recipe dataset, one recipe per line (overrides corpus.path)")
	flag.BoolVar(&useTUI, "tui", false, "Use the full-screen terminal UI instead of the line prompt")
	flag.BoolVar(&skipIngest, "skip-ingest", false, "Query the existing collection without loading the dataset")
	flag.BoolVar(&watch, "watch", false, "Re-ingest the dataset whenever its file changes")
	flag.IntVar(&showLast, "history", 0, "Print the last N recorded questions and exit")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if corpusPath != "" {
		cfg.Corpus.Path = corpusPath
	}

	ctx := context.Background()

	if showLast > 0 {
		if err := printHistory(ctx, os.Stdout, cfg.History.Path, showLast); err != nil {
			log.Fatal(err)
		}
		return
	}

	var rec history.Recorder
	if cfg.History.Enabled {
		sqlRec, err := history.NewSQLiteRecorder(cfg.History.Path)
		if err != nil {
			log.Fatalf("history init failed: %v", err)
		}
		defer sqlRec.Close()
		rec = sqlRec
	}

	apiKey := os.Getenv(cfg.Generator.Gemini.APIKeyEnv)
	if apiKey == "" {
		log.Fatalf("❌ %s is not set.\nAdd it to your .env file like this:\n%s=your_key", cfg.Generator.Gemini.APIKeyEnv, cfg.Generator.Gemini.APIKeyEnv)
	}

	// Assemble components
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "hash", "":
		emb, err = hashing.NewEmbedder(cfg.Embedder.Dimension)
		if err != nil {
			log.Fatalf("hash embedder init failed: %v", err)
		}
	case "openai":
		oc := cfg.Embedder.OpenAI
		emb, err = openai.NewEmbedder(openai.Config{
			BaseURL:        oc.BaseURL,
			APIKeyEnv:      oc.APIKeyEnv,
			Model:          oc.Model,
			Dimension:      cfg.Embedder.Dimension,
			BatchSize:      oc.BatchSize,
			SendDimensions: oc.SendDimensions,
			Timeout:        time.Duration(oc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	qc := cfg.VectorStore.Qdrant
	distance, err := vectorstore.ParseDistance(qc.Distance)
	if err != nil {
		log.Fatalf("vector store: %v", err)
	}
	var st domain.VectorStore
	switch cfg.VectorStore.Type {
	case "qdrant", "":
		st, err = qdrant.NewStorage(qdrant.Config{
			URL:        qc.URL,
			APIKey:     qc.APIKey,
			Collection: qc.Collection,
			Timeout:    time.Duration(qc.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("qdrant init failed: %v", err)
		}
	case "qdrant_grpc":
		gs, err := qdrantgrpc.NewStorage(qdrantgrpc.Config{
			Host:       qc.Host,
			Port:       qc.Port,
			APIKey:     qc.APIKey,
			UseTLS:     qc.UseTLS,
			Collection: qc.Collection,
		})
		if err != nil {
			log.Fatalf("qdrant grpc init failed: %v", err)
		}
		defer gs.Close()
		st = gs
	case "memory":
		st = memory.NewStorage(qc.Collection)
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}

	gen, err := gemini.NewClient(gemini.Config{
		BaseURL: cfg.Generator.Gemini.BaseURL,
		Model:   cfg.Generator.Gemini.Model,
		APIKey:  apiKey,
		Timeout: time.Duration(cfg.Generator.Gemini.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("gemini init failed: %v", err)
	}

	svc, err := service.NewRAGService(service.Options{
		Embedder:  emb,
		Store:     st,
		Generator: gen,
		Assembler: prompt.Assembler{
			Language:        cfg.Retrieval.Language,
			MaxRecords:      cfg.Retrieval.MaxContextRecords,
			MaxContextChars: cfg.Retrieval.MaxContextChars,
		},
		History:  rec,
		TopK:     cfg.Retrieval.TopK,
		Distance: distance,
		Logger:   log.New(os.Stdout, "", 0),
	})
	if err != nil {
		log.Fatalf("pipeline init failed: %v", err)
	}

	summary := fmt.Sprintf("Collection %s (existing data)", st.Collection())
	if !skipIngest {
		report, err := svc.IngestFile(ctx, cfg.Corpus.Path)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		summary = fmt.Sprintf("%d recipes in collection %s", report.Records, st.Collection())
	}
	if useTUI {
		// The alt screen owns stdout from here on.
		logFile, err := redirectLogs(svc, tuiLogPath)
		if err != nil {
			log.Fatalf("tui log: %v", err)
		}
		defer logFile.Close()
	}
	if watch {
		files, err := corpus.Resolve(cfg.Corpus.Path)
		if err != nil {
			log.Fatalf("watch: %v", err)
		}
		go func() {
			err := corpus.Watch(ctx, files, 500*time.Millisecond, func() {
				if _, err := svc.IngestFile(ctx, cfg.Corpus.Path); err != nil {
					log.Printf("⚠️ Re-ingest failed: %v", err)
				}
			})
			if err != nil {
				log.Printf("⚠️ %v", err)
			}
		}()
	}

	if useTUI {
		m := tui.New(ctx, svc, summary)
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := cli.NewREPL(svc, os.Stdin, os.Stdout).Run(ctx); err != nil {
		log.Fatal(err)
	}
}
