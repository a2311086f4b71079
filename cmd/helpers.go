package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/apiscout/apiscout/internal/catalog"
	"github.com/apiscout/apiscout/internal/config"
	"github.com/apiscout/apiscout/internal/conversation"
	"github.com/apiscout/apiscout/internal/db"
	"github.com/apiscout/apiscout/internal/description"
	"github.com/apiscout/apiscout/internal/docs"
	"github.com/apiscout/apiscout/internal/embeddings"
	"github.com/apiscout/apiscout/internal/llm"
	"github.com/apiscout/apiscout/internal/orchestrator"
	"github.com/apiscout/apiscout/internal/settings"
)

// pipeline holds the wired-up collaborators shared by the serve and mcp
// commands.
type pipeline struct {
	cfg           *config.Config
	db            *db.DB
	orchestrator  *orchestrator.Orchestrator
	descriptions  *description.Generator
	catalog       catalog.Fetcher
	settings      *settings.Settings
	conversations *conversation.Store
	docsStore     *docs.Store
	docsIndex     *docs.Index
}

func (p *pipeline) Close() {
	p.db.Close()
}

// buildPipeline loads config and wires every pipeline stage together.
func buildPipeline() (*pipeline, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "apiscout.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	cfgStore := settings.New(settings.NewStore(database))
	conversations := conversation.NewStore(database)
	docsStore := docs.NewStore(database)
	fetcher := catalog.NewClient(cfg.CatalogURL, cfg.CatalogKey)

	// Docs search is best-effort: without an embedder the docs route still
	// answers, just without a retrieved section.
	docsIndex := createDocsIndex(cfg, docsStore)

	orch := orchestrator.New(orchestrator.Config{
		Provider:      provider,
		Model:         cfg.Model,
		Catalog:       fetcher,
		Conversations: conversations,
		Settings:      cfgStore,
		DocsIndex:     docsIndex,
		HistoryWindow: cfg.HistoryWindow,
	})

	return &pipeline{
		cfg:           cfg,
		db:            database,
		orchestrator:  orch,
		descriptions:  description.NewGenerator(provider, cfg.Model),
		catalog:       fetcher,
		settings:      cfgStore,
		conversations: conversations,
		docsStore:     docsStore,
		docsIndex:     docsIndex,
	}, nil
}

// createLLMProviderFromConfig creates the configured provider, wrapped with
// rate limiting when requests_per_min is set.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMin > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMin)
	}
	return provider, nil
}

// createEmbedderFromConfig creates an embedder matching the configured provider.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	apiKey := ""
	if name := config.APIKeyEnvVar(cfg.Provider); name != "" {
		apiKey = os.Getenv(name)
	}
	return embeddings.NewEmbedder(string(cfg.Provider), cfg.EmbeddingModel, apiKey)
}

// createDocsIndex builds the docs vector index and fills it from the store.
// Any failure is reported on stderr and the index is skipped.
func createDocsIndex(cfg *config.Config, store *docs.Store) *docs.Index {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: docs search disabled: %v\n", err)
		return nil
	}

	index, err := docs.NewIndex(embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: docs search disabled: %v\n", err)
		return nil
	}

	ctx := context.Background()
	sections, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: listing doc sections: %v\n", err)
		return index
	}
	if err := index.Reindex(ctx, sections); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: indexing doc sections: %v\n", err)
	}
	return index
}
