// Package cli implements the corpus command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/config/file"
	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/embedding/ollama"
	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/embedding/openai"
	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/storage/memory"
	"github.com/inkwell-labs/corpus-cli/internal/adapters/driven/storage/sqlite"
	"github.com/inkwell-labs/corpus-cli/internal/core/ports/driven"
	"github.com/inkwell-labs/corpus-cli/internal/core/services"
	"github.com/inkwell-labs/corpus-cli/internal/logger"
	"github.com/inkwell-labs/corpus-cli/internal/readers"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

// Wired collaborators, shared by the commands. Populated lazily by
// setup() so commands like version and help need no API key or store.
var (
	configStore    *file.ConfigStore
	knowledgeStore driven.KnowledgeStore
	embedder       driven.EmbeddingService
	readerRegistry *readers.Registry
	ingestService  *services.IngestService
	retrieval      *services.RetrievalService
)

var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Ingest reference documents and retrieve them by semantic similarity",
	Long: `corpus turns unstructured reference documents (style guides, example
posts, knowledge-base articles, feedback notes) into a searchable
knowledge store. Documents are chunked, embedded and persisted; queries
retrieve the most similar chunks for downstream prompt assembly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
		// A missing .env is fine; explicit environment wins anyway.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config", "", "config directory (default ~/.corpus)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.corpus/data)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup wires the adapters once. Commands that touch the store or the
// embedding provider call it at the top of their RunE.
func setup() error {
	if ingestService != nil {
		return nil
	}

	var err error
	configStore, err = file.NewConfigStore(flagConfigDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	knowledgeStore, err = buildStore(configStore)
	if err != nil {
		return err
	}

	embedder, err = buildEmbedder(configStore)
	if err != nil {
		return err
	}

	readerRegistry = readers.NewDefaultRegistry()
	ingestService = services.NewIngestService(readerRegistry, embedder, knowledgeStore)
	retrieval = services.NewRetrievalService(embedder, knowledgeStore)

	logger.Debug("wired %s embedder (%s) over %s store",
		configStore.GetString("embedding.provider"), embedder.ModelName(),
		storeBackend(configStore))
	return nil
}

func storeBackend(cfg driven.ConfigStore) string {
	backend := cfg.GetString("store.backend")
	if backend == "" {
		backend = "sqlite"
	}
	return backend
}

func buildStore(cfg driven.ConfigStore) (driven.KnowledgeStore, error) {
	switch backend := storeBackend(cfg); backend {
	case "sqlite":
		store, err := sqlite.NewStore(flagDataDir)
		if err != nil {
			return nil, fmt.Errorf("opening knowledge store: %w", err)
		}
		return store, nil
	case "memory":
		return memory.NewKnowledgeStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite or memory)", backend)
	}
}

func buildEmbedder(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			apiKey = cfg.GetString("embedding.api_key")
		}
		return openai.NewEmbeddingService(openai.Config{
			APIKey:            apiKey,
			BaseURL:           cfg.GetString("embedding.base_url"),
			Model:             cfg.GetString("embedding.model"),
			Dimensions:        cfg.GetInt("embedding.dimensions"),
			BatchSize:         cfg.GetInt("embedding.batch_size"),
			RequestsPerMinute: cfg.GetInt("embedding.requests_per_minute"),
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want openai or ollama)", provider)
	}
}
