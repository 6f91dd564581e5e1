// Command knowvault is a thin CLI wrapper around the knowledge store: it
// wires flags and arguments to KnowledgeStore/VersionStore calls and
// prints JSON. No business logic lives here.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"knowvault/internal/config"
	"knowvault/internal/embedding"
	"knowvault/internal/knowledge"
	"knowvault/internal/logging"
	"knowvault/internal/store"
	"knowvault/internal/version"
)

var (
	verbose           bool
	baseDir           string
	sqlitePath        string
	embeddingProvider string
	logLevel          string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "knowvault",
	Short: "A local-first, file-backed knowledge store for agents",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		resolvedBase := baseDir
		if resolvedBase == "" {
			resolvedBase, _ = os.Getwd()
		}
		if abs, err := filepath.Abs(resolvedBase); err == nil {
			resolvedBase = abs
		}
		baseDir = resolvedBase

		if err := logging.Initialize(baseDir); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		cfg = config.DefaultConfig()
		cfg.Store.BaseDir = baseDir
		if sqlitePath != "" {
			cfg.Store.SqlitePath = sqlitePath
		}
		if embeddingProvider != "" {
			cfg.Embedding.Provider = embeddingProvider
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose diagnostics")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "knowledge store root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "path to the SQLite index (default: <base-dir>/.index/search.sqlite)")
	rootCmd.PersistentFlags().StringVar(&embeddingProvider, "embedding-provider", "", "embedding provider: ollama or genai")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override")

	rootCmd.AddCommand(
		noteCmd,
		searchCmd,
		readCmd,
		updateCmd,
		forgetCmd,
		commitCmd,
		connectCmd,
		traverseCmd,
		rebuildCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// openStore wires a KnowledgeStore from the resolved config: the
// SqliteIndex, the VersionStore (best-effort — a missing git binary
// degrades to nil, not a hard failure), and the configured embedder.
func openStore(ctx context.Context) (*knowledge.Store, func(), error) {
	sqlitePath := cfg.Store.SqlitePath
	if !filepath.IsAbs(sqlitePath) {
		sqlitePath = filepath.Join(cfg.Store.BaseDir, sqlitePath)
	}

	idx, err := store.Open(sqlitePath, cfg.Store.EmbeddingDim)
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}

	var vcs *version.Store
	if cfg.Store.VersionedGit {
		vcs, err = version.Open(ctx, cfg.Store.BaseDir)
		if err != nil {
			logging.GitWarn("versioning disabled: %v", err)
			vcs = nil
		}
	}

	embedder, err := newEmbedder(ctx)
	if err != nil {
		idx.Close()
		return nil, nil, err
	}

	searchOpts := store.SearchOptions{
		Limit:         cfg.Search.Limit,
		MinScore:      cfg.Search.MinScore,
		WeightFts:     cfg.Search.WeightFts,
		WeightVector:  cfg.Search.WeightVector,
		WeightRecency: cfg.Search.WeightRecency,
		RrfK:          cfg.Search.RrfK,
	}

	s := knowledge.Open(cfg.Store.BaseDir, idx, vcs, embedder, searchOpts)
	cleanup := func() { idx.Close() }
	return s, cleanup, nil
}

func newEmbedder(ctx context.Context) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "genai":
		engine, err := embedding.NewGenAIEngine(cfg.Embedding.GenAIAPIKey, cfg.Embedding.GenAIModel, "")
		if err != nil {
			return nil, fmt.Errorf("init genai embedder: %w", err)
		}
		return embedding.NewEmbedder(engine), nil
	default:
		engine, err := embedding.NewOllamaEngine(cfg.Embedding.OllamaEndpoint, cfg.Embedding.OllamaModel)
		if err != nil {
			return nil, fmt.Errorf("init ollama embedder: %w", err)
		}
		return embedding.NewEmbedder(engine), nil
	}
}

func commandTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
