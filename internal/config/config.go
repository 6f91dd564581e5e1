package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"knowvault/internal/logging"
)

// Config is the top-level configuration for a knowledge store instance.
type Config struct {
	Store       StoreConfig       `yaml:"store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Search      SearchConfig      `yaml:"search"`
	Logging     LoggingConfig     `yaml:"logging"`
	Consolidate ConsolidatorConfig `yaml:"consolidate"`
}

// StoreConfig locates the file tree and the derived SQLite index.
type StoreConfig struct {
	BaseDir       string `yaml:"base_dir"`
	SqlitePath    string `yaml:"sqlite_path"`
	EmbeddingDim  int    `yaml:"embedding_dim"`
	VersionedGit  bool   `yaml:"versioned_git"`
}

// DefaultConfig returns the defaults named throughout the design: an
// Ollama-backed embedding provider, the hybrid search weights from the
// fusion algorithm, and debug-off logging.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			BaseDir:      ".",
			SqlitePath:   ".index/search.sqlite",
			EmbeddingDim: 768,
			VersionedGit: true,
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			Timeout:        "30s",
		},
		Search:      DefaultSearchConfig(),
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			DebugMode: false,
		},
		Consolidate: DefaultConsolidatorConfig(),
	}
}

// LoadConfig overlays a YAML file onto the defaults; a missing file is not
// an error (new stores start from defaults). Environment variables are
// applied last, so they always win over both the file and the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Boot("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Boot("config loaded from %s (embedding provider=%s)", path, cfg.Embedding.Provider)
	return cfg, nil
}

// Save writes the configuration back to a YAML file, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides follows env > file > default precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KNOWVAULT_BASE_DIR"); v != "" {
		c.Store.BaseDir = v
	}
	if v := os.Getenv("KNOWVAULT_SQLITE_PATH"); v != "" {
		c.Store.SqlitePath = v
	}
	if v := os.Getenv("KNOWVAULT_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.Embedding.OllamaEndpoint = v
	}
	if v := os.Getenv("OLLAMA_EMBEDDING_MODEL"); v != "" {
		c.Embedding.OllamaModel = v
	}
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		c.Embedding.GenAIAPIKey = v
		if c.Embedding.Provider == "" || c.Embedding.Provider == "ollama" {
			c.Embedding.Provider = "genai"
		}
	}
	if v := os.Getenv("KNOWVAULT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// EmbeddingTimeout returns the configured embedding-call timeout,
// defaulting to 30s on an unparseable or empty value.
func (c *Config) EmbeddingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embedding.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// Validate checks the minimal set of invariants a running store needs.
func (c *Config) Validate() error {
	if c.Store.BaseDir == "" {
		return fmt.Errorf("store.base_dir must be set")
	}
	if c.Store.EmbeddingDim <= 0 {
		return fmt.Errorf("store.embedding_dim must be positive")
	}
	switch c.Embedding.Provider {
	case "ollama", "genai":
	default:
		return fmt.Errorf("invalid embedding provider: %s (valid: ollama, genai)", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "genai" && c.Embedding.GenAIAPIKey == "" {
		return fmt.Errorf("embedding provider genai requires GENAI_API_KEY")
	}
	return nil
}
