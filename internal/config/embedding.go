package config

// EmbeddingConfig configures the vector embedding provider. Supports
// Ollama (local-first default) and GenAI (hosted, higher-quality) backends,
// with a single Timeout tunable rather than a tiered timeout hierarchy,
// since this store has no streaming, retry backoff ladder, or rate limiter
// to configure separately.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" json:"provider"` // "ollama" or "genai"

	OllamaEndpoint string `yaml:"ollama_endpoint" json:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model" json:"ollama_model"`

	GenAIAPIKey string `yaml:"genai_api_key" json:"genai_api_key"`
	GenAIModel  string `yaml:"genai_model" json:"genai_model"`

	Timeout string `yaml:"timeout" json:"timeout"`
}
