package config

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level apiscout configuration, corresponding to .apiscout.yml.
type Config struct {
	Provider       ProviderType `yaml:"provider" koanf:"provider"`
	Model          string       `yaml:"model" koanf:"model"`
	EmbeddingModel string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir        string       `yaml:"data_dir" koanf:"data_dir"`
	Port           int          `yaml:"port" koanf:"port"`
	CatalogURL     string       `yaml:"catalog_url" koanf:"catalog_url"`
	CatalogKey     string       `yaml:"catalog_key" koanf:"catalog_key"`
	HistoryWindow  int          `yaml:"history_window" koanf:"history_window"`
	RequestsPerMin int          `yaml:"requests_per_min" koanf:"requests_per_min"`
	AllowAllCORS   bool         `yaml:"allow_all_cors" koanf:"allow_all_cors"`
}
