package config

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          "gpt-4o",
		EmbeddingModel: "text-embedding-3-small",
		DataDir:        "data",
		Port:           8090,
		CatalogURL:     "http://localhost:8000",
		HistoryWindow:  3,
		RequestsPerMin: 60,
	}
}
