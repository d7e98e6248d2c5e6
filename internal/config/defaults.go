package config

import "time"

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".alchemist.yml"

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderType]string{
	ProviderAnthropic: "claude-haiku-4-5-20251001",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderOllama:    "llama3",
}

// DefaultModel returns the default model for provider, or "" if it has none.
func DefaultModel(provider ProviderType) string {
	return defaultModels[provider]
}

// DefaultConfig returns a Config with sensible defaults. AI parsing is off
// until a provider is configured.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderNone,
		AIEnabled:         false,
		AITimeout:         10 * time.Second,
		RequestsPerMinute: 30,
		DataDir:           "data",
		DBPath:            ".alchemist/alchemist.db",
		Snapshot: SnapshotConfig{
			Backend:     BackendFile,
			Path:        ".alchemist/workspace.json",
			AutoSave:    true,
			QuietPeriod: 2 * time.Second,
			Keep:        10,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}
