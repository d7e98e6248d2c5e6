package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
	ProviderNone      ProviderType = "none"
)

// SnapshotBackend selects where workspace snapshots are persisted.
type SnapshotBackend string

const (
	BackendFile   SnapshotBackend = "file"
	BackendSQLite SnapshotBackend = "sqlite"
)

// Config is the top-level configuration, corresponding to .alchemist.yml.
type Config struct {
	Provider          ProviderType   `yaml:"provider" koanf:"provider"`
	Model             string         `yaml:"model" koanf:"model"`
	AIEnabled         bool           `yaml:"ai_enabled" koanf:"ai_enabled"`
	AITimeout         time.Duration  `yaml:"ai_timeout" koanf:"ai_timeout"`
	RequestsPerMinute int            `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	DataDir           string         `yaml:"data_dir" koanf:"data_dir"`
	DBPath            string         `yaml:"db_path" koanf:"db_path"`
	Snapshot          SnapshotConfig `yaml:"snapshot" koanf:"snapshot"`
	Server            ServerConfig   `yaml:"server" koanf:"server"`
	Weights           WeightsConfig  `yaml:"weights" koanf:"weights"`
}

// SnapshotConfig controls workspace persistence.
type SnapshotConfig struct {
	Backend     SnapshotBackend `yaml:"backend" koanf:"backend"`
	Path        string          `yaml:"path" koanf:"path"`
	AutoSave    bool            `yaml:"autosave" koanf:"autosave"`
	QuietPeriod time.Duration   `yaml:"quiet_period" koanf:"quiet_period"`
	Keep        int             `yaml:"keep" koanf:"keep"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// WeightsConfig selects the weights a fresh workspace starts with.
type WeightsConfig struct {
	Preset string `yaml:"preset" koanf:"preset"`
}
