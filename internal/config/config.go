// Package config loads and validates .alchemist.yml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/data-alchemist/internal/weights"
)

const envPrefix = "ALCHEMIST_"

// sections are the nested config blocks reachable from the environment, so
// ALCHEMIST_SNAPSHOT_QUIET_PERIOD maps to snapshot.quiet_period.
var sections = []string{"snapshot", "server", "weights"}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ALCHEMIST_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps ALCHEMIST_SERVER_PORT to server.port and ALCHEMIST_AI_TIMEOUT
// to ai_timeout.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range sections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderOllama:    true,
	ProviderNone:      true,
}

var validBackends = map[SnapshotBackend]bool{
	BackendFile:   true,
	BackendSQLite: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of anthropic, openai, ollama, none", c.Provider)
	}
	if c.AIEnabled && c.Provider == ProviderNone {
		return fmt.Errorf("ai_enabled requires a provider")
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("ai_timeout must be positive")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}

	if !validBackends[c.Snapshot.Backend] {
		return fmt.Errorf("invalid snapshot.backend %q: must be file or sqlite", c.Snapshot.Backend)
	}
	if c.Snapshot.Backend == BackendFile && c.Snapshot.Path == "" {
		return fmt.Errorf("snapshot.path is required for the file backend")
	}
	if c.Snapshot.Backend == BackendSQLite && c.DBPath == "" {
		return fmt.Errorf("db_path is required for the sqlite backend")
	}
	if c.Snapshot.AutoSave && c.Snapshot.QuietPeriod <= 0 {
		return fmt.Errorf("snapshot.quiet_period must be positive when autosave is on")
	}
	if c.Snapshot.Keep < 0 {
		return fmt.Errorf("snapshot.keep must be non-negative")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}

	if c.Weights.Preset != "" {
		if _, err := weights.Preset(c.Weights.Preset); err != nil {
			return fmt.Errorf("invalid weights.preset: %w", err)
		}
	}
	return nil
}

// ModelName returns the configured model, or the provider default.
func (c *Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
