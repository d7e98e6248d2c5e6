package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ziadkadry99/data-alchemist/internal/assistant"
	"github.com/ziadkadry99/data-alchemist/internal/config"
	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/llm"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/snapshot"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `alchemist init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createParser builds the rule parser. A missing API key or a disabled
// provider leaves the parser on heuristics alone.
func createParser(cfg *config.Config) *assistant.Parser {
	if !cfg.AIEnabled {
		return assistant.NewParser(nil, "", cfg.AITimeout)
	}
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.ModelName())
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			fmt.Fprintf(os.Stderr, "Warning: AI parsing disabled: %v\n", err)
		}
		return assistant.NewParser(nil, "", cfg.AITimeout)
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return assistant.NewParser(provider, cfg.ModelName(), cfg.AITimeout)
}

// snapshotStore returns the configured snapshot backend. database is only
// used by the sqlite backend.
func snapshotStore(cfg *config.Config, database *db.DB) snapshot.Store {
	if cfg.Snapshot.Backend == config.BackendSQLite {
		return snapshot.NewDBStore(database, cfg.Snapshot.Keep)
	}
	return snapshot.NewFileStore(cfg.Snapshot.Path)
}

// openWorkspace restores the saved workspace, falling back to a fresh one
// seeded with the configured preset. Snapshots carry rules and weights only,
// so the CSV files under data_dir are loaded either way.
func openWorkspace(ctx context.Context, cfg *config.Config, store snapshot.Store) (*workspace.Workspace, error) {
	ws := workspace.New()
	restored, err := ws.LoadFrom(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("restoring workspace: %w", err)
	}
	if restored {
		if verbose {
			fmt.Fprintf(os.Stderr, "Restored workspace with %d rule(s)\n", len(ws.Rules()))
		}
	} else if cfg.Weights.Preset != "" {
		if _, err := ws.ApplyPreset(cfg.Weights.Preset); err != nil {
			return nil, err
		}
	}
	if ds := loadDataDir(cfg); ds != nil {
		ws.SetDataset(ds)
	}
	return ws, nil
}

// loadDataDir loads data_dir when it exists. Load failures are reported and
// yield nil.
func loadDataDir(cfg *config.Config) *entities.Dataset {
	info, err := os.Stat(cfg.DataDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	ds, err := loadDataset(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return nil
	}
	return ds
}

// openLocalWorkspace is openWorkspace for one-shot commands; it opens and
// closes the database itself when the sqlite backend is configured.
func openLocalWorkspace(ctx context.Context, cfg *config.Config) (*workspace.Workspace, snapshot.Store, func(), error) {
	var database *db.DB
	cleanup := func() {}
	if cfg.Snapshot.Backend == config.BackendSQLite {
		var err error
		if database, err = db.Open(cfg.DBPath); err != nil {
			return nil, nil, nil, fmt.Errorf("opening database: %w", err)
		}
		cleanup = func() { database.Close() }
	}
	store := snapshotStore(cfg, database)
	ws, err := openWorkspace(ctx, cfg, store)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	return ws, store, cleanup, nil
}

// loadDataset reads a CSV directory or JSON dataset file and reports cells
// that could not be parsed.
func loadDataset(path string) (*entities.Dataset, error) {
	ds, issues, err := entities.Load(path)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "Warning: %s row %d, %s: %s\n", issue.File, issue.Row, issue.Column, issue.Message)
	}
	if verbose {
		s := ds.Summary()
		fmt.Fprintf(os.Stderr, "Loaded %d client(s), %d worker(s), %d task(s) from %s\n", s.Clients, s.Workers, s.Tasks, path)
	}
	return ds, nil
}

// loadRules reads either a bare JSON array of rules or a rules.json export.
func loadRules(path string) ([]rules.BusinessRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	var list []rules.BusinessRule
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		err = json.Unmarshal(data, &list)
	} else {
		var doc struct {
			Rules []rules.BusinessRule `json:"rules"`
		}
		err = json.Unmarshal(data, &doc)
		list = doc.Rules
	}
	if err != nil {
		return nil, fmt.Errorf("decoding rules %s: %w", path, err)
	}
	return list, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(header)
	return tw
}
