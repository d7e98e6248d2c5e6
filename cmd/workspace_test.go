package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/data-alchemist/internal/config"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/snapshot"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	tasks := "TaskID,TaskName,Category,Duration,RequiredSkills,PreferredPhases,MaxConcurrent\n" +
		"T1,Build,Dev,2,go,1-2,1\n" +
		"T2,Test,QA,1,go,2,1\n"
	if err := os.WriteFile(filepath.Join(dataDir, "tasks.csv"), []byte(tasks), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.Snapshot.Path = filepath.Join(root, "workspace.json")
	return cfg
}

func TestOpenWorkspaceLoadsDataAfterRestore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	store := snapshot.NewFileStore(cfg.Snapshot.Path)

	ws, err := openWorkspace(ctx, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(ws.Dataset().Tasks); n != 2 {
		t.Fatalf("fresh start tasks = %d, want 2", n)
	}
	if _, err := ws.AddRule("pair", "", rules.CoRun{TaskIDs: []string{"T1", "T2"}}); err != nil {
		t.Fatal(err)
	}
	if err := ws.SaveTo(ctx, store); err != nil {
		t.Fatal(err)
	}

	restarted, err := openWorkspace(ctx, cfg, store)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(restarted.Rules()); n != 1 {
		t.Errorf("restored rules = %d, want 1", n)
	}
	if n := len(restarted.Dataset().Tasks); n != 2 {
		t.Errorf("tasks after restart = %d, want 2", n)
	}
}

func TestLoadDataDir(t *testing.T) {
	cfg := testConfig(t)
	if ds := loadDataDir(cfg); ds == nil || len(ds.Tasks) != 2 {
		t.Errorf("loadDataDir = %+v", ds)
	}

	cfg.DataDir = filepath.Join(t.TempDir(), "missing")
	if ds := loadDataDir(cfg); ds != nil {
		t.Errorf("missing data_dir loaded %+v", ds)
	}
}
