package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/data-alchemist/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestLogAndGetByID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:            "test-1",
		Actor:         "alice",
		Action:        ActionRuleUpdated,
		Subject:       SubjectRule,
		SubjectID:     "rule-7",
		Summary:       "Renamed rule",
		PreviousValue: `{"name":"old"}`,
		NewValue:      `{"name":"new"}`,
	}
	if err := store.Log(ctx, entry); err != nil {
		t.Fatalf("Log: %v", err)
	}

	got, err := store.GetByID(ctx, "test-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Actor != "alice" || got.Action != ActionRuleUpdated || got.Subject != SubjectRule {
		t.Errorf("got %+v", got)
	}
	if got.SubjectID != "rule-7" {
		t.Errorf("SubjectID = %q, want rule-7", got.SubjectID)
	}
	if got.PreviousValue != `{"name":"old"}` || got.NewValue != `{"name":"new"}` {
		t.Errorf("values = %q / %q", got.PreviousValue, got.NewValue)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not parsed")
	}
}

func TestLogDefaults(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Log(ctx, Entry{Action: ActionDatasetLoaded, Subject: SubjectDataset}); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries, err := store.Query(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID == "" {
		t.Error("expected generated ID")
	}
	if entries[0].Actor != DefaultActor {
		t.Errorf("Actor = %q, want %q", entries[0].Actor, DefaultActor)
	}
}

func TestRecordEncodesValues(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	store.Record(ctx, ActionWeightsChanged, SubjectWeights, "", "ranking applied",
		map[string]float64{"fairness": 5}, map[string]float64{"fairness": 10})

	entries, err := store.Query(ctx, QueryFilter{Subject: SubjectWeights})
	if err != nil || len(entries) != 1 {
		t.Fatalf("Query = %v, %v", entries, err)
	}
	if entries[0].PreviousValue != `{"fairness":5}` || entries[0].NewValue != `{"fairness":10}` {
		t.Errorf("values = %q / %q", entries[0].PreviousValue, entries[0].NewValue)
	}

	store.Record(ctx, ActionRuleDeleted, SubjectRule, "r1", "deleted", map[string]string{"id": "r1"}, nil)
	entries, _ = store.Query(ctx, QueryFilter{SubjectID: "r1"})
	if len(entries) != 1 || entries[0].NewValue != "" {
		t.Errorf("deleted entry = %+v", entries)
	}
}

func TestQueryFilters(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{Actor: "alice", Action: ActionRuleCreated, Subject: SubjectRule, SubjectID: "r1"},
		{Actor: "bob", Action: ActionRuleToggled, Subject: SubjectRule, SubjectID: "r1"},
		{Actor: "alice", Action: ActionRuleCreated, Subject: SubjectRule, SubjectID: "r2"},
		{Actor: "alice", Action: ActionWeightsChanged, Subject: SubjectWeights},
	}
	for _, e := range seed {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter QueryFilter
		want   int
	}{
		{"all", QueryFilter{}, 4},
		{"actor", QueryFilter{Actor: "alice"}, 3},
		{"action", QueryFilter{Action: ActionRuleCreated}, 2},
		{"subject", QueryFilter{Subject: SubjectRule}, 3},
		{"subject id", QueryFilter{SubjectID: "r1"}, 2},
		{"limit", QueryFilter{Limit: 1}, 1},
		{"offset", QueryFilter{Offset: 3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}
			if len(entries) != tt.want {
				t.Errorf("got %d entries, want %d", len(entries), tt.want)
			}
		})
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	store.Log(ctx, Entry{Action: ActionRuleCreated, Subject: SubjectRule, Timestamp: old})
	store.Log(ctx, Entry{Action: ActionRuleCreated, Subject: SubjectRule})

	n, err := store.DeleteBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Log(ctx, Entry{ID: "a1", Action: ActionRuleCreated, Subject: SubjectRule, SubjectID: "r1"})
	store.Log(ctx, Entry{ID: "a2", Action: ActionExported, Subject: SubjectExport})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	req := httptest.NewRequest(http.MethodGet, "/api/audit/?subject=rule", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var entries []Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != "a1" {
		t.Errorf("entries = %+v", entries)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/audit/missing", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d", w.Code)
	}
}
