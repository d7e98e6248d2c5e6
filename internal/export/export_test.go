package export

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

func sampleDataset() *entities.Dataset {
	return &entities.Dataset{
		Clients: []entities.Client{
			{ClientID: "C1", ClientName: "Acme, Inc", PriorityLevel: 3, RequestedTaskIDs: "T1,T2", GroupTag: "GroupA", AttributesJSON: `{"location":"NY"}`},
		},
		Workers: []entities.Worker{
			{WorkerID: "W1", WorkerName: "Ann", Skills: "excel,sql", AvailableSlots: "[1,3]", MaxLoadPerPhase: 2, WorkerGroup: "Sales", QualificationLevel: 4},
		},
		Tasks: []entities.Task{
			{TaskID: "T1", TaskName: "Report", Category: "ETL", Duration: 2, RequiredSkills: "excel", PreferredPhases: "1-3", MaxConcurrent: 1},
			{TaskID: "T2", TaskName: "Audit", Category: "QA", Duration: 1, RequiredSkills: "sql", PreferredPhases: "2,4", MaxConcurrent: 2},
		},
	}
}

func rule(id string, active bool, spec rules.Spec) rules.BusinessRule {
	return rules.BusinessRule{ID: id, Name: id, IsActive: active, Spec: spec}
}

func sampleInput() Input {
	return Input{
		Dataset: sampleDataset(),
		Rules: []rules.BusinessRule{
			rule("r1", true, rules.CoRun{TaskIDs: []string{"T1", "T2"}}),
			rule("r2", true, rules.LoadLimit{WorkerGroup: "Sales", MaxSlotsPerPhase: 2}),
			rule("r3", false, rules.PhaseWindow{TaskID: "T1", AllowedPhases: []int{1}}),
		},
		Weights: workspace.WeightState{Weights: weights.Default(), Mode: weights.ModeSliders},
		Now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildExportsActiveRules(t *testing.T) {
	doc := Build(sampleInput())

	if doc.Version != FormatVersion {
		t.Errorf("Version = %q", doc.Version)
	}
	if doc.Metadata.TotalRules != 3 || doc.Metadata.ActiveRules != 2 || len(doc.Rules) != 2 {
		t.Errorf("metadata = %+v, rules = %d", doc.Metadata, len(doc.Rules))
	}
	if doc.Metadata.DataSummary != (entities.Summary{Clients: 1, Workers: 1, Tasks: 2}) {
		t.Errorf("DataSummary = %+v", doc.Metadata.DataSummary)
	}
	if !doc.Metadata.GeneratedAt.Equal(sampleInput().Now) {
		t.Errorf("GeneratedAt = %v", doc.Metadata.GeneratedAt)
	}

	want := map[rules.Type]int{rules.TypeCoRun: 1, rules.TypeLoadLimit: 1}
	for _, typ := range rules.Types {
		if doc.Statistics.RulesByType[typ] != want[typ] {
			t.Errorf("RulesByType[%s] = %d, want %d", typ, doc.Statistics.RulesByType[typ], want[typ])
		}
	}
	if len(doc.Statistics.RulesByType) != len(rules.Types) {
		t.Errorf("RulesByType has %d keys, want every type", len(doc.Statistics.RulesByType))
	}
	if cr := doc.Statistics.ConflictResolution; cr.Total != 0 || cr.Blocking || cr.Conflicts == nil {
		t.Errorf("ConflictResolution = %+v", cr)
	}
}

func TestBuildNormalizesWeights(t *testing.T) {
	in := sampleInput()
	in.Weights.Weights = weights.PriorityWeights{Fairness: 10, PriorityLevel: 10, TaskFulfillment: 0, WorkerUtilization: 0, Constraints: 0}

	p := Build(in).Configuration.Prioritization
	if got := p.Weights.Sum(); math.Abs(got-1) > 1e-9 {
		t.Errorf("normalized sum = %v", got)
	}
	if p.UIWeights != in.Weights.Weights {
		t.Errorf("UIWeights = %+v", p.UIWeights)
	}
	if len(p.Criteria) != len(weights.Criteria) {
		t.Fatalf("criteria = %d", len(p.Criteria))
	}
	first := p.Criteria[0]
	if first.Name != weights.Fairness || first.Weight != 0.5 || first.Percentage != 50 || first.Description == "" {
		t.Errorf("criteria[0] = %+v", first)
	}
	if p.AHP != nil {
		t.Error("AHP summary set for slider weights")
	}
}

func TestBuildAHPSummary(t *testing.T) {
	m := weights.NewCriteriaMatrix()
	res := m.Derive()
	in := sampleInput()
	in.Weights = workspace.WeightState{Weights: weights.Default(), Mode: weights.ModeAHP, Matrix: m, AHP: &res}

	p := Build(in).Configuration.Prioritization
	if p.Method != weights.ModeAHP || p.AHP == nil || p.AHP.Consistency != weights.ConsistencyAcceptable {
		t.Errorf("prioritization = %+v", p)
	}
}

func TestBuildReportsBlockingConflicts(t *testing.T) {
	in := sampleInput()
	in.Rules = append(in.Rules, rule("r4", true, rules.CoRun{TaskIDs: []string{"T2", "T1"}}))

	cr := Build(in).Statistics.ConflictResolution
	if cr.Errors != 1 || !cr.Blocking || cr.Conflicts[0].Type != rules.ConflictCircular {
		t.Errorf("ConflictResolution = %+v", cr)
	}
}

func TestWriteRulesShape(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteRules(&buf, Build(sampleInput())); err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"version", "metadata", "rules", "configuration", "statistics"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing %q", key)
		}
	}
	first := raw["rules"].([]any)[0].(map[string]any)
	if first["type"] != "coRun" {
		t.Errorf("rules[0] = %v", first)
	}
}

func TestWriteCSVQuotesAndUnknownKind(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entities.KindClients, sampleDataset()); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != strings.Join(clientHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], `"Acme, Inc"`) || !strings.Contains(lines[1], `"{""location"":""NY""}"`) {
		t.Errorf("row = %q", lines[1])
	}

	if err := WriteCSV(&buf, entities.Kind("projects"), nil); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestWriteBundleRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	ds := sampleDataset()

	written, err := WriteBundle(dir, Build(sampleInput()), ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 5 {
		t.Errorf("written = %v", written)
	}

	reloaded, issues, err := entities.LoadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %+v", issues)
	}
	if !reflect.DeepEqual(reloaded, ds) {
		t.Errorf("reloaded = %+v\nwant %+v", reloaded, ds)
	}

	html, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(html, []byte("<table>")) || !bytes.Contains(html, []byte("No conflicts detected.")) {
		t.Errorf("report missing table or conflict summary:\n%s", html)
	}
}

func TestMarkdownEscapesCells(t *testing.T) {
	in := sampleInput()
	in.Rules[0].Description = "T1 | T2\ntogether"
	md := Markdown(Build(in))
	if !strings.Contains(md, `T1 \| T2 together`) {
		t.Errorf("markdown = %s", md)
	}
}

func TestRoutes(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()
	store := audit.NewStore(database)

	ws := workspace.New()
	ws.SetDataset(sampleDataset())
	if _, err := ws.AddRule("pair", "", rules.CoRun{TaskIDs: []string{"T1", "T2"}}); err != nil {
		t.Fatal(err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, ws, store)

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/api/export/rules.json", http.StatusOK, "application/json", `"activeRules": 1`},
		{"/api/export/tasks.csv", http.StatusOK, "text/csv; charset=utf-8", "TaskID,TaskName"},
		{"/api/export/report.html", http.StatusOK, "text/html; charset=utf-8", "<h1"},
		{"/api/export/projects.csv", http.StatusNotFound, "application/json", "unknown entity"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.status {
				t.Fatalf("status = %d: %s", w.Code, w.Body)
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, w.Body)
			}
		})
	}

	entries, err := store.Query(context.Background(), audit.QueryFilter{Action: audit.ActionExported})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("export audit entries = %d, want 3", len(entries))
	}
}
