package rules

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

func sampleDataset() *entities.Dataset {
	return &entities.Dataset{
		Clients: []entities.Client{{ClientID: "C1", GroupTag: "Enterprise"}},
		Workers: []entities.Worker{
			{WorkerID: "W1", WorkerGroup: "Sales"},
			{WorkerID: "W2", WorkerGroup: "Ops"},
		},
		Tasks: []entities.Task{{TaskID: "T1"}, {TaskID: "T2"}, {TaskID: "T3"}},
	}
}

func TestRuleJSONRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []BusinessRule{
		{ID: "r1", Name: "pair", IsActive: true, Spec: CoRun{TaskIDs: []string{"T1", "T2"}}},
		{ID: "r2", Name: "slots", Spec: SlotRestriction{GroupType: GroupTypeWorker, GroupName: "Sales", MinCommonSlots: 2}},
		{ID: "r3", Name: "cap", Description: "sales cap", IsActive: true, Spec: LoadLimit{WorkerGroup: "Sales", MaxSlotsPerPhase: 3}},
		{ID: "r4", Name: "window", IsActive: true, Spec: PhaseWindow{TaskID: "T1", AllowedPhases: []int{1, 2}}},
		{ID: "r5", Name: "pattern", IsActive: true, Spec: PatternMatch{Regex: "^T1", Template: "coRun", Parameters: map[string]any{"k": "v"}}},
		{ID: "r6", Name: "override", IsActive: true, Spec: PrecedenceOverride{RuleIDs: []string{"r1"}, OverrideType: OverrideGlobal, Priority: 5}},
	}
	for _, r := range tests {
		r.CreatedAt = created
		r.UpdatedAt = created.Add(time.Minute)
		t.Run(string(r.Type()), func(t *testing.T) {
			data, err := json.Marshal(r)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got BusinessRule
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if !got.CreatedAt.Equal(r.CreatedAt) || !got.UpdatedAt.Equal(r.UpdatedAt) {
				t.Errorf("timestamps = %v/%v, want %v/%v", got.CreatedAt, got.UpdatedAt, r.CreatedAt, r.UpdatedAt)
			}
			got.CreatedAt, got.UpdatedAt = r.CreatedAt, r.UpdatedAt
			if !reflect.DeepEqual(got, r) {
				t.Errorf("round trip = %+v, want %+v", got, r)
			}
		})
	}
}

func TestRuleJSONIsFlat(t *testing.T) {
	r := BusinessRule{
		ID:        "r1",
		Name:      "cap",
		IsActive:  true,
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Spec:      LoadLimit{WorkerGroup: "Sales", MaxSlotsPerPhase: 3},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if fields["type"] != "loadLimit" || fields["workerGroup"] != "Sales" || fields["maxSlotsPerPhase"] != float64(3) {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["createdAt"] != "2025-01-02T03:04:05Z" {
		t.Errorf("createdAt = %v", fields["createdAt"])
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var r BusinessRule
	err := json.Unmarshal([]byte(`{"id":"x","type":"teleport","name":"n"}`), &r)
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType("phaseWindow"); err != nil || got != TypePhaseWindow {
		t.Errorf("ParseType(phaseWindow) = %v, %v", got, err)
	}
	if _, err := ParseType("PhaseWindow"); err == nil {
		t.Error("type tags are case-sensitive")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := BusinessRule{ID: "r1", Spec: CoRun{TaskIDs: []string{"T1", "T2"}}}
	c := r.Clone()
	c.Spec.(CoRun).TaskIDs[0] = "T9"
	if r.Spec.(CoRun).TaskIDs[0] != "T1" {
		t.Error("clone shares task slice with original")
	}
}

func TestActiveAndCount(t *testing.T) {
	all := []BusinessRule{
		{ID: "a", IsActive: true, Spec: CoRun{}},
		{ID: "b", IsActive: false, Spec: CoRun{}},
		{ID: "c", IsActive: true, Spec: LoadLimit{}},
	}
	if got := Active(all); len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Active = %+v", got)
	}
	counts := CountByType(all)
	if counts[TypeCoRun] != 2 || counts[TypeLoadLimit] != 1 {
		t.Errorf("CountByType = %v", counts)
	}
}

func fieldsOf(errs []FieldError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	ds := sampleDataset()
	tests := []struct {
		name   string
		rule   BusinessRule
		ds     *entities.Dataset
		fields []string
	}{
		{"valid coRun", BusinessRule{Name: "n", Spec: CoRun{TaskIDs: []string{"T1", "T2"}}}, ds, nil},
		{"missing name and type", BusinessRule{}, nil, []string{"name", "type"}},
		{"coRun too short and unknown", BusinessRule{Name: "n", Spec: CoRun{TaskIDs: []string{"T9"}}}, ds, []string{"taskIds"}},
		{"coRun unknown ignored without data", BusinessRule{Name: "n", Spec: CoRun{TaskIDs: []string{"X1", "X2"}}}, nil, nil},
		{"loadLimit bad", BusinessRule{Name: "n", Spec: LoadLimit{WorkerGroup: "Legal", MaxSlotsPerPhase: 0}}, ds, []string{"workerGroup", "maxSlotsPerPhase"}},
		{"phaseWindow range", BusinessRule{Name: "n", Spec: PhaseWindow{TaskID: "T1", AllowedPhases: []int{0, 6}}}, ds, []string{"allowedPhases"}},
		{"phaseWindow empty", BusinessRule{Name: "n", Spec: PhaseWindow{TaskID: "T9"}}, ds, []string{"taskId", "allowedPhases"}},
		{"pattern bad regex", BusinessRule{Name: "n", Spec: PatternMatch{Regex: "(["}}, nil, []string{"regex"}},
		{"slot bad", BusinessRule{Name: "n", Spec: SlotRestriction{GroupType: "team"}}, ds, []string{"groupType", "groupName", "minCommonSlots"}},
		{"slot unknown client group", BusinessRule{Name: "n", Spec: SlotRestriction{GroupType: GroupTypeClient, GroupName: "SMB", MinCommonSlots: 1}}, ds, []string{"groupName"}},
		{"override bad", BusinessRule{Name: "n", Spec: PrecedenceOverride{OverrideType: "some", Priority: 11}}, nil, []string{"ruleIds", "overrideType", "priority"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fieldsOf(Validate(tt.rule, tt.ds))
			if !reflect.DeepEqual(got, tt.fields) {
				t.Errorf("fields = %v, want %v", got, tt.fields)
			}
		})
	}
}

func TestValidateAccumulatesPerField(t *testing.T) {
	r := BusinessRule{Name: "n", Spec: CoRun{TaskIDs: []string{"T9", "T9", ""}}}
	errs := Validate(r, sampleDataset())
	if len(errs) != 1 {
		t.Fatalf("expected one field entry, got %+v", errs)
	}
	// unknown T9 twice, duplicate T9, empty id
	if len(errs[0].Errors) != 4 {
		t.Errorf("errors = %v", errs[0].Errors)
	}
	if !strings.Contains(errs[0].String(), "taskIds:") {
		t.Errorf("String() = %q", errs[0].String())
	}
}
