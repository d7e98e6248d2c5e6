package rules

import (
	"reflect"
	"testing"
)

func coRun(id string, tasks ...string) BusinessRule {
	return BusinessRule{ID: id, Name: id, IsActive: true, Spec: CoRun{TaskIDs: tasks}}
}

func loadLimit(id, group string, cap int) BusinessRule {
	return BusinessRule{ID: id, Name: id, IsActive: true, Spec: LoadLimit{WorkerGroup: group, MaxSlotsPerPhase: cap}}
}

func phaseWindow(id, task string, phases ...int) BusinessRule {
	return BusinessRule{ID: id, Name: id, IsActive: true, Spec: PhaseWindow{TaskID: task, AllowedPhases: phases}}
}

func TestDetectConflictsEmpty(t *testing.T) {
	got := DetectConflicts(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("DetectConflicts(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestDetectConflictsReversedPair(t *testing.T) {
	got := DetectConflicts([]BusinessRule{coRun("r1", "T1", "T2"), coRun("r2", "T2", "T1")})
	if len(got) != 1 {
		t.Fatalf("expected exactly one conflict, got %+v", got)
	}
	c := got[0]
	if c.Type != ConflictCircular || c.Severity != SeverityError {
		t.Errorf("conflict = %+v", c)
	}
	if !reflect.DeepEqual(c.RuleIDs, []string{"r1", "r2"}) {
		t.Errorf("RuleIDs = %v", c.RuleIDs)
	}
}

func TestDetectConflictsSingleCoRunIsClean(t *testing.T) {
	if got := DetectConflicts([]BusinessRule{coRun("r1", "T1", "T2", "T3")}); len(got) != 0 {
		t.Errorf("single rule produced conflicts: %+v", got)
	}
}

func TestDetectConflictsDisjointCoRuns(t *testing.T) {
	got := DetectConflicts([]BusinessRule{coRun("r1", "T1", "T2"), coRun("r2", "T2", "T3")})
	if len(got) != 0 {
		t.Errorf("rules sharing one task should not conflict: %+v", got)
	}
}

// Cycles longer than two tasks are reported in addition to the direct
// pairwise overlaps.
func TestDetectConflictsThreeCycle(t *testing.T) {
	got := DetectConflicts([]BusinessRule{
		coRun("r1", "T1", "T2"),
		coRun("r2", "T2", "T3"),
		coRun("r3", "T3", "T1"),
	})
	if len(got) != 1 {
		t.Fatalf("expected one cycle conflict, got %+v", got)
	}
	if got[0].Type != ConflictCircular || !reflect.DeepEqual(got[0].RuleIDs, []string{"r1", "r2", "r3"}) {
		t.Errorf("conflict = %+v", got[0])
	}
}

// Co-run rules have no direction, so listing a rule's tasks in any order
// must give the same cycle.
func TestDetectConflictsCycleIgnoresTaskOrder(t *testing.T) {
	orders := [][3][2]string{
		{{"A", "B"}, {"B", "C"}, {"C", "A"}},
		{{"A", "B"}, {"C", "B"}, {"C", "A"}},
		{{"B", "A"}, {"C", "B"}, {"A", "C"}},
		{{"B", "A"}, {"B", "C"}, {"A", "C"}},
	}
	for _, o := range orders {
		got := DetectConflicts([]BusinessRule{
			coRun("r1", o[0][0], o[0][1]),
			coRun("r2", o[1][0], o[1][1]),
			coRun("r3", o[2][0], o[2][1]),
		})
		if len(got) != 1 || got[0].ID != "circular:r1+r2+r3" {
			t.Errorf("order %v: conflicts = %+v", o, got)
		}
	}
}

func TestDetectConflictsFourCycleWithLongerRule(t *testing.T) {
	got := DetectConflicts([]BusinessRule{
		coRun("r1", "T1", "T2", "T5"),
		coRun("r2", "T3", "T2"),
		coRun("r3", "T3", "T4"),
		coRun("r4", "T1", "T4"),
	})
	if len(got) != 1 || !reflect.DeepEqual(got[0].RuleIDs, []string{"r1", "r2", "r3", "r4"}) {
		t.Errorf("conflicts = %+v", got)
	}
}

func TestDetectConflictsTaskIDCase(t *testing.T) {
	got := DetectConflicts([]BusinessRule{coRun("r1", "T1", "T2"), coRun("r2", " t2", "t1")})
	if len(got) != 1 || got[0].Type != ConflictCircular {
		t.Errorf("co-run conflicts = %+v", got)
	}

	got = DetectConflicts([]BusinessRule{phaseWindow("a", "T1", 1), phaseWindow("b", "t1", 4)})
	if len(got) != 1 || got[0].Type != ConflictContradictory {
		t.Errorf("phase window conflicts = %+v", got)
	}
}

func TestDetectConflictsIgnoresInactive(t *testing.T) {
	r2 := coRun("r2", "T2", "T1")
	r2.IsActive = false
	if got := DetectConflicts([]BusinessRule{coRun("r1", "T1", "T2"), r2}); len(got) != 0 {
		t.Errorf("inactive rule participated: %+v", got)
	}
}

func TestDetectConflictsLoadLimits(t *testing.T) {
	tests := []struct {
		name  string
		rules []BusinessRule
		want  int
	}{
		{"different caps", []BusinessRule{loadLimit("a", "Sales", 3), loadLimit("b", "Sales", 5)}, 1},
		{"same cap", []BusinessRule{loadLimit("a", "Sales", 3), loadLimit("b", "Sales", 3)}, 0},
		{"different groups", []BusinessRule{loadLimit("a", "Sales", 3), loadLimit("b", "Ops", 5)}, 0},
		{"three rules one conflict", []BusinessRule{loadLimit("a", "Sales", 3), loadLimit("b", "Sales", 5), loadLimit("c", "Sales", 3)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectConflicts(tt.rules)
			if len(got) != tt.want {
				t.Fatalf("conflicts = %+v, want %d", got, tt.want)
			}
			for _, c := range got {
				if c.Type != ConflictContradictory || c.Severity != SeverityWarning {
					t.Errorf("conflict = %+v", c)
				}
				if len(c.RuleIDs) != len(tt.rules) {
					t.Errorf("RuleIDs = %v, want all group rules", c.RuleIDs)
				}
			}
		})
	}
}

func TestDetectConflictsPhaseWindows(t *testing.T) {
	disjoint := DetectConflicts([]BusinessRule{phaseWindow("a", "T1", 1, 2), phaseWindow("b", "T1", 4, 5)})
	if len(disjoint) != 1 || disjoint[0].Type != ConflictContradictory || disjoint[0].Severity != SeverityError {
		t.Errorf("disjoint windows = %+v", disjoint)
	}

	overlap := DetectConflicts([]BusinessRule{phaseWindow("a", "T1", 1, 2, 3), phaseWindow("b", "T1", 3, 4)})
	if len(overlap) != 1 || overlap[0].Type != ConflictOverlapping || overlap[0].Severity != SeverityWarning {
		t.Errorf("overlapping windows = %+v", overlap)
	}

	separate := DetectConflicts([]BusinessRule{phaseWindow("a", "T1", 1), phaseWindow("b", "T2", 5)})
	if len(separate) != 0 {
		t.Errorf("windows on different tasks = %+v", separate)
	}
}

func TestDetectConflictsDeterministic(t *testing.T) {
	rules := []BusinessRule{
		loadLimit("l1", "Sales", 3),
		coRun("r1", "T1", "T2"),
		loadLimit("l2", "Sales", 4),
		coRun("r2", "T2", "T1"),
		phaseWindow("p1", "T1", 1),
		phaseWindow("p2", "T1", 2),
	}
	first := DetectConflicts(rules)
	reversed := make([]BusinessRule, len(rules))
	for i, r := range rules {
		reversed[len(rules)-1-i] = r
	}
	second := DetectConflicts(reversed)
	if len(first) != 3 {
		t.Fatalf("expected 3 conflicts, got %+v", first)
	}
	for i := range first {
		if first[i].ID != second[i].ID || !reflect.DeepEqual(first[i].RuleIDs, second[i].RuleIDs) {
			t.Errorf("order-dependent result at %d: %+v vs %+v", i, first[i], second[i])
		}
		if i > 0 && first[i-1].ID > first[i].ID {
			t.Errorf("conflicts not sorted by id")
		}
	}
}
