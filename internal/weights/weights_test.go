package weights

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

const tolerance = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) <= tolerance }

func TestNormalizeIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		w := PriorityWeights{
			rng.Float64() * 10, rng.Float64() * 10, rng.Float64() * 10,
			rng.Float64() * 10, rng.Float64()*10 + 0.01,
		}
		once := w.Normalize()
		twice := once.Normalize()
		if !approx(once.Sum(), 1) {
			t.Fatalf("sum of %v = %v", once, once.Sum())
		}
		for j, v := range once.Slice() {
			if !approx(v, twice.Slice()[j]) {
				t.Fatalf("normalize not idempotent for %v: %v vs %v", w, once, twice)
			}
		}
	}
}

func TestNormalizeZero(t *testing.T) {
	got := PriorityWeights{}.Normalize()
	for _, v := range got.Slice() {
		if !approx(v, 0.2) {
			t.Fatalf("zero vector normalized to %v", got)
		}
	}
}

func TestToUIScaleAndPercentages(t *testing.T) {
	w := PriorityWeights{Fairness: 2, PriorityLevel: 4, TaskFulfillment: 1, WorkerUtilization: 1, Constraints: 2}
	ui := w.ToUIScale()
	if ui.PriorityLevel != 10 || ui.Fairness != 5 {
		t.Errorf("ToUIScale = %+v", ui)
	}
	p := w.Percentages()
	if !approx(p[PriorityLevel], 40) || !approx(p[TaskFulfillment], 10) {
		t.Errorf("Percentages = %v", p)
	}
	if (PriorityWeights{}).ToUIScale() != (PriorityWeights{}) {
		t.Error("zero vector should stay zero on UI scale")
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default weights invalid: %v", err)
	}
	if err := (PriorityWeights{Fairness: -1}).Validate(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("negative weight: %v", err)
	}
	if err := (PriorityWeights{Constraints: 10.5}).Validate(); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("weight above 10: %v", err)
	}
}

func TestJSONKeys(t *testing.T) {
	data, err := json.Marshal(PriorityWeights{Fairness: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"fairness":1,"priorityLevel":0,"taskFulfillment":0,"workerUtilization":0,"constraints":0}`
	if string(data) != want {
		t.Errorf("json = %s", data)
	}
}

func permutations(in []Criterion) [][]Criterion {
	if len(in) <= 1 {
		return [][]Criterion{append([]Criterion(nil), in...)}
	}
	var out [][]Criterion
	for i := range in {
		rest := append(append([]Criterion(nil), in[:i]...), in[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]Criterion{in[i]}, p...))
		}
	}
	return out
}

func TestFromRankingAllPermutations(t *testing.T) {
	perms := permutations(Criteria)
	if len(perms) != 120 {
		t.Fatalf("expected 120 permutations, got %d", len(perms))
	}
	want := []float64{10, 8, 6, 4, 2}
	for _, order := range perms {
		w, err := FromRanking(order)
		if err != nil {
			t.Fatalf("FromRanking(%v): %v", order, err)
		}
		for i, c := range order {
			if w.Get(c) != want[i] {
				t.Fatalf("rank %d (%s) = %v, want %v", i, c, w.Get(c), want[i])
			}
		}
		if got := RankingFrom(w); !reflect.DeepEqual(got, order) {
			t.Fatalf("RankingFrom = %v, want %v", got, order)
		}
	}
}

func TestFromRankingRejects(t *testing.T) {
	tests := [][]Criterion{
		{Fairness, PriorityLevel},
		{Fairness, Fairness, TaskFulfillment, WorkerUtilization, Constraints},
		{Fairness, PriorityLevel, TaskFulfillment, WorkerUtilization, "speed"},
	}
	for _, order := range tests {
		if _, err := FromRanking(order); err == nil {
			t.Errorf("FromRanking(%v) should fail", order)
		}
	}
}

func TestRankWeightFloor(t *testing.T) {
	if RankWeight(4) != 2 || RankWeight(5) != 1 || RankWeight(9) != 1 {
		t.Errorf("RankWeight floor wrong: %v %v %v", RankWeight(4), RankWeight(5), RankWeight(9))
	}
}

func TestMatrixSetReciprocity(t *testing.T) {
	m := NewCriteriaMatrix()
	values := []float64{3, 1.0 / 7, 9, 1, 0.5}
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			if i == j {
				continue
			}
			v := values[(i+j)%len(values)]
			if err := m.Set(i, j, v); err != nil {
				t.Fatalf("Set(%d,%d,%v): %v", i, j, v, err)
			}
			if !approx(m.Get(j, i), 1/v) {
				t.Fatalf("M[%d][%d] = %v, want %v", j, i, m.Get(j, i), 1/v)
			}
			for k := 0; k < 5; k++ {
				if m.Get(k, k) != 1 {
					t.Fatalf("diagonal changed at %d", k)
				}
			}
		}
	}
}

func TestMatrixSetRejects(t *testing.T) {
	m := NewCriteriaMatrix()
	if err := m.Set(1, 1, 3); !errors.Is(err, ErrDiagonal) {
		t.Errorf("diagonal edit: %v", err)
	}
	if err := m.Set(0, 1, 2.5); !errors.Is(err, ErrNotSaaty) {
		t.Errorf("non-Saaty value: %v", err)
	}
	if err := m.Set(0, 1, 10); !errors.Is(err, ErrNotSaaty) {
		t.Errorf("value above 9: %v", err)
	}
	if err := m.Set(0, 5, 3); !errors.Is(err, ErrIndex) {
		t.Errorf("out of range: %v", err)
	}
}

func TestDeriveIndifferent(t *testing.T) {
	res := NewCriteriaMatrix().Derive()
	for i, w := range res.Weights {
		if w != 0.2 {
			t.Errorf("weight[%d] = %v, want exactly 0.2", i, w)
		}
		if res.UIWeights[i] != 10 {
			t.Errorf("ui weight[%d] = %v, want 10", i, res.UIWeights[i])
		}
	}
	if math.Abs(res.ConsistencyRatio) > 1e-12 {
		t.Errorf("CR = %v, want 0", res.ConsistencyRatio)
	}
	if res.Consistency != ConsistencyAcceptable || res.Warning != "" {
		t.Errorf("consistency = %q warning = %q", res.Consistency, res.Warning)
	}
	pw, err := res.PriorityWeights()
	if err != nil || pw != (PriorityWeights{10, 10, 10, 10, 10}) {
		t.Errorf("PriorityWeights = %+v, %v", pw, err)
	}
}

func TestDeriveConsistentMatrix(t *testing.T) {
	// Criterion 0 is 3× as important as every other criterion and the rest
	// are equal: a perfectly consistent judgement.
	m := NewCriteriaMatrix()
	for j := 1; j < 5; j++ {
		if err := m.Set(0, j, 3); err != nil {
			t.Fatal(err)
		}
	}
	res := m.Derive()
	if !approx(res.Weights[0], 3.0/7) || !approx(res.Weights[1], 1.0/7) {
		t.Errorf("weights = %v", res.Weights)
	}
	if res.UIWeights[0] != 10 {
		t.Errorf("top UI weight = %v", res.UIWeights[0])
	}
	if res.ConsistencyRatio > 1e-9 || res.Consistency != ConsistencyAcceptable {
		t.Errorf("CR = %v (%s)", res.ConsistencyRatio, res.Consistency)
	}
}

func TestDerivePoorConsistencyStillReturnsWeights(t *testing.T) {
	m, _ := NewMatrix(3)
	// A > B, B > C, but C > A strongly.
	_ = m.Set(0, 1, 9)
	_ = m.Set(1, 2, 9)
	_ = m.Set(2, 0, 9)
	res := m.Derive()
	if res.Consistency != ConsistencyPoor || res.Warning == "" {
		t.Errorf("expected poor consistency, got %q (CR %v)", res.Consistency, res.ConsistencyRatio)
	}
	var sum float64
	for _, w := range res.Weights {
		sum += w
	}
	if !approx(sum, 1) {
		t.Errorf("weights sum to %v", sum)
	}
}

func TestMatrixJSON(t *testing.T) {
	m := NewCriteriaMatrix()
	_ = m.Set(0, 2, 5)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	var back Matrix
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Get(0, 2) != 5 || !approx(back.Get(2, 0), 0.2) {
		t.Errorf("round trip lost values: %v", back.Rows())
	}

	bad := `[[1,3],[3,1]]`
	if err := json.Unmarshal([]byte(bad), &back); !errors.Is(err, ErrMatrixShape) {
		t.Errorf("non-reciprocal matrix accepted: %v", err)
	}
}

func TestPresets(t *testing.T) {
	all := Presets()
	if len(all) != 5 {
		t.Fatalf("presets = %d", len(all))
	}
	for _, p := range all {
		if err := p.Weights.Validate(); err != nil {
			t.Errorf("preset %s: %v", p.Name, err)
		}
	}
	if _, err := Preset("nope"); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("unknown preset: %v", err)
	}
	w, _ := Preset("client-priority")
	if RankingFrom(w)[0] != PriorityLevel {
		t.Errorf("client-priority should rank priorityLevel first")
	}
}
