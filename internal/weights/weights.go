// Package weights derives prioritization weights from sliders, rankings,
// pairwise AHP comparisons or presets.
package weights

import (
	"errors"
	"fmt"
	"math"
)

// Criterion names one of the five prioritization criteria.
type Criterion string

const (
	Fairness          Criterion = "fairness"
	PriorityLevel     Criterion = "priorityLevel"
	TaskFulfillment   Criterion = "taskFulfillment"
	WorkerUtilization Criterion = "workerUtilization"
	Constraints       Criterion = "constraints"
)

// Criteria lists the criteria in canonical order. AHP matrix rows and
// columns follow this order.
var Criteria = []Criterion{Fairness, PriorityLevel, TaskFulfillment, WorkerUtilization, Constraints}

// ParseCriterion validates a criterion name.
func ParseCriterion(s string) (Criterion, error) {
	for _, c := range Criteria {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown criterion %q", s)
}

// Info describes how the allocation engine applies a criterion.
type Info struct {
	Description string
	Algorithm   string
}

var criterionInfo = map[Criterion]Info{
	Fairness: {
		Description: "Distribute work evenly across workers",
		Algorithm:   "minimize variance of assigned slots per worker",
	},
	PriorityLevel: {
		Description: "Serve higher-priority clients first",
		Algorithm:   "weight client requests by PriorityLevel (1-5)",
	},
	TaskFulfillment: {
		Description: "Fulfil as many requested tasks as possible",
		Algorithm:   "maximize count of satisfied RequestedTaskIDs",
	},
	WorkerUtilization: {
		Description: "Keep worker load close to capacity without exceeding it",
		Algorithm:   "maximize used slots relative to MaxLoadPerPhase",
	},
	Constraints: {
		Description: "Respect business rules and phase preferences",
		Algorithm:   "penalize soft-rule violations by rule priority",
	},
}

// Describe returns the export metadata for c.
func Describe(c Criterion) Info { return criterionInfo[c] }

// Mode records how the current weights were produced.
type Mode string

const (
	ModeSliders Mode = "sliders"
	ModeRanking Mode = "ranking"
	ModeAHP     Mode = "ahp"
	ModePreset  Mode = "preset"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSliders, ModeRanking, ModeAHP, ModePreset:
		return m, nil
	}
	return "", fmt.Errorf("unknown weighting mode %q", s)
}

// UI scale bounds for slider weights.
const (
	MinUIWeight = 0
	MaxUIWeight = 10
)

// ErrOutOfRange is returned when a slider weight falls outside the UI scale.
var ErrOutOfRange = errors.New("weight out of range")

// PriorityWeights is a weight vector over the five criteria. Depending on
// context it holds UI-scale values (0-10) or normalized values (sum 1).
type PriorityWeights struct {
	Fairness          float64 `json:"fairness"`
	PriorityLevel     float64 `json:"priorityLevel"`
	TaskFulfillment   float64 `json:"taskFulfillment"`
	WorkerUtilization float64 `json:"workerUtilization"`
	Constraints       float64 `json:"constraints"`
}

// FromSlice builds weights from values in Criteria order.
func FromSlice(v []float64) (PriorityWeights, error) {
	if len(v) != len(Criteria) {
		return PriorityWeights{}, fmt.Errorf("expected %d weights, got %d", len(Criteria), len(v))
	}
	return PriorityWeights{
		Fairness:          v[0],
		PriorityLevel:     v[1],
		TaskFulfillment:   v[2],
		WorkerUtilization: v[3],
		Constraints:       v[4],
	}, nil
}

// Slice returns the weights in Criteria order.
func (w PriorityWeights) Slice() []float64 {
	return []float64{w.Fairness, w.PriorityLevel, w.TaskFulfillment, w.WorkerUtilization, w.Constraints}
}

// Get returns the weight of c.
func (w PriorityWeights) Get(c Criterion) float64 {
	switch c {
	case Fairness:
		return w.Fairness
	case PriorityLevel:
		return w.PriorityLevel
	case TaskFulfillment:
		return w.TaskFulfillment
	case WorkerUtilization:
		return w.WorkerUtilization
	case Constraints:
		return w.Constraints
	}
	return 0
}

// Set returns a copy of w with c set to v.
func (w PriorityWeights) Set(c Criterion, v float64) PriorityWeights {
	switch c {
	case Fairness:
		w.Fairness = v
	case PriorityLevel:
		w.PriorityLevel = v
	case TaskFulfillment:
		w.TaskFulfillment = v
	case WorkerUtilization:
		w.WorkerUtilization = v
	case Constraints:
		w.Constraints = v
	}
	return w
}

// Sum adds all five weights.
func (w PriorityWeights) Sum() float64 {
	var s float64
	for _, v := range w.Slice() {
		s += v
	}
	return s
}

// Normalize scales the vector to sum to 1. A zero vector normalizes to the
// uniform distribution.
func (w PriorityWeights) Normalize() PriorityWeights {
	sum := w.Sum()
	if sum <= 0 {
		u := 1.0 / float64(len(Criteria))
		return PriorityWeights{u, u, u, u, u}
	}
	v := w.Slice()
	for i := range v {
		v[i] /= sum
	}
	out, _ := FromSlice(v)
	return out
}

// ToUIScale rescales so the largest weight is exactly MaxUIWeight.
func (w PriorityWeights) ToUIScale() PriorityWeights {
	v := w.Slice()
	top := 0.0
	for _, x := range v {
		top = math.Max(top, x)
	}
	if top <= 0 {
		return PriorityWeights{}
	}
	for i := range v {
		v[i] = v[i] / top * MaxUIWeight
	}
	out, _ := FromSlice(v)
	return out
}

// Percentages returns each criterion's share of the total, 0-100.
func (w PriorityWeights) Percentages() map[Criterion]float64 {
	n := w.Normalize()
	out := make(map[Criterion]float64, len(Criteria))
	for _, c := range Criteria {
		out[c] = n.Get(c) * 100
	}
	return out
}

// Validate checks that every weight is on the UI scale.
func (w PriorityWeights) Validate() error {
	for _, c := range Criteria {
		v := w.Get(c)
		if math.IsNaN(v) || v < MinUIWeight || v > MaxUIWeight {
			return fmt.Errorf("%w: %s = %g (allowed %d-%d)", ErrOutOfRange, c, v, MinUIWeight, MaxUIWeight)
		}
	}
	return nil
}

// Default returns the balanced starting weights.
func Default() PriorityWeights {
	return PriorityWeights{5, 5, 5, 5, 5}
}
