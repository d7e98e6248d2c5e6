package weights

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPreset is returned for a preset name that does not exist.
var ErrUnknownPreset = errors.New("unknown preset")

// PresetInfo is a named starting point for the sliders.
type PresetInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Weights     PriorityWeights `json:"weights"`
}

var presets = map[string]PresetInfo{
	"maximize-fulfillment": {
		Description: "Fulfil as many client requests as possible",
		Weights:     PriorityWeights{Fairness: 4, PriorityLevel: 6, TaskFulfillment: 10, WorkerUtilization: 6, Constraints: 5},
	},
	"fair-distribution": {
		Description: "Spread work evenly across workers",
		Weights:     PriorityWeights{Fairness: 10, PriorityLevel: 5, TaskFulfillment: 6, WorkerUtilization: 7, Constraints: 5},
	},
	"minimize-workload": {
		Description: "Keep worker load low and respect capacity strictly",
		Weights:     PriorityWeights{Fairness: 6, PriorityLevel: 4, TaskFulfillment: 5, WorkerUtilization: 10, Constraints: 7},
	},
	"client-priority": {
		Description: "Serve high-priority clients first",
		Weights:     PriorityWeights{Fairness: 4, PriorityLevel: 10, TaskFulfillment: 7, WorkerUtilization: 5, Constraints: 5},
	},
	"balanced": {
		Description: "Equal emphasis on every criterion",
		Weights:     Default(),
	},
}

// Preset returns the named preset's UI weights.
func Preset(name string) (PriorityWeights, error) {
	p, ok := presets[name]
	if !ok {
		return PriorityWeights{}, fmt.Errorf("%w %q", ErrUnknownPreset, name)
	}
	return p.Weights, nil
}

// Presets lists all presets sorted by name.
func Presets() []PresetInfo {
	out := make([]PresetInfo, 0, len(presets))
	for name, p := range presets {
		p.Name = name
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
