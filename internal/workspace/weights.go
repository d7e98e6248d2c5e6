package workspace

import (
	"fmt"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
)

// Weights returns a copy of the current prioritization state.
func (w *Workspace) Weights() WeightState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.weights.clone()
}

func (s WeightState) clone() WeightState {
	s.Ranking = append([]weights.Criterion(nil), s.Ranking...)
	if s.Matrix != nil {
		s.Matrix = s.Matrix.Clone()
	}
	if s.AHP != nil {
		res := *s.AHP
		res.Weights = append([]float64(nil), res.Weights...)
		res.UIWeights = append([]float64(nil), res.UIWeights...)
		s.AHP = &res
	}
	return s
}

func (w *Workspace) setWeights(next WeightState, summary string) {
	w.mu.Lock()
	before := w.weights.Weights
	w.weights = next
	w.mu.Unlock()

	w.publish(change{
		event:   Event{Kind: EventWeights, At: w.now()},
		action:  audit.ActionWeightsChanged,
		subject: audit.SubjectWeights,
		summary: summary,
		before:  before,
		after:   next.Weights,
	})
}

// SetWeights applies slider values on the 0-10 UI scale.
func (w *Workspace) SetWeights(pw weights.PriorityWeights) error {
	if err := pw.Validate(); err != nil {
		return err
	}
	w.setWeights(WeightState{Weights: pw, Mode: weights.ModeSliders}, "weights set from sliders")
	return nil
}

// ApplyRanking derives weights from a full ordering of the criteria.
func (w *Workspace) ApplyRanking(order []weights.Criterion) (weights.PriorityWeights, error) {
	pw, err := weights.FromRanking(order)
	if err != nil {
		return weights.PriorityWeights{}, err
	}
	w.setWeights(WeightState{
		Weights: pw,
		Mode:    weights.ModeRanking,
		Ranking: append([]weights.Criterion(nil), order...),
	}, fmt.Sprintf("weights ranked with %s first", order[0]))
	return pw, nil
}

// ApplyAHP derives weights from a 5×5 criteria comparison matrix. Poor
// consistency is reported in the result but does not block the change.
func (w *Workspace) ApplyAHP(m *weights.Matrix) (weights.AHPResult, error) {
	if m == nil || m.Size() != len(weights.Criteria) {
		return weights.AHPResult{}, fmt.Errorf("%w: need a %d×%d criteria matrix", weights.ErrMatrixShape, len(weights.Criteria), len(weights.Criteria))
	}
	res := m.Derive()
	pw, err := res.PriorityWeights()
	if err != nil {
		return weights.AHPResult{}, err
	}
	stored := res
	w.setWeights(WeightState{
		Weights: pw,
		Mode:    weights.ModeAHP,
		Matrix:  m.Clone(),
		AHP:     &stored,
	}, fmt.Sprintf("weights derived by AHP (CR %.3f, %s)", res.ConsistencyRatio, res.Consistency))
	return res, nil
}

// ApplyPreset switches to a named preset.
func (w *Workspace) ApplyPreset(name string) (weights.PriorityWeights, error) {
	pw, err := weights.Preset(name)
	if err != nil {
		return weights.PriorityWeights{}, err
	}
	w.setWeights(WeightState{Weights: pw, Mode: weights.ModePreset, Preset: name},
		fmt.Sprintf("applied preset %s", name))
	return pw, nil
}
