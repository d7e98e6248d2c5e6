// Package workspace holds the rules, weights and dataset being edited and
// keeps derived views such as conflicts consistent with them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/snapshot"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
)

var (
	ErrRuleNotFound = errors.New("rule not found")
	ErrTypeChange   = errors.New("rule type cannot be changed")
)

// ValidationError carries every field problem found in a rule.
type ValidationError struct {
	Errors []rules.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return "invalid rule: " + strings.Join(parts, ", ")
}

// EventKind says which part of the workspace changed.
type EventKind string

const (
	EventRules    EventKind = "rules"
	EventWeights  EventKind = "weights"
	EventDataset  EventKind = "dataset"
	EventRestored EventKind = "restored"
)

// Event is delivered to change listeners after the workspace lock is released.
type Event struct {
	Kind   EventKind `json:"kind"`
	RuleID string    `json:"ruleId,omitempty"`
	At     time.Time `json:"at"`
}

// Recorder receives an audit record for every mutation. *audit.Store
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, action audit.Action, subject audit.Subject, subjectID, summary string, before, after any)
}

// WeightState is the current prioritization configuration.
type WeightState struct {
	Weights weights.PriorityWeights `json:"weights"`
	Mode    weights.Mode            `json:"mode"`
	Preset  string                  `json:"preset,omitempty"`
	Ranking []weights.Criterion     `json:"ranking,omitempty"`
	Matrix  *weights.Matrix         `json:"matrix,omitempty"`
	AHP     *weights.AHPResult      `json:"ahp,omitempty"`
}

// Workspace is safe for concurrent use. A single RWMutex guards all state.
type Workspace struct {
	mu        sync.RWMutex
	rules     []rules.BusinessRule
	weights   WeightState
	dataset   *entities.Dataset
	listeners []func(Event)
	recorder  Recorder
	now       func() time.Time
}

// New returns an empty workspace with default (balanced) weights.
func New() *Workspace {
	return &Workspace{
		weights: WeightState{Weights: weights.Default(), Mode: weights.ModeSliders},
		dataset: &entities.Dataset{},
		now:     time.Now,
	}
}

// SetRecorder attaches an audit recorder.
func (w *Workspace) SetRecorder(r Recorder) {
	w.mu.Lock()
	w.recorder = r
	w.mu.Unlock()
}

// OnChange registers fn to be called after every mutation.
func (w *Workspace) OnChange(fn func(Event)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// change is the bookkeeping produced by a mutation while locked and replayed
// once the lock is gone.
type change struct {
	event     Event
	action    audit.Action
	subject   audit.Subject
	subjectID string
	summary   string
	before    any
	after     any
}

func (w *Workspace) publish(c change) {
	w.mu.RLock()
	listeners := append([]func(Event){}, w.listeners...)
	recorder := w.recorder
	w.mu.RUnlock()

	if recorder != nil {
		recorder.Record(context.Background(), c.action, c.subject, c.subjectID, c.summary, c.before, c.after)
	}
	for _, fn := range listeners {
		fn(c.event)
	}
}

// find returns the index of id. Callers hold the lock.
func (w *Workspace) find(id string) int {
	for i, r := range w.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// AddRule creates an active rule with a fresh id.
func (w *Workspace) AddRule(name, description string, spec rules.Spec) (rules.BusinessRule, error) {
	if spec == nil {
		return rules.BusinessRule{}, &ValidationError{Errors: []rules.FieldError{{Field: "type", Errors: []string{"rule type is required"}}}}
	}
	w.mu.Lock()
	now := w.now()
	rule := rules.BusinessRule{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
		Spec:        spec,
	}
	rule = rule.Clone()
	if errs := rules.Validate(rule, w.dataset); len(errs) > 0 {
		w.mu.Unlock()
		return rules.BusinessRule{}, &ValidationError{Errors: errs}
	}
	w.rules = append(w.rules, rule)
	w.mu.Unlock()

	w.publish(change{
		event:     Event{Kind: EventRules, RuleID: rule.ID, At: now},
		action:    audit.ActionRuleCreated,
		subject:   audit.SubjectRule,
		subjectID: rule.ID,
		summary:   fmt.Sprintf("created %s rule %q", rule.Type(), rule.Name),
		after:     rule,
	})
	return rule.Clone(), nil
}

// UpdateRule merges patch into the rule. The id and type never change.
func (w *Workspace) UpdateRule(id string, patch rules.Patch) (rules.BusinessRule, error) {
	w.mu.Lock()
	i := w.find(id)
	if i < 0 {
		w.mu.Unlock()
		return rules.BusinessRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	before := w.rules[i].Clone()
	updated := before.Clone()
	if patch.Spec != nil {
		if patch.Spec.Type() != before.Type() {
			w.mu.Unlock()
			return rules.BusinessRule{}, fmt.Errorf("%w: %s to %s", ErrTypeChange, before.Type(), patch.Spec.Type())
		}
		updated.Spec = patch.Spec
	}
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}
	updated = updated.Clone()
	if errs := rules.Validate(updated, w.dataset); len(errs) > 0 {
		w.mu.Unlock()
		return rules.BusinessRule{}, &ValidationError{Errors: errs}
	}
	updated.UpdatedAt = w.later(before.UpdatedAt)
	w.rules[i] = updated
	w.mu.Unlock()

	w.publish(change{
		event:     Event{Kind: EventRules, RuleID: id, At: updated.UpdatedAt},
		action:    audit.ActionRuleUpdated,
		subject:   audit.SubjectRule,
		subjectID: id,
		summary:   fmt.Sprintf("updated rule %q", updated.Name),
		before:    before,
		after:     updated,
	})
	return updated.Clone(), nil
}

// later returns the current time, nudged past prev so UpdatedAt always moves
// forward even on coarse clocks.
func (w *Workspace) later(prev time.Time) time.Time {
	now := w.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// DeleteRule removes a rule.
func (w *Workspace) DeleteRule(id string) error {
	w.mu.Lock()
	i := w.find(id)
	if i < 0 {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	removed := w.rules[i]
	w.rules = append(w.rules[:i:i], w.rules[i+1:]...)
	w.mu.Unlock()

	w.publish(change{
		event:     Event{Kind: EventRules, RuleID: id, At: w.now()},
		action:    audit.ActionRuleDeleted,
		subject:   audit.SubjectRule,
		subjectID: id,
		summary:   fmt.Sprintf("deleted rule %q", removed.Name),
		before:    removed,
	})
	return nil
}

// ToggleRule flips IsActive.
func (w *Workspace) ToggleRule(id string) (rules.BusinessRule, error) {
	w.mu.Lock()
	i := w.find(id)
	if i < 0 {
		w.mu.Unlock()
		return rules.BusinessRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	r := &w.rules[i]
	r.IsActive = !r.IsActive
	r.UpdatedAt = w.later(r.UpdatedAt)
	toggled := r.Clone()
	w.mu.Unlock()

	state := "disabled"
	if toggled.IsActive {
		state = "enabled"
	}
	w.publish(change{
		event:     Event{Kind: EventRules, RuleID: id, At: toggled.UpdatedAt},
		action:    audit.ActionRuleToggled,
		subject:   audit.SubjectRule,
		subjectID: id,
		summary:   fmt.Sprintf("%s rule %q", state, toggled.Name),
		before:    map[string]bool{"isActive": !toggled.IsActive},
		after:     map[string]bool{"isActive": toggled.IsActive},
	})
	return toggled, nil
}

// Rule returns a copy of one rule.
func (w *Workspace) Rule(id string) (rules.BusinessRule, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.find(id)
	if i < 0 {
		return rules.BusinessRule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return w.rules[i].Clone(), nil
}

// Rules returns copies of all rules in creation order.
func (w *Workspace) Rules() []rules.BusinessRule {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return cloneRules(w.rules)
}

// ActiveRules returns copies of the active rules.
func (w *Workspace) ActiveRules() []rules.BusinessRule {
	return rules.Active(w.Rules())
}

// Conflicts runs conflict detection over a consistent copy of the active rules.
func (w *Workspace) Conflicts() []rules.Conflict {
	return rules.DetectConflicts(w.ActiveRules())
}

// Validate re-checks a stored rule against the current dataset.
func (w *Workspace) Validate(id string) ([]rules.FieldError, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	i := w.find(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return rules.Validate(w.rules[i], w.dataset), nil
}

// SetDataset replaces the dataset rules are validated and scored against.
func (w *Workspace) SetDataset(ds *entities.Dataset) {
	if ds == nil {
		ds = &entities.Dataset{}
	}
	w.mu.Lock()
	before := w.dataset.Summary()
	w.dataset = ds
	w.mu.Unlock()

	w.publish(change{
		event:   Event{Kind: EventDataset, At: w.now()},
		action:  audit.ActionDatasetLoaded,
		subject: audit.SubjectDataset,
		summary: fmt.Sprintf("loaded %d clients, %d workers, %d tasks",
			len(ds.Clients), len(ds.Workers), len(ds.Tasks)),
		before: before,
		after:  ds.Summary(),
	})
}

// Dataset returns the current dataset. Callers must not modify it.
func (w *Workspace) Dataset() *entities.Dataset {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dataset
}

// Snapshot returns a sealed copy of the persistent state.
func (w *Workspace) Snapshot() (snapshot.Snapshot, error) {
	w.mu.RLock()
	s := snapshot.Snapshot{
		SavedAt: w.now(),
		Rules:   cloneRules(w.rules),
		Weights: w.weights.Weights,
		Mode:    w.weights.Mode,
		Ranking: append([]weights.Criterion(nil), w.weights.Ranking...),
	}
	if w.weights.Matrix != nil {
		s.AHP = w.weights.Matrix.Clone()
	}
	w.mu.RUnlock()
	return snapshot.Seal(s)
}

// Restore replaces rules and weights with a verified snapshot. The dataset is
// left untouched.
func (w *Workspace) Restore(s snapshot.Snapshot) error {
	if err := snapshot.Verify(s); err != nil {
		return err
	}
	state := WeightState{
		Weights: s.Weights,
		Mode:    s.Mode,
		Ranking: append([]weights.Criterion(nil), s.Ranking...),
	}
	if state.Mode == "" {
		state.Mode = weights.ModeSliders
	}
	if s.AHP != nil {
		state.Matrix = s.AHP.Clone()
		res := state.Matrix.Derive()
		state.AHP = &res
	}

	w.mu.Lock()
	w.rules = cloneRules(s.Rules)
	w.weights = state
	w.mu.Unlock()

	w.publish(change{
		event:   Event{Kind: EventRestored, At: w.now()},
		action:  audit.ActionSnapshotRestored,
		subject: audit.SubjectSnapshot,
		summary: fmt.Sprintf("restored %d rules from snapshot saved %s", len(s.Rules), s.SavedAt.Format(time.RFC3339)),
		after:   map[string]string{"checksum": s.Checksum},
	})
	return nil
}

func cloneRules(in []rules.BusinessRule) []rules.BusinessRule {
	out := make([]rules.BusinessRule, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
