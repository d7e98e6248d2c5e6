// Package rules defines allocation business rules and the detector that finds
// conflicts between them.
package rules

import (
	"errors"
	"time"
)

// Type is the discriminator of a business rule.
type Type string

const (
	TypeCoRun              Type = "coRun"
	TypeSlotRestriction    Type = "slotRestriction"
	TypeLoadLimit          Type = "loadLimit"
	TypePhaseWindow        Type = "phaseWindow"
	TypePatternMatch       Type = "patternMatch"
	TypePrecedenceOverride Type = "precedenceOverride"
)

// Types lists every rule type in display order.
var Types = []Type{
	TypeCoRun,
	TypeSlotRestriction,
	TypeLoadLimit,
	TypePhaseWindow,
	TypePatternMatch,
	TypePrecedenceOverride,
}

// Valid reports whether t is a known rule type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ErrUnknownType is returned when a rule carries an unrecognized type tag.
var ErrUnknownType = errors.New("unknown rule type")

// Spec is the type-specific part of a rule. The set of implementations is
// closed; switch on the concrete type to handle each variant.
type Spec interface {
	Type() Type
	isSpec()
}

// CoRun requires a set of tasks to always be scheduled together.
type CoRun struct {
	TaskIDs []string `json:"taskIds"`
}

// SlotRestriction requires members of a client or worker group to share at
// least MinCommonSlots phase slots.
type SlotRestriction struct {
	GroupType      string `json:"groupType"`
	GroupName      string `json:"groupName"`
	MinCommonSlots int    `json:"minCommonSlots"`
}

// LoadLimit caps the slots a worker group may take per phase.
type LoadLimit struct {
	WorkerGroup      string `json:"workerGroup"`
	MaxSlotsPerPhase int    `json:"maxSlotsPerPhase"`
}

// PhaseWindow restricts a task to a set of phases.
type PhaseWindow struct {
	TaskID        string `json:"taskId"`
	AllowedPhases []int  `json:"allowedPhases"`
}

// PatternMatch applies a rule template to entities whose identifiers match Regex.
type PatternMatch struct {
	Regex      string         `json:"regex"`
	Template   string         `json:"template,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// PrecedenceOverride orders a set of rules ahead of the default precedence.
type PrecedenceOverride struct {
	RuleIDs      []string `json:"ruleIds"`
	OverrideType string   `json:"overrideType"`
	Priority     int      `json:"priority"`
}

// Slot restriction group kinds.
const (
	GroupTypeClient = "client"
	GroupTypeWorker = "worker"
)

// Precedence override scopes.
const (
	OverrideGlobal   = "global"
	OverrideSpecific = "specific"
	OverrideAll      = "all"
)

func (CoRun) Type() Type              { return TypeCoRun }
func (SlotRestriction) Type() Type    { return TypeSlotRestriction }
func (LoadLimit) Type() Type          { return TypeLoadLimit }
func (PhaseWindow) Type() Type        { return TypePhaseWindow }
func (PatternMatch) Type() Type       { return TypePatternMatch }
func (PrecedenceOverride) Type() Type { return TypePrecedenceOverride }

func (CoRun) isSpec()              {}
func (SlotRestriction) isSpec()    {}
func (LoadLimit) isSpec()          {}
func (PhaseWindow) isSpec()        {}
func (PatternMatch) isSpec()       {}
func (PrecedenceOverride) isSpec() {}

// ZeroSpec returns the empty configuration for t.
func ZeroSpec(t Type) (Spec, error) {
	switch t {
	case TypeCoRun:
		return CoRun{}, nil
	case TypeSlotRestriction:
		return SlotRestriction{}, nil
	case TypeLoadLimit:
		return LoadLimit{}, nil
	case TypePhaseWindow:
		return PhaseWindow{}, nil
	case TypePatternMatch:
		return PatternMatch{}, nil
	case TypePrecedenceOverride:
		return PrecedenceOverride{}, nil
	default:
		return nil, ErrUnknownType
	}
}

// BusinessRule is a named, toggleable allocation rule.
type BusinessRule struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Spec        Spec
}

// Type returns the rule's discriminator, or "" when it has no spec.
func (r BusinessRule) Type() Type {
	if r.Spec == nil {
		return ""
	}
	return r.Spec.Type()
}

// Clone returns a copy that shares no slices or maps with r.
func (r BusinessRule) Clone() BusinessRule {
	r.Spec = cloneSpec(r.Spec)
	return r
}

// Patch is a partial update. Nil fields are left unchanged; Spec, when set,
// replaces the type-specific fields and must keep the rule's type.
type Patch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
	Spec        Spec    `json:"-"`
}

// Active returns the rules with IsActive set, preserving order.
func Active(all []BusinessRule) []BusinessRule {
	out := make([]BusinessRule, 0, len(all))
	for _, r := range all {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out
}

// CountByType tallies rules per type.
func CountByType(all []BusinessRule) map[Type]int {
	counts := make(map[Type]int, len(Types))
	for _, r := range all {
		counts[r.Type()]++
	}
	return counts
}

func cloneSpec(s Spec) Spec {
	switch v := s.(type) {
	case CoRun:
		v.TaskIDs = append([]string(nil), v.TaskIDs...)
		return v
	case PhaseWindow:
		v.AllowedPhases = append([]int(nil), v.AllowedPhases...)
		return v
	case PatternMatch:
		if v.Parameters != nil {
			params := make(map[string]any, len(v.Parameters))
			for k, val := range v.Parameters {
				params[k] = val
			}
			v.Parameters = params
		}
		return v
	case PrecedenceOverride:
		v.RuleIDs = append([]string(nil), v.RuleIDs...)
		return v
	default:
		return s
	}
}
