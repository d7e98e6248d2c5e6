package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
)

// Phase bounds accepted by phase-window rules.
const (
	MinPhase = 1
	MaxPhase = 5
)

// FieldError lists every problem found for one field.
type FieldError struct {
	Field  string   `json:"field"`
	Errors []string `json:"errors"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Field, strings.Join(e.Errors, "; "))
}

// collector accumulates field errors in first-seen field order.
type collector struct {
	order  []string
	byName map[string][]string
}

func (c *collector) add(field, format string, args ...any) {
	if c.byName == nil {
		c.byName = make(map[string][]string)
	}
	if _, ok := c.byName[field]; !ok {
		c.order = append(c.order, field)
	}
	c.byName[field] = append(c.byName[field], fmt.Sprintf(format, args...))
}

func (c *collector) result() []FieldError {
	out := make([]FieldError, 0, len(c.order))
	for _, f := range c.order {
		out = append(out, FieldError{Field: f, Errors: c.byName[f]})
	}
	return out
}

// Validate checks a rule's structure and, when ds is non-nil and non-empty,
// its references into the dataset. All problems are returned together; an
// empty result means the rule is valid.
func Validate(r BusinessRule, ds *entities.Dataset) []FieldError {
	var c collector
	if strings.TrimSpace(r.Name) == "" {
		c.add("name", "name is required")
	}
	checkRefs := ds != nil && !ds.IsEmpty()

	switch s := r.Spec.(type) {
	case nil:
		c.add("type", "rule type is required")
	case CoRun:
		if len(s.TaskIDs) < 2 {
			c.add("taskIds", "at least two tasks are required")
		}
		seen := make(map[string]bool)
		for _, id := range s.TaskIDs {
			key := strings.ToLower(strings.TrimSpace(id))
			if key == "" {
				c.add("taskIds", "task id must not be empty")
				continue
			}
			if seen[key] {
				c.add("taskIds", "task %s is listed more than once", id)
			}
			seen[key] = true
			if checkRefs && !ds.HasTask(id) {
				c.add("taskIds", "task %s does not exist", id)
			}
		}
	case SlotRestriction:
		switch s.GroupType {
		case GroupTypeClient:
			if checkRefs && s.GroupName != "" && !ds.HasClientGroup(s.GroupName) {
				c.add("groupName", "client group %s does not exist", s.GroupName)
			}
		case GroupTypeWorker:
			if checkRefs && s.GroupName != "" && !ds.HasWorkerGroup(s.GroupName) {
				c.add("groupName", "worker group %s does not exist", s.GroupName)
			}
		default:
			c.add("groupType", "group type must be %q or %q", GroupTypeClient, GroupTypeWorker)
		}
		if strings.TrimSpace(s.GroupName) == "" {
			c.add("groupName", "group name is required")
		}
		if s.MinCommonSlots < 1 {
			c.add("minCommonSlots", "minimum common slots must be at least 1")
		}
	case LoadLimit:
		if strings.TrimSpace(s.WorkerGroup) == "" {
			c.add("workerGroup", "worker group is required")
		} else if checkRefs && !ds.HasWorkerGroup(s.WorkerGroup) {
			c.add("workerGroup", "worker group %s does not exist", s.WorkerGroup)
		}
		if s.MaxSlotsPerPhase <= 0 {
			c.add("maxSlotsPerPhase", "max slots per phase must be a positive integer")
		}
	case PhaseWindow:
		if strings.TrimSpace(s.TaskID) == "" {
			c.add("taskId", "task id is required")
		} else if checkRefs && !ds.HasTask(s.TaskID) {
			c.add("taskId", "task %s does not exist", s.TaskID)
		}
		if len(s.AllowedPhases) == 0 {
			c.add("allowedPhases", "at least one phase is required")
		}
		for _, p := range s.AllowedPhases {
			if p < MinPhase || p > MaxPhase {
				c.add("allowedPhases", "phase %d is outside %d-%d", p, MinPhase, MaxPhase)
			}
		}
	case PatternMatch:
		if s.Regex == "" {
			c.add("regex", "regex is required")
		} else if _, err := regexp.Compile(s.Regex); err != nil {
			c.add("regex", "invalid regex: %v", err)
		}
	case PrecedenceOverride:
		if len(s.RuleIDs) == 0 {
			c.add("ruleIds", "at least one rule id is required")
		}
		switch s.OverrideType {
		case OverrideGlobal, OverrideSpecific, OverrideAll:
		default:
			c.add("overrideType", "override type must be one of global, specific, all")
		}
		if s.Priority < 1 || s.Priority > 10 {
			c.add("priority", "priority must be between 1 and 10")
		}
	}
	return c.result()
}
