package rules

import (
	"fmt"
	"sort"
	"strings"
)

// ConflictType classifies a rule conflict.
type ConflictType string

const (
	ConflictCircular      ConflictType = "circular"
	ConflictContradictory ConflictType = "contradictory"
	ConflictOverlapping   ConflictType = "overlapping"
)

// Severity tells the caller whether a conflict blocks export.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Conflict is derived from the active rule set on every query.
type Conflict struct {
	ID       string       `json:"id"`
	RuleIDs  []string     `json:"ruleIds"`
	Type     ConflictType `json:"type"`
	Severity Severity     `json:"severity"`
	Message  string       `json:"message"`
}

// DetectConflicts inspects the given rules and reports co-run cycles,
// contradictory load limits and incompatible phase windows. Inactive rules
// are ignored. The result is sorted by conflict ID and never nil.
func DetectConflicts(active []BusinessRule) []Conflict {
	var (
		coRuns       []indexedCoRun
		loadLimits   = make(map[string][]BusinessRule)
		phaseWindows = make(map[string][]BusinessRule)
	)
	for _, r := range active {
		if !r.IsActive {
			continue
		}
		switch s := r.Spec.(type) {
		case CoRun:
			coRuns = append(coRuns, indexedCoRun{id: r.ID, tasks: normalizeTasks(s.TaskIDs)})
		case LoadLimit:
			loadLimits[s.WorkerGroup] = append(loadLimits[s.WorkerGroup], r)
		case PhaseWindow:
			key := taskKey(s.TaskID)
			phaseWindows[key] = append(phaseWindows[key], r)
		}
	}

	conflicts := make([]Conflict, 0)
	reported := make(map[string]bool)

	conflicts = append(conflicts, pairwiseCoRunConflicts(coRuns, reported)...)
	conflicts = append(conflicts, coRunCycleConflicts(coRuns, reported)...)
	conflicts = append(conflicts, loadLimitConflicts(loadLimits)...)
	conflicts = append(conflicts, phaseWindowConflicts(phaseWindows)...)

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].ID < conflicts[j].ID })
	return conflicts
}

type indexedCoRun struct {
	id    string
	tasks []string
}

func (c indexedCoRun) references(task string) bool {
	for _, t := range c.tasks {
		if t == task {
			return true
		}
	}
	return false
}

// normalizeTasks trims, upper-cases and dedupes task ids so the detector
// matches them the same way dataset lookups do.
func normalizeTasks(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = taskKey(id)
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func taskKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// pairwiseCoRunConflicts flags every pair of co-run rules that both tie the
// same two tasks together. Co-run edges are undirected, so {A,B} and {B,A}
// form a direct cycle.
func pairwiseCoRunConflicts(coRuns []indexedCoRun, reported map[string]bool) []Conflict {
	adjacency := make(map[string]map[string]bool)
	for _, c := range coRuns {
		for i, a := range c.tasks {
			for j, b := range c.tasks {
				if i == j || a == b {
					continue
				}
				if adjacency[a] == nil {
					adjacency[a] = make(map[string]bool)
				}
				adjacency[a][b] = true
			}
		}
	}

	var out []Conflict
	for _, a := range sortedKeys(adjacency) {
		for _, b := range sortedKeys(adjacency[a]) {
			if !adjacency[b][a] {
				continue
			}
			var sharing []string
			for _, c := range coRuns {
				if c.references(a) && c.references(b) {
					sharing = append(sharing, c.id)
				}
			}
			for i := 0; i < len(sharing); i++ {
				for j := i + 1; j < len(sharing); j++ {
					ids := sortedUnique([]string{sharing[i], sharing[j]})
					if len(ids) < 2 {
						continue
					}
					key := strings.Join(ids, ",")
					if reported[key] {
						continue
					}
					reported[key] = true
					out = append(out, Conflict{
						ID:       conflictID(ConflictCircular, ids),
						RuleIDs:  ids,
						Type:     ConflictCircular,
						Severity: SeverityError,
						Message: fmt.Sprintf("Circular co-run dependency: tasks %s and %s are linked by rules %s",
							a, b, strings.Join(ids, ", ")),
					})
				}
			}
		}
	}
	return out
}

// coRunCycleConflicts finds longer cycles (A-B-C-A) among co-run rules. Each
// rule ties its tasks together without direction, so the search runs over the
// undirected graph linking every rule to the tasks it names; a cycle there
// passes through at least two rules and as many distinct tasks.
func coRunCycleConflicts(coRuns []indexedCoRun, reported map[string]bool) []Conflict {
	const rulePrefix, taskPrefix = "rule:", "task:"

	graph := make(map[string]map[string]bool)
	link := func(a, b string) {
		if graph[a] == nil {
			graph[a] = make(map[string]bool)
		}
		graph[a][b] = true
	}
	for _, c := range coRuns {
		for _, t := range c.tasks {
			link(rulePrefix+c.id, taskPrefix+t)
			link(taskPrefix+t, rulePrefix+c.id)
		}
	}

	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int)
	var (
		stack []string
		out   []Conflict
	)

	var visit func(node, parent string)
	visit = func(node, parent string) {
		state[node] = onStack
		stack = append(stack, node)
		for _, next := range sortedKeys(graph[node]) {
			if next == parent {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(next, node)
			case onStack:
				start := 0
				for i, n := range stack {
					if n == next {
						start = i
						break
					}
				}
				var ruleIDs, tasks []string
				for _, n := range stack[start:] {
					if id, ok := strings.CutPrefix(n, rulePrefix); ok {
						ruleIDs = append(ruleIDs, id)
					} else {
						tasks = append(tasks, strings.TrimPrefix(n, taskPrefix))
					}
				}
				ids := sortedUnique(ruleIDs)
				key := strings.Join(ids, ",")
				if len(tasks) < 3 || len(ids) < 2 || reported[key] {
					continue
				}
				reported[key] = true
				out = append(out, Conflict{
					ID:       conflictID(ConflictCircular, ids),
					RuleIDs:  ids,
					Type:     ConflictCircular,
					Severity: SeverityError,
					Message: fmt.Sprintf("Circular co-run dependency: %s (rules %s)",
						strings.Join(append(tasks, tasks[0]), " → "), strings.Join(ids, ", ")),
				})
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
	}

	for _, node := range sortedKeys(graph) {
		if state[node] == unvisited {
			visit(node, "")
		}
	}
	return out
}

func loadLimitConflicts(groups map[string][]BusinessRule) []Conflict {
	var out []Conflict
	for _, group := range sortedKeys(groups) {
		rs := groups[group]
		if len(rs) < 2 {
			continue
		}
		caps := make(map[int]bool)
		var ids []string
		for _, r := range rs {
			caps[r.Spec.(LoadLimit).MaxSlotsPerPhase] = true
			ids = append(ids, r.ID)
		}
		if len(caps) < 2 {
			continue
		}
		ids = sortedUnique(ids)
		values := make([]int, 0, len(caps))
		for v := range caps {
			values = append(values, v)
		}
		sort.Ints(values)
		out = append(out, Conflict{
			ID:       conflictID(ConflictContradictory, ids),
			RuleIDs:  ids,
			Type:     ConflictContradictory,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Contradictory load limits for worker group %q: %s",
				group, joinInts(values)),
		})
	}
	return out
}

func phaseWindowConflicts(tasks map[string][]BusinessRule) []Conflict {
	var out []Conflict
	for _, task := range sortedKeys(tasks) {
		rs := tasks[task]
		if len(rs) < 2 {
			continue
		}
		var ids []string
		common := make(map[int]bool)
		for i, r := range rs {
			ids = append(ids, r.ID)
			allowed := make(map[int]bool)
			for _, p := range r.Spec.(PhaseWindow).AllowedPhases {
				allowed[p] = true
			}
			if i == 0 {
				common = allowed
				continue
			}
			for p := range common {
				if !allowed[p] {
					delete(common, p)
				}
			}
		}
		ids = sortedUnique(ids)
		if len(common) == 0 {
			out = append(out, Conflict{
				ID:       conflictID(ConflictContradictory, ids),
				RuleIDs:  ids,
				Type:     ConflictContradictory,
				Severity: SeverityError,
				Message:  fmt.Sprintf("Phase windows for task %s have no phase in common", task),
			})
			continue
		}
		shared := make([]int, 0, len(common))
		for p := range common {
			shared = append(shared, p)
		}
		sort.Ints(shared)
		out = append(out, Conflict{
			ID:       conflictID(ConflictOverlapping, ids),
			RuleIDs:  ids,
			Type:     ConflictOverlapping,
			Severity: SeverityWarning,
			Message: fmt.Sprintf("Multiple phase windows target task %s; effective phases are %s",
				task, joinInts(shared)),
		})
	}
	return out
}

func conflictID(t ConflictType, ruleIDs []string) string {
	return string(t) + ":" + strings.Join(ruleIDs, "+")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUnique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
