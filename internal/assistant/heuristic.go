package assistant

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

var (
	taskIDPattern   = regexp.MustCompile(`\b[Tt]\d+\b`)
	numberPattern   = regexp.MustCompile(`\b\d+\b`)
	rangePattern    = regexp.MustCompile(`(?i)\b(\d+)\s*(?:-|to|through|until)\s*(\d+)\b`)
	quotedPattern   = regexp.MustCompile("[\"'`/]([^\"'`/]+)[\"'`/]")
	prefixPattern   = regexp.MustCompile(`(?i)\b(?:starting with|starts with|prefix(?:ed)?(?: with)?|beginning with)\s+([A-Za-z0-9_-]+)`)
	suffixPattern   = regexp.MustCompile(`(?i)\b(?:ending with|ends with|suffix(?:ed)?(?: with)?)\s+([A-Za-z0-9_-]+)`)
	containsPattern = regexp.MustCompile(`(?i)\b(?:containing|contains|named|like)\s+([A-Za-z0-9_-]+)`)
	groupPattern    = regexp.MustCompile(`(?i)\b([A-Za-z][\w-]*)\s+(?:team|group|workers|department)\b`)
	rulePattern     = regexp.MustCompile(`(?i)\brules?\s+([\w-]+(?:\s*(?:,|and)\s*[\w-]+)*)`)
	listSeparator   = regexp.MustCompile(`\s*(?:,|\band\b)\s*`)
)

// DetectType returns the rule type whose pattern bank matches input best.
// Ties go to the type listed first in rules.Types.
func DetectType(input string) rules.Type {
	best := rules.Types[0]
	bestScore := -1.0
	for _, t := range rules.Types {
		if s := confidence.PatternScore(input, t); s > bestScore {
			best, bestScore = t, s
		}
	}
	return best
}

// Heuristic builds a rule from input with regular expressions and dataset
// lookups alone.
func Heuristic(input string, ds *entities.Dataset) (rules.Type, string, rules.Spec) {
	t := DetectType(input)
	spec := extract(t, input, ds)
	return t, nameFor(spec), spec
}

func extract(t rules.Type, input string, ds *entities.Dataset) rules.Spec {
	switch t {
	case rules.TypeCoRun:
		return rules.CoRun{TaskIDs: findTasks(input, ds)}
	case rules.TypeSlotRestriction:
		s := rules.SlotRestriction{GroupType: rules.GroupTypeWorker, MinCommonSlots: 1}
		if g := findGroup(input, ds.ClientGroups()); g != "" {
			s.GroupType, s.GroupName = rules.GroupTypeClient, g
		} else if g := findGroup(input, ds.WorkerGroups()); g != "" {
			s.GroupName = g
		} else {
			if mentions(input, "client") {
				s.GroupType = rules.GroupTypeClient
			}
			s.GroupName = guessGroup(input)
		}
		if n, ok := firstNumber(input); ok && n > 0 {
			s.MinCommonSlots = n
		}
		return s
	case rules.TypeLoadLimit:
		s := rules.LoadLimit{WorkerGroup: findGroup(input, ds.WorkerGroups())}
		if s.WorkerGroup == "" {
			s.WorkerGroup = guessGroup(input)
		}
		if n, ok := firstNumber(input); ok {
			s.MaxSlotsPerPhase = n
		}
		return s
	case rules.TypePhaseWindow:
		s := rules.PhaseWindow{}
		if tasks := findTasks(input, ds); len(tasks) > 0 {
			s.TaskID = tasks[0]
		}
		s.AllowedPhases = findPhases(taskIDPattern.ReplaceAllString(input, " "))
		return s
	case rules.TypePatternMatch:
		return rules.PatternMatch{Regex: findRegex(input)}
	case rules.TypePrecedenceOverride:
		s := rules.PrecedenceOverride{OverrideType: rules.OverrideSpecific, Priority: 5}
		switch {
		case mentions(input, "all rules") || mentions(input, "all"):
			s.OverrideType = rules.OverrideAll
		case mentions(input, "global") || mentions(input, "always"):
			s.OverrideType = rules.OverrideGlobal
		}
		if m := rulePattern.FindStringSubmatch(input); m != nil {
			for _, id := range listSeparator.Split(m[1], -1) {
				if id = strings.TrimSpace(id); id != "" && !strings.EqualFold(id, "all") {
					s.RuleIDs = append(s.RuleIDs, id)
				}
			}
		}
		if n, ok := firstNumber(input); ok && n >= 1 && n <= 10 {
			s.Priority = n
		}
		return s
	}
	spec, _ := rules.ZeroSpec(t)
	return spec
}

// findTasks returns task ids in order of appearance: explicit T-numbers first,
// then dataset task ids mentioned by name.
func findTasks(input string, ds *entities.Dataset) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		key := strings.ToUpper(id)
		if !seen[key] {
			seen[key] = true
			out = append(out, id)
		}
	}
	for _, id := range taskIDPattern.FindAllString(input, -1) {
		add(strings.ToUpper(id))
	}
	for _, id := range ds.TaskIDs() {
		if mentions(input, id) {
			add(id)
		}
	}
	return out
}

// findGroup returns the candidate mentioned in input, preferring the longest
// name so "Sales Ops" wins over "Sales".
func findGroup(input string, candidates []string) string {
	sorted := append([]string(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for _, g := range sorted {
		if mentions(input, g) {
			return g
		}
	}
	return ""
}

func guessGroup(input string) string {
	for _, m := range groupPattern.FindAllStringSubmatch(input, -1) {
		switch strings.ToLower(m[1]) {
		case "the", "a", "each", "every", "any", "all", "per", "of", "client", "worker":
			continue
		}
		return m[1]
	}
	return ""
}

func firstNumber(input string) (int, bool) {
	cleaned := taskIDPattern.ReplaceAllString(input, " ")
	m := numberPattern.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	return n, err == nil
}

func findPhases(input string) []int {
	if m := rangePattern.FindStringSubmatch(input); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			lo, hi = hi, lo
		}
		var out []int
		for p := max(lo, rules.MinPhase); p <= min(hi, rules.MaxPhase); p++ {
			out = append(out, p)
		}
		return out
	}
	seen := map[int]bool{}
	var out []int
	for _, s := range numberPattern.FindAllString(input, -1) {
		n, err := strconv.Atoi(s)
		if err != nil || n < rules.MinPhase || n > rules.MaxPhase || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func findRegex(input string) string {
	if m := quotedPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	if m := prefixPattern.FindStringSubmatch(input); m != nil {
		return "^" + regexp.QuoteMeta(m[1])
	}
	if m := suffixPattern.FindStringSubmatch(input); m != nil {
		return regexp.QuoteMeta(m[1]) + "$"
	}
	if m := containsPattern.FindStringSubmatch(input); m != nil {
		return regexp.QuoteMeta(m[1])
	}
	return ""
}

// mentions reports whether term appears in text as a whole word, ignoring case.
func mentions(text, term string) bool {
	if term == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)(^|\W)` + regexp.QuoteMeta(term) + `($|\W)`)
	return err == nil && re.MatchString(text)
}

// nameFor derives a short display name from a spec.
func nameFor(spec rules.Spec) string {
	switch s := spec.(type) {
	case rules.CoRun:
		if len(s.TaskIDs) > 0 {
			return "Co-run " + strings.Join(s.TaskIDs, ", ")
		}
		return "Co-run tasks"
	case rules.SlotRestriction:
		return strings.TrimSpace(fmt.Sprintf("Slot restriction %s", s.GroupName))
	case rules.LoadLimit:
		return strings.TrimSpace(fmt.Sprintf("Load limit %s", s.WorkerGroup))
	case rules.PhaseWindow:
		return strings.TrimSpace(fmt.Sprintf("Phase window %s", s.TaskID))
	case rules.PatternMatch:
		return "Pattern match"
	case rules.PrecedenceOverride:
		return "Precedence override"
	}
	return "Rule"
}
