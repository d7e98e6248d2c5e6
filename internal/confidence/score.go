package confidence

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// Minimum record counts for a dataset to count as sufficient.
const (
	minClients = 5
	minWorkers = 3
	minTasks   = 5
)

var historicalBase = map[rules.Type]float64{
	rules.TypeLoadLimit:          85,
	rules.TypeCoRun:              75,
	rules.TypeSlotRestriction:    90,
	rules.TypePhaseWindow:        80,
	rules.TypePatternMatch:       70,
	rules.TypePrecedenceOverride: 65,
}

// Calculate scores a parsed rule. spec may be nil, in which case the zero
// configuration of ruleType is scored. ds may be nil. The result depends only
// on the arguments.
func Calculate(input string, ruleType rules.Type, spec rules.Spec, ds *entities.Dataset) Result {
	if spec == nil || spec.Type() != ruleType {
		spec, _ = rules.ZeroSpec(ruleType)
	}

	f := Factors{
		DataQuality:       dataQuality(ds),
		PatternMatch:      PatternScore(input, ruleType),
		RuleComplexity:    ruleComplexity(spec),
		ContextClarity:    contextClarity(input, ds),
		ValidationPass:    validationPass(spec, ds),
		HistoricalSuccess: historicalSuccess(ruleType, spec),
	}
	overall := int(math.Round(f.Weighted()))
	if overall < 0 {
		overall = 0
	} else if overall > 100 {
		overall = 100
	}
	threshold := Classify(overall)
	return Result{
		Overall:         overall,
		Factors:         f,
		Explanation:     explain(overall, threshold, ruleType, f),
		Recommendations: recommend(f),
		Threshold:       threshold,
	}
}

func dataQuality(ds *entities.Dataset) float64 {
	if ds.IsEmpty() {
		return 0
	}

	var filled, total int
	for _, c := range ds.Clients {
		total += 2
		filled += count(strings.TrimSpace(c.ClientName) != "", c.PriorityLevel > 0)
	}
	for _, w := range ds.Workers {
		total += 2
		filled += count(strings.TrimSpace(w.WorkerName) != "", w.QualificationLevel > 0)
	}
	for _, t := range ds.Tasks {
		total += 2
		filled += count(strings.TrimSpace(t.TaskName) != "", t.Duration > 0)
	}
	completeness := float64(filled) / float64(total)

	volume := (ratio(len(ds.Clients), minClients) +
		ratio(len(ds.Workers), minWorkers) +
		ratio(len(ds.Tasks), minTasks)) / 3

	var requested, skills, required bool
	for _, c := range ds.Clients {
		requested = requested || strings.TrimSpace(c.RequestedTaskIDs) != ""
	}
	for _, w := range ds.Workers {
		skills = skills || strings.TrimSpace(w.Skills) != ""
	}
	for _, t := range ds.Tasks {
		required = required || strings.TrimSpace(t.RequiredSkills) != ""
	}
	crossRef := float64(count(requested, skills, required)) / 3

	return clamp((completeness + volume + crossRef) / 3 * 100)
}

var regexMeta = regexp.MustCompile(`[.*+?^${}()|\[\]\\]`)

func ruleComplexity(spec rules.Spec) float64 {
	score := 80.0
	switch s := spec.(type) {
	case rules.CoRun:
		switch n := len(s.TaskIDs); {
		case n > 5:
			score -= 20
		case n > 3:
			score -= 10
		}
	case rules.LoadLimit:
		if s.MaxSlotsPerPhase > 10 {
			score -= 15
		} else if s.MaxSlotsPerPhase < 2 {
			score -= 10
		}
	case rules.PatternMatch:
		if len(s.Regex) > 20 {
			score -= 20
		}
		if regexMeta.MatchString(s.Regex) {
			score -= 10
		}
	case rules.PrecedenceOverride:
		score -= 10
		if s.OverrideType == rules.OverrideAll {
			score -= 15
		}
	case rules.PhaseWindow:
		if len(s.AllowedPhases) > 3 {
			score -= 10
		}
	case rules.SlotRestriction:
		if s.MinCommonSlots > 3 {
			score -= 10
		}
	}
	return math.Max(score, 30)
}

func contextClarity(input string, ds *entities.Dataset) float64 {
	score := 50.0
	if mentionsAny(input, ds.WorkerGroups()) {
		score += 15
	}
	if mentionsAny(input, ds.ClientGroups()) {
		score += 15
	}
	if mentionsAny(input, ds.TaskIDs()) {
		score += 15
	}
	if mentionsAny(input, ds.Skills()) {
		score += 10
	}
	if digitPattern.MatchString(input) {
		score += 10
	}
	if actionPattern.MatchString(input) {
		score += 10
	}
	switch words := len(strings.Fields(input)); {
	case words < 5:
		score -= 15
	case words > 30:
		score -= 10
	case words >= 8 && words <= 20:
		score += 10
	}
	return clamp(score)
}

func validationPass(spec rules.Spec, ds *entities.Dataset) float64 {
	score := 100.0
	switch s := spec.(type) {
	case rules.LoadLimit:
		if !ds.HasWorkerGroup(s.WorkerGroup) {
			score -= 30
		}
		if s.MaxSlotsPerPhase <= 0 {
			score -= 40
		}
	case rules.CoRun:
		if len(s.TaskIDs) < 2 {
			score -= 40
		}
		for _, id := range s.TaskIDs {
			if !ds.HasTask(id) {
				score -= 20
			}
		}
	case rules.PatternMatch:
		if s.Regex == "" {
			score -= 50
		} else if _, err := regexp.Compile(s.Regex); err != nil {
			score -= 40
		}
	case rules.PhaseWindow:
		if !ds.HasTask(s.TaskID) {
			score -= 30
		}
		if len(s.AllowedPhases) == 0 {
			score -= 40
		}
		for _, p := range s.AllowedPhases {
			if p < rules.MinPhase || p > rules.MaxPhase {
				score -= 20
				break
			}
		}
	case rules.SlotRestriction:
		known := false
		switch s.GroupType {
		case rules.GroupTypeClient:
			known = ds.HasClientGroup(s.GroupName)
		case rules.GroupTypeWorker:
			known = ds.HasWorkerGroup(s.GroupName)
		}
		if !known {
			score -= 30
		}
		if s.MinCommonSlots <= 0 {
			score -= 30
		}
	case rules.PrecedenceOverride:
		if len(s.RuleIDs) == 0 {
			score -= 30
		}
		if s.Priority < 1 {
			score -= 20
		}
	}
	return math.Max(score, 0)
}

func historicalSuccess(t rules.Type, spec rules.Spec) float64 {
	score := historicalBase[t]
	switch s := spec.(type) {
	case rules.CoRun:
		n := len(s.TaskIDs)
		if n >= 2 && n <= 3 {
			score += 10
		} else if n > 4 {
			score -= 15
		}
	case rules.LoadLimit:
		if s.MaxSlotsPerPhase >= 2 && s.MaxSlotsPerPhase <= 6 {
			score += 5
		} else if s.MaxSlotsPerPhase > 10 {
			score -= 10
		}
	case rules.PhaseWindow:
		if n := len(s.AllowedPhases); n >= 1 && n <= 3 {
			score += 5
		}
	case rules.PatternMatch:
		if len(s.Regex) > 30 {
			score -= 10
		}
	case rules.PrecedenceOverride:
		if s.OverrideType == rules.OverrideAll {
			score -= 10
		}
	case rules.SlotRestriction:
		if s.MinCommonSlots >= 1 && s.MinCommonSlots <= 3 {
			score += 5
		}
	}
	return clamp(score)
}

// mentionsAny reports whether text contains any term as a whole word,
// ignoring case.
func mentionsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if mentions(lower, strings.ToLower(strings.TrimSpace(term))) {
			return true
		}
	}
	return false
}

func mentions(text, term string) bool {
	if term == "" {
		return false
	}
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundary(text, start-1) && boundary(text, end) {
			return true
		}
		from = start + 1
	}
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	r := rune(text[i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

func count(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}

func ratio(n, want int) float64 {
	return math.Min(float64(n)/float64(want), 1)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
