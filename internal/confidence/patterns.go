package confidence

import (
	"regexp"

	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// patternBanks holds the phrasing typical for each rule type.
var patternBanks = map[rules.Type][]*regexp.Regexp{
	rules.TypeCoRun: compileAll(
		`\b(together|same time|simultaneous(ly)?|co-?run|alongside|in parallel|paired?)\b`,
		`\bT\d+\b.*\b(and|with|&)\b.*\bT\d+\b`,
		`\b(run|execute|schedule)\w*\b.*\b(together|with)\b`,
		`\b(bundle|group)\w* (the )?tasks\b`,
	),
	rules.TypeSlotRestriction: compileAll(
		`\bslots?\b`,
		`\b(common|shared|overlap\w*)\b`,
		`\b(minimum|at least|min)\b`,
		`\b(client|worker)s? group\b`,
	),
	rules.TypeLoadLimit: compileAll(
		`\b(at most|maximum|max|no more than|up to|limit\w*|cap)\b`,
		`\b\d+\s*(tasks?|slots?)\b`,
		`\bper phase\b`,
		`\b(workers?|team|group)\b.*\b(handle|take|work on|load)\b`,
	),
	rules.TypePhaseWindow: compileAll(
		`\bphases?\b`,
		`\bphases?\s*\d+(\s*(-|to|through|and|,)\s*\d+)*`,
		`\b(only|must|should)\b.*\b(run|happen|occur|scheduled?)\b.*\b(in|during|between)\b`,
		`\b(window|between|during)\b`,
	),
	rules.TypePatternMatch: compileAll(
		`\b(regex|pattern|matching|matches)\b`,
		`\b(starts? with|ends? with|contains?|prefix|suffix)\b`,
		`\b(all|any|every)\b.*\b(tasks?|clients?|workers?)\b`,
		`\b(like|named)\b`,
	),
	rules.TypePrecedenceOverride: compileAll(
		`\b(priority|precedence|precede|overrides?)\b`,
		`\b(before|first|ahead of|takes? priority)\b`,
		`\b(global|specific|all rules)\b`,
		`\brules?\b`,
	),
}

var (
	digitPattern  = regexp.MustCompile(`\d`)
	entityPattern = regexp.MustCompile(`(?i)\bT\d+\b|\b(team|group|client|worker|task)s?\b`)
	actionPattern = regexp.MustCompile(`(?i)\b(should|must|need|require|limit|restrict|allow)`)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// PatternScore is the 0-100 pattern-bank score of input for rule type t.
// It is exported so the heuristic parser can pick the best-matching type.
func PatternScore(input string, t rules.Type) float64 {
	bank := patternBanks[t]
	var score float64
	if len(bank) > 0 {
		for _, re := range bank {
			if re.MatchString(input) {
				score += 100 / float64(len(bank))
			}
		}
	}
	const bonus = 20.0 / 3
	if digitPattern.MatchString(input) {
		score += bonus
	}
	if entityPattern.MatchString(input) {
		score += bonus
	}
	if actionPattern.MatchString(input) {
		score += bonus
	}
	return clamp(score)
}
