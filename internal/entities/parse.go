package entities

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SplitList splits a comma-separated cell, trimming whitespace and dropping
// empty tokens.
func SplitList(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}

// ParsePhases parses a phase cell. Accepted forms are a range ("1-3"), a
// JSON-style array ("[2,4]") and a plain comma list ("2,4"). The result is
// sorted and de-duplicated.
func ParsePhases(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")

	if lo, hi, ok := strings.Cut(s, "-"); ok && !strings.Contains(s, ",") {
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid phase range %q", s)
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid phase range %q", s)
		}
		if from > to {
			return nil, fmt.Errorf("invalid phase range %q: start after end", s)
		}
		phases := make([]int, 0, to-from+1)
		for p := from; p <= to; p++ {
			phases = append(phases, p)
		}
		return phases, nil
	}

	seen := make(map[int]bool)
	var phases []int
	for _, token := range SplitList(s) {
		p, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid phase %q", token)
		}
		if !seen[p] {
			seen[p] = true
			phases = append(phases, p)
		}
	}
	sort.Ints(phases)
	return phases, nil
}
