package weights

import "fmt"

// RankWeight is the UI weight assigned to the criterion at 0-indexed rank i.
func RankWeight(i int) float64 {
	w := 10 - 2*i
	if w < 1 {
		w = 1
	}
	return float64(w)
}

// FromRanking converts a most-to-least important ordering of all five
// criteria into UI weights [10, 8, 6, 4, 2].
func FromRanking(order []Criterion) (PriorityWeights, error) {
	if err := ValidateRanking(order); err != nil {
		return PriorityWeights{}, err
	}
	var w PriorityWeights
	for i, c := range order {
		w = w.Set(c, RankWeight(i))
	}
	return w, nil
}

// ValidateRanking checks that order is a permutation of Criteria.
func ValidateRanking(order []Criterion) error {
	if len(order) != len(Criteria) {
		return fmt.Errorf("ranking must list all %d criteria, got %d", len(Criteria), len(order))
	}
	seen := make(map[Criterion]bool, len(order))
	for _, c := range order {
		if _, err := ParseCriterion(string(c)); err != nil {
			return err
		}
		if seen[c] {
			return fmt.Errorf("criterion %s ranked more than once", c)
		}
		seen[c] = true
	}
	return nil
}

// RankingFrom orders criteria by descending weight, breaking ties by
// canonical order. It is the inverse of FromRanking.
func RankingFrom(w PriorityWeights) []Criterion {
	out := append([]Criterion(nil), Criteria...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && w.Get(out[j]) > w.Get(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
