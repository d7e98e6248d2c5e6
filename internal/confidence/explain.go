package confidence

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// Factor cutoffs used for explanations and recommendations.
const (
	lowDataQuality       = 70
	lowValidation        = 70
	strongPattern        = 80
	weakPattern          = 60
	clearContext         = 80
	vagueContext         = 60
	highComplexity       = 60
	lowHistoricalSuccess = 80
)

func explain(overall int, threshold Threshold, t rules.Type, f Factors) string {
	parts := []string{fmt.Sprintf("Overall confidence %d%% (%s) for a %s rule.", overall, threshold, t)}

	switch {
	case f.PatternMatch >= strongPattern:
		parts = append(parts, fmt.Sprintf("The request reads like a typical %s rule.", t))
	case f.PatternMatch < weakPattern:
		parts = append(parts, fmt.Sprintf("The request only loosely resembles a %s rule.", t))
	}
	switch {
	case f.ContextClarity >= clearContext:
		parts = append(parts, "It clearly names entities from the loaded data.")
	case f.ContextClarity < vagueContext:
		parts = append(parts, "It is vague about which entities it targets.")
	}
	if f.DataQuality < lowDataQuality {
		parts = append(parts, "The loaded data is incomplete, so checks against it are limited.")
	}
	if f.ValidationPass < lowValidation {
		parts = append(parts, "The configuration failed some checks against the loaded data.")
	}
	if f.RuleComplexity < highComplexity {
		parts = append(parts, "The configuration is complex.")
	}
	return strings.Join(parts, " ")
}

func recommend(f Factors) []string {
	recs := []string{}
	if f.DataQuality < lowDataQuality {
		recs = append(recs, "Load or complete client, worker and task data before applying this rule")
	}
	if f.ValidationPass < lowValidation {
		recs = append(recs, "Check that every referenced task and group exists in the data")
	}
	if f.PatternMatch < weakPattern {
		recs = append(recs, "Rephrase the request with wording typical for this rule type")
	}
	if f.ContextClarity < vagueContext {
		recs = append(recs, "Name the specific tasks or groups the rule applies to")
	}
	if f.RuleComplexity < highComplexity {
		recs = append(recs, "Simplify the configuration or split it into smaller rules")
	}
	if f.HistoricalSuccess < lowHistoricalSuccess {
		recs = append(recs, "Review the result; rules shaped like this often need adjustment")
	}
	return recs
}
