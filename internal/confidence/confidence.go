// Package confidence scores how safely a parsed business rule can be applied.
package confidence

import "time"

// Threshold is the action band an overall score falls into.
type Threshold string

const (
	ThresholdAutoApply         Threshold = "auto-apply"
	ThresholdReviewRecommended Threshold = "review-recommended"
	ThresholdManualReview      Threshold = "manual-review"
)

// Band cutoffs on the overall score.
const (
	AutoApplyMin = 85
	ReviewMin    = 65
)

// Classify maps an overall score onto its threshold band.
func Classify(overall int) Threshold {
	switch {
	case overall >= AutoApplyMin:
		return ThresholdAutoApply
	case overall >= ReviewMin:
		return ThresholdReviewRecommended
	default:
		return ThresholdManualReview
	}
}

// Factors are the six sub-scores, each in [0, 100].
type Factors struct {
	DataQuality       float64 `json:"dataQuality"`
	PatternMatch      float64 `json:"patternMatch"`
	RuleComplexity    float64 `json:"ruleComplexity"`
	ContextClarity    float64 `json:"contextClarity"`
	ValidationPass    float64 `json:"validationPass"`
	HistoricalSuccess float64 `json:"historicalSuccess"`
}

// Factor weights. They sum to exactly 1.
const (
	WeightDataQuality       = 0.15
	WeightPatternMatch      = 0.20
	WeightRuleComplexity    = 0.15
	WeightContextClarity    = 0.20
	WeightValidationPass    = 0.25
	WeightHistoricalSuccess = 0.05
)

// Weighted returns the unrounded overall score.
func (f Factors) Weighted() float64 {
	return f.DataQuality*WeightDataQuality +
		f.PatternMatch*WeightPatternMatch +
		f.RuleComplexity*WeightRuleComplexity +
		f.ContextClarity*WeightContextClarity +
		f.ValidationPass*WeightValidationPass +
		f.HistoricalSuccess*WeightHistoricalSuccess
}

// Result is the confidence assessment of one parsed rule.
type Result struct {
	Overall         int       `json:"overall"`
	Factors         Factors   `json:"factors"`
	Explanation     string    `json:"explanation"`
	Recommendations []string  `json:"recommendations"`
	Threshold       Threshold `json:"threshold"`
}

// Source identifies how the scored rule was produced.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceAI        Source = "ai"
	SourceManual    Source = "manual"
)

// Record is a persisted scoring event.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Input     string    `json:"input"`
	RuleType  string    `json:"rule_type"`
	Overall   int       `json:"overall"`
	Threshold Threshold `json:"threshold"`
	Factors   Factors   `json:"factors"`
	Source    Source    `json:"source"`
}

// ListFilter controls which records are returned by List.
type ListFilter struct {
	RuleType  string    `json:"rule_type,omitempty"`
	Threshold Threshold `json:"threshold,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Offset    int       `json:"offset,omitempty"`
}

// Stats holds aggregate scoring statistics.
type Stats struct {
	Total       int               `json:"total"`
	ByThreshold map[Threshold]int `json:"by_threshold"`
	MeanOverall float64           `json:"mean_overall"`
}
