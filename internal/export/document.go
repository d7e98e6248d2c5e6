// Package export assembles the rules.json document and the cleaned data
// bundle handed to the downstream allocation engine.
package export

import (
	"math"
	"time"

	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

// FormatVersion is the rules.json schema version.
const FormatVersion = "1.0"

// Input is everything the assembler reads.
type Input struct {
	Dataset *entities.Dataset
	Rules   []rules.BusinessRule
	Weights workspace.WeightState
	Now     time.Time
}

// InputFrom captures the current state of ws.
func InputFrom(ws *workspace.Workspace) Input {
	return Input{
		Dataset: ws.Dataset(),
		Rules:   ws.Rules(),
		Weights: ws.Weights(),
		Now:     time.Now(),
	}
}

// Document is the rules.json export.
type Document struct {
	Version       string               `json:"version"`
	Metadata      Metadata             `json:"metadata"`
	Rules         []rules.BusinessRule `json:"rules"`
	Configuration Configuration        `json:"configuration"`
	Statistics    Statistics           `json:"statistics"`
}

// Metadata describes when the document was built and from what.
type Metadata struct {
	GeneratedAt time.Time        `json:"generatedAt"`
	TotalRules  int              `json:"totalRules"`
	ActiveRules int              `json:"activeRules"`
	DataSummary entities.Summary `json:"dataSummary"`
}

// Configuration holds the engine settings derived from the workspace.
type Configuration struct {
	Prioritization Prioritization `json:"prioritization"`
}

// Prioritization carries the weights in the normalized (sum 1) form the
// allocation engine consumes, plus the UI values they came from.
type Prioritization struct {
	Method    weights.Mode            `json:"method"`
	Preset    string                  `json:"preset,omitempty"`
	Weights   weights.PriorityWeights `json:"weights"`
	UIWeights weights.PriorityWeights `json:"uiWeights"`
	Ranking   []weights.Criterion     `json:"ranking,omitempty"`
	Criteria  []CriterionWeight       `json:"criteria"`
	AHP       *AHPSummary             `json:"ahp,omitempty"`
}

// CriterionWeight is one criterion's normalized weight with its description.
type CriterionWeight struct {
	Name        weights.Criterion `json:"name"`
	Weight      float64           `json:"weight"`
	Percentage  float64           `json:"percentage"`
	Description string            `json:"description"`
	Algorithm   string            `json:"algorithm"`
}

// AHPSummary reports the consistency of the comparison matrix behind AHP weights.
type AHPSummary struct {
	ConsistencyRatio float64 `json:"consistencyRatio"`
	Consistency      string  `json:"consistency"`
	Warning          string  `json:"warning,omitempty"`
}

// Statistics counts exported rules by type and summarizes their conflicts.
type Statistics struct {
	RulesByType        map[rules.Type]int `json:"rulesByType"`
	ConflictResolution ConflictResolution `json:"conflictResolution"`
}

// ConflictResolution summarizes the conflicts among the exported rules.
// Blocking is set when any conflict has error severity.
type ConflictResolution struct {
	Total     int              `json:"total"`
	Errors    int              `json:"errors"`
	Warnings  int              `json:"warnings"`
	Blocking  bool             `json:"blocking"`
	Conflicts []rules.Conflict `json:"conflicts"`
}

// Build assembles the export document. Only active rules are exported;
// statistics count them by type.
func Build(in Input) Document {
	active := rules.Active(in.Rules)
	report := workspace.NewConflictReport(rules.DetectConflicts(active))

	byType := make(map[rules.Type]int, len(rules.Types))
	for _, t := range rules.Types {
		byType[t] = 0
	}
	for t, n := range rules.CountByType(active) {
		byType[t] = n
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	return Document{
		Version: FormatVersion,
		Metadata: Metadata{
			GeneratedAt: now.UTC(),
			TotalRules:  len(in.Rules),
			ActiveRules: len(active),
			DataSummary: in.Dataset.Summary(),
		},
		Rules:         active,
		Configuration: Configuration{Prioritization: prioritization(in.Weights)},
		Statistics: Statistics{
			RulesByType: byType,
			ConflictResolution: ConflictResolution{
				Total:     report.Total,
				Errors:    report.Errors,
				Warnings:  report.Warnings,
				Blocking:  report.Errors > 0,
				Conflicts: report.Conflicts,
			},
		},
	}
}

func prioritization(state workspace.WeightState) Prioritization {
	normalized := state.Weights.Normalize()
	pct := state.Weights.Percentages()

	p := Prioritization{
		Method:    state.Mode,
		Preset:    state.Preset,
		Weights:   normalized,
		UIWeights: state.Weights,
		Ranking:   state.Ranking,
		Criteria:  make([]CriterionWeight, 0, len(weights.Criteria)),
	}
	if p.Method == "" {
		p.Method = weights.ModeSliders
	}
	for _, c := range weights.Criteria {
		info := weights.Describe(c)
		p.Criteria = append(p.Criteria, CriterionWeight{
			Name:        c,
			Weight:      round(normalized.Get(c), 4),
			Percentage:  round(pct[c], 1),
			Description: info.Description,
			Algorithm:   info.Algorithm,
		})
	}
	if state.AHP != nil {
		p.AHP = &AHPSummary{
			ConsistencyRatio: round(state.AHP.ConsistencyRatio, 4),
			Consistency:      state.AHP.Consistency,
			Warning:          state.AHP.Warning,
		}
	}
	return p
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
