// Package assistant turns plain-language descriptions into rule suggestions.
// An LLM is consulted when one is configured; otherwise, or whenever the
// model fails or is unsure, a deterministic heuristic parser is used.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/llm"
	"github.com/ziadkadry99/data-alchemist/internal/progress"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 10 * time.Second

// MinAIConfidence is the self-reported confidence below which a model answer
// is discarded in favour of the heuristic parser.
const MinAIConfidence = 0.5

var (
	errMalformed     = errors.New("model response is not a JSON object")
	errLowConfidence = errors.New("model confidence below threshold")
)

// Suggestion is a parsed, scored rule proposal.
type Suggestion struct {
	Input      string            `json:"input"`
	Type       rules.Type        `json:"type"`
	Name       string            `json:"name"`
	Spec       rules.Spec        `json:"config"`
	Source     confidence.Source `json:"source"`
	Confidence confidence.Result `json:"confidence"`
	// Fallback holds the reason the model answer was not used, if any.
	Fallback string `json:"fallback,omitempty"`
}

// Rule returns the suggestion as an unsaved, active rule.
func (s Suggestion) Rule() rules.BusinessRule {
	return rules.BusinessRule{Name: s.Name, Description: s.Input, IsActive: true, Spec: s.Spec}
}

// Parser produces suggestions. The zero value is not usable; use NewParser.
type Parser struct {
	provider llm.Provider
	model    string
	timeout  time.Duration
}

// NewParser returns a parser. provider may be nil, in which case only the
// heuristic parser runs.
func NewParser(provider llm.Provider, model string, timeout time.Duration) *Parser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Parser{provider: provider, model: model, timeout: timeout}
}

// AIEnabled reports whether a model is configured.
func (p *Parser) AIEnabled() bool { return p.provider != nil }

// Parse builds and scores a suggestion for input. It never fails: model
// problems are logged and the heuristic result is returned instead.
func (p *Parser) Parse(ctx context.Context, input string, ds *entities.Dataset) Suggestion {
	input = strings.TrimSpace(input)
	s := Suggestion{Input: input}

	if p.provider != nil {
		t, name, spec, err := p.parseAI(ctx, input, ds)
		if err == nil {
			s.Type, s.Name, s.Spec, s.Source = t, name, spec, confidence.SourceAI
			s.Confidence = confidence.Calculate(input, t, spec, ds)
			return s
		}
		log.Printf("assistant: %s parse failed, using heuristics: %v", p.provider.Name(), err)
		s.Fallback = err.Error()
	}

	s.Type, s.Name, s.Spec = Heuristic(input, ds)
	s.Source = confidence.SourceHeuristic
	s.Confidence = confidence.Calculate(input, s.Type, s.Spec, ds)
	return s
}

func (p *Parser) parseAI(ctx context.Context, input string, ds *entities.Dataset) (rules.Type, string, rules.Spec, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt(input, ds)},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return "", "", nil, err
	}

	body := jsonObject(resp.Content)
	if body == "" || !gjson.Valid(body) {
		return "", "", nil, errMalformed
	}
	t, err := rules.ParseType(gjson.Get(body, "type").String())
	if err != nil {
		return "", "", nil, err
	}
	if c := gjson.Get(body, "confidence"); c.Exists() && c.Float() < MinAIConfidence {
		return "", "", nil, fmt.Errorf("%w: %.2f", errLowConfidence, c.Float())
	}
	cfg := gjson.Get(body, "config")
	if !cfg.IsObject() {
		return "", "", nil, fmt.Errorf("%w: missing config", errMalformed)
	}
	spec, err := rules.DecodeSpec(t, []byte(cfg.Raw))
	if err != nil {
		return "", "", nil, err
	}
	name := strings.TrimSpace(gjson.Get(body, "name").String())
	if name == "" {
		name = nameFor(spec)
	}
	return t, name, spec, nil
}

// jsonObject returns the outermost {...} span of s, dropping code fences or
// prose around it.
func jsonObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// ParseBatch parses each input in order, reporting progress to rep.
func (p *Parser) ParseBatch(ctx context.Context, inputs []string, ds *entities.Dataset, rep progress.Reporter) []Suggestion {
	if rep == nil {
		rep = progress.Nop{}
	}
	rep.Start(len(inputs))
	defer rep.Finish()

	out := make([]Suggestion, 0, len(inputs))
	for i, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		s := p.Parse(ctx, input, ds)
		out = append(out, s)
		rep.Update(i+1, fmt.Sprintf("%s (%d)", s.Type, s.Confidence.Overall))
	}
	return out
}
