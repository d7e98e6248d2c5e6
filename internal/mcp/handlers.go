package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/weights"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

var errMissing = errors.New("missing argument")

// decodeArg decodes argument key into target. Clients send structured values
// as JSON values or, occasionally, as JSON-encoded strings; both are accepted.
func decodeArg(request mcp.CallToolRequest, key string, target any) error {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return fmt.Errorf("%w: %s", errMissing, key)
	}
	var data []byte
	if s, isString := v.(string); isString {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

// jsonResult renders a one-line summary followed by v as indented JSON.
func jsonResult(summary string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(summary + "\n\n" + string(data)), nil
}

// handleDetectConflicts runs conflict detection over the given rules, or the
// workspace rules when none are passed.
func (s *Server) handleDetectConflicts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var list []rules.BusinessRule
	err := decodeArg(request, "rules", &list)
	switch {
	case errors.Is(err, errMissing):
		list = s.ws.Rules()
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := workspace.NewConflictReport(rules.DetectConflicts(list))
	if report.Total == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No conflicts among %d rule(s).", len(rules.Active(list)))), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d conflict(s): %d error(s), %d warning(s).", report.Total, report.Errors, report.Warnings)
	for _, c := range report.Conflicts {
		fmt.Fprintf(&sb, "\n- [%s] %s", c.Severity, c.Message)
	}
	return jsonResult(sb.String(), report)
}

// handleScoreRule scores a parsed rule against the workspace dataset.
func (s *Server) handleScoreRule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: input"), nil
	}
	typeStr, err := request.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: type"), nil
	}
	t, err := rules.ParseType(typeStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var spec rules.Spec
	var raw json.RawMessage
	switch err := decodeArg(request, "config", &raw); {
	case err == nil:
		if spec, err = rules.DecodeSpec(t, raw); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	case !errors.Is(err, errMissing):
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := confidence.Calculate(input, t, spec, s.ws.Dataset())
	return jsonResult(fmt.Sprintf("Confidence %d (%s). %s", res.Overall, res.Threshold, res.Explanation), res)
}

// handleParseRule parses a natural-language rule into a suggestion.
func (s *Server) handleParseRule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil || strings.TrimSpace(input) == "" {
		return mcp.NewToolResultError("missing required parameter: input"), nil
	}

	sug := s.parser.Parse(ctx, input, s.ws.Dataset())
	summary := fmt.Sprintf("Parsed as %s rule %q via %s, confidence %d (%s).",
		sug.Type, sug.Name, sug.Source, sug.Confidence.Overall, sug.Confidence.Threshold)
	return jsonResult(summary, sug)
}

type ahpOutput struct {
	weights.AHPResult
	Criteria *weights.PriorityWeights `json:"criteria,omitempty"`
}

// handleDeriveAHP derives weights from a comparison matrix without touching
// the workspace.
func (s *Server) handleDeriveAHP(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var rows [][]float64
	if err := decodeArg(request, "matrix", &rows); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := weights.MatrixFromRows(rows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := ahpOutput{AHPResult: m.Derive()}
	if m.Size() == len(weights.Criteria) {
		if pw, err := out.PriorityWeights(); err == nil {
			out.Criteria = &pw
		}
	}

	summary := fmt.Sprintf("Consistency ratio %.3f (%s).", out.ConsistencyRatio, out.Consistency)
	if out.Warning != "" {
		summary += " " + out.Warning
	}
	return jsonResult(summary, out)
}

// handleRankWeights converts a criteria ranking into weights.
func (s *Server) handleRankWeights(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var order []weights.Criterion
	if err := decodeArg(request, "order", &order); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pw, err := weights.FromRanking(order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Ranked %s first.", order[0]), map[string]any{
		"weights":    pw,
		"normalized": pw.Normalize(),
	})
}
