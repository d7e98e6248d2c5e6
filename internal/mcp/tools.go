package mcp

import "github.com/mark3labs/mcp-go/mcp"

var detectConflictsTool = mcp.NewTool("detect_conflicts",
	mcp.WithDescription("Detect circular co-run dependencies, contradictory load limits and incompatible phase windows among business rules. Uses the workspace rules when none are given."),
	mcp.WithArray("rules",
		mcp.Description(`Rules in rules.json form, e.g. [{"id":"r1","name":"pair","type":"coRun","isActive":true,"taskIds":["T1","T2"]}]`),
		mcp.Items(map[string]any{"type": "object"}),
	),
)

var scoreRuleTool = mcp.NewTool("score_rule",
	mcp.WithDescription("Score how confident we can be that a parsed rule matches its natural-language description (0-100, with factors and recommendations)."),
	mcp.WithString("input",
		mcp.Required(),
		mcp.Description("The natural-language rule description"),
	),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Parsed rule type"),
		mcp.Enum("coRun", "slotRestriction", "loadLimit", "phaseWindow", "patternMatch", "precedenceOverride"),
	),
	mcp.WithObject("config",
		mcp.Description("Type-specific rule fields, e.g. {\"taskIds\":[\"T1\",\"T2\"]}"),
	),
)

var parseRuleTool = mcp.NewTool("parse_rule",
	mcp.WithDescription("Turn a plain-English business rule into a structured, scored rule suggestion."),
	mcp.WithString("input",
		mcp.Required(),
		mcp.Description("The rule, e.g. \"T1 and T2 must run together\""),
	),
)

var deriveAHPTool = mcp.NewTool("derive_ahp_weights",
	mcp.WithDescription("Derive priority weights from a reciprocal pairwise-comparison matrix (Saaty scale 1/9-9) and report its consistency ratio."),
	mcp.WithArray("matrix",
		mcp.Required(),
		mcp.Description("Square matrix as rows of numbers. A 5x5 matrix is read in the order fairness, priorityLevel, taskFulfillment, workerUtilization, constraints."),
		mcp.Items(map[string]any{"type": "array", "items": map[string]any{"type": "number"}}),
	),
)

var rankWeightsTool = mcp.NewTool("rank_weights",
	mcp.WithDescription("Convert a most-to-least important ordering of the five criteria into weights."),
	mcp.WithArray("order",
		mcp.Required(),
		mcp.Description("All five criteria, most important first"),
		mcp.Items(map[string]any{
			"type": "string",
			"enum": []string{"fairness", "priorityLevel", "taskFulfillment", "workerUtilization", "constraints"},
		}),
	),
)
