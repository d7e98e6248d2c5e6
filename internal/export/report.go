package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

// Markdown renders a human-readable summary of doc.
func Markdown(doc Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Rules configuration\n\n")
	fmt.Fprintf(&b, "Generated %s. Format version %s.\n\n", doc.Metadata.GeneratedAt.Format("2006-01-02 15:04 MST"), doc.Version)

	b.WriteString("## Data\n\n| Clients | Workers | Tasks |\n|---:|---:|---:|\n")
	s := doc.Metadata.DataSummary
	fmt.Fprintf(&b, "| %d | %d | %d |\n\n", s.Clients, s.Workers, s.Tasks)

	fmt.Fprintf(&b, "## Rules\n\n%d of %d rules are active.\n\n", doc.Metadata.ActiveRules, doc.Metadata.TotalRules)
	if len(doc.Rules) > 0 {
		b.WriteString("| Name | Type | Description |\n|---|---|---|\n")
		for _, r := range doc.Rules {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(r.Name), r.Type(), cell(r.Description))
		}
		b.WriteString("\n")
	}

	p := doc.Configuration.Prioritization
	fmt.Fprintf(&b, "## Prioritization\n\nMethod: **%s**", p.Method)
	if p.Preset != "" {
		fmt.Fprintf(&b, " (%s)", p.Preset)
	}
	b.WriteString("\n\n| Criterion | Weight | Share |\n|---|---:|---:|\n")
	for _, c := range p.Criteria {
		fmt.Fprintf(&b, "| %s | %.4f | %.1f%% |\n", c.Name, c.Weight, c.Percentage)
	}
	b.WriteString("\n")
	if p.AHP != nil {
		fmt.Fprintf(&b, "AHP consistency ratio %.4f (%s).", p.AHP.ConsistencyRatio, p.AHP.Consistency)
		if p.AHP.Warning != "" {
			fmt.Fprintf(&b, " %s.", strings.TrimSuffix(p.AHP.Warning, "."))
		}
		b.WriteString("\n\n")
	}

	cr := doc.Statistics.ConflictResolution
	b.WriteString("## Conflicts\n\n")
	if cr.Total == 0 {
		b.WriteString("No conflicts detected.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "%d conflicts: %d errors, %d warnings.\n\n", cr.Total, cr.Errors, cr.Warnings)
	conflicts := append([]rules.Conflict(nil), cr.Conflicts...)
	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].Severity == rules.SeverityError && conflicts[j].Severity != rules.SeverityError
	})
	for _, c := range conflicts {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", c.Severity, c.Type, cell(c.Message))
	}
	return b.String()
}

// cell escapes text for use inside a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

var reportPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Rules configuration</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 60rem; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d0d7de; padding: .35rem .75rem; }
th { background: #f6f8fa; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

// WriteReport renders doc as a standalone HTML page.
func WriteReport(w io.Writer, doc Document) error {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(doc)), &body); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}
	return reportPage.Execute(w, template.HTML(body.String()))
}
