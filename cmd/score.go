package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/assistant"
	"github.com/ziadkadry99/data-alchemist/internal/confidence"
	"github.com/ziadkadry99/data-alchemist/internal/config"
	"github.com/ziadkadry99/data-alchemist/internal/entities"
	"github.com/ziadkadry99/data-alchemist/internal/progress"
	"github.com/ziadkadry99/data-alchemist/internal/rules"
)

var (
	scoreType   string
	scoreConfig string
	scoreData   string
	scoreBatch  string
)

var scoreCmd = &cobra.Command{
	Use:   "score [description]",
	Short: "Score confidence in a rule parsed from plain English",
	Long: `Scores a natural-language rule description. With --type (and optionally
--config) the given parse is scored as-is; without it the description is
parsed first, by the configured AI provider or by heuristics. --batch scores
one description per line of a file.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if scoreBatch != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		var ds *entities.Dataset
		if scoreData != "" {
			if ds, err = loadDataset(scoreData); err != nil {
				return err
			}
		} else {
			ds = loadDataDir(cfg)
		}

		if scoreBatch != "" {
			inputs, err := readLines(scoreBatch)
			if err != nil {
				return err
			}
			parser := createParser(cfg)
			suggestions := parser.ParseBatch(cmd.Context(), inputs, ds, progress.NewReporter("Scoring rules"))
			if asJSON {
				return printJSON(suggestions)
			}
			printSuggestions(suggestions)
			return nil
		}

		input := args[0]
		if scoreType == "" {
			s := createParser(cfg).Parse(cmd.Context(), input, ds)
			if asJSON {
				return printJSON(s)
			}
			fmt.Printf("Parsed as %s rule %q (%s)\n", s.Type, s.Name, s.Source)
			if s.Fallback != "" {
				fmt.Printf("AI answer not used: %s\n", s.Fallback)
			}
			printResult(s.Confidence)
			return nil
		}

		t, err := rules.ParseType(scoreType)
		if err != nil {
			return err
		}
		var spec rules.Spec
		if scoreConfig != "" {
			if spec, err = rules.DecodeSpec(t, []byte(scoreConfig)); err != nil {
				return fmt.Errorf("invalid --config: %w", err)
			}
		}
		res := confidence.Calculate(input, t, spec, ds)
		if asJSON {
			return printJSON(res)
		}
		printResult(res)
		return nil
	},
}

func printResult(res confidence.Result) {
	fmt.Printf("Confidence: %d (%s)\n%s\n\n", res.Overall, res.Threshold, res.Explanation)

	f := res.Factors
	tw := newTable(table.Row{"Factor", "Score"})
	tw.AppendRows([]table.Row{
		{"Pattern match", pct(f.PatternMatch)},
		{"Context clarity", pct(f.ContextClarity)},
		{"Data quality", pct(f.DataQuality)},
		{"Rule complexity", pct(f.RuleComplexity)},
		{"Validation", pct(f.ValidationPass)},
		{"Historical success", pct(f.HistoricalSuccess)},
	})
	tw.Render()

	for _, r := range res.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
}

func printSuggestions(list []assistant.Suggestion) {
	tw := newTable(table.Row{"#", "Input", "Type", "Source", "Confidence", "Threshold"})
	for i, s := range list {
		tw.AppendRow(table.Row{i + 1, s.Input, s.Type, s.Source, s.Confidence.Overall, s.Confidence.Threshold})
	}
	tw.Render()
}

func pct(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

// readLines returns the non-blank lines of path, skipping # comments.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

func init() {
	scoreCmd.Flags().StringVar(&scoreType, "type", "", "parsed rule type (coRun, slotRestriction, loadLimit, phaseWindow, patternMatch, precedenceOverride)")
	scoreCmd.Flags().StringVar(&scoreConfig, "config", "", "parsed rule fields as JSON, e.g. '{\"taskIds\":[\"T1\",\"T2\"]}'")
	scoreCmd.Flags().StringVar(&scoreData, "data", "", "CSV directory or JSON dataset to score against (default: data_dir)")
	scoreCmd.Flags().StringVar(&scoreBatch, "batch", "", "file with one rule description per line")
	rootCmd.AddCommand(scoreCmd)
}
