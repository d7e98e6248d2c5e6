package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/weights"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

var weightsApply bool

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Derive prioritization weights",
	Long:  `Derives criterion weights from a ranking, an AHP pairwise-comparison matrix or a named preset. With --apply the result is saved to the workspace.`,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the workspace weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ws, _, cleanup, err := openLocalWorkspace(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		state := ws.Weights()
		if asJSON {
			return printJSON(state)
		}
		fmt.Printf("Method: %s\n", state.Mode)
		printWeights(state.Weights)
		return nil
	},
}

var weightsRankCmd = &cobra.Command{
	Use:   "rank <criterion>...",
	Short: "Weights from a most-to-least important ordering of all five criteria",
	Example: `  alchemist weights rank constraints fairness priorityLevel taskFulfillment workerUtilization
  alchemist weights rank constraints,fairness,priorityLevel,taskFulfillment,workerUtilization`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var order []weights.Criterion
		for _, arg := range args {
			for _, name := range strings.Split(arg, ",") {
				if name = strings.TrimSpace(name); name == "" {
					continue
				}
				c, err := weights.ParseCriterion(name)
				if err != nil {
					return err
				}
				order = append(order, c)
			}
		}
		pw, err := weights.FromRanking(order)
		if err != nil {
			return err
		}
		if weightsApply {
			if err := applyToWorkspace(cmd, func(ws *workspace.Workspace) error {
				_, err := ws.ApplyRanking(order)
				return err
			}); err != nil {
				return err
			}
		}
		if asJSON {
			return printJSON(pw)
		}
		printWeights(pw)
		return nil
	},
}

var weightsAHPCmd = &cobra.Command{
	Use:   "ahp <matrix.json | json>",
	Short: "Weights from a pairwise-comparison matrix",
	Long: `Derives weights from a reciprocal pairwise-comparison matrix on the Saaty
scale (1/9 to 9) and reports its consistency ratio. The matrix is a JSON array
of rows, given inline or as a file. A 5x5 matrix is read in criterion order:
fairness, priorityLevel, taskFulfillment, workerUtilization, constraints.`,
	Example: `  alchemist weights ahp '[[1,3],[0.3333333333,1]]'
  alchemist weights ahp comparisons.json --apply`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data := []byte(args[0])
		if !strings.HasPrefix(strings.TrimSpace(args[0]), "[") {
			var err error
			if data, err = os.ReadFile(args[0]); err != nil {
				return fmt.Errorf("reading matrix: %w", err)
			}
		}
		var rows [][]float64
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("decoding matrix: %w", err)
		}
		m, err := weights.MatrixFromRows(rows)
		if err != nil {
			return err
		}

		res := m.Derive()
		if weightsApply {
			if err := applyToWorkspace(cmd, func(ws *workspace.Workspace) error {
				_, err := ws.ApplyAHP(m)
				return err
			}); err != nil {
				return err
			}
		}
		if asJSON {
			return printJSON(res)
		}

		if pw, err := res.PriorityWeights(); err == nil {
			printWeights(pw)
		} else {
			tw := newTable(table.Row{"Row", "Weight", "UI weight"})
			for i, w := range res.Weights {
				tw.AppendRow(table.Row{i + 1, fmt.Sprintf("%.4f", w), fmt.Sprintf("%.2f", res.UIWeights[i])})
			}
			tw.Render()
		}
		fmt.Printf("\nλmax %.4f, CI %.4f, CR %.4f (%s)\n", res.LambdaMax, res.ConsistencyIndex, res.ConsistencyRatio, res.Consistency)
		if res.Warning != "" {
			fmt.Printf("Warning: %s\n", res.Warning)
		}
		return nil
	},
}

var weightsPresetCmd = &cobra.Command{
	Use:   "preset [name]",
	Short: "List presets, or show the weights of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			presets := weights.Presets()
			if asJSON {
				return printJSON(presets)
			}
			tw := newTable(table.Row{"Preset", "Description"})
			for _, p := range presets {
				tw.AppendRow(table.Row{p.Name, p.Description})
			}
			tw.Render()
			return nil
		}

		pw, err := weights.Preset(args[0])
		if err != nil {
			return err
		}
		if weightsApply {
			if err := applyToWorkspace(cmd, func(ws *workspace.Workspace) error {
				_, err := ws.ApplyPreset(args[0])
				return err
			}); err != nil {
				return err
			}
		}
		if asJSON {
			return printJSON(pw)
		}
		printWeights(pw)
		return nil
	},
}

// applyToWorkspace opens the saved workspace, runs fn and saves the result.
func applyToWorkspace(cmd *cobra.Command, fn func(*workspace.Workspace) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ws, store, cleanup, err := openLocalWorkspace(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := fn(ws); err != nil {
		return err
	}
	if err := ws.SaveTo(cmd.Context(), store); err != nil {
		return fmt.Errorf("saving workspace: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Workspace weights updated.")
	return nil
}

func printWeights(pw weights.PriorityWeights) {
	pct := pw.Percentages()
	normalized := pw.Normalize()
	tw := newTable(table.Row{"Criterion", "Weight", "Normalized", "Share"})
	for _, c := range weights.Criteria {
		tw.AppendRow(table.Row{
			c,
			fmt.Sprintf("%.2f", pw.Get(c)),
			fmt.Sprintf("%.4f", normalized.Get(c)),
			fmt.Sprintf("%.1f%%", pct[c]),
		})
	}
	tw.Render()
}

func init() {
	weightsCmd.PersistentFlags().BoolVar(&weightsApply, "apply", false, "save the derived weights to the workspace")
	weightsCmd.AddCommand(weightsShowCmd, weightsRankCmd, weightsAHPCmd, weightsPresetCmd)
	rootCmd.AddCommand(weightsCmd)
}
