package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/rules"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

var conflictsRulesFile string

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Detect conflicts between business rules",
	Long: `Checks active rules for circular co-run dependencies, contradictory load
limits and incompatible phase windows. Rules come from --rules (a JSON array
or a rules.json export) or from the saved workspace. Exits non-zero when any
conflict has error severity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var list []rules.BusinessRule
		if conflictsRulesFile != "" {
			var err error
			if list, err = loadRules(conflictsRulesFile); err != nil {
				return err
			}
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ws, _, cleanup, err := openLocalWorkspace(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			list = ws.Rules()
		}

		report := workspace.NewConflictReport(rules.DetectConflicts(list))
		if asJSON {
			if err := printJSON(report); err != nil {
				return err
			}
		} else {
			printConflicts(list, report)
		}

		if report.Errors > 0 {
			return fmt.Errorf("%d blocking conflict(s)", report.Errors)
		}
		return nil
	},
}

func printConflicts(list []rules.BusinessRule, report workspace.ConflictReport) {
	active := len(rules.Active(list))
	if report.Total == 0 {
		fmt.Printf("No conflicts among %d active rule(s).\n", active)
		return
	}

	names := make(map[string]string, len(list))
	for _, r := range list {
		names[r.ID] = r.Name
	}

	tw := newTable(table.Row{"Severity", "Type", "Rules", "Message"})
	for _, c := range report.Conflicts {
		labels := make([]string, 0, len(c.RuleIDs))
		for _, id := range c.RuleIDs {
			if n := names[id]; n != "" && n != id {
				labels = append(labels, fmt.Sprintf("%s (%s)", n, id))
			} else {
				labels = append(labels, id)
			}
		}
		tw.AppendRow(table.Row{c.Severity, c.Type, strings.Join(labels, "\n"), c.Message})
	}
	tw.AppendFooter(table.Row{"", "", "Total", fmt.Sprintf("%d error(s), %d warning(s)", report.Errors, report.Warnings)})
	tw.Render()
}

func init() {
	conflictsCmd.Flags().StringVar(&conflictsRulesFile, "rules", "", "rules file (JSON array or rules.json export)")
	rootCmd.AddCommand(conflictsCmd)
}
