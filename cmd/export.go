package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/audit"
	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/export"
	"github.com/ziadkadry99/data-alchemist/internal/workspace"
)

var (
	exportData  string
	exportRules string
	exportOut   string
	exportForce bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the cleaned CSV files, rules.json and an HTML report",
	Long: `Assembles rules.json from the active rules and the current prioritization
weights, and writes it with cleaned clients, workers and tasks CSV files and a
report.html summary. Export is refused while rules have blocking conflicts
unless --force is given.`,
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

		in := export.InputFrom(ws)
		if exportData != "" {
			if in.Dataset, err = loadDataset(exportData); err != nil {
				return err
			}
		}
		if exportRules != "" {
			if in.Rules, err = loadRules(exportRules); err != nil {
				return err
			}
		}

		doc := export.Build(in)
		cr := doc.Statistics.ConflictResolution
		if cr.Blocking && !exportForce {
			printConflicts(doc.Rules, workspace.NewConflictReport(cr.Conflicts))
			return fmt.Errorf("%d blocking conflict(s); fix them or pass --force", cr.Errors)
		}

		written, err := export.WriteBundle(exportOut, doc, in.Dataset)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Println(p)
		}
		fmt.Fprintf(os.Stderr, "Exported %d of %d rule(s) with %d conflict warning(s).\n",
			doc.Metadata.ActiveRules, doc.Metadata.TotalRules, cr.Warnings)

		recordExport(cmd.Context(), cfg.DBPath, exportOut, doc)
		return nil
	},
}

// recordExport adds an audit entry for the export. Failures only warn.
func recordExport(ctx context.Context, dbPath, dir string, doc export.Document) {
	database, err := db.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: export not audited: %v\n", err)
		return
	}
	defer database.Close()
	audit.NewStore(database).Record(ctx, audit.ActionExported, audit.SubjectExport, dir,
		fmt.Sprintf("Exported %d rules to %s", doc.Metadata.ActiveRules, dir), nil, doc.Metadata)
}

func init() {
	exportCmd.Flags().StringVar(&exportData, "data", "", "CSV directory or JSON dataset (default: workspace data)")
	exportCmd.Flags().StringVar(&exportRules, "rules", "", "rules file (default: workspace rules)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "export", "output directory")
	exportCmd.Flags().BoolVar(&exportForce, "force", false, "export even with blocking conflicts")
	rootCmd.AddCommand(exportCmd)
}
