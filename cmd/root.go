package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/config"
)

var (
	cfgFile string
	verbose bool
	asJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "alchemist",
	Short: "Business-rule and prioritization workbench for resource allocation data",
	Long: `Data Alchemist turns client, worker and task spreadsheets into a clean
allocation bundle. It detects conflicts between business rules, scores
rules parsed from plain English, derives prioritization weights from
sliders, rankings or AHP comparisons, and exports rules.json.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of tables")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
