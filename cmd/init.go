package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize alchemist configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the AI provider, data directory and snapshot storage, and writes a .alchemist.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
