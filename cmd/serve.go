package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/data-alchemist/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing conflict detection, confidence scoring, rule parsing and weight derivation tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries protocol traffic only.
		log.SetOutput(os.Stderr)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ws, _, cleanup, err := openLocalWorkspace(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		mcpserver.Version = Version

		s := ws.Dataset().Summary()
		fmt.Fprintf(os.Stderr, "alchemist MCP server started on stdio (rules=%d, tasks=%d)\n", len(ws.Rules()), s.Tasks)

		srv := mcpserver.NewServer(ws, createParser(cfg))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
