package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/data-alchemist/internal/db"
	"github.com/ziadkadry99/data-alchemist/internal/server"
)

var (
	serverPort     int
	serverAllowAll bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP API and websocket change feed",
	Long:  `Starts the alchemist HTTP server exposing rules, conflicts, weights, confidence scoring, AI parsing, export and audit endpoints. The workspace is saved automatically after each burst of changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}
		if cmd.Flags().Changed("allow-all-origins") {
			cfg.Server.AllowAllOrigins = serverAllowAll
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := snapshotStore(cfg, database)
		ws, err := openWorkspace(cmd.Context(), cfg, store)
		if err != nil {
			return err
		}

		parser := createParser(cfg)
		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, ws, database, parser)

		if cfg.Snapshot.AutoSave {
			saver := ws.AutoSave(store, cfg.Snapshot.QuietPeriod)
			defer func() {
				saver.Flush()
				saver.Stop()
			}()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		s := ws.Dataset().Summary()
		fmt.Fprintf(os.Stderr, "alchemist server v%s starting on port %d\n", Version, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Snapshots: %s\n", cfg.Snapshot.Backend)
		fmt.Fprintf(os.Stderr, "  Data: %d client(s), %d worker(s), %d task(s)\n", s.Clients, s.Workers, s.Tasks)
		fmt.Fprintf(os.Stderr, "  Rules: %d\n", len(ws.Rules()))
		fmt.Fprintf(os.Stderr, "  AI parsing: %v\n", parser.AIEnabled())

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	serverCmd.Flags().BoolVar(&serverAllowAll, "allow-all-origins", false, "Allow all CORS origins")
	rootCmd.AddCommand(serverCmd)
}
