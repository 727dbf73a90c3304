package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forma-dev/forma/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor server",
		Long: `Start the forma editor server.

Serves the visual editor, websocket editing sessions, saved-query
execution, and the export endpoint. Configuration comes from
forma.json in the project directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			srv, err := server.New(cfg, slog.Default())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Project directory (default: walk up from cwd)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured port")

	return cmd
}
