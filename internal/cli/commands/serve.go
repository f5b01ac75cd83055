package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dbsee/dbsee/internal/api"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API server. All endpoints except the root and /health
require a bearer token listed under auth.tokens. Streaming searches are sent
as server-sent events.`,
		Example: `  dbsee serve
  dbsee serve --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := api.NewServer(api.Config{
				Engine:  cc.Engine,
				Server:  cc.Cfg.Server,
				Auth:    cc.Cfg.Auth,
				Version: version,
				Logger:  cc.Logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Serve(ctx)
		},
	}

	// Read through the config loader as server.port.
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (default 8000)")
	return cmd
}
