package cli

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dsrs-analytics/taskdash/internal/api"
)

// newServeCmd creates the serve command for the dashboard server
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the taskdash web dashboard.

Endpoints:
  /                 Dashboard page (append ?refresh=1 to bypass the cache)
  /api/dashboard    Same view as JSON
  /api/asana/check  Verify the Asana token
  /api/health       Liveness
  /metrics          Prometheus metrics

A missing token or project does not stop the server; the page shows the
fetch failure instead.

Example:
  taskdash serve              # Start on the configured port (default 8501)
  taskdash serve --port 3000  # Start on custom port`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := loadConfig()
			if err != nil {
				return err
			}
			cfg := loaded.Config

			// CLI flags win over config when explicitly set
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host, _ = cmd.Flags().GetString("host")
			}

			logger := newLogger(os.Stderr, cfg.Logging, verbose)
			if err := cfg.Validate(); err != nil {
				logger.Warn("configuration incomplete, the dashboard will report fetch failures", "error", err)
			}

			ctx, cancel := SetupSignalHandler()
			defer cancel()

			a := newApp(ctx, cfg, logger)
			defer a.Close()

			server := api.New(api.Config{
				Addr:      cfg.Addr(),
				Dashboard: a.dashboard,
				Checker:   a.client,
				Gatherer:  a.registry,
				Logger:    logger,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", cfg.Dashboard.Title, displayAddr(cfg.Server.Host, cfg.Server.Port))
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

			return server.StartContext(ctx)
		},
	}

	cmd.Flags().IntP("port", "p", 8501, "port to listen on")
	cmd.Flags().String("host", "", "interface to bind (default all)")

	return cmd
}

func displayAddr(host string, port int) string {
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
