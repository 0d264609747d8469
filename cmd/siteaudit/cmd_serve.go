package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spboyer/siteaudit/internal/webserver"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	var (
		host        string
		port        int
		staticDir   string
		corsOrigins []string
		open        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the audit HTTP server",
		Long: `Start the audit HTTP server.

Routes:
  POST /check       Run the selected checks against a URL and return the report
  GET  /api/health  Health probe
  GET  /            Static files from the configured directory, or the built-in page

The port and static directory default to the server section of .siteaudit.yaml.
The server binds to loopback (127.0.0.1) unless --host is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProjectConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}
			if !cmd.Flags().Changed("static-dir") {
				staticDir = cfg.Path(cfg.Server.StaticDir)
			}

			logger := slog.Default()
			gen, cleanup, err := newReportGenerator(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			srv, err := webserver.New(webserver.Config{
				Host:           host,
				Port:           port,
				StaticDir:      staticDir,
				Generator:      gen,
				AllowedOrigins: corsOrigins,
				OpenBrowser:    open,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Interface to bind (use 0.0.0.0 to accept remote clients)")
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default from config, 3000)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory of static files to serve at / (default from config, public)")
	cmd.Flags().StringSliceVar(&corsOrigins, "cors-origin", nil, "Origin allowed to call the API cross-site (repeatable)")
	cmd.Flags().BoolVar(&open, "open", false, "Open the audit page in the default browser")

	return cmd
}
