package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatch/internal/server"
)

type serveOptions struct {
	listen  string
	noFetch bool
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve palette extraction over HTTP",
		Long: `Start an HTTP server exposing palette extraction.

Routes:
  GET  /health           liveness and version
  POST /v1/palette       multipart field "image" or the raw image as the body
  POST /v1/palette/url   {"url": "https://..."}, fetched server side

Examples:
  # Listen on the configured address (default 127.0.0.1:8080)
  swatch serve

  # Listen on all interfaces without remote fetching
  swatch serve --listen :8080 --no-fetch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listen, "listen", "l", "", "listen address (default from config: 127.0.0.1:8080)")
	cmd.Flags().BoolVar(&opts.noFetch, "no-fetch", false, "disable POST /v1/palette/url")

	return cmd
}

func runServe(cmd *cobra.Command, a *app, opts *serveOptions) error {
	cfg := a.cfg.Server
	if opts.listen != "" {
		cfg.Listen = opts.listen
	}
	if opts.noFetch {
		cfg.AllowURLFetch = false
	}

	if !a.opts.verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}
	loader, err := a.newLoader(true)
	if err != nil {
		return err
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(analyzer, loader, cfg, a.logger.Named("server")).ListenAndServe(ctx)
}
