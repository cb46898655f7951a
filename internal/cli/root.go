// Package cli provides the command-line interface for swatch.
package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatch/internal/config"
	imageutil "github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/logging"
	"github.com/jmylchreest/swatch/internal/palette"
	"github.com/jmylchreest/swatch/internal/security"
	"github.com/jmylchreest/swatch/internal/version"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	verbose    bool
	quiet      bool
	logJSON    bool
	configPath string
	resample   string
}

// app carries state resolved in PersistentPreRunE.
type app struct {
	opts   globalOptions
	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the swatch command tree. Each call returns an independent
// tree so tests can execute commands without sharing flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "swatch",
		Short: "Extract the dominant colour and a small palette from images",
		Long: `Swatch downsamples an image, counts quantised colours and reports the
dominant colour together with up to five visually distinct palette colours.

Images can be read from local files, directories or http(s) URLs, analysed
as they land in a watched directory, or submitted to an HTTP API.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVarP(&a.opts.quiet, "quiet", "q", false, "suppress non-error output")
	flags.BoolVar(&a.opts.logJSON, "log-json", false, "write logs as JSON lines")
	flags.StringVar(&a.opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/swatch/config.yaml)")
	flags.StringVar(&a.opts.resample, "resample", "", "resample filter (nearest, approx-bilinear, bilinear, catmull-rom)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.opts.resample != "" {
		if _, err := imageutil.ParseFilter(a.opts.resample); err != nil {
			return err
		}
		cfg.Resample = a.opts.resample
	}
	a.cfg = cfg

	a.logger = logging.New(logging.Options{
		Verbose: a.opts.verbose,
		Quiet:   a.opts.quiet,
		JSON:    a.opts.logJSON,
		Output:  cmd.ErrOrStderr(),
	})
	a.logger.Debug("configuration loaded",
		"resample", cfg.Resample,
		"format", cfg.Format,
		"cache", cfg.Cache.Enabled)
	return nil
}

// newAnalyzer returns a palette analyzer using the configured resample filter.
func (a *app) newAnalyzer() (*palette.Analyzer, error) {
	filter, err := imageutil.ParseFilter(a.cfg.Resample)
	if err != nil {
		return nil, err
	}
	return palette.NewAnalyzer(
		imageutil.NewResizer(filter),
		palette.WithLogger(a.logger.Named("palette")),
	), nil
}

// newLoader returns a loader for files and URLs honouring the cache settings.
// A guarded loader refuses to connect or redirect to private networks.
func (a *app) newLoader(guarded bool) (*imageutil.SmartLoader, error) {
	cacheDir, err := a.cfg.CacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	opts := imageutil.SmartLoaderOptions{
		Timeout:  a.cfg.HTTPTimeout,
		CacheDir: cacheDir,
		Logger:   a.logger.Named("loader"),
	}
	if guarded {
		opts.DialControl = security.DialControl
		opts.CheckRedirect = security.CheckRedirect
	}
	return imageutil.NewSmartLoader(opts), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
