package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/swatch/internal/config"
	imageutil "github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/palette"
)

type extractOptions struct {
	output outputOptions
	file   string
	jobs   int
}

func newExtractCmd(a *app) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image>...",
		Short: "Extract the dominant colour and palette from images",
		Long: `Extract the dominant colour and up to five distinct palette colours.

Each argument may be an image file, a directory (every supported image in it,
non-recursive) or an http(s) URL. Files ending in .xz or .gz are decompressed
before decoding.

Supported image formats: JPEG, PNG, GIF, WebP

Examples:
  # Print the dominant colour and palette as hex
  swatch extract wallpaper.jpg

  # Output JSON for every image in a directory
  swatch extract --format json ~/Pictures/wallpapers

  # Compare several images in a table with colour swatches
  swatch extract -f table --preview always a.png b.png

  # Analyse a remote image with a sharper resample filter
  swatch extract --resample catmull-rom https://example.com/photo.webp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, a, opts, args)
		},
	}

	addOutputFlags(cmd.Flags(), &opts.output)
	cmd.Flags().StringVarP(&opts.file, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of images to analyse in parallel")

	return cmd
}

func runExtract(cmd *cobra.Command, a *app, opts *extractOptions, args []string) error {
	if err := opts.output.resolve(a.cfg); err != nil {
		return err
	}
	if opts.jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", opts.jobs)
	}

	sources, err := imageutil.ExpandSources(args)
	if err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}
	loader, err := a.newLoader(false)
	if err != nil {
		return err
	}

	a.logger.Debug("extracting palettes", "sources", len(sources), "jobs", opts.jobs, "resample", a.cfg.Resample)

	results, err := analyzeSources(cmd.Context(), loader, analyzer, sources, opts.jobs)
	if err != nil {
		return err
	}

	showPreview := false
	if opts.file == "" {
		showPreview = previewEnabled(opts.output.preview, cmd.OutOrStdout())
	} else if opts.output.preview == config.PreviewAlways {
		showPreview = true
	}

	output, err := formatResults(results, opts.output.format, showPreview)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	if opts.file != "" {
		a.logger.Debug("writing output", "path", opts.file)
		if err := os.WriteFile(opts.file, []byte(output), 0o644); err != nil { // #nosec G306 - palette output is not sensitive
			return fmt.Errorf("failed to write output file: %w", err)
		}
		a.logger.Info("wrote palette", "path", opts.file, "images", len(results))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// analyzeSources loads and analyses every source with at most jobs running at
// once. Results keep the order of sources. The first failure cancels the rest.
func analyzeSources(ctx context.Context, loader imageutil.Loader, analyzer *palette.Analyzer, sources []string, jobs int) ([]sourceResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]sourceResult, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			img, err := loader.Load(ctx, source)
			if err != nil {
				return fmt.Errorf("failed to load image %s: %w", source, err)
			}
			result, err := analyzer.Analyze(ctx, img)
			if err != nil {
				return fmt.Errorf("failed to extract palette from %s: %w", source, err)
			}
			results[i] = sourceResult{Source: source, Result: result}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
