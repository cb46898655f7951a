package palette

import (
	"context"
	"fmt"
	"image"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatch/internal/logging"
)

// Resizer resamples an image to the given dimensions and returns its pixels
// as a non-premultiplied RGBA buffer.
type Resizer interface {
	Resize(src image.Image, width, height int) (PixelBuffer, error)
}

// Analyzer downscales decoded images and extracts their palettes.
// It holds no per-call state and is safe for concurrent use.
type Analyzer struct {
	resizer Resizer
	logger  hclog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for debug output.
func WithLogger(logger hclog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAnalyzer creates an Analyzer that uses resizer to downscale images.
func NewAnalyzer(resizer Resizer, opts ...Option) *Analyzer {
	a := &Analyzer{
		resizer: resizer,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze downscales img to at most MaxDimension on each side and extracts
// its dominant colour and palette.
func (a *Analyzer) Analyze(ctx context.Context, img image.Image) (*Result, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}

	bounds := img.Bounds()
	width, height, err := TargetSize(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf, err := a.resizer.Resize(img, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}
	a.logger.Debug("resized image",
		"source", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"target", fmt.Sprintf("%dx%d", buf.Width, buf.Height))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := Extract(buf)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("extracted palette",
		"samples", result.Samples,
		"dominant", result.Dominant.Hex(),
		"colours", len(result.Palette))
	return result, nil
}
