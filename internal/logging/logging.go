// Package logging builds the hclog loggers shared by every swatch component.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options configures New.
type Options struct {
	// Verbose enables debug output.
	Verbose bool

	// Quiet suppresses everything below error. Verbose wins if both are set.
	Quiet bool

	// JSON switches to JSON lines output.
	JSON bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Level returns the hclog level implied by the options.
func (o Options) Level() hclog.Level {
	switch {
	case o.Verbose:
		return hclog.Debug
	case o.Quiet:
		return hclog.Error
	default:
		return hclog.Info
	}
}

// New creates the root "swatch" logger.
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "swatch",
		Output:     out,
		Level:      opts.Level(),
		JSONFormat: opts.JSON,
		Color:      hclog.AutoColor,
	})
}

// Discard returns a logger that drops everything.
func Discard() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "swatch",
		Output: io.Discard,
		Level:  hclog.Off,
	})
}
