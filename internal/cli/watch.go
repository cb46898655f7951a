package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/swatch/internal/config"
	imageutil "github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/logging"
	"github.com/jmylchreest/swatch/internal/palette"
)

const defaultDebounce = 250 * time.Millisecond

type watchOptions struct {
	output   outputOptions
	debounce time.Duration
	existing bool
}

func newWatchCmd(a *app) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyse images as they are dropped into a directory",
		Long: `Watch a directory and print the palette of every supported image that is
created or rewritten in it, one line per image:

  <file> <dominant> <palette...>

Events for the same file are coalesced so an image is analysed once after it
has finished being written. Use --format json for JSON lines.

Examples:
  # Print palettes for screenshots as they are saved
  swatch watch ~/Pictures/Screenshots

  # Include images already in the directory, as JSON lines
  swatch watch --existing -f json ./incoming`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, a, opts, args[0])
		},
	}

	addOutputFlags(cmd.Flags(), &opts.output)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", defaultDebounce, "quiet period before a changed file is analysed")
	cmd.Flags().BoolVar(&opts.existing, "existing", false, "analyse images already in the directory first")

	return cmd
}

func runWatch(cmd *cobra.Command, a *app, opts *watchOptions, dir string) error {
	if err := opts.output.resolve(a.cfg); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to access watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", dir)
	}

	analyzer, err := a.newAnalyzer()
	if err != nil {
		return err
	}
	loader := imageutil.NewFileLoader()

	w := newDropWatcher(cmd.OutOrStdout(), opts.output.format, opts.debounce, a.logger.Named("watch"))
	w.showPreview = previewEnabled(opts.output.preview, cmd.OutOrStdout())
	w.analyze = func(ctx context.Context, path string) (*palette.Result, error) {
		img, err := loader.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		return analyzer.Analyze(ctx, img)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := w.open(dir)
	if err != nil {
		return err
	}

	if opts.existing {
		w.processExisting(ctx, dir)
	}

	return w.loop(ctx, watcher)
}

// dropWatcher analyses images as they appear in a directory.
type dropWatcher struct {
	analyze     func(ctx context.Context, path string) (*palette.Result, error)
	format      string
	showPreview bool
	debounce    time.Duration
	logger      hclog.Logger

	mu      sync.Mutex
	out     io.Writer
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func newDropWatcher(out io.Writer, format string, debounce time.Duration, logger hclog.Logger) *dropWatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &dropWatcher{
		format:   lineFormat(format),
		debounce: debounce,
		logger:   logger,
		out:      out,
		pending:  make(map[string]*time.Timer),
	}
}

func (w *dropWatcher) open(dir string) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching directory", "dir", dir, "debounce", w.debounce)
	return watcher, nil
}

// processExisting analyses the images already present in dir.
func (w *dropWatcher) processExisting(ctx context.Context, dir string) {
	files, err := imageutil.ScanDirectoryForImages(dir)
	if errors.Is(err, imageutil.ErrNoImages) {
		w.logger.Debug("no existing images", "dir", dir)
		return
	}
	if err != nil {
		w.logger.Warn("failed to scan existing images", "dir", dir, "error", err)
		return
	}
	for _, path := range files {
		w.process(ctx, path)
	}
}

// loop consumes events until ctx is done, then waits for in-flight analyses.
func (w *dropWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	defer w.wg.Wait()
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !imageutil.IsImageFile(event.Name) {
				continue
			}
			w.logger.Trace("file event", "path", event.Name, "op", event.Op.String())
			w.schedule(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// schedule analyses path once no event for it has arrived for the debounce
// period.
func (w *dropWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()
		w.mu.Lock()
		if w.pending[path] == t {
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.process(ctx, path)
	})
	w.pending[path] = t
}

func (w *dropWatcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *dropWatcher) process(ctx context.Context, path string) {
	result, err := w.analyze(ctx, path)
	if err != nil {
		w.logger.Warn("failed to analyse image", "path", path, "error", err)
		return
	}

	line, err := formatLine(sourceResult{Source: path, Result: result}, w.format, w.showPreview)
	if err != nil {
		w.logger.Error("failed to format result", "path", path, "error", err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.out, line); err != nil {
		w.logger.Error("failed to write result", "error", err)
	}
}

// lineFormat maps an output format onto the formats watch can emit per line.
func lineFormat(format string) string {
	if format == config.FormatTable {
		return config.FormatHex
	}
	return format
}
