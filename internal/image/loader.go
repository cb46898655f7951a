// Package image loads and decodes images for palette extraction.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/swatch/internal/logging"
	httputil "github.com/jmylchreest/swatch/internal/util/http"
	"github.com/jmylchreest/swatch/internal/util/imagecache"
)

var (
	// ErrUnsupportedFormat is returned when image data cannot be decoded.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrTooLarge is returned when image data exceeds the allowed size.
	ErrTooLarge = errors.New("image data too large")

	// ErrNoImages is returned when a directory holds no supported image files.
	ErrNoImages = errors.New("no supported image files found")
)

// Loader loads decoded images from a source.
type Loader interface {
	// Load loads the image identified by source.
	Load(ctx context.Context, source string) (image.Image, error)
}

// Decode decodes image data, transparently decompressing xz and gzip payloads.
func Decode(data []byte) (image.Image, string, error) {
	data, err := decompress(data)
	if err != nil {
		return nil, "", err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}
	return img, format, nil
}

// DecodeReader reads at most maxBytes from r and decodes the result.
func DecodeReader(r io.Reader, maxBytes int64) (image.Image, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxBytes)
	}
	return Decode(data)
}

// FileLoader loads images from the local filesystem.
type FileLoader struct{}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
// Supported formats: JPEG, PNG, GIF, WebP, optionally xz or gzip compressed.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// SmartLoaderOptions configures a SmartLoader.
type SmartLoaderOptions struct {
	// Timeout bounds remote fetches. Zero uses the HTTP package default.
	Timeout time.Duration

	// CacheDir enables the on-disk cache for remote images when non-empty.
	CacheDir string

	Logger hclog.Logger

	// DialControl and CheckRedirect guard remote fetches. The server sets
	// them to keep client supplied URLs off private networks.
	DialControl   func(network, address string, c syscall.RawConn) error
	CheckRedirect func(req *http.Request, via []*http.Request) error
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	fileLoader *FileLoader
	opts       SmartLoaderOptions
	logger     hclog.Logger
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader(opts SmartLoaderOptions) *SmartLoader {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &SmartLoader{
		fileLoader: NewFileLoader(),
		opts:       opts,
		logger:     logger,
	}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, source string) (image.Image, error) {
	if !IsURL(source) {
		return l.fileLoader.Load(ctx, source)
	}

	if l.opts.CacheDir != "" {
		path, err := imagecache.DownloadAndCache(ctx, source, imagecache.CacheOptions{
			CacheDir:      l.opts.CacheDir,
			Timeout:       l.opts.Timeout,
			DialControl:   l.opts.DialControl,
			CheckRedirect: l.opts.CheckRedirect,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
		}
		l.logger.Debug("loading cached image", "url", source, "path", path)
		return l.fileLoader.Load(ctx, path)
	}

	l.logger.Debug("fetching image", "url", source)
	data, err := httputil.Fetch(ctx, source, httputil.FetchOptions{
		Timeout:       l.opts.Timeout,
		DialControl:   l.opts.DialControl,
		CheckRedirect: l.opts.CheckRedirect,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", source, err)
	}
	return img, nil
}

// IsURL reports whether source is an HTTP(S) URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// SupportedImageExtensions returns the file extensions considered images.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

// IsImageFile checks if a file has a supported image extension, ignoring a
// trailing .xz or .gz compression suffix.
func IsImageFile(path string) bool {
	name := strings.ToLower(path)
	name = strings.TrimSuffix(name, ".xz")
	name = strings.TrimSuffix(name, ".gz")
	return slices.Contains(SupportedImageExtensions(), filepath.Ext(name))
}

// ScanDirectoryForImages returns all image files in a directory, sorted by name.
// It does not recurse into subdirectories, but follows symlinks.
func ScanDirectoryForImages(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		// Stat the target so symlinks to files are included.
		info, err := os.Stat(fullPath)
		if err != nil || info.IsDir() {
			continue
		}
		if IsImageFile(entry.Name()) {
			imageFiles = append(imageFiles, fullPath)
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("%w in directory: %s", ErrNoImages, dirPath)
	}
	return imageFiles, nil
}

// ExpandSources resolves directories into the images they contain. URLs and
// files are passed through unchanged, in order.
func ExpandSources(sources []string) ([]string, error) {
	var out []string
	for _, source := range sources {
		if source == "" {
			return nil, fmt.Errorf("image path cannot be empty")
		}
		if IsURL(source) {
			out = append(out, source)
			continue
		}

		info, err := os.Stat(source)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("image file or directory not found: %s", source)
			}
			return nil, fmt.Errorf("failed to access image path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, source)
			continue
		}

		files, err := ScanDirectoryForImages(source)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	return out, nil
}
