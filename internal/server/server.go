// Package server exposes palette extraction over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/swatch/internal/config"
	imageutil "github.com/jmylchreest/swatch/internal/image"
	"github.com/jmylchreest/swatch/internal/logging"
	"github.com/jmylchreest/swatch/internal/palette"
	"github.com/jmylchreest/swatch/internal/security"
	"github.com/jmylchreest/swatch/internal/version"
)

// Analyzer extracts a palette from a decoded image.
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image) (*palette.Result, error)
}

// URLRequest is the body of POST /v1/palette/url.
type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	analyzer    Analyzer
	loader      imageutil.Loader
	cfg         config.ServerConfig
	logger      hclog.Logger
	validateURL func(string) error
}

// Option configures a Server.
type Option func(*Server)

// WithURLValidator replaces the check applied to client supplied URLs.
func WithURLValidator(fn func(string) error) Option {
	return func(s *Server) {
		s.validateURL = fn
	}
}

// New creates a Server. loader is used for URL requests and may be nil when
// cfg.AllowURLFetch is false.
func New(analyzer Analyzer, loader imageutil.Loader, cfg config.ServerConfig, logger hclog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		analyzer:    analyzer,
		loader:      loader,
		cfg:         cfg,
		logger:      logger,
		validateURL: security.ValidateHTTPURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the gin engine serving all routes.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		s.requestLogger(),
		requestSizeLimiter(s.cfg.MaxUploadBytes),
	)

	r.GET("/health", healthCheck)

	v1 := r.Group("/v1")
	v1.POST("/palette", s.analyzeUpload)
	if s.cfg.AllowURLFetch && s.loader != nil {
		v1.POST("/palette/url", s.analyzeURL)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version.Short(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// analyzeUpload accepts either a multipart form with an "image" file field
// or the raw image as the request body.
func (s *Server) analyzeUpload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := formFile(c)
		if err != nil {
			code := statusFor(err)
			if code == http.StatusInternalServerError {
				code = http.StatusBadRequest
			}
			s.respondError(c, code, "missing image field", err)
			return
		}
		defer file.Close()
		body = file
	}

	img, _, err := imageutil.DecodeReader(body, s.cfg.MaxUploadBytes)
	if err != nil {
		s.respondError(c, statusFor(err), "failed to decode image", err)
		return
	}

	s.analyze(ctx, c, img, "upload")
}

func formFile(c *gin.Context) (multipart.File, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}
	return header.Open()
}

func (s *Server) analyzeURL(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	if err := s.validateURL(req.URL); err != nil {
		s.respondError(c, http.StatusBadRequest, "invalid image URL", err)
		return
	}

	img, err := s.loader.Load(ctx, req.URL)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, security.ErrBlockedAddress) {
			code = http.StatusBadRequest
		} else if errors.Is(err, imageutil.ErrUnsupportedFormat) {
			code = http.StatusUnsupportedMediaType
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = http.StatusGatewayTimeout
		}
		s.respondError(c, code, "failed to fetch image", err)
		return
	}

	s.analyze(ctx, c, img, req.URL)
}

func (s *Server) analyze(ctx context.Context, c *gin.Context, img image.Image, source string) {
	start := time.Now()
	result, err := s.analyzer.Analyze(ctx, img)
	if err != nil {
		s.respondError(c, statusFor(err), "failed to analyse image", err)
		return
	}

	s.logger.Debug("palette extracted",
		"source", source,
		"dominant", result.Dominant.Hex(),
		"colours", len(result.Palette),
		"duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"ip", c.ClientIP(),
			"duration", time.Since(start))
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Multipart framing adds a little on top of the file itself.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+64*1024)
		c.Next()
	}
}

// statusFor maps analysis and decode errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr), errors.Is(err, imageutil.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imageutil.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, palette.ErrDegenerateImage), errors.Is(err, palette.ErrInvalidBuffer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondError(c *gin.Context, code int, message string, err error) {
	s.logger.Warn("request failed",
		"status", code,
		"message", message,
		"path", c.Request.URL.Path,
		"error", err)

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}

// ListenAndServe serves Handler on the configured address until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.RequestTimeout,
		WriteTimeout:      s.cfg.RequestTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", s.cfg.Listen, "timeout", s.cfg.RequestTimeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("server exited")
	return nil
}
