package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/byte4ever/hasher/config"
	"github.com/byte4ever/hasher/digest"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxMemory is the part of a multipart body kept in memory; the rest is
// spooled to temporary files.
const maxMemory = 32 << 20

// Server serves the hasher over HTTP.
type Server struct {
	cfg             config.Server
	readTimeout     time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger
	pages           *template.Template
}

// New returns a Server for cfg. A nil logger uses slog.Default.
func New(cfg config.Server, logger *slog.Logger) (*Server, error) {
	const errCtx = "creating server"

	readTimeout, err := cfg.ReadTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf(
			"%s: %w: max upload bytes %d",
			errCtx, config.ErrInvalid, cfg.MaxUploadBytes,
		)
	}

	if cfg.MaxExtractBytes <= 0 {
		return nil, fmt.Errorf(
			"%s: %w: max extract bytes %d",
			errCtx, config.ErrInvalid, cfg.MaxExtractBytes,
		)
	}

	if logger == nil {
		logger = slog.Default()
	}

	pages, err := template.New("pages").
		Funcs(template.FuncMap{"upper": strings.ToUpper}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: parsing templates: %w", errCtx, err)
	}

	return &Server{
		cfg:             cfg,
		readTimeout:     readTimeout,
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
		pages:           pages,
	}, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /hash", s.handleHash)
	mux.HandleFunc("GET /algorithms", s.handleAlgorithms)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, "ok\n")
	})

	return s.logRequests(mux)
}

// ListenAndServe listens on the configured address and serves until ctx
// ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	const errCtx = "listening"

	var lc net.ListenConfig

	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx ends. It returns nil after a
// clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	const errCtx = "serving"

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("serving", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return fmt.Errorf("%s: %w", errCtx, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx),
		s.shutdownTimeout,
	)
	defer cancel()

	s.logger.Info("shutting down")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s: shutdown: %w", errCtx, err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Info(
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type indexPage struct {
	Algorithms      []string
	Default         string
	AllowLocalPaths bool
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.page(w, http.StatusOK, "index", indexPage{
		Algorithms:      digest.SupportedAlgorithms(),
		Default:         digest.DefaultAlgorithm.String(),
		AllowLocalPaths: s.cfg.AllowLocalPaths,
	})
}

type algorithmsResponse struct {
	Algorithms []string `json:"algorithms"`
	Default    string   `json:"default"`
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, _ *http.Request) {
	s.json(w, http.StatusOK, algorithmsResponse{
		Algorithms: digest.SupportedAlgorithms(),
		Default:    digest.DefaultAlgorithm.String(),
	})
}
