// Package webserver provides the HTTP server that serves the audit front end
// and the check API.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/spboyer/siteaudit/internal/webapi"
	"golang.org/x/sync/errgroup"
)

// DefaultShutdownTimeout bounds how long in-flight audits may run after a
// shutdown request.
const DefaultShutdownTimeout = 30 * time.Second

// Config holds the HTTP server configuration.
type Config struct {
	Host      string
	Port      int
	StaticDir string
	Generator webapi.ReportGenerator

	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
	// OpenBrowser opens the front end in the default browser once listening.
	OpenBrowser     bool
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg    Config
	srv    *http.Server
	logger *slog.Logger
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Generator == nil {
		return nil, errors.New("webserver: a report generator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "public"
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, cfg); err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           wrap(mux, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or the server fails. In-flight
// requests get up to ShutdownTimeout to finish; after that their contexts
// are cancelled, which stops any running engine process.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	url := "http://" + displayAddr(ln.Addr())
	s.logger.Info("HTTP server starting", "address", ln.Addr().String(), "url", url)

	baseCtx, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()
	s.srv.BaseContext = func(net.Listener) context.Context { return baseCtx }

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("HTTP server shutdown timed out, cancelling requests", "error", err)
			cancelRequests()
			return s.srv.Close()
		}
		return nil
	})

	if s.cfg.OpenBrowser {
		// Open browser in background after a short delay.
		go func() {
			time.Sleep(500 * time.Millisecond)
			if err := openBrowser(url); err != nil {
				s.logger.Debug("failed to open browser", "error", err)
			}
		}()
	}

	return g.Wait()
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// displayAddr turns an unspecified listen address into one a browser can
// open.
func displayAddr(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	if ip := net.ParseIP(host); ip == nil || ip.IsUnspecified() {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
