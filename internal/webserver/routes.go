package webserver

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/spboyer/siteaudit/internal/webapi"
	"github.com/spboyer/siteaudit/web"
)

// registerRoutes sets up API and static routes on the given mux.
func registerRoutes(mux *http.ServeMux, cfg Config) error {
	webapi.RegisterRoutes(mux, cfg.Generator, cfg.Logger)

	handler, err := staticHandler(cfg.StaticDir, cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize static handler: %w", err)
	}
	mux.Handle("GET /", handler)
	return nil
}

// staticHandler serves dir when it exists on disk, and the embedded front
// end otherwise.
func staticHandler(dir string, logger *slog.Logger) (http.Handler, error) {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		logger.Debug("serving static files", "dir", dir)
		return http.FileServer(http.Dir(dir)), nil
	}

	distFS, err := fs.Sub(web.Assets, "dist")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub filesystem for web/dist: %w", err)
	}
	logger.Debug("static directory not found, serving built-in page", "dir", dir)
	return http.FileServer(http.FS(distFS)), nil
}

// wrap applies the middleware chain shared by every route. The request id
// is assigned first so that it reaches the access log and every handler.
func wrap(mux http.Handler, cfg Config) http.Handler {
	var h http.Handler = gzhttp.GzipHandler(mux)
	h = webapi.CORSMiddleware(h, cfg.AllowedOrigins...)
	h = accessLog(h, cfg.Logger)
	return webapi.RequestIDMiddleware(h)
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func accessLog(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("HTTP request",
			"request_id", webapi.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
