package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/spboyer/siteaudit/internal/checks"
	"github.com/spboyer/siteaudit/internal/report"
	"github.com/spboyer/siteaudit/internal/scoring"
	"github.com/spboyer/siteaudit/internal/validation"
)

// Version is set at build time or defaults to dev.
var Version = "0.1.0-dev"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// MaxBodyBytes bounds the size of a POST /check body.
const MaxBodyBytes = 1 << 20

const (
	msgURLRequired    = "URL is required"
	msgGenerateFailed = "Error generating report"
)

// ReportGenerator builds a report for a URL. [report.Aggregator] satisfies it.
type ReportGenerator interface {
	Generate(ctx context.Context, url string, sel checks.Selection) (*report.Report, error)
	Available() []checks.Name
}

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	gen    ReportGenerator
	logger *slog.Logger
}

// NewHandlers creates a new Handlers backed by gen. A nil logger uses
// slog.Default().
func NewHandlers(gen ReportGenerator, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{gen: gen, logger: logger}
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	names := []string{}
	for _, n := range h.gen.Available() {
		names = append(names, string(n))
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Checks:  names,
	})
}

// HandleCheck runs the requested checks against the posted URL and responds
// with the consolidated report.
func (h *Handlers) HandleCheck(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("request_id", RequestID(r.Context()))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("reading request body: %v", err))
		return
	}

	var req CheckRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if errs := validation.ValidateCheckRequest(body); len(errs) > 0 {
			// A body that is otherwise invalid but has no url is still a
			// missing-url request.
			if !hasURL(body) {
				writeText(w, http.StatusBadRequest, msgURLRequired)
				return
			}
			writeText(w, http.StatusBadRequest, "invalid request: "+strings.Join(errs, "; "))
			return
		}
		if err := json.Unmarshal(body, &req); err != nil {
			writeText(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
			return
		}
	}
	if req.URL == "" {
		writeText(w, http.StatusBadRequest, msgURLRequired)
		return
	}

	sel, err := checks.ParseSelection(req.Checks)
	if err != nil {
		writeText(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}

	rep, err := h.gen.Generate(r.Context(), req.URL, sel)
	if err != nil {
		if errors.Is(err, report.ErrNoURL) {
			writeText(w, http.StatusBadRequest, msgURLRequired)
			return
		}
		logger.Error("report generation failed", "url", req.URL, "checks", sel.Names(), "error", err)
		writeText(w, http.StatusInternalServerError, msgGenerateFailed)
		return
	}

	logger.Info("report generated", "url", req.URL, "checks", sel.Names(),
		"consolidated", rep.Scores[scoring.KeyConsolidated])
	writeJSON(w, http.StatusOK, rep)
}

// hasURL reports whether body carries a url value. Unparseable bodies count
// as having one so that the parse error is reported instead.
func hasURL(body []byte) bool {
	var probe struct {
		URL any `json:"url"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return true
	}
	if probe.URL == nil {
		return false
	}
	s, ok := probe.URL.(string)
	return !ok || s != ""
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, gen ReportGenerator, logger *slog.Logger) {
	h := NewHandlers(gen, logger)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("POST /check", h.HandleCheck)
}

type requestIDKey struct{}

// RequestID returns the request id stored by [RequestIDMiddleware], or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDMiddleware tags every request with an id, taken from the
// X-Request-ID header when the client sent one and generated otherwise. The
// id is echoed in the response header and stored on the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, msg) //nolint:errcheck
}
