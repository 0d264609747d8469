package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spboyer/siteaudit/internal/checks"
)

var (
	// ErrNoURL is returned when no target URL was given.
	ErrNoURL = errors.New("URL is required")
	// ErrCheckUnavailable is returned when a selected check has no checker.
	ErrCheckUnavailable = errors.New("check not configured")
)

// Aggregator runs checkers in the fixed check order and builds reports.
// It holds no per-request state and may be shared between requests.
type Aggregator struct {
	checkers map[checks.Name]checks.Checker
	logger   *slog.Logger
}

// NewAggregator creates an [Aggregator]. A later checker with the same name
// replaces an earlier one.
func NewAggregator(logger *slog.Logger, checkers ...checks.Checker) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[checks.Name]checks.Checker, len(checkers))
	for _, c := range checkers {
		m[c.Name()] = c
	}
	return &Aggregator{checkers: m, logger: logger}
}

// Available returns the names of configured checks in run order.
func (a *Aggregator) Available() []checks.Name {
	var names []checks.Name
	for _, n := range checks.Order {
		if _, ok := a.checkers[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Generate runs every selected check against url, one after another. The
// first failing check aborts the run and no report is returned.
func (a *Aggregator) Generate(ctx context.Context, url string, sel checks.Selection) (*Report, error) {
	if url == "" {
		return nil, ErrNoURL
	}

	r := New(url)
	for _, name := range sel.Names() {
		checker, ok := a.checkers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCheckUnavailable, name)
		}

		start := time.Now()
		a.logger.Debug("check starting", "check", name, "url", url)

		res, err := checker.Run(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("%s check failed: %w", name, err)
		}
		if err := r.add(name, res.Raw); err != nil {
			return nil, fmt.Errorf("reading %s output: %w", name, err)
		}

		a.logger.Info("check finished", "check", name, "url", url, "duration", time.Since(start))
	}

	r.Scores.Consolidate()
	return r, nil
}
