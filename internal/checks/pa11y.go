package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// DefaultPa11yWait is the extra delay after page load that lets deferred
// rendering finish before the audit starts.
const DefaultPa11yWait = 5 * time.Second

// Pa11yArgs holds the arguments for creating a pa11y checker.
type Pa11yArgs struct {
	// Tool overrides the pa11y executable. Defaults to "pa11y".
	Tool Tool
	// Wait is the post-load delay. Defaults to DefaultPa11yWait when zero.
	Wait   time.Duration
	Runner CommandRunner
	Logger *slog.Logger
}

// Pa11yChecker audits a page for accessibility issues with the pa11y CLI.
// pa11y drives its own disposable headless browser, which is gone once the
// process has been reaped.
type Pa11yChecker struct {
	tool   Tool
	wait   time.Duration
	runner CommandRunner
}

var _ Checker = (*Pa11yChecker)(nil)

// NewPa11yChecker creates a [Pa11yChecker].
func NewPa11yChecker(args Pa11yArgs) *Pa11yChecker {
	wait := args.Wait
	if wait <= 0 {
		wait = DefaultPa11yWait
	}
	return &Pa11yChecker{
		tool:   args.Tool,
		wait:   wait,
		runner: runnerOrDefault(args.Runner, args.Logger),
	}
}

func (c *Pa11yChecker) Name() Name { return Pa11y }

// pa11yResult mirrors the result object of the pa11y library; the CLI's json
// reporter prints only the issue list.
type pa11yResult struct {
	PageURL string          `json:"pageUrl"`
	Issues  json.RawMessage `json:"issues"`
}

func (c *Pa11yChecker) Run(ctx context.Context, target string) (*Result, error) {
	cmd := c.tool.command("pa11y", "",
		"--reporter", "json",
		"--wait", strconv.FormatInt(c.wait.Milliseconds(), 10),
		target,
	)

	// pa11y exits 2 when it found issues.
	res, err := runEngine(ctx, c.runner, Pa11y, cmd, 2)
	if err != nil {
		return nil, err
	}

	issues := bytes.TrimSpace(res.Stdout)
	if len(issues) == 0 {
		issues = []byte("[]")
	}

	raw, err := json.Marshal(pa11yResult{PageURL: target, Issues: issues})
	if err != nil {
		return nil, &Error{Check: Pa11y, Engine: cmd.Name, Err: fmt.Errorf("decoding issues: %w", err), Stderr: stderrOf(res)}
	}
	return newResult(Pa11y, cmd.Name, raw)
}
