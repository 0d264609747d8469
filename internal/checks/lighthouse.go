package checks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LighthouseCategories are the audit categories requested from Lighthouse.
var LighthouseCategories = []string{"performance", "accessibility", "best-practices", "seo"}

// LighthouseArgs holds the arguments for creating a Lighthouse checker.
type LighthouseArgs struct {
	// Tool overrides the lighthouse executable. Defaults to "lighthouse".
	Tool     Tool
	Launcher BrowserLauncher
	Runner   CommandRunner
	Logger   *slog.Logger
}

// LighthouseChecker runs a multi-category Lighthouse audit against a fresh
// headless browser, which is torn down before Run returns.
type LighthouseChecker struct {
	tool     Tool
	launcher BrowserLauncher
	runner   CommandRunner
	logger   *slog.Logger
}

var _ Checker = (*LighthouseChecker)(nil)

// NewLighthouseChecker creates a [LighthouseChecker].
func NewLighthouseChecker(args LighthouseArgs) *LighthouseChecker {
	logger := args.Logger
	if logger == nil {
		logger = slog.Default()
	}
	launcher := args.Launcher
	if launcher == nil {
		launcher = &ChromeLauncher{Logger: logger}
	}
	return &LighthouseChecker{
		tool:     args.Tool,
		launcher: launcher,
		runner:   runnerOrDefault(args.Runner, logger),
		logger:   logger,
	}
}

func (c *LighthouseChecker) Name() Name { return Lighthouse }

func (c *LighthouseChecker) Run(ctx context.Context, target string) (*Result, error) {
	browser, err := c.launcher.Launch(ctx)
	if err != nil {
		return nil, &Error{Check: Lighthouse, Engine: "chrome", Err: err}
	}
	defer func() {
		if err := browser.Close(); err != nil {
			c.logger.Warn("failed to close browser", "check", Lighthouse, "error", err)
		}
	}()

	cmd := c.tool.command("lighthouse", "",
		target,
		fmt.Sprintf("--port=%d", browser.DebugPort()),
		"--output=json",
		"--output-path=stdout",
		"--only-categories="+strings.Join(LighthouseCategories, ","),
		"--quiet",
	)

	res, err := runEngine(ctx, c.runner, Lighthouse, cmd)
	if err != nil {
		return nil, err
	}
	return newResult(Lighthouse, cmd.Name, res.Stdout)
}
