package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spboyer/siteaudit/internal/checks"
	"github.com/spboyer/siteaudit/internal/lintconfig"
	"github.com/spboyer/siteaudit/internal/projectconfig"
	"github.com/spboyer/siteaudit/internal/report"
	"github.com/spboyer/siteaudit/internal/webapi"
)

// newReportGenerator builds the generator used by serve and check. The
// returned cleanup releases startup resources and must be called once the
// generator is no longer used. Tests replace it to avoid launching real
// engines.
var newReportGenerator = func(cfg *projectconfig.ProjectConfig, logger *slog.Logger) (webapi.ReportGenerator, func(), error) {
	return buildAggregator(cfg, logger)
}

// loadProjectConfig loads .siteaudit.yaml from the working directory upward.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return projectconfig.Load(wd)
}

// buildAggregator wires one checker per engine from cfg. Lint rule sets are
// read, validated and snapshotted here, once; cleanup removes the snapshots.
func buildAggregator(cfg *projectconfig.ProjectConfig, logger *slog.Logger) (*report.Aggregator, func(), error) {
	eslintRules, err := lintconfig.Load(cfg.Path(cfg.Lint.ESLintConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("loading ESLint rules: %w", err)
	}
	stylelintRules, err := lintconfig.Load(cfg.Path(cfg.Lint.StylelintConfig))
	if err != nil {
		closeRuleSets(logger, eslintRules)
		return nil, nil, fmt.Errorf("loading Stylelint rules: %w", err)
	}
	cleanup := func() { closeRuleSets(logger, eslintRules, stylelintRules) }
	logRuleSet(logger, checks.ESLint, eslintRules)
	logRuleSet(logger, checks.Stylelint, stylelintRules)

	insecure := cfg.Checks.HTMLValidation.InsecureSkipVerify != nil && *cfg.Checks.HTMLValidation.InsecureSkipVerify
	if insecure {
		logger.Warn("HTML validation will fetch pages without verifying TLS certificates")
	}

	runner := &checks.ExecRunner{Logger: logger}
	lintDir := cfg.Path(cfg.Lint.WorkDir)

	agg := report.NewAggregator(logger,
		checks.NewPa11yChecker(checks.Pa11yArgs{
			Tool:   tool(cfg.Tools.Pa11y),
			Wait:   time.Duration(cfg.Checks.Pa11y.WaitMS) * time.Millisecond,
			Runner: runner,
			Logger: logger,
		}),
		checks.NewLighthouseChecker(checks.LighthouseArgs{
			Tool: tool(cfg.Tools.Lighthouse),
			Launcher: &checks.ChromeLauncher{
				Path:         cfg.Tools.Chrome.Command,
				Flags:        cfg.Tools.Chrome.Args,
				ReadyTimeout: time.Duration(cfg.Checks.Lighthouse.BrowserReadyTimeout) * time.Second,
				Logger:       logger,
			},
			Runner: runner,
			Logger: logger,
		}),
		checks.NewHTMLValidator(checks.HTMLValidatorArgs{
			ValidatorURL:       cfg.Checks.HTMLValidation.ValidatorURL,
			InsecureSkipVerify: insecure,
			Timeout:            time.Duration(cfg.Checks.HTMLValidation.Timeout) * time.Second,
			UserAgent:          "siteaudit/" + version,
		}),
		checks.NewESLintChecker(checks.LintArgs{
			Tool:   tool(cfg.Tools.ESLint),
			Dir:    lintDir,
			Rules:  eslintRules,
			Runner: runner,
			Logger: logger,
		}),
		checks.NewStylelintChecker(checks.LintArgs{
			Tool:   tool(cfg.Tools.Stylelint),
			Dir:    lintDir,
			Rules:  stylelintRules,
			Runner: runner,
			Logger: logger,
		}),
	)
	return agg, cleanup, nil
}

func tool(c projectconfig.ToolConfig) checks.Tool {
	return checks.Tool{Command: c.Command, Args: c.Args}
}

func closeRuleSets(logger *slog.Logger, sets ...*lintconfig.RuleSet) {
	for _, rs := range sets {
		if err := rs.Close(); err != nil {
			logger.Warn("removing rule set snapshot", "path", rs.Path, "error", err)
		}
	}
}

func logRuleSet(logger *slog.Logger, check checks.Name, rules *lintconfig.RuleSet) {
	if rules.IsDefault() {
		logger.Debug("no rule set file, engine will discover its own configuration", "check", check)
		return
	}
	logger.Info("loaded rule set", "check", check, "path", rules.Source, "snapshot", rules.Path, "rules", rules.RuleCount())
}
