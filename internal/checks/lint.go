package checks

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/spboyer/siteaudit/internal/lintconfig"
)

// File patterns linted by the script and style checkers, relative to the
// lint working directory.
var (
	ESLintPatterns    = []string{"**/*.js", "**/*.jsx"}
	StylelintPatterns = []string{"**/*.css"}
)

// LintArgs holds the arguments for creating a lint checker.
type LintArgs struct {
	// Tool overrides the engine executable.
	Tool Tool
	// Dir is the source tree to lint. Empty means the process working directory.
	Dir string
	// Rules is the rule set loaded at startup. The engine reads its snapshot,
	// never the live file. Nil defers to the engine's own configuration
	// discovery.
	Rules  *lintconfig.RuleSet
	Runner CommandRunner
	Logger *slog.Logger
}

// ESLintChecker lints the local script sources. The target URL is ignored.
type ESLintChecker struct {
	args   LintArgs
	runner CommandRunner
}

var _ Checker = (*ESLintChecker)(nil)

// NewESLintChecker creates an [ESLintChecker].
func NewESLintChecker(args LintArgs) *ESLintChecker {
	return &ESLintChecker{args: args, runner: runnerOrDefault(args.Runner, args.Logger)}
}

func (c *ESLintChecker) Name() Name { return ESLint }

func (c *ESLintChecker) Run(ctx context.Context, _ string) (*Result, error) {
	args := []string{"--format", "json", "--no-error-on-unmatched-pattern"}
	args = append(args, c.args.Rules.Args()...)
	args = append(args, ESLintPatterns...)
	cmd := c.args.Tool.command("eslint", c.args.Dir, args...)

	// eslint exits 1 when lint problems were found.
	res, err := runEngine(ctx, c.runner, ESLint, cmd, 1)
	if err != nil {
		return nil, err
	}
	return newResult(ESLint, cmd.Name, orEmptyList(res.Stdout))
}

// StylelintChecker lints the local style sources. The target URL is ignored.
type StylelintChecker struct {
	args   LintArgs
	runner CommandRunner
}

var _ Checker = (*StylelintChecker)(nil)

// NewStylelintChecker creates a [StylelintChecker].
func NewStylelintChecker(args LintArgs) *StylelintChecker {
	return &StylelintChecker{args: args, runner: runnerOrDefault(args.Runner, args.Logger)}
}

func (c *StylelintChecker) Name() Name { return Stylelint }

func (c *StylelintChecker) Run(ctx context.Context, _ string) (*Result, error) {
	args := append([]string{}, StylelintPatterns...)
	args = append(args, "--formatter", "json", "--allow-empty-input")
	args = append(args, c.args.Rules.Args()...)
	if base := c.args.Rules.BaseDir(); base != "" {
		// Relative extends and plugins resolve beside the source file, not
		// the snapshot.
		args = append(args, "--config-basedir", base)
	}
	cmd := c.args.Tool.command("stylelint", c.args.Dir, args...)

	// stylelint exits 2 when lint problems were found.
	res, err := runEngine(ctx, c.runner, Stylelint, cmd, 2)
	if err != nil {
		return nil, err
	}

	// Recent stylelint releases print the formatted report on stderr.
	out := res.Stdout
	if len(bytes.TrimSpace(out)) == 0 {
		out = res.Stderr
	}
	return newResult(Stylelint, cmd.Name, orEmptyList(out))
}

func orEmptyList(out []byte) []byte {
	if len(bytes.TrimSpace(out)) == 0 {
		return []byte("[]")
	}
	return out
}
