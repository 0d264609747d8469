package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spboyer/siteaudit/internal/checks"
	"github.com/spboyer/siteaudit/internal/report"
	"github.com/spboyer/siteaudit/internal/scoring"
	"github.com/spboyer/siteaudit/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	formatAuto = "auto"
	formatText = "text"
	formatJSON = "json"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Audit a URL and print the report",
		Long: `Audit a URL with the selected checks and print the consolidated report.

Checks (comma separated, run in this order):
  pa11y           Accessibility issues found in the rendered page
  lighthouse      Performance, accessibility, best-practices and SEO categories
  htmlValidation  Nu HTML Checker messages for the page markup
  eslint          Script lint results for the local source tree
  stylelint       Style lint results for the local source tree

The report is printed as a table on a terminal and as JSON otherwise; use
--format to choose explicitly. With --min-score the command exits with code 1
when the consolidated score is below the given value.

Examples:
  siteaudit check https://example.com
  siteaudit check https://example.com --checks pa11y,htmlValidation --min-score 90
  siteaudit check http://localhost:8080 --format json > report.json`,
		Args:          cobra.ExactArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
	}
	cmd.Flags().StringSlice("checks", checkNames(checks.Order), "Checks to run")
	cmd.Flags().String("format", formatAuto, "Output format: auto | text | json")
	cmd.Flags().Int("min-score", 0, "Fail when the consolidated score is below this value (0-100)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("checks")
	format, _ := cmd.Flags().GetString("format")
	minScore, _ := cmd.Flags().GetInt("min-score")

	if minScore < 0 || minScore > scoring.Max {
		return fmt.Errorf("--min-score must be between 0 and %d, got %d", scoring.Max, minScore)
	}
	sel, err := parseCheckNames(names)
	if err != nil {
		return err
	}
	format, err = resolveFormat(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	gen, cleanup, err := newReportGenerator(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer cleanup()

	var spin *spinner.Spinner
	if format == formatText && isTerminal(cmd.ErrOrStderr()) {
		spin = spinner.Start(cmd.ErrOrStderr(), fmt.Sprintf("Auditing %s (%s)", args[0], strings.Join(checkNames(sel.Names()), ", ")))
	}
	rep, err := gen.Generate(cmd.Context(), args[0], sel)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	default:
		printReport(out, rep, minScore)
	}

	if minScore > 0 {
		if got := rep.Scores[scoring.KeyConsolidated]; got < minScore {
			return &AuditFailureError{
				Message: fmt.Sprintf("consolidated score %d is below the minimum of %d", got, minScore),
			}
		}
	}
	return nil
}

// parseCheckNames turns flag values into a selection. Each value may itself
// hold a comma separated list.
func parseCheckNames(values []string) (checks.Selection, error) {
	var names []checks.Name
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := checks.ParseName(part)
			if err != nil {
				return checks.Selection{}, err
			}
			names = append(names, n)
		}
	}
	return checks.SelectionOf(names...), nil
}

// resolveFormat maps "auto" to text on a terminal and JSON otherwise.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch format {
	case formatText, formatJSON:
		return format, nil
	case formatAuto, "":
		if isTerminal(w) {
			return formatText, nil
		}
		return formatJSON, nil
	}
	return "", fmt.Errorf("unknown format %q (want auto, text or json)", format)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func checkNames(names []checks.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// printReport writes the human-readable summary of rep.
func printReport(w io.Writer, rep *report.Report, minScore int) {
	const colName = 16

	fmt.Fprintf(w, "\n🔎 Audit of %s\n\n", rep.URL) //nolint:errcheck

	keys := rep.Scores.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(w, "No checks were run.") //nolint:errcheck
	}
	for _, k := range keys {
		fmt.Fprintf(w, "  %s  %s\n", padRight(k, colName), scoreString(rep.Scores[k])) //nolint:errcheck
	}

	consolidated := rep.Scores[scoring.KeyConsolidated]
	fmt.Fprintf(w, "  %s\n", strings.Repeat("─", colName+6)) //nolint:errcheck

	fmt.Fprintf(w, "  %s  %s\n", padRight(scoring.KeyConsolidated, colName), scoreString(consolidated)) //nolint:errcheck

	if len(rep.Issues) > 0 {
		fmt.Fprintf(w, "\nIssues\n") //nolint:errcheck
		for _, g := range rep.Issues {
			fmt.Fprintf(w, "  %s  %d\n", padRight(g.Type, colName), len(g.Issues)) //nolint:errcheck
		}
	}

	if minScore > 0 {
		status := color.GreenString("✅") + " meets"
		if consolidated < minScore {
			status = color.RedString("❌") + " below"
		}
		fmt.Fprintf(w, "\n%s the minimum score of %d\n", status, minScore) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck
}

// scoreString colours a score by band: 90 and above is good, 50 and above
// needs work, anything lower is poor.
func scoreString(v int) string {
	s := strconv.Itoa(v)
	switch {
	case v >= 90:
		return color.GreenString(s)
	case v >= 50:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
