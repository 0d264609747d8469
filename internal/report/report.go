// Package report runs the selected checks for a URL and folds their raw
// output into a single scored report.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/spboyer/siteaudit/internal/checks"
	"github.com/spboyer/siteaudit/internal/scoring"
)

// IssueGroup collects the issue-like records one check produced.
type IssueGroup struct {
	Type   string            `json:"type"`
	Issues []json.RawMessage `json:"issues"`
}

// Report is the consolidated result of one audit. Raw engine output is kept
// verbatim under the check's name; unselected checks are omitted.
type Report struct {
	URL            string          `json:"url"`
	Issues         []IssueGroup    `json:"issues"`
	Scores         scoring.Scores  `json:"scores"`
	Pa11y          json.RawMessage `json:"pa11y,omitempty"`
	Lighthouse     json.RawMessage `json:"lighthouse,omitempty"`
	HTMLValidation json.RawMessage `json:"htmlValidation,omitempty"`
	ESLint         json.RawMessage `json:"eslint,omitempty"`
	Stylelint      json.RawMessage `json:"stylelint,omitempty"`
}

// New returns an empty report for url.
func New(url string) *Report {
	return &Report{
		URL:    url,
		Issues: []IssueGroup{},
		Scores: scoring.Scores{},
	}
}

// Raw returns the stored engine output for check n, or nil.
func (r *Report) Raw(n checks.Name) json.RawMessage {
	switch n {
	case checks.Pa11y:
		return r.Pa11y
	case checks.Lighthouse:
		return r.Lighthouse
	case checks.HTMLValidation:
		return r.HTMLValidation
	case checks.ESLint:
		return r.ESLint
	case checks.Stylelint:
		return r.Stylelint
	}
	return nil
}

func (r *Report) setRaw(n checks.Name, raw json.RawMessage) {
	switch n {
	case checks.Pa11y:
		r.Pa11y = raw
	case checks.Lighthouse:
		r.Lighthouse = raw
	case checks.HTMLValidation:
		r.HTMLValidation = raw
	case checks.ESLint:
		r.ESLint = raw
	case checks.Stylelint:
		r.Stylelint = raw
	}
}

// IssueCount returns the total number of issue records across all groups.
func (r *Report) IssueCount() int {
	n := 0
	for _, g := range r.Issues {
		n += len(g.Issues)
	}
	return n
}

// lighthouseCategories maps Lighthouse category ids to score keys, in the
// order they are written.
var lighthouseCategories = []struct {
	id  string
	key string
}{
	{"performance", scoring.KeyPerformance},
	{"accessibility", scoring.KeyAccessibility},
	{"best-practices", scoring.KeyBestPractices},
	{"seo", scoring.KeySEO},
}

type pa11yOutput struct {
	Issues []json.RawMessage `json:"issues"`
}

type lighthouseOutput struct {
	Categories map[string]struct {
		Score *float64 `json:"score"`
	} `json:"categories"`
}

type htmlValidationOutput struct {
	Messages []json.RawMessage `json:"messages"`
}

// add stores the output of check n and derives its scores and issue group.
func (r *Report) add(n checks.Name, raw json.RawMessage) error {
	switch n {
	case checks.Pa11y:
		var out pa11yOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		r.Scores.Set(scoring.KeyAccessibility, scoring.Deduct(len(out.Issues)))
		r.appendGroup(n, out.Issues)

	case checks.Lighthouse:
		var out lighthouseOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		// The accessibility category replaces any pa11y-derived score.
		for _, c := range lighthouseCategories {
			if cat, ok := out.Categories[c.id]; ok && cat.Score != nil {
				r.Scores.Set(c.key, scoring.Fraction(*cat.Score))
			}
		}

	case checks.HTMLValidation:
		var out htmlValidationOutput
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		r.Scores.Set(scoring.KeyHTMLValidation, scoring.Deduct(len(out.Messages)))
		r.appendGroup(n, out.Messages)

	case checks.ESLint, checks.Stylelint:
		var results []json.RawMessage
		if err := json.Unmarshal(raw, &results); err != nil {
			return err
		}
		key := scoring.KeyESLint
		if n == checks.Stylelint {
			key = scoring.KeyStylelint
		}
		// One entry per linted file, however many findings it holds.
		r.Scores.Set(key, scoring.Deduct(len(results)))
		r.appendGroup(n, results)

	default:
		return fmt.Errorf("%w %q", checks.ErrUnknownCheck, n)
	}

	r.setRaw(n, raw)
	return nil
}

func (r *Report) appendGroup(n checks.Name, issues []json.RawMessage) {
	if issues == nil {
		issues = []json.RawMessage{}
	}
	r.Issues = append(r.Issues, IssueGroup{Type: string(n), Issues: issues})
}
