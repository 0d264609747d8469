package checks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spboyer/siteaudit/internal/lintconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPa11yChecker(t *testing.T) {
	runner := &fakeRunner{results: []*CommandResult{{
		ExitCode: 2,
		Stdout:   []byte(`[{"code":"WCAG2AA.Principle1.Guideline1_1.1_1_1.H37","type":"error","message":"Img element missing an alt attribute."}]`),
	}}}
	checker := NewPa11yChecker(Pa11yArgs{Runner: runner})
	assert.Equal(t, Pa11y, checker.Name())

	res, err := checker.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, runner.commands, 1)
	assert.Equal(t, "pa11y", runner.commands[0].Name)
	assert.Equal(t, []string{"--reporter", "json", "--wait", "5000", "https://example.com"}, runner.commands[0].Args)

	var decoded struct {
		PageURL string            `json:"pageUrl"`
		Issues  []json.RawMessage `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(res.Raw, &decoded))
	assert.Equal(t, "https://example.com", decoded.PageURL)
	assert.Len(t, decoded.Issues, 1)
}

func TestPa11yChecker_NoIssuesAndCustomWait(t *testing.T) {
	runner := &fakeRunner{results: []*CommandResult{{ExitCode: 0}}}
	checker := NewPa11yChecker(Pa11yArgs{
		Runner: runner,
		Wait:   1500 * time.Millisecond,
		Tool:   Tool{Command: "npx", Args: []string{"pa11y"}},
	})

	res, err := checker.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pageUrl":"https://example.com","issues":[]}`, string(res.Raw))
	assert.Equal(t, "npx", runner.commands[0].Name)
	assert.Equal(t, []string{"pa11y", "--reporter", "json", "--wait", "1500", "https://example.com"}, runner.commands[0].Args)
}

func TestPa11yChecker_Failure(t *testing.T) {
	runner := &fakeRunner{results: []*CommandResult{{ExitCode: 1, Stderr: []byte("net::ERR_NAME_NOT_RESOLVED")}}}
	_, err := NewPa11yChecker(Pa11yArgs{Runner: runner}).Run(context.Background(), "https://nope.invalid")

	var checkErr *Error
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, Pa11y, checkErr.Check)
	assert.Contains(t, checkErr.Stderr, "ERR_NAME_NOT_RESOLVED")
}

func TestLighthouseChecker(t *testing.T) {
	browser := &fakeBrowser{port: 9333}
	runner := &fakeRunner{results: []*CommandResult{{
		Stdout: []byte(`{"categories":{"performance":{"score":0.91}},"audits":{}}`),
	}}}
	checker := NewLighthouseChecker(LighthouseArgs{Runner: runner, Launcher: &fakeLauncher{browser: browser}})
	assert.Equal(t, Lighthouse, checker.Name())

	res, err := checker.Run(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.JSONEq(t, `{"categories":{"performance":{"score":0.91}},"audits":{}}`, string(res.Raw))
	assert.Equal(t, 1, browser.closed)

	require.Len(t, runner.commands, 1)
	assert.Equal(t, "lighthouse", runner.commands[0].Name)
	assert.Equal(t, []string{
		"https://example.com",
		"--port=9333",
		"--output=json",
		"--output-path=stdout",
		"--only-categories=performance,accessibility,best-practices,seo",
		"--quiet",
	}, runner.commands[0].Args)
}

func TestLighthouseChecker_ClosesBrowserOnFailure(t *testing.T) {
	browser := &fakeBrowser{port: 9333}
	runner := &fakeRunner{results: []*CommandResult{{ExitCode: 1, Stderr: []byte("PROTOCOL_TIMEOUT")}}}
	checker := NewLighthouseChecker(LighthouseArgs{Runner: runner, Launcher: &fakeLauncher{browser: browser}})

	_, err := checker.Run(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, 1, browser.closed)

	browser = &fakeBrowser{port: 9333}
	runner = &fakeRunner{results: []*CommandResult{{Stdout: []byte("not json")}}}
	checker = NewLighthouseChecker(LighthouseArgs{Runner: runner, Launcher: &fakeLauncher{browser: browser}})
	_, err = checker.Run(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Equal(t, 1, browser.closed)
}

func TestLighthouseChecker_LaunchFailure(t *testing.T) {
	runner := &fakeRunner{}
	checker := NewLighthouseChecker(LighthouseArgs{Runner: runner, Launcher: &fakeLauncher{err: errors.New("chrome not found")}})

	_, err := checker.Run(context.Background(), "https://example.com")
	var checkErr *Error
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, "chrome", checkErr.Engine)
	assert.Empty(t, runner.commands, "lighthouse must not run without a browser")
}

func TestESLintChecker(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, ".eslintrc.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`{"rules":{"semi":"error"}}`), 0o644))
	rules, err := lintconfig.Load(rulesPath)
	require.NoError(t, err)
	t.Cleanup(func() { rules.Close() }) //nolint:errcheck

	runner := &fakeRunner{results: []*CommandResult{{
		ExitCode: 1,
		Stdout:   []byte(`[{"filePath":"/srv/site/app.js","messages":[{"ruleId":"semi"}],"errorCount":1}]`),
	}}}
	checker := NewESLintChecker(LintArgs{Dir: dir, Rules: rules, Runner: runner})
	assert.Equal(t, ESLint, checker.Name())

	res, err := checker.Run(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Contains(t, string(res.Raw), "app.js")

	require.Len(t, runner.commands, 1)
	cmd := runner.commands[0]
	assert.Equal(t, "eslint", cmd.Name)
	assert.Equal(t, dir, cmd.Dir)
	assert.Equal(t, []string{
		"--format", "json", "--no-error-on-unmatched-pattern",
		"--config", rules.Path,
		"**/*.js", "**/*.jsx",
	}, cmd.Args)
	assert.NotContains(t, cmd.Args, rulesPath)
}

func TestLintCheckers_UseRuleSetLoadedAtStartup(t *testing.T) {
	dir := t.TempDir()
	eslintPath := filepath.Join(dir, ".eslintrc.json")
	stylelintPath := filepath.Join(dir, ".stylelintrc.json")
	require.NoError(t, os.WriteFile(eslintPath, []byte(`{"rules":{"semi":"error"}}`), 0o644))
	require.NoError(t, os.WriteFile(stylelintPath, []byte(`{"rules":{"color-no-invalid-hex":true}}`), 0o644))

	eslintRules, err := lintconfig.Load(eslintPath)
	require.NoError(t, err)
	t.Cleanup(func() { eslintRules.Close() }) //nolint:errcheck
	stylelintRules, err := lintconfig.Load(stylelintPath)
	require.NoError(t, err)
	t.Cleanup(func() { stylelintRules.Close() }) //nolint:errcheck

	// Edit both files after startup.
	require.NoError(t, os.WriteFile(eslintPath, []byte(`{"rules":{"semi":"off"}}`), 0o644))
	require.NoError(t, os.WriteFile(stylelintPath, []byte(`{"rules":"broken"}`), 0o644))

	runner := &fakeRunner{}
	_, err = NewESLintChecker(LintArgs{Dir: dir, Rules: eslintRules, Runner: runner}).Run(context.Background(), "")
	require.NoError(t, err)
	_, err = NewStylelintChecker(LintArgs{Dir: dir, Rules: stylelintRules, Runner: runner}).Run(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, runner.commands, 2)

	configArg := func(args []string) string {
		for i, a := range args {
			if a == "--config" && i+1 < len(args) {
				return args[i+1]
			}
		}
		return ""
	}

	eslintConfig := configArg(runner.commands[0].Args)
	got, err := os.ReadFile(eslintConfig)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules":{"semi":"error"}}`, string(got))

	stylelintConfig := configArg(runner.commands[1].Args)
	got, err = os.ReadFile(stylelintConfig)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules":{"color-no-invalid-hex":true}}`, string(got))
	assert.Equal(t, []string{
		"**/*.css", "--formatter", "json", "--allow-empty-input",
		"--config", stylelintRules.Path,
		"--config-basedir", dir,
	}, runner.commands[1].Args)
}

func TestESLintChecker_DefaultRulesAndFatalExit(t *testing.T) {
	runner := &fakeRunner{results: []*CommandResult{{ExitCode: 0}}}
	checker := NewESLintChecker(LintArgs{Runner: runner})

	res, err := checker.Run(context.Background(), "")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(res.Raw))
	assert.NotContains(t, runner.commands[0].Args, "--config")

	runner = &fakeRunner{results: []*CommandResult{{ExitCode: 2, Stderr: []byte("Oops! Something went wrong!")}}}
	_, err = NewESLintChecker(LintArgs{Runner: runner}).Run(context.Background(), "")
	require.Error(t, err)
}

func TestStylelintChecker(t *testing.T) {
	tests := []struct {
		name    string
		result  *CommandResult
		want    string
		wantErr bool
	}{
		{
			name:   "report on stdout",
			result: &CommandResult{ExitCode: 2, Stdout: []byte(`[{"source":"a.css","warnings":[{"rule":"color-no-invalid-hex"}]}]`)},
			want:   `[{"source":"a.css","warnings":[{"rule":"color-no-invalid-hex"}]}]`,
		},
		{
			name:   "report on stderr",
			result: &CommandResult{ExitCode: 2, Stderr: []byte(`[{"source":"b.css","warnings":[]}]`)},
			want:   `[{"source":"b.css","warnings":[]}]`,
		},
		{
			name:   "clean run",
			result: &CommandResult{ExitCode: 0},
			want:   `[]`,
		},
		{
			name:    "invalid configuration",
			result:  &CommandResult{ExitCode: 78, Stderr: []byte("ConfigurationError")},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{results: []*CommandResult{tt.result}}
			checker := NewStylelintChecker(LintArgs{Dir: "/srv/site", Runner: runner})
			assert.Equal(t, Stylelint, checker.Name())

			res, err := checker.Run(context.Background(), "")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(res.Raw))
			assert.Equal(t, []string{"**/*.css", "--formatter", "json", "--allow-empty-input"}, runner.commands[0].Args)
		})
	}
}

func newValidatorServer(t *testing.T, gotDoc *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "json", r.URL.Query().Get("out"))
		assert.Equal(t, "text/html; charset=utf-8", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		body, _ := io.ReadAll(r.Body)
		*gotDoc = string(body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"messages":[{"type":"error","message":"Element title must not be empty."}]}`) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTMLValidator(t *testing.T) {
	const page = "<!DOCTYPE html><html><head><title></title></head><body></body></html>"
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, page) //nolint:errcheck
	}))
	defer site.Close()

	var gotDoc string
	validator := newValidatorServer(t, &gotDoc)

	checker := NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: validator.URL + "/nu/"})
	assert.Equal(t, HTMLValidation, checker.Name())

	res, err := checker.Run(context.Background(), site.URL)
	require.NoError(t, err)
	assert.Equal(t, page, gotDoc)
	assert.JSONEq(t, `{"messages":[{"type":"error","message":"Element title must not be empty."}]}`, string(res.Raw))
}

func TestHTMLValidator_TLSVerification(t *testing.T) {
	site := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<!DOCTYPE html><title>x</title>") //nolint:errcheck
	}))
	defer site.Close()

	var gotDoc string
	validator := newValidatorServer(t, &gotDoc)

	strict := NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: validator.URL})
	_, err := strict.Run(context.Background(), site.URL)
	var checkErr *Error
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, "http", checkErr.Engine)

	permissive := NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: validator.URL, InsecureSkipVerify: true})
	_, err = permissive.Run(context.Background(), site.URL)
	require.NoError(t, err)
	assert.Contains(t, gotDoc, "<title>x</title>")
}

func TestHTMLValidator_OversizedPage(t *testing.T) {
	const limit = 64
	fits := "<!DOCTYPE html>" + strings.Repeat("a", limit-len("<!DOCTYPE html>"))
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			io.WriteString(w, fits+"b") //nolint:errcheck
			return
		}
		io.WriteString(w, fits) //nolint:errcheck
	}))
	defer site.Close()

	gotDoc := "untouched"
	validator := newValidatorServer(t, &gotDoc)
	checker := NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: validator.URL, MaxDocumentBytes: limit})

	_, err := checker.Run(context.Background(), site.URL+"/big")
	var checkErr *Error
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, "http", checkErr.Engine)
	assert.Contains(t, err.Error(), "exceeds 64 bytes")
	assert.Equal(t, "untouched", gotDoc, "a truncated page must not reach the validator")

	_, err = checker.Run(context.Background(), site.URL+"/exact")
	require.NoError(t, err)
	assert.Equal(t, fits, gotDoc)
}

func TestHTMLValidator_Failures(t *testing.T) {
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	var gotDoc string
	validator := newValidatorServer(t, &gotDoc)

	_, err := NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: validator.URL}).Run(context.Background(), missing.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<p>hi") //nolint:errcheck
	}))
	defer site.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	_, err = NewHTMLValidator(HTMLValidatorArgs{ValidatorURL: broken.URL}).Run(context.Background(), site.URL)
	var checkErr *Error
	require.ErrorAs(t, err, &checkErr)
	assert.Equal(t, nuCheckerEngine, checkErr.Engine)
	assert.Contains(t, err.Error(), "503")
}
