// Package projectconfig provides the ProjectConfig struct and loader for
// .siteaudit.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/siteaudit/internal/utils"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up from the working directory.
const FileName = ".siteaudit.yaml"

// Default values for project configuration. New() references them.
const (
	DefaultServerPort      = 3000
	DefaultServerStaticDir = "public"

	DefaultLintWorkDir         = "."
	DefaultESLintConfigPath    = ".eslintrc.json"
	DefaultStylelintConfigPath = ".stylelintrc.json"

	DefaultPa11yCommand      = "pa11y"
	DefaultLighthouseCommand = "lighthouse"
	DefaultESLintCommand     = "eslint"
	DefaultStylelintCommand  = "stylelint"
	DefaultChromeCommand     = "google-chrome"

	DefaultPa11yWaitMS         = 5000
	DefaultHTMLValidatorURL    = "https://validator.w3.org/nu/"
	DefaultHTTPTimeoutSeconds  = 60
	DefaultBrowserReadySeconds = 30
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int    `yaml:"port,omitempty"`
	StaticDir string `yaml:"static_dir,omitempty"`
}

// LintConfig holds the source tree and rule-set files for the lint checks.
type LintConfig struct {
	WorkDir         string `yaml:"work_dir,omitempty"`
	ESLintConfig    string `yaml:"eslint_config,omitempty"`
	StylelintConfig string `yaml:"stylelint_config,omitempty"`
}

// ToolConfig names an engine executable and fixed leading arguments.
type ToolConfig struct {
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`
}

// ToolsConfig holds the executables behind each check.
type ToolsConfig struct {
	Pa11y      ToolConfig `yaml:"pa11y,omitempty"`
	Lighthouse ToolConfig `yaml:"lighthouse,omitempty"`
	ESLint     ToolConfig `yaml:"eslint,omitempty"`
	Stylelint  ToolConfig `yaml:"stylelint,omitempty"`
	Chrome     ToolConfig `yaml:"chrome,omitempty"`
}

// Pa11yConfig holds accessibility check settings.
type Pa11yConfig struct {
	WaitMS int `yaml:"wait_ms,omitempty"`
}

// LighthouseConfig holds performance check settings.
type LighthouseConfig struct {
	BrowserReadyTimeout int `yaml:"browser_ready_timeout,omitempty"`
}

// HTMLValidationConfig holds HTML conformance check settings.
type HTMLValidationConfig struct {
	ValidatorURL       string `yaml:"validator_url,omitempty"`
	InsecureSkipVerify *bool  `yaml:"insecure_skip_verify,omitempty"`
	Timeout            int    `yaml:"timeout,omitempty"`
}

// ChecksConfig holds per-check settings.
type ChecksConfig struct {
	Pa11y          Pa11yConfig          `yaml:"pa11y,omitempty"`
	Lighthouse     LighthouseConfig     `yaml:"lighthouse,omitempty"`
	HTMLValidation HTMLValidationConfig `yaml:"html_validation,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .siteaudit.yaml.
type ProjectConfig struct {
	Server ServerConfig `yaml:"server,omitempty"`
	Lint   LintConfig   `yaml:"lint,omitempty"`
	Tools  ToolsConfig  `yaml:"tools,omitempty"`
	Checks ChecksConfig `yaml:"checks,omitempty"`

	// Dir is the directory the configuration file was found in, or the start
	// directory when none was found. Relative paths resolve against it.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Server: ServerConfig{
			Port:      DefaultServerPort,
			StaticDir: DefaultServerStaticDir,
		},
		Lint: LintConfig{
			WorkDir:         DefaultLintWorkDir,
			ESLintConfig:    DefaultESLintConfigPath,
			StylelintConfig: DefaultStylelintConfigPath,
		},
		Tools: ToolsConfig{
			Pa11y:      ToolConfig{Command: DefaultPa11yCommand},
			Lighthouse: ToolConfig{Command: DefaultLighthouseCommand},
			ESLint:     ToolConfig{Command: DefaultESLintCommand},
			Stylelint:  ToolConfig{Command: DefaultStylelintCommand},
			Chrome:     ToolConfig{Command: DefaultChromeCommand},
		},
		Checks: ChecksConfig{
			Pa11y: Pa11yConfig{WaitMS: DefaultPa11yWaitMS},
			Lighthouse: LighthouseConfig{
				BrowserReadyTimeout: DefaultBrowserReadySeconds,
			},
			HTMLValidation: HTMLValidationConfig{
				ValidatorURL:       DefaultHTMLValidatorURL,
				InsecureSkipVerify: boolPtr(false),
				Timeout:            DefaultHTTPTimeoutSeconds,
			},
		},
	}
}

// Load finds .siteaudit.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", startDir, err)
	}
	cfg.Dir = absStart

	data, dir, err := findConfigFile(absStart)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	cfg.Dir = dir
	return cfg, nil
}

// findConfigFile walks up from dir looking for .siteaudit.yaml (max 10
// levels) and returns its content and directory. Returns os.ErrNotExist if
// no config file is found.
func findConfigFile(dir string) ([]byte, string, error) {
	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, dir, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// Path resolves a configured path against the configuration directory.
func (c *ProjectConfig) Path(p string) string {
	return utils.ResolvePath(p, c.Dir)
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.StaticDir != "" {
		dst.Server.StaticDir = src.Server.StaticDir
	}

	// Lint
	if src.Lint.WorkDir != "" {
		dst.Lint.WorkDir = src.Lint.WorkDir
	}
	if src.Lint.ESLintConfig != "" {
		dst.Lint.ESLintConfig = src.Lint.ESLintConfig
	}
	if src.Lint.StylelintConfig != "" {
		dst.Lint.StylelintConfig = src.Lint.StylelintConfig
	}

	// Tools
	mergeTool(&dst.Tools.Pa11y, src.Tools.Pa11y)
	mergeTool(&dst.Tools.Lighthouse, src.Tools.Lighthouse)
	mergeTool(&dst.Tools.ESLint, src.Tools.ESLint)
	mergeTool(&dst.Tools.Stylelint, src.Tools.Stylelint)
	mergeTool(&dst.Tools.Chrome, src.Tools.Chrome)

	// Checks
	if src.Checks.Pa11y.WaitMS != 0 {
		dst.Checks.Pa11y.WaitMS = src.Checks.Pa11y.WaitMS
	}
	if src.Checks.Lighthouse.BrowserReadyTimeout != 0 {
		dst.Checks.Lighthouse.BrowserReadyTimeout = src.Checks.Lighthouse.BrowserReadyTimeout
	}
	if src.Checks.HTMLValidation.ValidatorURL != "" {
		dst.Checks.HTMLValidation.ValidatorURL = src.Checks.HTMLValidation.ValidatorURL
	}
	if src.Checks.HTMLValidation.InsecureSkipVerify != nil {
		dst.Checks.HTMLValidation.InsecureSkipVerify = src.Checks.HTMLValidation.InsecureSkipVerify
	}
	if src.Checks.HTMLValidation.Timeout != 0 {
		dst.Checks.HTMLValidation.Timeout = src.Checks.HTMLValidation.Timeout
	}
}

func mergeTool(dst *ToolConfig, src ToolConfig) {
	if src.Command != "" {
		dst.Command = src.Command
	}
	if src.Args != nil {
		dst.Args = src.Args
	}
}

func boolPtr(b bool) *bool {
	return &b
}
