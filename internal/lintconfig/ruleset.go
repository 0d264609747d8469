// Package lintconfig loads the ESLint and Stylelint rule sets once at startup
// so they can be handed to the lint checkers as explicit values.
package lintconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spboyer/siteaudit/internal/validation"
)

// RuleSet is a lint rule configuration read from a JSON file. The zero value
// means "let the engine discover its own configuration".
//
// The validated content is copied to a private snapshot file at load time
// and engines are pointed at the snapshot, so later edits to Source have no
// effect until the rule set is loaded again.
type RuleSet struct {
	// Source is the absolute path of the file the rules were read from.
	Source string
	// Path is the snapshot handed to the engine.
	Path string
	// Config is the decoded file content.
	Config map[string]any

	closeOnce sync.Once
	closeErr  error
}

// Default returns a RuleSet that defers to the engine's own config discovery.
func Default() *RuleSet {
	return &RuleSet{}
}

// Load reads and validates the rule set at path. A missing file yields the
// default rule set; unreadable or malformed files are errors. Call Close to
// remove the snapshot.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default(), nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving rule set path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading rule set %q: %w", abs, err)
	}

	if errs := validation.ValidateRuleSet(data); len(errs) > 0 {
		return nil, fmt.Errorf("invalid rule set %q: %s", abs, strings.Join(errs, "; "))
	}

	var cfg map[string]any
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing rule set %q: %w", abs, err)
	}

	snapshot, err := writeSnapshot(abs, data)
	if err != nil {
		return nil, err
	}

	return &RuleSet{Source: abs, Path: snapshot, Config: cfg}, nil
}

// writeSnapshot copies data into a fresh private directory, keeping the
// source file name so engines still recognize the format.
func writeSnapshot(source string, data []byte) (string, error) {
	dir, err := os.MkdirTemp("", "siteaudit-rules-*")
	if err != nil {
		return "", fmt.Errorf("creating rule set snapshot for %q: %w", source, err)
	}
	p := filepath.Join(dir, filepath.Base(source))
	if err := os.WriteFile(p, data, 0o600); err != nil {
		os.RemoveAll(dir) //nolint:errcheck
		return "", fmt.Errorf("writing rule set snapshot for %q: %w", source, err)
	}
	return p, nil
}

// IsDefault reports whether the engine should use its own config discovery.
func (r *RuleSet) IsDefault() bool {
	return r == nil || r.Path == ""
}

// Args returns the command-line arguments that point an engine at this rule set.
func (r *RuleSet) Args() []string {
	if r.IsDefault() {
		return nil
	}
	return []string{"--config", r.Path}
}

// BaseDir is the directory of the source file, against which relative
// extends and plugins entries resolve. Empty for the default rule set.
func (r *RuleSet) BaseDir() string {
	if r.IsDefault() || r.Source == "" {
		return ""
	}
	return filepath.Dir(r.Source)
}

// RuleCount returns the number of entries under "rules".
func (r *RuleSet) RuleCount() int {
	if r == nil {
		return 0
	}
	rules, _ := r.Config["rules"].(map[string]any)
	return len(rules)
}

// Close removes the snapshot. It is safe to call more than once and on the
// default rule set.
func (r *RuleSet) Close() error {
	if r.IsDefault() {
		return nil
	}
	r.closeOnce.Do(func() {
		r.closeErr = os.RemoveAll(filepath.Dir(r.Path))
	})
	return r.closeErr
}
