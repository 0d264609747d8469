// Package checks provides the Checker interface and one adapter per external
// analysis engine: pa11y, Lighthouse, the Nu HTML Checker, ESLint and Stylelint.
//
// Every adapter returns the engine's JSON output untouched. Interpreting that
// output is left to the report package.
package checks

//go:generate go tool mockgen -source=checker.go -destination=mock_checker.go -package=checks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Name identifies a check. The values double as the request flag names and
// as the report field names.
type Name string

const (
	Pa11y          Name = "pa11y"
	Lighthouse     Name = "lighthouse"
	HTMLValidation Name = "htmlValidation"
	ESLint         Name = "eslint"
	Stylelint      Name = "stylelint"
)

// Order is the fixed sequence in which selected checks run.
var Order = []Name{Pa11y, Lighthouse, HTMLValidation, ESLint, Stylelint}

// ErrUnknownCheck is returned by ParseName for names outside Order.
var ErrUnknownCheck = errors.New("unknown check")

// ParseName converts a flag name to a Name.
func ParseName(s string) (Name, error) {
	s = strings.TrimSpace(s)
	for _, n := range Order {
		if strings.EqualFold(s, string(n)) {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrUnknownCheck, s, joinNames(Order))
}

func joinNames(names []Name) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}

// Result is the untouched output of one engine run.
type Result struct {
	Check Name
	Raw   json.RawMessage
}

// Checker runs a single analysis engine. URL-less checks ignore target.
type Checker interface {
	Name() Name
	Run(ctx context.Context, target string) (*Result, error)
}

// Error reports a failed engine run.
type Error struct {
	Check  Name
	Engine string
	// Stderr holds whatever the engine wrote to stderr, when it is a process.
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s check (%s): %v", e.Check, e.Engine, e.Err)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s; stderr: %s", msg, e.Stderr)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newResult checks that raw is JSON before wrapping it.
func newResult(check Name, engine string, raw []byte) (*Result, error) {
	raw = []byte(strings.TrimSpace(string(raw)))
	if !json.Valid(raw) {
		return nil, &Error{Check: check, Engine: engine, Err: fmt.Errorf("engine produced invalid JSON (%d bytes)", len(raw))}
	}
	return &Result{Check: check, Raw: json.RawMessage(raw)}, nil
}
