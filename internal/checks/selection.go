package checks

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Selection holds the five recognized check flags. Absent flags are false.
type Selection struct {
	Pa11y          bool `mapstructure:"pa11y" json:"pa11y,omitempty"`
	Lighthouse     bool `mapstructure:"lighthouse" json:"lighthouse,omitempty"`
	HTMLValidation bool `mapstructure:"htmlValidation" json:"htmlValidation,omitempty"`
	ESLint         bool `mapstructure:"eslint" json:"eslint,omitempty"`
	Stylelint      bool `mapstructure:"stylelint" json:"stylelint,omitempty"`
}

// ParseSelection decodes a loose flag map. Keys match case-sensitively and
// unknown keys are ignored; a known key holding a non-boolean value is an
// error.
func ParseSelection(flags map[string]any) (Selection, error) {
	var sel Selection
	if len(flags) == 0 {
		return sel, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &sel,
		// Flag names are exact; "ESLINT" is an unknown key, not eslint.
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return Selection{}, fmt.Errorf("building checks decoder: %w", err)
	}
	if err := dec.Decode(flags); err != nil {
		return Selection{}, fmt.Errorf("decoding checks: %w", err)
	}
	return sel, nil
}

// SelectionOf returns a Selection with the given checks enabled.
func SelectionOf(names ...Name) Selection {
	var sel Selection
	for _, n := range names {
		sel.set(n, true)
	}
	return sel
}

// Enabled reports whether n is selected.
func (s Selection) Enabled(n Name) bool {
	switch n {
	case Pa11y:
		return s.Pa11y
	case Lighthouse:
		return s.Lighthouse
	case HTMLValidation:
		return s.HTMLValidation
	case ESLint:
		return s.ESLint
	case Stylelint:
		return s.Stylelint
	}
	return false
}

// Names returns the enabled checks in run order.
func (s Selection) Names() []Name {
	var names []Name
	for _, n := range Order {
		if s.Enabled(n) {
			names = append(names, n)
		}
	}
	return names
}

func (s *Selection) set(n Name, v bool) {
	switch n {
	case Pa11y:
		s.Pa11y = v
	case Lighthouse:
		s.Lighthouse = v
	case HTMLValidation:
		s.HTMLValidation = v
	case ESLint:
		s.ESLint = v
	case Stylelint:
		s.Stylelint = v
	}
}
