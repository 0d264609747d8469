// Package scoring turns the output of external analysis engines into integer
// scores on a 0–100 scale and folds them into a consolidated score.
package scoring

import (
	"math"
	"sort"
)

// Max is the score of a check that reported nothing.
const Max = 100

// Score keys written into a report's score table.
const (
	KeyAccessibility  = "accessibility"
	KeyPerformance    = "performance"
	KeyBestPractices  = "bestPractices"
	KeySEO            = "seo"
	KeyHTMLValidation = "htmlValidation"
	KeyESLint         = "eslint"
	KeyStylelint      = "stylelint"
	KeyConsolidated   = "consolidated"
)

// Deduct returns Max minus count when count is positive, and Max otherwise.
// The result is not clamped, so more than Max findings produce a negative score.
func Deduct(count int) int {
	if count > 0 {
		return Max - count
	}
	return Max
}

// Fraction scales a 0.0–1.0 category score to 0–100, rounding to the nearest integer.
func Fraction(f float64) int {
	return roundHalfUp(f * Max)
}

// Mean returns the rounded arithmetic mean of values, or 0 when there are none.
func Mean(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return roundHalfUp(float64(sum) / float64(len(values)))
}

// roundHalfUp rounds .5 towards positive infinity, so -2.5 becomes -2.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Scores maps a score key to its value. A later Set for the same key replaces
// the earlier value.
type Scores map[string]int

// Set records v under key.
func (s Scores) Set(key string, v int) {
	s[key] = v
}

// Keys returns every key except KeyConsolidated, sorted.
func (s Scores) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		if k == KeyConsolidated {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Consolidate stores and returns the mean of every score currently present
// other than the consolidated score itself.
func (s Scores) Consolidate() int {
	keys := s.Keys()
	values := make([]int, 0, len(keys))
	for _, k := range keys {
		values = append(values, s[k])
	}
	c := Mean(values)
	s[KeyConsolidated] = c
	return c
}
