package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeduct(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"no findings", 0, 100},
		{"one finding", 1, 99},
		{"many findings", 37, 63},
		{"exactly max", 100, 0},
		{"past max is not clamped", 130, -30},
		{"negative count treated as none", -4, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Deduct(tt.count))
		})
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int
	}{
		{"zero", 0, 0},
		{"perfect", 1, 100},
		{"rounds down", 0.734, 73},
		{"rounds half up", 0.555, 56},
		{"rounds up", 0.899, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Fraction(tt.in))
		})
	}
}

func TestMean(t *testing.T) {
	require.Equal(t, 0, Mean(nil))
	require.Equal(t, 90, Mean([]int{90}))
	require.Equal(t, 95, Mean([]int{100, 90}))
	require.Equal(t, 97, Mean([]int{100, 100, 90}))
	// 99.5 rounds up
	require.Equal(t, 100, Mean([]int{100, 99}))
	// -2.5 rounds towards positive infinity
	require.Equal(t, -2, Mean([]int{-5, 0}))
}

func TestScores_SetOverwrites(t *testing.T) {
	s := Scores{}
	s.Set(KeyAccessibility, 97)
	s.Set(KeyAccessibility, 81)
	require.Equal(t, 81, s[KeyAccessibility])
	require.Len(t, s, 1)
}

func TestScores_Consolidate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		s := Scores{}
		require.Equal(t, 0, s.Consolidate())
		require.Equal(t, 0, s[KeyConsolidated])
	})

	t.Run("excludes previous consolidated value", func(t *testing.T) {
		s := Scores{KeyConsolidated: 12, KeyESLint: 98, KeyStylelint: 100}
		require.Equal(t, 99, s.Consolidate())
		require.Equal(t, 99, s[KeyConsolidated])
	})

	t.Run("keys are sorted and skip consolidated", func(t *testing.T) {
		s := Scores{KeySEO: 1, KeyConsolidated: 2, KeyAccessibility: 3}
		require.Equal(t, []string{KeyAccessibility, KeySEO}, s.Keys())
	})
}
