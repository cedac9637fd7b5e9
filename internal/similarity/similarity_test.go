package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScorer_RejectsBadGramSize(t *testing.T) {
	_, err := NewScorer(0)
	assert.Error(t, err)

	_, err = NewScorer(-3)
	assert.Error(t, err)

	_, err = NewScorer(1)
	assert.NoError(t, err)
}

func TestLCSLength(t *testing.T) {
	tests := []struct {
		name string
		a    []int
		b    []int
		want int
	}{
		{"identical", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10},
		{"disjoint alphabets", []int{1, 2, 3, 4, 5}, []int{10, 20, 30, 40, 50}, 0},
		{"partial overlap", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, []int{1, 2, 3, 99, 5, 6, 7, 88, 9, 10}, 8},
		{"subsequence with gaps", []int{1, 3, 5, 7}, []int{1, 2, 3, 4, 5, 6, 7}, 4},
		{"order matters", []int{1, 2, 3}, []int{3, 2, 1}, 1},
		{"repeated tokens", []int{1, 1, 1}, []int{1, 1, 1, 1}, 3},
		{"interleaved repeats", []int{1, 2, 1, 2}, []int{2, 1, 2, 1}, 3},
		{"empty left", nil, []int{1, 2, 3}, 0},
		{"empty right", []int{1, 2, 3}, nil, 0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LCSLength(tt.a, tt.b))
			assert.Equal(t, tt.want, LCSLength(tt.b, tt.a), "LCS length should be symmetric")
		})
	}
}

func TestScorer_LCS(t *testing.T) {
	s, err := NewScorer(5)
	require.NoError(t, err)

	t.Run("identity", func(t *testing.T) {
		a := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		assert.Equal(t, 1.0, s.LCS(a, a))
	})

	t.Run("disjoint", func(t *testing.T) {
		assert.Equal(t, 0.0, s.LCS([]int{1, 2, 3, 4, 5}, []int{10, 20, 30, 40, 50}))
	})

	t.Run("ratio against shorter sequence", func(t *testing.T) {
		a := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		b := []int{1, 2, 3, 99, 5, 6, 7, 88, 9, 10}
		assert.InDelta(t, 0.8, s.LCS(a, b), 1e-9)

		// The shorter sequence fully contained in the longer one scores 1.0.
		assert.Equal(t, 1.0, s.LCS([]int{2, 3, 4}, a))
	})

	t.Run("empty yields zero", func(t *testing.T) {
		assert.Equal(t, 0.0, s.LCS(nil, []int{1, 2, 3}))
	})
}

func TestScorer_NGram(t *testing.T) {
	s, err := NewScorer(5)
	require.NoError(t, err)

	t.Run("identity", func(t *testing.T) {
		a := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		assert.Equal(t, 1.0, s.NGram(a, a))
	})

	t.Run("disjoint", func(t *testing.T) {
		a := []int{1, 2, 3, 4, 5, 6}
		b := []int{10, 20, 30, 40, 50, 60}
		assert.Equal(t, 0.0, s.NGram(a, b))
	})

	t.Run("sequence shorter than gram size yields zero", func(t *testing.T) {
		short := []int{1, 2, 3, 4}
		long := []int{1, 2, 3, 4, 5, 6, 7, 8}
		assert.Equal(t, 0.0, s.NGram(short, long))
		assert.Equal(t, 0.0, s.NGram(long, short))
		assert.Equal(t, 0.0, s.NGram(short, short))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// a has 6 windows, b shares the first 4 of them.
		a := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
		b := []int{1, 2, 3, 4, 5, 6, 7, 8, 99, 100}
		got := s.NGram(a, b)
		assert.InDelta(t, 4.0/6.0, got, 1e-9)
	})
}

func TestScorer_SymmetryAndRange(t *testing.T) {
	s, err := NewScorer(3)
	require.NoError(t, err)

	sequences := [][]int{
		nil,
		{1},
		{1, 2, 3},
		{1, 2, 3, 4, 5, 6, 7, 8},
		{5, 5, 5, 5, 5},
		{8, 7, 6, 5, 4, 3, 2, 1},
		{1, 2, 3, 1, 2, 3, 1, 2, 3},
	}
	for _, a := range sequences {
		for _, b := range sequences {
			ngramAB, ngramBA := s.NGram(a, b), s.NGram(b, a)
			lcsAB, lcsBA := s.LCS(a, b), s.LCS(b, a)

			assert.Equal(t, ngramAB, ngramBA)
			assert.Equal(t, lcsAB, lcsBA)
			assert.GreaterOrEqual(t, ngramAB, 0.0)
			assert.LessOrEqual(t, ngramAB, 1.0)
			assert.GreaterOrEqual(t, lcsAB, 0.0)
			assert.LessOrEqual(t, lcsAB, 1.0)
		}
	}
}
