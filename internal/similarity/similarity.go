// Package similarity scores pairs of token sequences. It provides a cheap
// N-gram set-overlap filter and an exact LCS-based ratio, both normalized to
// [0, 1] against the shorter sequence.
package similarity

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// Scorer computes similarity ratios between token sequences.
type Scorer struct {
	gramSize int
}

// NewScorer creates a scorer with the given N-gram window size.
func NewScorer(gramSize int) (*Scorer, error) {
	if gramSize < 1 {
		return nil, fmt.Errorf("gram size must be >= 1, got %d", gramSize)
	}
	return &Scorer{gramSize: gramSize}, nil
}

// NGram returns the normalized N-gram set overlap between the two sequences:
// |intersection| / min(|set_a|, |set_b|). A sequence shorter than the gram
// size yields an empty set and a similarity of 0. The measure overestimates
// for sequences sharing common substructure; it is a pre-filter, not a
// verdict.
func (s *Scorer) NGram(a, b []int) float64 {
	gramsA := s.ngrams(a)
	gramsB := s.ngrams(b)
	if len(gramsA) == 0 || len(gramsB) == 0 {
		return 0
	}

	// Probe the smaller set against the larger one.
	if len(gramsA) > len(gramsB) {
		gramsA, gramsB = gramsB, gramsA
	}
	intersection := 0
	for g := range gramsA {
		if _, ok := gramsB[g]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(gramsA))
}

// LCS returns lcs_length / min(len(a), len(b)), or 0 if either sequence is
// empty. The LCS length is exact (Hunt–Szymanski), so callers can apply
// calibrated percentage thresholds to the result.
func (s *Scorer) LCS(a, b []int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}
	return float64(LCSLength(a, b)) / float64(minLen)
}

// ngrams builds the set of distinct hashed windows of length gramSize.
func (s *Scorer) ngrams(tokens []int) map[uint64]struct{} {
	if len(tokens) < s.gramSize {
		return nil
	}
	grams := make(map[uint64]struct{}, len(tokens)-s.gramSize+1)
	window := make([]byte, s.gramSize*8)
	for i := 0; i+s.gramSize <= len(tokens); i++ {
		for j, tok := range tokens[i : i+s.gramSize] {
			binary.LittleEndian.PutUint64(window[j*8:], uint64(tok))
		}
		grams[xxhash.Sum64(window)] = struct{}{}
	}
	return grams
}

// LCSLength computes the longest common subsequence length between the two
// sequences with the Hunt–Szymanski algorithm, O((n + r) log n) where n is
// the shorter length and r the number of token position matches.
func LCSLength(a, b []int) int {
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	n, m := len(shorter), len(longer)
	if n == 0 {
		return 0
	}

	// Inverted index over the longer sequence. Positions are appended from
	// last to first so each lookup visits them largest to smallest; the
	// descending order keeps the threshold update rule correct.
	positions := make(map[int][]int, m)
	for i := m - 1; i >= 0; i-- {
		positions[longer[i]] = append(positions[longer[i]], i)
	}

	// threshold[k] is the smallest position in the longer sequence at which
	// a common subsequence of length k has been found so far.
	const inf = math.MaxInt
	threshold := make([]int, n+1)
	threshold[0] = -1
	for k := 1; k <= n; k++ {
		threshold[k] = inf
	}

	for _, tok := range shorter {
		for _, pos := range positions[tok] {
			// Binary search for the largest k with threshold[k] < pos.
			left, right := 0, n
			for left < right {
				mid := (left + right + 1) / 2
				if threshold[mid] < pos {
					left = mid
				} else {
					right = mid - 1
				}
			}
			if threshold[left] < pos && pos < threshold[left+1] {
				threshold[left+1] = pos
			}
		}
	}

	for k := n; k >= 0; k-- {
		if threshold[k] != inf {
			return k
		}
	}
	return 0
}
