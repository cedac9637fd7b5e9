package matcher

import (
	"context"
	"math"

	"methodevo/internal/method"
)

// candidate records an accepted similarity pairing by index into the
// remaining before/after slices.
type candidate struct {
	before int
	after  int
	score  float64
}

// assignGreedy scans before-records in ascending key order and commits the
// best still-unclaimed after-candidate for each, first come first served.
// Ties resolve to the first candidate encountered under that fixed order.
func (m *Matcher) assignGreedy(ctx context.Context, before, after []*method.Record) ([]candidate, error) {
	var pairs []candidate
	taken := make([]bool, len(after))

	for bi, b := range before {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestScore := -1.0
		bestIdx := -1
		for ai, a := range after {
			if taken[ai] {
				continue
			}
			if m.scorer.NGram(b.Tokens, a.Tokens) < m.cfg.NGramThreshold {
				continue
			}
			score := m.scorer.LCS(b.Tokens, a.Tokens)
			if score >= m.cfg.LCSThreshold && score > bestScore {
				bestScore = score
				bestIdx = ai
			}
		}
		if bestIdx >= 0 {
			taken[bestIdx] = true
			pairs = append(pairs, candidate{before: bi, after: bestIdx, score: bestScore})
		}
	}
	return pairs, nil
}

// assignBipartite maximizes the total similarity over all qualifying pairs
// instead of committing per-record; a method swap that greedy would mispair
// is resolved globally. Pairs below the acceptance threshold carry zero
// weight and are discarded from the solved assignment.
func (m *Matcher) assignBipartite(ctx context.Context, before, after []*method.Record) ([]candidate, error) {
	scores := make([][]float64, len(before))
	for bi, b := range before {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[bi] = make([]float64, len(after))
		for ai, a := range after {
			if m.scorer.NGram(b.Tokens, a.Tokens) < m.cfg.NGramThreshold {
				continue
			}
			if s := m.scorer.LCS(b.Tokens, a.Tokens); s >= m.cfg.LCSThreshold {
				scores[bi][ai] = s
			}
		}
	}

	assignment := hungarianMax(scores)
	var pairs []candidate
	for bi, ai := range assignment {
		if ai >= 0 && scores[bi][ai] > 0 && scores[bi][ai] >= m.cfg.LCSThreshold {
			pairs = append(pairs, candidate{before: bi, after: ai, score: scores[bi][ai]})
		}
	}
	return pairs, nil
}

// hungarianMax solves the assignment problem on the given weight matrix,
// maximizing the total weight. It returns, per row, the assigned column or
// -1. The matrix is padded to square internally; padded cells weigh zero.
func hungarianMax(weights [][]float64) []int {
	n := len(weights)
	if n == 0 {
		return nil
	}
	m := len(weights[0])
	size := n
	if m > size {
		size = m
	}

	// Minimization form with potentials, 1-based as usual.
	cost := func(i, j int) float64 {
		if i < n && j < m {
			return -weights[i][j]
		}
		return 0
	}

	u := make([]float64, size+1)
	v := make([]float64, size+1)
	p := make([]int, size+1)
	way := make([]int, size+1)

	for i := 1; i <= size; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, size+1)
		used := make([]bool, size+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= size; j++ {
				if used[j] {
					continue
				}
				cur := cost(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= size; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 1; j <= size; j++ {
		if i := p[j]; i >= 1 && i <= n && j <= m {
			assignment[i-1] = j - 1
		}
	}
	return assignment
}
