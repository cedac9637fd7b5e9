// Package matcher turns two unordered method collections into a classified
// one-to-one correspondence plus added/deleted sets. Matching is staged:
// exact identity, then content hash, then (optionally) token similarity.
package matcher

import (
	"context"
	"fmt"

	"methodevo/internal/method"
	"methodevo/internal/similarity"
)

// Strategy selects how similarity candidates are assigned to matches.
type Strategy string

const (
	// StrategyGreedy commits the best candidate per before-record in key
	// order, first come first served.
	StrategyGreedy Strategy = "greedy"
	// StrategyBipartite solves a maximum total-similarity assignment over
	// the thresholded candidate graph.
	StrategyBipartite Strategy = "bipartite"
)

// Config controls the matching pipeline. Thresholds are ratios in [0, 1].
type Config struct {
	UseSimilarity   bool
	NGramThreshold  float64
	LCSThreshold    float64
	RenameThreshold float64
	GramSize        int
	Strategy        Strategy
}

// DefaultConfig mirrors the calibrated defaults of the upstream clone
// detector: similarity matching off, 10% N-gram filter, 70% LCS acceptance,
// 90% rename/move boundary, 5-token grams.
func DefaultConfig() Config {
	return Config{
		UseSimilarity:   false,
		NGramThreshold:  0.10,
		LCSThreshold:    0.70,
		RenameThreshold: 0.90,
		GramSize:        5,
		Strategy:        StrategyGreedy,
	}
}

// Validate rejects input-shape violations before any snapshot is processed.
func (c Config) Validate() error {
	if c.GramSize < 1 {
		return fmt.Errorf("gram_size must be >= 1, got %d", c.GramSize)
	}
	for name, v := range map[string]float64{
		"ngram_threshold":  c.NGramThreshold,
		"lcs_threshold":    c.LCSThreshold,
		"rename_threshold": c.RenameThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	switch c.Strategy {
	case StrategyGreedy, StrategyBipartite:
	case "":
		return fmt.Errorf("strategy must be set")
	default:
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return nil
}

// Result is the outcome of matching one snapshot pair. Added and Deleted are
// sorted by identity key.
type Result struct {
	Matches []method.Match
	Added   []*method.Record
	Deleted []*method.Record
}

// Matcher runs the staged matching policy over one pair of snapshots.
type Matcher struct {
	cfg    Config
	scorer *similarity.Scorer
}

// New creates a matcher, validating the configuration up front.
func New(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}
	scorer, err := similarity.NewScorer(cfg.GramSize)
	if err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg, scorer: scorer}, nil
}

// Match compares two snapshots. Each record is consumed by at most one match;
// leftovers land in Added or Deleted. The before side is processed in
// ascending identity-key order throughout, so results are deterministic.
func (m *Matcher) Match(ctx context.Context, before, after *method.Snapshot) (*Result, error) {
	res := &Result{}

	claimedBefore := make(map[string]bool)
	claimedAfter := make(map[string]bool)

	beforeKeys := before.Keys()
	afterKeys := after.Keys()

	// Stage 1: exact identity. Same file path, name and signature is the
	// cheapest and most confident signal.
	for _, key := range beforeKeys {
		b, _ := before.Get(key)
		a, ok := after.Get(key)
		if !ok {
			continue
		}
		res.Matches = append(res.Matches, method.Match{
			Before:     b,
			After:      a,
			Type:       method.MatchExact,
			Similarity: 1.0,
		})
		claimedBefore[key] = true
		claimedAfter[key] = true
	}

	// Stage 2: content hash. Catches methods whose body survived a rename,
	// move or signature change untouched. Records sharing a hash are paired
	// greedily in key order; leftovers stay unmatched.
	m.matchByContentHash(before, after, beforeKeys, afterKeys, claimedBefore, claimedAfter, res)

	// Stage 3: token similarity, only for records that still carry a token
	// sequence.
	if m.cfg.UseSimilarity {
		if err := m.matchBySimilarity(ctx, before, after, beforeKeys, afterKeys, claimedBefore, claimedAfter, res); err != nil {
			return nil, err
		}
	}

	// Residual accounting.
	for _, key := range beforeKeys {
		if !claimedBefore[key] {
			r, _ := before.Get(key)
			res.Deleted = append(res.Deleted, r)
		}
	}
	for _, key := range afterKeys {
		if !claimedAfter[key] {
			r, _ := after.Get(key)
			res.Added = append(res.Added, r)
		}
	}

	return res, nil
}

func (m *Matcher) matchByContentHash(before, after *method.Snapshot, beforeKeys, afterKeys []string, claimedBefore, claimedAfter map[string]bool, res *Result) {
	byHash := make(map[string][]string)
	for _, key := range afterKeys {
		if claimedAfter[key] {
			continue
		}
		r, _ := after.Get(key)
		if r.ContentHash == "" {
			continue
		}
		byHash[r.ContentHash] = append(byHash[r.ContentHash], key)
	}

	for _, key := range beforeKeys {
		if claimedBefore[key] {
			continue
		}
		b, _ := before.Get(key)
		if b.ContentHash == "" {
			continue
		}
		candidates := byHash[b.ContentHash]
		if len(candidates) == 0 {
			continue
		}
		afterKey := candidates[0]
		byHash[b.ContentHash] = candidates[1:]

		a, _ := after.Get(afterKey)
		res.Matches = append(res.Matches, method.Match{
			Before:     b,
			After:      a,
			Type:       method.MatchIdenticalImpl,
			Similarity: 1.0,
		})
		claimedBefore[key] = true
		claimedAfter[afterKey] = true
	}
}

func (m *Matcher) matchBySimilarity(ctx context.Context, before, after *method.Snapshot, beforeKeys, afterKeys []string, claimedBefore, claimedAfter map[string]bool, res *Result) error {
	var remainingBefore, remainingAfter []*method.Record
	for _, key := range beforeKeys {
		if r, _ := before.Get(key); !claimedBefore[key] && len(r.Tokens) > 0 {
			remainingBefore = append(remainingBefore, r)
		}
	}
	for _, key := range afterKeys {
		if r, _ := after.Get(key); !claimedAfter[key] && len(r.Tokens) > 0 {
			remainingAfter = append(remainingAfter, r)
		}
	}
	if len(remainingBefore) == 0 || len(remainingAfter) == 0 {
		return nil
	}

	var pairs []candidate
	var err error
	switch m.cfg.Strategy {
	case StrategyBipartite:
		pairs, err = m.assignBipartite(ctx, remainingBefore, remainingAfter)
	default:
		pairs, err = m.assignGreedy(ctx, remainingBefore, remainingAfter)
	}
	if err != nil {
		return err
	}

	for _, p := range pairs {
		b, a := remainingBefore[p.before], remainingAfter[p.after]
		res.Matches = append(res.Matches, method.Match{
			Before:     b,
			After:      a,
			Type:       m.classify(b, a, p.score),
			Similarity: p.score,
		})
		claimedBefore[b.IdentityKey()] = true
		claimedAfter[a.IdentityKey()] = true
	}
	return nil
}

// classify labels a committed similarity match. The rename/move boundary is
// a separate, stricter cutoff than the general acceptance threshold.
func (m *Matcher) classify(before, after *method.Record, score float64) method.MatchType {
	sameFile := before.FilePath == after.FilePath
	sameName := before.Name == after.Name

	switch {
	case sameFile && sameName:
		return method.MatchSignatureChanged
	case sameFile && score >= m.cfg.RenameThreshold:
		return method.MatchRenamed
	case !sameFile && score >= m.cfg.RenameThreshold:
		return method.MatchMoved
	default:
		return method.MatchRefactored
	}
}
