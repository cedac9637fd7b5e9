// Package tracker drives the matcher across every adjacent pair of a
// time-ordered snapshot sequence and assembles the evolution record.
package tracker

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"methodevo/internal/matcher"
	"methodevo/internal/method"
)

// Tracker aggregates per-pair matching results into an ordered transition
// list.
type Tracker struct {
	matcher *matcher.Matcher
	workers int
}

// New creates a tracker. workers bounds the number of transitions computed
// concurrently; values < 1 default to the number of CPUs.
func New(cfg matcher.Config, workers int) (*Tracker, error) {
	m, err := matcher.New(cfg)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Tracker{matcher: m, workers: workers}, nil
}

// Track runs the matcher over every consecutive snapshot pair. Each
// transition depends only on its own two snapshots, so all pairs are
// computed concurrently and reassembled in snapshot order. Fewer than two
// snapshots is nothing to do, not an error.
func (t *Tracker) Track(ctx context.Context, snapshots []*method.Snapshot) ([]*method.Transition, error) {
	if len(snapshots) < 2 {
		log.Printf("need at least 2 snapshots to track methods (got %d)", len(snapshots))
		return nil, nil
	}

	transitions := make([]*method.Transition, len(snapshots)-1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i := 0; i < len(snapshots)-1; i++ {
		i := i
		g.Go(func() error {
			before, after := snapshots[i], snapshots[i+1]
			res, err := t.matcher.Match(gctx, before, after)
			if err != nil {
				return fmt.Errorf("matching %s -> %s: %w", before.Revision, after.Revision, err)
			}
			transitions[i] = buildTransition(before, after, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return transitions, nil
}

func buildTransition(before, after *method.Snapshot, res *matcher.Result) *method.Transition {
	counts := make(map[method.MatchType]int)
	for _, m := range res.Matches {
		counts[m.Type]++
	}
	return &method.Transition{
		FromRevision: before.Revision,
		ToRevision:   after.Revision,
		Matches:      res.Matches,
		Added:        res.Added,
		Deleted:      res.Deleted,
		Counts:       counts,
		TotalBefore:  before.Len(),
		TotalAfter:   after.Len(),
	}
}
