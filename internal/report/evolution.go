package report

import (
	"fmt"
	"os"

	"methodevo/internal/method"
)

// Evolution is the life of one method across the snapshot sequence: where it
// first appeared, the classified transitions it went through, and where it
// died, if it did.
type Evolution struct {
	FirstRevision string
	LastRevision  string
	ChangeTypes   []string
	Dead          bool
}

// Lifespan is the number of snapshots the method existed in.
func (e *Evolution) Lifespan() int {
	return len(e.ChangeTypes) + 1
}

// Stability is the ratio of exact transitions to total transitions; a method
// that never changed scores 1.0.
func (e *Evolution) Stability() float64 {
	if len(e.ChangeTypes) == 0 {
		return 1.0
	}
	exact := 0
	for _, ct := range e.ChangeTypes {
		if ct == string(method.MatchExact) {
			exact++
		}
	}
	return float64(exact) / float64(len(e.ChangeTypes))
}

func (e *Evolution) WasRenamed() bool { return e.went(string(method.MatchRenamed)) }
func (e *Evolution) WasMoved() bool   { return e.went(string(method.MatchMoved)) }

// WasRefactored covers both refactorings and signature changes.
func (e *Evolution) WasRefactored() bool {
	return e.went(string(method.MatchRefactored)) || e.went(string(method.MatchSignatureChanged))
}

func (e *Evolution) went(changeType string) bool {
	for _, ct := range e.ChangeTypes {
		if ct == changeType {
			return true
		}
	}
	return false
}

// BuildEvolutions chains detail rows into per-method evolutions. Rows must
// be in transition order, as written by Rows or read back by ReadDetails.
// Matches carry a chain from its before-key to its after-key; additions open
// chains and deletions close them.
func BuildEvolutions(rows []DetailRow) []*Evolution {
	var all []*Evolution
	active := make(map[string]*Evolution)

	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].FromRev == rows[start].FromRev && rows[end].ToRev == rows[start].ToRev {
			end++
		}

		// Every key of both snapshots appears in exactly one row of the
		// transition, so the active set is rebuilt wholesale.
		next := make(map[string]*Evolution)
		for _, row := range rows[start:end] {
			switch row.ChangeType {
			case ChangeAdded:
				e := &Evolution{FirstRevision: row.ToRev, LastRevision: row.ToRev}
				all = append(all, e)
				next[row.AfterKey()] = e
			case ChangeDeleted:
				e := active[row.BeforeKey()]
				if e == nil {
					// Died in the very first transition.
					e = &Evolution{FirstRevision: row.FromRev}
					all = append(all, e)
				}
				e.LastRevision = row.FromRev
				e.Dead = true
			default:
				e := active[row.BeforeKey()]
				if e == nil {
					e = &Evolution{FirstRevision: row.FromRev}
					all = append(all, e)
				}
				e.ChangeTypes = append(e.ChangeTypes, row.ChangeType)
				e.LastRevision = row.ToRev
				next[row.AfterKey()] = e
			}
		}
		active = next
		start = end
	}
	return all
}

// Stats aggregates lifecycle and stability patterns over all evolutions.
type Stats struct {
	TotalMethods    int
	AverageLifespan float64
	ShortLived      int // lifespan <= 2 snapshots
	LongLived       int // lifespan >= 10 snapshots
	Renamed         int
	Moved           int
	Refactored      int

	AverageStability float64
	HighlyStable     int // stability >= 0.9
	Unstable         int // stability < 0.5
}

// Summarize computes pattern statistics over the given evolutions.
func Summarize(evolutions []*Evolution) Stats {
	stats := Stats{TotalMethods: len(evolutions)}
	if len(evolutions) == 0 {
		return stats
	}

	totalLifespan := 0
	totalStability := 0.0
	for _, e := range evolutions {
		lifespan := e.Lifespan()
		totalLifespan += lifespan
		if lifespan <= 2 {
			stats.ShortLived++
		}
		if lifespan >= 10 {
			stats.LongLived++
		}
		if e.WasRenamed() {
			stats.Renamed++
		}
		if e.WasMoved() {
			stats.Moved++
		}
		if e.WasRefactored() {
			stats.Refactored++
		}

		stability := e.Stability()
		totalStability += stability
		if stability >= 0.9 {
			stats.HighlyStable++
		}
		if stability < 0.5 {
			stats.Unstable++
		}
	}
	stats.AverageLifespan = float64(totalLifespan) / float64(len(evolutions))
	stats.AverageStability = totalStability / float64(len(evolutions))
	return stats
}

// WriteReport writes the pattern statistics as a plain-text report.
func WriteReport(path string, stats Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	line := func(format string, args ...any) {
		fmt.Fprintf(f, format+"\n", args...)
	}

	line("================================================================================")
	line("Method Evolution Pattern Analysis Report")
	line("================================================================================")
	line("")
	line("## Lifecycle Statistics")
	line("Total methods tracked: %d", stats.TotalMethods)
	line("Average lifespan: %.2f snapshots", stats.AverageLifespan)
	line("Short-lived methods (<=2 snapshots): %d", stats.ShortLived)
	line("Long-lived methods (>=10 snapshots): %d", stats.LongLived)
	line("")
	line("## Evolution Patterns")
	line("Renamed methods: %d", stats.Renamed)
	line("Moved methods: %d", stats.Moved)
	line("Refactored methods: %d", stats.Refactored)
	line("")
	line("## Stability Statistics")
	line("Average stability: %.2f%%", stats.AverageStability*100)
	line("Highly stable methods (>=90%%): %d", stats.HighlyStable)
	line("Unstable methods (<50%%): %d", stats.Unstable)
	return nil
}
