package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"methodevo/internal/method"
)

func sampleTransition() *method.Transition {
	before := &method.Record{
		FilePath: "a.go", StartLine: 1, EndLine: 10,
		Name: "foo", Parameters: "int", ReturnType: "error", Revision: "r1",
	}
	after := &method.Record{
		FilePath: "a.go", StartLine: 1, EndLine: 12,
		Name: "foo", Parameters: "int", ReturnType: "error", Revision: "r2",
	}
	added := &method.Record{
		FilePath: "b.go", StartLine: 5, EndLine: 9,
		Name: "fresh", Parameters: "", ReturnType: "int", Revision: "r2",
	}
	deleted := &method.Record{
		FilePath: "c.go", StartLine: 20, EndLine: 30,
		Name: "gone", Parameters: "string", ReturnType: "", Revision: "r1",
	}
	return &method.Transition{
		FromRevision: "r1",
		ToRevision:   "r2",
		Matches: []method.Match{
			{Before: before, After: after, Type: method.MatchExact, Similarity: 1.0},
		},
		Added:       []*method.Record{added},
		Deleted:     []*method.Record{deleted},
		Counts:      map[method.MatchType]int{method.MatchExact: 1},
		TotalBefore: 2,
		TotalAfter:  2,
	}
}

func TestRows(t *testing.T) {
	rows := Rows([]*method.Transition{sampleTransition()})
	require.Len(t, rows, 3)

	match := rows[0]
	assert.Equal(t, "r1", match.FromRev)
	assert.Equal(t, "r2", match.ToRev)
	assert.Equal(t, string(method.MatchExact), match.ChangeType)
	assert.Equal(t, 1.0, match.Similarity)
	assert.Equal(t, "a.go::foo:int:error", match.BeforeKey())
	assert.Equal(t, "a.go::foo:int:error", match.AfterKey())

	addedRow := rows[1]
	assert.Equal(t, ChangeAdded, addedRow.ChangeType)
	assert.Empty(t, addedRow.BeforeKey())
	assert.Equal(t, "b.go::fresh::int", addedRow.AfterKey())

	deletedRow := rows[2]
	assert.Equal(t, ChangeDeleted, deletedRow.ChangeType)
	assert.Equal(t, "c.go::gone:string:", deletedRow.BeforeKey())
	assert.Empty(t, deletedRow.AfterKey())
}

func TestDetailsRoundTrip(t *testing.T) {
	rows := Rows([]*method.Transition{sampleTransition()})
	path := filepath.Join(t.TempDir(), "details.csv")
	require.NoError(t, WriteDetails(path, rows))

	loaded, err := ReadDetails(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(rows))
	for i := range rows {
		assert.Equal(t, rows[i], loaded[i])
	}
}

func TestWriteDetails_SimilarityColumn(t *testing.T) {
	rows := Rows([]*method.Transition{sampleTransition()})
	path := filepath.Join(t.TempDir(), "details.csv")
	require.NoError(t, WriteDetails(path, rows))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, detailsHeader, records[0])
	assert.Equal(t, "1.0000", records[1][3])
	// Additions and deletions carry no similarity.
	assert.Equal(t, "", records[2][3])
	assert.Equal(t, "", records[3][3])
}

func TestReadDetails_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "details.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644))

	_, err := ReadDetails(path)
	assert.Error(t, err)
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteSummary(path, []*method.Transition{sampleTransition()}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, summaryHeader, records[0])
	assert.Equal(t, []string{"r1", "r2", "1", "0", "0", "0", "0", "0", "1", "1", "2", "2"}, records[1])
}

func row(from, to, changeType, fileBefore, sigBefore, fileAfter, sigAfter string) DetailRow {
	return DetailRow{
		FromRev:    from,
		ToRev:      to,
		ChangeType: changeType,
		FileBefore: fileBefore,
		SigBefore:  sigBefore,
		FileAfter:  fileAfter,
		SigAfter:   sigAfter,
	}
}

func TestBuildEvolutions(t *testing.T) {
	// foo survives two exact transitions; bar is renamed and then stable;
	// baz dies in the first transition; qux appears in r2 and dies in r3.
	rows := []DetailRow{
		row("r1", "r2", string(method.MatchExact), "a.go", "foo:int:error", "a.go", "foo:int:error"),
		row("r1", "r2", string(method.MatchRenamed), "a.go", "bar:int:error", "a.go", "bar2:int:error"),
		row("r1", "r2", ChangeAdded, "", "", "b.go", "qux::int"),
		row("r1", "r2", ChangeDeleted, "c.go", "baz:string:", "", ""),

		row("r2", "r3", string(method.MatchExact), "a.go", "foo:int:error", "a.go", "foo:int:error"),
		row("r2", "r3", string(method.MatchExact), "a.go", "bar2:int:error", "a.go", "bar2:int:error"),
		row("r2", "r3", ChangeDeleted, "b.go", "qux::int", "", ""),
	}

	evolutions := BuildEvolutions(rows)
	require.Len(t, evolutions, 4)

	foo := evolutions[0]
	assert.Equal(t, "r1", foo.FirstRevision)
	assert.Equal(t, "r3", foo.LastRevision)
	assert.Equal(t, 3, foo.Lifespan())
	assert.Equal(t, 1.0, foo.Stability())
	assert.False(t, foo.Dead)

	bar := evolutions[1]
	assert.Equal(t, []string{string(method.MatchRenamed), string(method.MatchExact)}, bar.ChangeTypes)
	assert.True(t, bar.WasRenamed())
	assert.False(t, bar.WasMoved())
	assert.Equal(t, 0.5, bar.Stability())
	assert.False(t, bar.Dead)

	qux := evolutions[2]
	assert.Equal(t, "r2", qux.FirstRevision)
	assert.Equal(t, "r2", qux.LastRevision)
	assert.Equal(t, 1, qux.Lifespan())
	assert.True(t, qux.Dead)

	baz := evolutions[3]
	assert.Equal(t, "r1", baz.FirstRevision)
	assert.Equal(t, "r1", baz.LastRevision)
	assert.True(t, baz.Dead)
}

func TestEvolutionPredicates(t *testing.T) {
	e := &Evolution{ChangeTypes: []string{
		string(method.MatchExact),
		string(method.MatchSignatureChanged),
	}}
	assert.False(t, e.WasRenamed())
	assert.False(t, e.WasMoved())
	assert.True(t, e.WasRefactored())

	moved := &Evolution{ChangeTypes: []string{string(method.MatchMoved)}}
	assert.True(t, moved.WasMoved())
	assert.False(t, moved.WasRefactored())

	fresh := &Evolution{}
	assert.Equal(t, 1, fresh.Lifespan())
	assert.Equal(t, 1.0, fresh.Stability())
}

func TestSummarize(t *testing.T) {
	exact := string(method.MatchExact)
	evolutions := []*Evolution{
		{ChangeTypes: []string{exact, exact, exact, exact, exact, exact, exact, exact, exact}},                // lifespan 10, stability 1.0
		{ChangeTypes: []string{string(method.MatchRenamed)}},                                                  // lifespan 2, stability 0
		{ChangeTypes: []string{exact, string(method.MatchRefactored), string(method.MatchMoved), exact}, Dead: true}, // stability 0.5
		{}, // lifespan 1, stability 1.0
	}

	stats := Summarize(evolutions)
	assert.Equal(t, 4, stats.TotalMethods)
	assert.Equal(t, 2, stats.ShortLived)
	assert.Equal(t, 1, stats.LongLived)
	assert.Equal(t, 1, stats.Renamed)
	assert.Equal(t, 1, stats.Moved)
	assert.Equal(t, 1, stats.Refactored)
	assert.Equal(t, 2, stats.HighlyStable)
	assert.Equal(t, 1, stats.Unstable)
	assert.InDelta(t, (10+2+5+1)/4.0, stats.AverageLifespan, 1e-9)
	assert.InDelta(t, (1.0+0.0+0.5+1.0)/4.0, stats.AverageStability, 1e-9)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalMethods)
	assert.Equal(t, 0.0, empty.AverageLifespan)
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	stats := Stats{
		TotalMethods:     3,
		AverageLifespan:  2.33,
		AverageStability: 0.75,
		HighlyStable:     1,
	}
	require.NoError(t, WriteReport(path, stats))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Method Evolution Pattern Analysis Report")
	assert.Contains(t, text, "Total methods tracked: 3")
	assert.Contains(t, text, "Average stability: 75.00%")
	assert.Contains(t, text, "Highly stable methods (>=90%): 1")
}
