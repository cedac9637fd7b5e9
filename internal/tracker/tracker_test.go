package tracker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"methodevo/internal/matcher"
	"methodevo/internal/method"
)

func record(file, name, hash string) *method.Record {
	return &method.Record{
		FilePath:    file,
		StartLine:   1,
		EndLine:     10,
		Name:        name,
		Parameters:  "int",
		ReturnType:  "error",
		ContentHash: hash,
	}
}

func snapshot(revision string, records ...*method.Record) *method.Snapshot {
	snap := method.NewSnapshot(revision)
	for _, r := range records {
		r.Revision = revision
		snap.Add(r)
	}
	return snap
}

func TestTrack_TooFewSnapshots(t *testing.T) {
	tr, err := New(matcher.DefaultConfig(), 2)
	require.NoError(t, err)

	for _, snaps := range [][]*method.Snapshot{
		nil,
		{snapshot("r1", record("a.go", "foo", "h1"))},
	} {
		transitions, err := tr.Track(context.Background(), snaps)
		assert.NoError(t, err)
		assert.Nil(t, transitions)
	}
}

func TestTrack_ChainOrderingAndCounts(t *testing.T) {
	// r1 -> r2: foo survives exactly, bar is renamed (same hash), baz is
	// deleted. r2 -> r3: everything survives and qux is added.
	r1 := snapshot("r1",
		record("a.go", "foo", "h-foo"),
		record("a.go", "bar", "h-bar"),
		record("b.go", "baz", "h-baz"),
	)
	r2 := snapshot("r2",
		record("a.go", "foo", "h-foo"),
		record("a.go", "bar2", "h-bar"),
	)
	r3 := snapshot("r3",
		record("a.go", "foo", "h-foo"),
		record("a.go", "bar2", "h-bar"),
		record("c.go", "qux", "h-qux"),
	)

	tr, err := New(matcher.DefaultConfig(), 4)
	require.NoError(t, err)

	transitions, err := tr.Track(context.Background(), []*method.Snapshot{r1, r2, r3})
	require.NoError(t, err)
	require.Len(t, transitions, 2)

	first := transitions[0]
	assert.Equal(t, "r1", first.FromRevision)
	assert.Equal(t, "r2", first.ToRevision)
	assert.Equal(t, 3, first.TotalBefore)
	assert.Equal(t, 2, first.TotalAfter)
	assert.Equal(t, 1, first.Counts[method.MatchExact])
	assert.Equal(t, 1, first.Counts[method.MatchIdenticalImpl])
	require.Len(t, first.Deleted, 1)
	assert.Equal(t, "baz", first.Deleted[0].Name)
	assert.Empty(t, first.Added)

	second := transitions[1]
	assert.Equal(t, "r2", second.FromRevision)
	assert.Equal(t, "r3", second.ToRevision)
	assert.Equal(t, 2, second.Counts[method.MatchExact])
	require.Len(t, second.Added, 1)
	assert.Equal(t, "qux", second.Added[0].Name)
	assert.Empty(t, second.Deleted)
}

func TestTrack_Deterministic(t *testing.T) {
	snaps := func() []*method.Snapshot {
		var out []*method.Snapshot
		for _, rev := range []string{"r1", "r2", "r3", "r4"} {
			out = append(out, snapshot(rev,
				record("a.go", "foo", "h-foo"),
				record("a.go", "bar", "h-"+rev),
			))
		}
		return out
	}

	tr, err := New(matcher.DefaultConfig(), 0)
	require.NoError(t, err)

	baseline, err := tr.Track(context.Background(), snaps())
	require.NoError(t, err)
	require.Len(t, baseline, 3)

	for i := 0; i < 5; i++ {
		transitions, err := tr.Track(context.Background(), snaps())
		require.NoError(t, err)
		require.Len(t, transitions, len(baseline))
		for j := range transitions {
			assert.Equal(t, baseline[j].FromRevision, transitions[j].FromRevision)
			assert.Equal(t, baseline[j].ToRevision, transitions[j].ToRevision)
			assert.Equal(t, baseline[j].Counts, transitions[j].Counts)
			assert.Equal(t, len(baseline[j].Matches), len(transitions[j].Matches))
		}
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := matcher.DefaultConfig()
	cfg.GramSize = 0
	_, err := New(cfg, 2)
	assert.Error(t, err)
}
