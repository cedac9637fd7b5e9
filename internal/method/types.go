package method

import (
	"fmt"
	"sort"
)

// MatchType classifies how a method in one snapshot corresponds to a method
// in the next snapshot.
type MatchType string

const (
	// MatchExact: same file path, name, parameters and return type.
	MatchExact MatchType = "exact"
	// MatchIdenticalImpl: identical token sequence (content hash), but a
	// different name, location or signature.
	MatchIdenticalImpl MatchType = "identical_impl"
	// MatchRenamed: same file, different name, high similarity.
	MatchRenamed MatchType = "renamed"
	// MatchMoved: different file, high similarity.
	MatchMoved MatchType = "moved"
	// MatchSignatureChanged: same file and name, different signature.
	MatchSignatureChanged MatchType = "signature_changed"
	// MatchRefactored: similar body, but below the rename/move boundary.
	MatchRefactored MatchType = "refactored"
)

// Record represents one method as observed in one snapshot.
type Record struct {
	FilePath    string
	StartLine   int
	EndLine     int
	Name        string
	ReturnType  string
	Parameters  string
	Revision    string
	ContentHash string
	// Tokens is the method body reduced to lexical token codes. It may be
	// empty when the snapshot format predates token extraction; such records
	// are still eligible for exact and content-hash matching.
	Tokens []int
}

// Signature combines name, parameters and return type.
func (r *Record) Signature() string {
	return fmt.Sprintf("%s:%s:%s", r.Name, r.Parameters, r.ReturnType)
}

// IdentityKey uniquely identifies a method within one snapshot.
func (r *Record) IdentityKey() string {
	return fmt.Sprintf("%s::%s", r.FilePath, r.Signature())
}

// LineRange formats the start-end line span for reports.
func (r *Record) LineRange() string {
	return fmt.Sprintf("%d-%d", r.StartLine, r.EndLine)
}

// Snapshot is the complete set of method records extracted at one point in
// the revision history, keyed by identity key. It is built once by ingestion
// and treated as read-only afterwards.
type Snapshot struct {
	Revision string
	records  map[string]*Record
}

// NewSnapshot creates an empty snapshot for the given revision tag.
func NewSnapshot(revision string) *Snapshot {
	return &Snapshot{
		Revision: revision,
		records:  make(map[string]*Record),
	}
}

// Add inserts a record, keyed by its identity key. A duplicate key overwrites
// the previous record (last write wins) and is reported so the caller can
// flag it as a data-quality issue.
func (s *Snapshot) Add(r *Record) (replaced bool) {
	key := r.IdentityKey()
	_, replaced = s.records[key]
	s.records[key] = r
	return replaced
}

// Get returns the record for the given identity key.
func (s *Snapshot) Get(key string) (*Record, bool) {
	r, ok := s.records[key]
	return r, ok
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Keys returns all identity keys in ascending order. Matching iterates in
// this order so runs are reproducible regardless of map iteration order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match pairs a record from the earlier snapshot with its counterpart in the
// later one. Similarity is 1.0 for exact and content-hash matches.
type Match struct {
	Before     *Record
	After      *Record
	Type       MatchType
	Similarity float64
}

// Transition is the classified difference between two adjacent snapshots.
// Every record of the earlier snapshot appears in exactly one of
// {Matches (as Before), Deleted}; every record of the later snapshot in
// exactly one of {Matches (as After), Added}.
type Transition struct {
	FromRevision string
	ToRevision   string
	Matches      []Match
	Added        []*Record
	Deleted      []*Record
	Counts       map[MatchType]int
	TotalBefore  int
	TotalAfter   int
}
