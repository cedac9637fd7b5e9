// Package pairdiff compares similar-method pair sets across snapshot CSV
// files, reporting which pairs were added, deleted or persisted between
// adjacent snapshots, and assigns stable IDs to unique pairs.
package pairdiff

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MethodID identifies one side of a pair: path, method, args and return
// type. Line numbers are deliberately ignored so a pair survives moves
// within its file.
type MethodID struct {
	Path   string
	Method string
	Args   string
	Ret    string
}

func (m MethodID) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", m.Path, m.Method, m.Args, m.Ret)
}

// Pair is an undirected method pair, normalized so A <= B.
type Pair struct {
	A MethodID
	B MethodID
}

// NewPair normalizes the operand order so {x,y} and {y,x} are the same pair.
func NewPair(a, b MethodID) Pair {
	if b.String() < a.String() {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Key is the canonical string form used for set membership.
func (p Pair) Key() string {
	return p.A.String() + "|" + p.B.String()
}

// IDRegistry assigns a stable numeric ID to each unique pair; a pair seen
// again reuses its ID.
type IDRegistry struct {
	ids  map[uint64]int
	next int
}

func NewIDRegistry() *IDRegistry {
	return &IDRegistry{ids: make(map[uint64]int), next: 1}
}

// Assign returns the pair's ID and whether this is its first occurrence.
func (r *IDRegistry) Assign(p Pair) (id int, first bool) {
	h := xxhash.Sum64String(p.Key())
	if id, ok := r.ids[h]; ok {
		return id, false
	}
	id = r.next
	r.next++
	r.ids[h] = id
	return id, true
}

var timestampPattern = regexp.MustCompile(`results_(\d{8})_(\d{6})_`)

// CollectSnapshots lists results_*.csv files under dir, ordered by the
// timestamp embedded in the file name. Files without a valid timestamp sort
// to the end by name.
func CollectSnapshots(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "results_*.csv"))
	if err != nil {
		return nil, err
	}

	type entry struct {
		sortKey string
		path    string
	}
	var withTS, withoutTS []entry
	for _, path := range matches {
		if m := timestampPattern.FindStringSubmatch(filepath.Base(path)); m != nil {
			withTS = append(withTS, entry{sortKey: m[1] + m[2], path: path})
		} else {
			withoutTS = append(withoutTS, entry{sortKey: filepath.Base(path), path: path})
		}
	}
	sort.Slice(withTS, func(i, j int) bool { return withTS[i].sortKey < withTS[j].sortKey })
	sort.Slice(withoutTS, func(i, j int) bool { return withoutTS[i].sortKey < withoutTS[j].sortKey })

	var paths []string
	for _, e := range append(withTS, withoutTS...) {
		paths = append(paths, e.path)
	}
	return paths, nil
}

// ParseSnapshot reads one snapshot CSV (12 headerless columns: two blocks of
// path,start,end,method,ret,args) into a pair set keyed by canonical form.
// Malformed rows are logged and skipped.
func ParseSnapshot(path string) (map[string]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	pairs := make(map[string]Pair)
	errorCount := 0
	lineNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		lineNum++

		if len(row) == 0 || allBlank(row) {
			continue
		}
		if len(row) != 12 {
			errorCount++
			log.Printf("%s:%d: expected 12 columns, got %d", name, lineNum, len(row))
			continue
		}

		a := MethodID{
			Path:   strings.TrimSpace(row[0]),
			Method: strings.TrimSpace(row[3]),
			Ret:    strings.TrimSpace(row[4]),
			Args:   strings.TrimSpace(row[5]),
		}
		b := MethodID{
			Path:   strings.TrimSpace(row[6]),
			Method: strings.TrimSpace(row[9]),
			Ret:    strings.TrimSpace(row[10]),
			Args:   strings.TrimSpace(row[11]),
		}
		p := NewPair(a, b)
		pairs[p.Key()] = p
	}

	if errorCount > 0 {
		log.Printf("%s: parsed with %d errors, %d unique pairs extracted", name, errorCount, len(pairs))
	} else {
		log.Printf("%s: %d unique pairs extracted", name, len(pairs))
	}
	return pairs, nil
}

// Diff splits the pairs of two adjacent snapshots into added, deleted and
// persisted sets, each sorted by canonical key.
func Diff(prev, curr map[string]Pair) (added, deleted, persisted []Pair) {
	for key, p := range curr {
		if _, ok := prev[key]; ok {
			persisted = append(persisted, p)
		} else {
			added = append(added, p)
		}
	}
	for key, p := range prev {
		if _, ok := curr[key]; !ok {
			deleted = append(deleted, p)
		}
	}
	for _, set := range [][]Pair{added, deleted, persisted} {
		sort.Slice(set, func(i, j int) bool { return set[i].Key() < set[j].Key() })
	}
	return added, deleted, persisted
}

func allBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
