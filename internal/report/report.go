// Package report turns transitions into the CSV artifacts downstream
// analyses consume, and derives evolution-pattern statistics from them.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"methodevo/internal/method"
)

// Change types for rows that are not matches.
const (
	ChangeAdded   = "added"
	ChangeDeleted = "deleted"
)

// DetailRow is one line of the tracking details output: a single match,
// addition or deletion within one transition.
type DetailRow struct {
	FromRev     string
	ToRev       string
	ChangeType  string
	Similarity  float64
	FileBefore  string
	FileAfter   string
	NameBefore  string
	NameAfter   string
	SigBefore   string
	SigAfter    string
	LinesBefore string
	LinesAfter  string
}

// BeforeKey reconstructs the identity key of the before-side record, empty
// for additions.
func (r DetailRow) BeforeKey() string {
	if r.FileBefore == "" {
		return ""
	}
	return r.FileBefore + "::" + r.SigBefore
}

// AfterKey reconstructs the identity key of the after-side record, empty for
// deletions.
func (r DetailRow) AfterKey() string {
	if r.FileAfter == "" {
		return ""
	}
	return r.FileAfter + "::" + r.SigAfter
}

// Rows flattens transitions into detail rows: matches first, then additions,
// then deletions, each side in identity-key order.
func Rows(transitions []*method.Transition) []DetailRow {
	var rows []DetailRow
	for _, t := range transitions {
		for _, m := range t.Matches {
			rows = append(rows, DetailRow{
				FromRev:     t.FromRevision,
				ToRev:       t.ToRevision,
				ChangeType:  string(m.Type),
				Similarity:  m.Similarity,
				FileBefore:  m.Before.FilePath,
				FileAfter:   m.After.FilePath,
				NameBefore:  m.Before.Name,
				NameAfter:   m.After.Name,
				SigBefore:   m.Before.Signature(),
				SigAfter:    m.After.Signature(),
				LinesBefore: m.Before.LineRange(),
				LinesAfter:  m.After.LineRange(),
			})
		}
		for _, r := range t.Added {
			rows = append(rows, DetailRow{
				FromRev:    t.FromRevision,
				ToRev:      t.ToRevision,
				ChangeType: ChangeAdded,
				FileAfter:  r.FilePath,
				NameAfter:  r.Name,
				SigAfter:   r.Signature(),
				LinesAfter: r.LineRange(),
			})
		}
		for _, r := range t.Deleted {
			rows = append(rows, DetailRow{
				FromRev:     t.FromRevision,
				ToRev:       t.ToRevision,
				ChangeType:  ChangeDeleted,
				FileBefore:  r.FilePath,
				NameBefore:  r.Name,
				SigBefore:   r.Signature(),
				LinesBefore: r.LineRange(),
			})
		}
	}
	return rows
}

var detailsHeader = []string{
	"snapshot_t", "snapshot_t1", "change_type", "similarity",
	"file_t", "file_t1", "method_t", "method_t1",
	"signature_t", "signature_t1", "line_range_t", "line_range_t1",
}

// WriteDetails writes the detail rows as CSV.
func WriteDetails(path string, rows []DetailRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(detailsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		similarity := ""
		if r.ChangeType != ChangeAdded && r.ChangeType != ChangeDeleted {
			similarity = strconv.FormatFloat(r.Similarity, 'f', 4, 64)
		}
		record := []string{
			r.FromRev, r.ToRev, r.ChangeType, similarity,
			r.FileBefore, r.FileAfter, r.NameBefore, r.NameAfter,
			r.SigBefore, r.SigAfter, r.LinesBefore, r.LinesAfter,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ReadDetails loads a details CSV written by WriteDetails.
func ReadDetails(path string) ([]DetailRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var rows []DetailRow
	for i, rec := range records[1:] {
		if len(rec) != len(detailsHeader) {
			return nil, fmt.Errorf("%s:%d: expected %d columns, got %d", path, i+2, len(detailsHeader), len(rec))
		}
		row := DetailRow{
			FromRev:     rec[0],
			ToRev:       rec[1],
			ChangeType:  rec[2],
			FileBefore:  rec[4],
			FileAfter:   rec[5],
			NameBefore:  rec[6],
			NameAfter:   rec[7],
			SigBefore:   rec[8],
			SigAfter:    rec[9],
			LinesBefore: rec[10],
			LinesAfter:  rec[11],
		}
		if rec[3] != "" {
			row.Similarity, err = strconv.ParseFloat(rec[3], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: bad similarity %q", path, i+2, rec[3])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var summaryHeader = []string{
	"snapshot_t", "snapshot_t1",
	"exact", "identical_impl", "renamed", "moved", "signature_changed", "refactored",
	"added", "deleted", "total_t", "total_t1",
}

// WriteSummary writes one CSV row per transition with per-type match counts.
func WriteSummary(path string, transitions []*method.Transition) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}
	for _, t := range transitions {
		record := []string{
			t.FromRevision, t.ToRevision,
			strconv.Itoa(t.Counts[method.MatchExact]),
			strconv.Itoa(t.Counts[method.MatchIdenticalImpl]),
			strconv.Itoa(t.Counts[method.MatchRenamed]),
			strconv.Itoa(t.Counts[method.MatchMoved]),
			strconv.Itoa(t.Counts[method.MatchSignatureChanged]),
			strconv.Itoa(t.Counts[method.MatchRefactored]),
			strconv.Itoa(len(t.Added)),
			strconv.Itoa(len(t.Deleted)),
			strconv.Itoa(t.TotalBefore),
			strconv.Itoa(t.TotalAfter),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
