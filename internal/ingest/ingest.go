// Package ingest owns the on-disk snapshot format: one code_blocks_<tag>
// file per revision, one delimited row per method. Parsing produces the
// in-memory snapshots the matching core consumes.
package ingest

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"methodevo/internal/method"
)

const filePrefix = "code_blocks_"

var bracketPattern = regexp.MustCompile(`\[[^\]]*\]`)

// LoadDir reads every code_blocks_* file under dir (or its code_blocks
// subdirectory when present) and returns the snapshots ordered by file name,
// which carries the revision tag.
func LoadDir(dir string) ([]*method.Snapshot, error) {
	searchDir := dir
	if sub := filepath.Join(dir, "code_blocks"); isDir(sub) {
		searchDir = sub
	}

	entries, err := os.ReadDir(searchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	snapshots := make([]*method.Snapshot, 0, len(names))
	for _, name := range names {
		snap, err := LoadFile(filepath.Join(searchDir, name))
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// LoadFile parses a single snapshot file. Row format:
//
//	file,start,end,method,return_type,[params],revision,content_hash
//
// optionally followed by a bracketed integer-list column holding the token
// sequence. Malformed rows are logged and skipped; duplicate identity keys
// overwrite (last write wins) and are flagged as a data-quality warning.
func LoadFile(path string) (*method.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	snap := method.NewSnapshot(strings.TrimPrefix(name, filePrefix))

	errorCount := 0
	duplicates := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		record, err := parseRow(line)
		if err != nil {
			errorCount++
			log.Printf("%s:%d: %v", name, lineNum, err)
			continue
		}
		if snap.Add(record) {
			duplicates++
			log.Printf("%s:%d: duplicate identity key %s, keeping last occurrence", name, lineNum, record.IdentityKey())
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if errorCount > 0 || duplicates > 0 {
		log.Printf("%s: parsed with %d errors and %d duplicate keys, %d methods extracted", name, errorCount, duplicates, snap.Len())
	} else {
		log.Printf("%s: %d methods extracted", name, snap.Len())
	}
	return snap, nil
}

func parseRow(line string) (*method.Record, error) {
	// Bracketed columns (parameter list, token sequence) may contain commas;
	// mask them before splitting.
	groups := bracketPattern.FindAllString(line, -1)
	masked := bracketPattern.ReplaceAllString(line, "[]")

	parts := strings.Split(masked, ",")
	if len(parts) < 8 || len(parts) > 9 {
		return nil, fmt.Errorf("unexpected format (%d columns)", len(parts))
	}

	start, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("bad start line %q", parts[1])
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, fmt.Errorf("bad end line %q", parts[2])
	}
	if start <= 0 || end <= 0 || start > end {
		return nil, fmt.Errorf("invalid line range %d-%d", start, end)
	}

	record := &method.Record{
		FilePath:   strings.TrimSpace(parts[0]),
		StartLine:  start,
		EndLine:    end,
		Name:       strings.TrimSpace(parts[3]),
		ReturnType: strings.TrimSpace(parts[4]),
	}

	if len(groups) > 0 {
		record.Parameters = trimBrackets(groups[0])
	}

	// The two hash columns follow the parameter list.
	record.Revision = strings.TrimSpace(parts[6])
	record.ContentHash = strings.TrimSpace(parts[7])

	// Token sequence column is optional; old extractions predate it.
	if len(parts) == 9 {
		if len(groups) < 2 {
			return nil, fmt.Errorf("token column present but not bracketed")
		}
		tokens, err := parseTokens(trimBrackets(groups[len(groups)-1]))
		if err != nil {
			return nil, err
		}
		record.Tokens = tokens
	}

	return record, nil
}

func parseTokens(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	tokens := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("bad token %q", f)
		}
		tokens = append(tokens, v)
	}
	return tokens, nil
}

func trimBrackets(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
