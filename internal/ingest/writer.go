package ingest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"methodevo/internal/method"
)

// WriteSnapshot writes snap to dir as code_blocks_<revision>, in the row
// format LoadFile reads back. Rows are emitted in identity-key order so the
// output is reproducible. Returns the written path.
func WriteSnapshot(dir string, snap *method.Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filePrefix+snap.Revision)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, key := range snap.Keys() {
		r, _ := snap.Get(key)
		if _, err := w.WriteString(formatRow(r) + "\n"); err != nil {
			return "", err
		}
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return path, nil
}

func formatRow(r *method.Record) string {
	cols := []string{
		r.FilePath,
		strconv.Itoa(r.StartLine),
		strconv.Itoa(r.EndLine),
		r.Name,
		r.ReturnType,
		"[" + r.Parameters + "]",
		r.Revision,
		r.ContentHash,
	}
	if len(r.Tokens) > 0 {
		toks := make([]string, len(r.Tokens))
		for i, t := range r.Tokens {
			toks[i] = strconv.Itoa(t)
		}
		cols = append(cols, "["+strings.Join(toks, " ")+"]")
	}
	return strings.Join(cols, ",")
}
