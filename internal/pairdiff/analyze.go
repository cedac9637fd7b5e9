package pairdiff

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Analyze walks all snapshot files under inputDir in timestamp order and
// writes a per-transition summary of added/deleted/persisted pair counts.
// With emitLists, detailed pair lists are written per transition as well,
// each pair tagged with its registry ID.
func Analyze(inputDir, outputDir string, emitLists bool) error {
	files, err := CollectSnapshots(inputDir)
	if err != nil {
		return err
	}
	if len(files) < 2 {
		log.Printf("need at least 2 snapshot files to compute differences (found %d)", len(files))
		return nil
	}
	log.Printf("found %d snapshot files", len(files))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	summaryPath := filepath.Join(outputDir, "pair_diff_summary.csv")
	summaryFile, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", summaryPath, err)
	}
	defer summaryFile.Close()

	w := csv.NewWriter(summaryFile)
	if err := w.Write([]string{"t_file", "t1_file", "added_count", "deleted_count", "persisted_count"}); err != nil {
		return err
	}

	registry := NewIDRegistry()

	var prevSet map[string]Pair
	var prevFile string
	for _, currFile := range files {
		currSet, err := ParseSnapshot(currFile)
		if err != nil {
			return err
		}

		if prevSet != nil {
			added, deleted, persisted := Diff(prevSet, currSet)

			prevName := filepath.Base(prevFile)
			currName := filepath.Base(currFile)
			record := []string{
				prevName, currName,
				strconv.Itoa(len(added)),
				strconv.Itoa(len(deleted)),
				strconv.Itoa(len(persisted)),
			}
			if err := w.Write(record); err != nil {
				return err
			}

			log.Printf("%s -> %s: added=%d, deleted=%d, persisted=%d",
				prevName, currName, len(added), len(deleted), len(persisted))

			if emitLists {
				transitionDir := filepath.Join(outputDir,
					fmt.Sprintf("%s_to_%s", stem(prevName), stem(currName)))
				lists := []struct {
					name string
					set  []Pair
				}{
					{"added.csv", added},
					{"deleted.csv", deleted},
					{"persisted.csv", persisted},
				}
				for _, l := range lists {
					if err := writePairList(filepath.Join(transitionDir, l.name), l.set, registry); err != nil {
						return err
					}
				}
			}
		}

		prevSet = currSet
		prevFile = currFile
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	log.Printf("summary written to %s", summaryPath)
	return nil
}

// writePairList writes a sorted pair set with one stable registry ID per
// unique pair.
func writePairList(path string, pairs []Pair, registry *IDRegistry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"pair_id",
		"a_path", "a_method", "a_args", "a_ret",
		"b_path", "b_method", "b_args", "b_ret",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range pairs {
		id, _ := registry.Assign(p)
		record := []string{
			strconv.Itoa(id),
			p.A.Path, p.A.Method, p.A.Args, p.A.Ret,
			p.B.Path, p.B.Method, p.B.Args, p.B.Ret,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
