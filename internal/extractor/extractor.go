// Package extractor parses source trees with tree-sitter and produces the
// method records one snapshot is made of, including each method's lexical
// token sequence and content hash.
package extractor

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"methodevo/internal/method"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	ignored       []string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "go":
		langExt = &GoExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{
		langExtractor: langExt,
		ignored:       []string{".git", "vendor", "node_modules", "testdata"},
	}, nil
}

// ExtractFromFile parses a single source file and extracts all methods.
// filePath is the path recorded on the resulting records; sourcePath is
// where the file is actually read from.
func (e *Extractor) ExtractFromFile(sourcePath, filePath string) ([]*method.Record, error) {
	sourceCode, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", sourcePath, err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", sourcePath, err)
	}

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())

	var records []*method.Record
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			if record := e.langExtractor.ExtractRecord(c.Node, sourceCode, filePath); record != nil {
				records = append(records, record)
			}
		}
	}
	return records, nil
}

// SnapshotFromDir walks the source tree rooted at root and builds one
// snapshot tagged with the given revision. File paths are recorded relative
// to root so snapshots taken from different checkouts compare cleanly.
func (e *Extractor) SnapshotFromDir(root, revision string) (*method.Snapshot, error) {
	snap := method.NewSnapshot(revision)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			for _, ign := range e.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), ".go") || strings.HasSuffix(d.Name(), "_test.go") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		records, err := e.ExtractFromFile(path, filepath.ToSlash(rel))
		if err != nil {
			// Log and continue instead of failing the whole scan.
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		for _, r := range records {
			r.Revision = revision
			if snap.Add(r) {
				log.Printf("%s: duplicate identity key %s, keeping last occurrence", rel, r.IdentityKey())
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return snap, nil
}
