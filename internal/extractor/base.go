package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"methodevo/internal/method"
)

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractRecord(node *sitter.Node, sourceCode []byte, filepath string) *method.Record
}
