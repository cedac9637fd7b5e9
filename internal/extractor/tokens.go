package extractor

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
)

// bodyTokens reduces a method body to its lexical token codes in source
// order. Comments are skipped; everything else, including punctuation,
// counts as a token.
func bodyTokens(body *sitter.Node, sourceCode []byte) []int {
	var tokens []int
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.ChildCount() == 0 {
			if n.Type() != "comment" {
				tokens = append(tokens, tokenCode(n.Content(sourceCode)))
			}
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(body)
	return tokens
}

// tokenCode maps token text to a stable non-negative code. The mapping is
// position-independent and identical across runs and snapshots, which token
// sequence comparison depends on.
func tokenCode(text string) int {
	return int(xxhash.Sum64String(text) & 0x7fffffff)
}

// contentHash fingerprints a token sequence. Two methods with the same hash
// have byte-for-byte identical token streams regardless of name or location.
func contentHash(tokens []int) string {
	if len(tokens) == 0 {
		return ""
	}
	h := xxhash.New()
	buf := make([]byte, 8)
	for _, t := range tokens {
		binary.LittleEndian.PutUint64(buf, uint64(t))
		h.Write(buf)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
