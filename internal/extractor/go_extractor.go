package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"methodevo/internal/method"
)

// GoExtractor implements LanguageExtractor for Go.
type GoExtractor struct{}

func (g *GoExtractor) GetLanguage() *sitter.Language {
	return golang.GetLanguage()
}

func (g *GoExtractor) GetQuery() string {
	return `
		(function_declaration) @func
		(method_declaration) @func
	`
}

// ExtractRecord converts a function or method declaration into a method
// record. Methods are named "Receiver.Name" so two methods with the same
// name on different receivers keep distinct identity keys.
func (g *GoExtractor) ExtractRecord(node *sitter.Node, sourceCode []byte, filePath string) *method.Record {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Content(sourceCode)

	if node.Type() == "method_declaration" {
		if receiverNode := node.ChildByFieldName("receiver"); receiverNode != nil {
			if recv := receiverTypeName(receiverNode, sourceCode); recv != "" {
				name = recv + "." + name
			}
		}
	}

	record := &method.Record{
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row + 1),
		EndLine:   int(node.EndPoint().Row + 1),
		Name:      name,
	}

	if paramsNode := node.ChildByFieldName("parameters"); paramsNode != nil {
		record.Parameters = strings.Join(paramTypes(paramsNode, sourceCode), " ")
	}
	if resultNode := node.ChildByFieldName("result"); resultNode != nil {
		record.ReturnType = returnTypes(resultNode, sourceCode)
	}

	if bodyNode := node.ChildByFieldName("body"); bodyNode != nil {
		record.Tokens = bodyTokens(bodyNode, sourceCode)
		record.ContentHash = contentHash(record.Tokens)
	}

	return record
}

// receiverTypeName reduces "(u *User)" to "User".
func receiverTypeName(receiverNode *sitter.Node, sourceCode []byte) string {
	recv := receiverNode.Content(sourceCode)
	recv = strings.TrimPrefix(recv, "(")
	recv = strings.TrimSuffix(recv, ")")
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return ""
	}
	typeName := fields[len(fields)-1]
	typeName = strings.TrimPrefix(typeName, "*")
	// Drop type parameters on generic receivers.
	if idx := strings.Index(typeName, "["); idx >= 0 {
		typeName = typeName[:idx]
	}
	return typeName
}

// paramTypes returns one type per declared parameter name, in order.
func paramTypes(paramsNode *sitter.Node, sourceCode []byte) []string {
	var types []string
	query, _ := sitter.NewQuery([]byte(`
		(parameter_declaration) @param
		(variadic_parameter_declaration) @param
	`), golang.GetLanguage())
	qc := sitter.NewQueryCursor()
	qc.Exec(query, paramsNode)
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			pNode := c.Node
			pType := ""
			if tn := pNode.ChildByFieldName("type"); tn != nil {
				pType = tn.Content(sourceCode)
			}
			if pNode.Type() == "variadic_parameter_declaration" {
				pType = "..." + pType
			}

			names := 0
			cursor := sitter.NewTreeCursor(pNode)
			if cursor.GoToFirstChild() {
				for {
					if cursor.CurrentNode().Type() == "identifier" {
						names++
					}
					if !cursor.GoToNextSibling() {
						break
					}
				}
			}
			cursor.Close()

			if names == 0 {
				names = 1
			}
			for i := 0; i < names; i++ {
				types = append(types, pType)
			}
		}
	}
	return types
}

func returnTypes(resultNode *sitter.Node, sourceCode []byte) string {
	if resultNode.Type() != "parameter_list" {
		return resultNode.Content(sourceCode)
	}
	types := paramTypes(resultNode, sourceCode)
	return strings.Join(types, " ")
}
