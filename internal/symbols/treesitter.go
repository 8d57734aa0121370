//go:build cgo

package symbols

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// declarationNodeTypes are the tree-sitter-php node types that define a
// class-like symbol.
var declarationNodeTypes = map[string]bool{
	"class_declaration":     true,
	"interface_declaration": true,
	"trait_declaration":     true,
	"enum_declaration":      true,
}

// IsAvailable returns whether tree-sitter parsing is available.
func IsAvailable() bool {
	return true
}

// parseDeclarations parses source with tree-sitter-php and collects
// class-like declarations, tracking both namespace forms:
// `namespace a\b;` applies to the following siblings, while
// `namespace a\b { ... }` applies to its body only.
func parseDeclarations(ctx context.Context, path string, source []byte) ([]Declaration, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("parse error: empty tree for %s", path)
	}

	var decls []Declaration
	var walk func(node *sitter.Node, namespace string)
	walk = func(node *sitter.Node, namespace string) {
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue
			}

			switch {
			case child.Type() == "namespace_definition":
				name := ""
				if n := child.ChildByFieldName("name"); n != nil {
					name = Normalize(n.Content(source))
				}
				if body := child.ChildByFieldName("body"); body != nil {
					walk(body, name)
				} else {
					namespace = name
				}

			case declarationNodeTypes[child.Type()]:
				n := child.ChildByFieldName("name")
				if n == nil {
					continue
				}
				decls = append(decls, Declaration{
					Name:   Qualify(namespace, n.Content(source)),
					Kind:   strings.TrimSuffix(child.Type(), "_declaration"),
					Path:   path,
					Line:   int(child.StartPoint().Row) + 1,
					Source: "treesitter",
				})

			default:
				walk(child, namespace)
			}
		}
	}
	walk(root, "")

	return decls, nil
}
