// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package extract

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// langGrammar pins a tree-sitter grammar plus the node-type vocabulary this
// extractor needs to recognize functions, types, and call sites in it.
// Parsers aren't safe for concurrent use, so each grammar gets its own pool
// (a per-language sync.Pool avoids re-allocating a parser per file).
type langGrammar struct {
	language      func() *sitter.Language
	funcNodeTypes map[string]string // node type -> entity_type ("function"/"method")
	typeNodeTypes map[string]string // node type -> entity_type ("class"/"struct"/"interface"/"trait"/"enum")
	callNodeType  string
	receiverField string // field name carrying a method's receiver/owner, "" if none
}

var grammars = map[string]*langGrammar{
	"go": {
		language: golang.GetLanguage,
		funcNodeTypes: map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
		},
		typeNodeTypes: map[string]string{
			"type_declaration": "struct", // refined by determineGoTypeKind in extractType
		},
		callNodeType:  "call_expression",
		receiverField: "receiver",
	},
	"python": {
		language: python.GetLanguage,
		funcNodeTypes: map[string]string{
			"function_definition": "function",
		},
		typeNodeTypes: map[string]string{
			"class_definition": "class",
		},
		callNodeType: "call",
	},
	"javascript": {
		language: javascript.GetLanguage,
		funcNodeTypes: map[string]string{
			"function_declaration":    "function",
			"method_definition":       "method",
			"generator_function_declaration": "function",
		},
		typeNodeTypes: map[string]string{
			"class_declaration": "class",
		},
		callNodeType: "call_expression",
	},
	"typescript": {
		language: typescript.GetLanguage,
		funcNodeTypes: map[string]string{
			"function_declaration": "function",
			"method_definition":    "method",
		},
		typeNodeTypes: map[string]string{
			"class_declaration":     "class",
			"interface_declaration": "trait",
		},
		callNodeType: "call_expression",
	},
}

// TreeSitterExtractor extracts candidates via AST walks over a bundled
// tree-sitter grammar. Supported languages: Go, Python, JavaScript,
// TypeScript.
type TreeSitterExtractor struct {
	mu    sync.Mutex
	pools map[string]*sync.Pool
	once  sync.Once
}

// NewTreeSitterExtractor builds an extractor with lazily-initialized
// per-language parser pools.
func NewTreeSitterExtractor() *TreeSitterExtractor {
	return &TreeSitterExtractor{pools: make(map[string]*sync.Pool, len(grammars))}
}

func (t *TreeSitterExtractor) initPools() {
	t.once.Do(func() {
		for lang, g := range grammars {
			g := g
			t.pools[lang] = &sync.Pool{New: func() any {
				p := sitter.NewParser()
				p.SetLanguage(g.language())
				return p
			}}
		}
	})
}

// Supports implements Extractor.
func (t *TreeSitterExtractor) Supports(language string) bool {
	_, ok := grammars[language]
	return ok
}

// Extract implements Extractor.
func (t *TreeSitterExtractor) Extract(language, filePath string, content []byte) (*Result, error) {
	t.initPools()
	g, ok := grammars[language]
	if !ok {
		return nil, fmt.Errorf("extract: unsupported language %q", language)
	}
	pool := t.pools[language]
	parserObj := pool.Get()
	parser := parserObj.(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("extract: parse %s: %w", filePath, err)
	}
	root := tree.RootNode()

	w := &walker{lang: language, grammar: g, content: content}
	w.walk(root, "")

	return &Result{
		Language:   language,
		Candidates: w.candidates,
		Calls:      w.calls,
		Errors:     w.errors,
	}, nil
}

type walker struct {
	lang       string
	grammar    *langGrammar
	content    []byte
	candidates []Candidate
	calls      []CallEdge
	errors     []string
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

// walk descends the tree depth-first. enclosingFunc names the nearest
// enclosing function/method, used to attribute call sites.
func (w *walker) walk(node *sitter.Node, enclosingFunc string) {
	if node == nil {
		return
	}
	if node.Type() == "ERROR" {
		w.errors = append(w.errors, fmt.Sprintf("parse error near byte %d", node.StartByte()))
	}

	nextEnclosing := enclosingFunc
	if kind, ok := w.grammar.funcNodeTypes[node.Type()]; ok {
		if c := w.extractFunc(node, kind); c != nil {
			w.candidates = append(w.candidates, *c)
			nextEnclosing = c.Name
		}
	} else if kind, ok := w.grammar.typeNodeTypes[node.Type()]; ok {
		if c := w.extractType(node, kind); c != nil {
			w.candidates = append(w.candidates, *c)
		}
	} else if node.Type() == w.grammar.callNodeType && enclosingFunc != "" {
		if callee := w.extractCallee(node); callee != "" {
			w.calls = append(w.calls, CallEdge{
				CallerName: enclosingFunc,
				CalleeName: callee,
				Line:       int(node.StartPoint().Row) + 1,
			})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), nextEnclosing)
	}
}

func (w *walker) extractFunc(node *sitter.Node, kind string) *Candidate {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := w.text(nameNode)
	receiver := ""
	if w.grammar.receiverField != "" {
		if rn := node.ChildByFieldName(w.grammar.receiverField); rn != nil {
			receiver = receiverTypeName(w.text(rn))
			name = receiver + "." + name
		}
	}
	signature := ""
	if params := node.ChildByFieldName("parameters"); params != nil {
		signature = "func " + name + w.text(params)
	}
	return &Candidate{
		Name:       name,
		EntityType: kind,
		LineStart:  int(node.StartPoint().Row) + 1,
		LineEnd:    int(node.EndPoint().Row) + 1,
		Code:       w.text(node),
		Signature:  signature,
		Receiver:   receiver,
	}
}

func (w *walker) extractType(node *sitter.Node, kind string) *Candidate {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		// Go's type_declaration wraps a type_spec child carrying the name.
		for i := 0; i < int(node.ChildCount()); i++ {
			if spec := node.Child(i); spec.Type() == "type_spec" {
				nameNode = spec.ChildByFieldName("name")
				if nameNode != nil {
					kind = determineGoTypeKind(spec.ChildByFieldName("type"))
				}
				break
			}
		}
	}
	if nameNode == nil {
		return nil
	}
	return &Candidate{
		Name:       w.text(nameNode),
		EntityType: kind,
		LineStart:  int(node.StartPoint().Row) + 1,
		LineEnd:    int(node.EndPoint().Row) + 1,
		Code:       w.text(node),
	}
}

func (w *walker) extractCallee(node *sitter.Node) string {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	switch fn.Type() {
	case "selector_expression", "member_expression", "attribute":
		if field := fn.ChildByFieldName("field"); field != nil {
			return w.text(field)
		}
		if field := fn.ChildByFieldName("property"); field != nil {
			return w.text(field)
		}
		if field := fn.ChildByFieldName("attribute"); field != nil {
			return w.text(field)
		}
	}
	return w.text(fn)
}

// receiverTypeName extracts the base type name from a Go receiver clause
// like "(r *Handler)" or "(r Handler)".
func receiverTypeName(receiver string) string {
	s := receiver
	depth := 0
	start := -1
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 1 && c == ' ' && start == -1 {
			start = i + 1
		}
	}
	if start == -1 || start >= len(s) {
		return ""
	}
	rest := s[start:]
	end := len(rest)
	for i, c := range rest {
		if c == ')' || c == ' ' {
			end = i
			break
		}
	}
	name := rest[:end]
	for len(name) > 0 && name[0] == '*' {
		name = name[1:]
	}
	return name
}

// determineGoTypeKind distinguishes struct/interface/alias from a Go
// type_spec's "type" field node.
func determineGoTypeKind(typeNode *sitter.Node) string {
	if typeNode == nil {
		return "struct"
	}
	switch typeNode.Type() {
	case "interface_type":
		return "trait"
	case "struct_type":
		return "struct"
	default:
		return "constant"
	}
}
