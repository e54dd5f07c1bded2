package lexer

import (
	"bytes"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"phpmetrics/internal/token"
)

// TreeSitter derives a token stream from the leaves of a tree-sitter PHP
// parse tree. Bytes not covered by any leaf become whitespace tokens.
type TreeSitter struct {
	language *sitter.Language
}

func NewTreeSitter() *TreeSitter {
	return &TreeSitter{language: sitter.NewLanguage(php.LanguagePHP())}
}

func (t *TreeSitter) Name() string {
	return "treesitter"
}

// Nodes emitted as one token even though the grammar gives them children.
var atomicNodes = map[string]token.Kind{
	"comment":                  token.KindComment,
	"variable_name":            token.KindVariable,
	"name":                     token.KindIdentifier,
	"string":                   token.KindString,
	"encapsed_string":          token.KindString,
	"heredoc":                  token.KindString,
	"nowdoc":                   token.KindString,
	"shell_command_expression": token.KindString,
	"text":                     token.KindInlineHTML,
	"php_tag":                  token.KindOpenTag,
	"integer":                  token.KindNumber,
	"float":                    token.KindNumber,
}

func (t *TreeSitter) Tokenize(src []byte) []token.Token {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(t.language)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	w := &leafWalker{src: src, line: 1}
	w.walk(tree.RootNode())
	w.gap(uint(len(src)))
	return w.tokens
}

type leafWalker struct {
	src    []byte
	offset uint
	line   uint32
	tokens []token.Token
}

func (w *leafWalker) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	kind := n.Kind()
	if _, ok := atomicNodes[kind]; ok || n.ChildCount() == 0 {
		w.leaf(n, kind)
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		w.walk(n.Child(i))
	}
}

func (w *leafWalker) leaf(n *sitter.Node, kind string) {
	start, end := n.StartByte(), n.EndByte()
	if end <= start || start < w.offset {
		return
	}
	w.gap(start)
	text := w.src[start:end]
	w.add(classifyLeaf(kind, n.IsNamed(), text), text)
	w.offset = end
}

// gap emits the bytes between the last leaf and upto.
func (w *leafWalker) gap(upto uint) {
	if upto > uint(len(w.src)) {
		upto = uint(len(w.src))
	}
	if upto <= w.offset {
		return
	}
	text := w.src[w.offset:upto]
	kind := token.KindWhitespace
	if len(bytes.TrimSpace(text)) > 0 {
		kind = token.KindOther
	}
	w.add(kind, text)
	w.offset = upto
}

func (w *leafWalker) add(kind token.Kind, text []byte) {
	w.tokens = append(w.tokens, token.Token{Kind: kind, Text: string(text), Line: w.line})
	w.line += uint32(bytes.Count(text, []byte{'\n'}))
}

func classifyLeaf(kind string, named bool, text []byte) token.Kind {
	if k, ok := atomicNodes[kind]; ok {
		if k == token.KindComment && bytes.HasPrefix(text, []byte("/**")) && len(text) > 3 && isSpace(text[3]) {
			return token.KindDocComment
		}
		return k
	}
	if kind == "?>" {
		return token.KindCloseTag
	}
	word := kind
	if named {
		word = string(text)
	}
	if word != "" && isIdentStart(word[0]) {
		return token.LookupWord(word)
	}
	return token.LookupSymbol(word)
}
