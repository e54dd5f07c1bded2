package lexer

import (
	"bytes"

	"phpmetrics/internal/token"
)

// Native is a hand-written PHP scanner. It never fails: anything it does
// not recognise becomes a KindOther token, so the output always covers
// every input byte in order.
type Native struct{}

func NewNative() *Native {
	return &Native{}
}

func (n *Native) Name() string {
	return "native"
}

func (n *Native) Tokenize(src []byte) []token.Token {
	s := &scanner{src: src, line: 1, tokens: make([]token.Token, 0, len(src)/4)}
	s.run()
	return s.tokens
}

type scanner struct {
	src    []byte
	pos    int
	line   uint32
	inPHP  bool
	tokens []token.Token

	// the last two non-trivia kinds, used for context-sensitive words
	last, beforeLast token.Kind
}

func (s *scanner) run() {
	for s.pos < len(s.src) {
		if !s.inPHP {
			s.scanInlineHTML()
			continue
		}
		s.scanCode()
	}
}

// emit records src[start:end] as a token and advances the line counter.
func (s *scanner) emit(kind token.Kind, start, end int) token.Kind {
	if end > len(s.src) {
		end = len(s.src)
	}
	if end <= start {
		return token.KindInvalid
	}
	text := s.src[start:end]
	s.tokens = append(s.tokens, token.Token{Kind: kind, Text: string(text), Line: s.line})
	s.line += uint32(bytes.Count(text, []byte{'\n'}))
	s.pos = end
	if !kind.IsTrivia() {
		s.beforeLast, s.last = s.last, kind
	}
	return kind
}

func (s *scanner) peek(offset int) byte {
	if s.pos+offset < len(s.src) && s.pos+offset >= 0 {
		return s.src[s.pos+offset]
	}
	return 0
}

func (s *scanner) hasPrefixFold(prefix string) bool {
	if s.pos+len(prefix) > len(s.src) {
		return false
	}
	return bytes.EqualFold(s.src[s.pos:s.pos+len(prefix)], []byte(prefix))
}

func (s *scanner) scanInlineHTML() {
	start := s.pos
	for s.pos < len(s.src) {
		if s.src[s.pos] == '<' && s.peek(1) == '?' {
			if s.hasPrefixFold("<?php") && (s.pos+5 >= len(s.src) || isSpace(s.src[s.pos+5])) {
				break
			}
			if s.peek(2) == '=' {
				break
			}
		}
		s.pos++
	}
	end := s.pos
	s.pos = start
	s.emit(token.KindInlineHTML, start, end)
	if end >= len(s.src) {
		s.pos = len(s.src)
		return
	}

	tagEnd := end + 3
	if s.hasPrefixFold("<?php") {
		tagEnd = end + 5
		tagEnd = s.skipOneNewline(tagEnd, true)
	}
	s.emit(token.KindOpenTag, end, tagEnd)
	s.inPHP = true
}

// skipOneNewline returns the position after a single newline (or, when
// anySpace is set, any single whitespace byte) at i.
func (s *scanner) skipOneNewline(i int, anySpace bool) int {
	if i >= len(s.src) {
		return i
	}
	switch {
	case s.src[i] == '\r' && i+1 < len(s.src) && s.src[i+1] == '\n':
		return i + 2
	case s.src[i] == '\n':
		return i + 1
	case anySpace && isSpace(s.src[i]):
		return i + 1
	}
	return i
}

// scanCode scans exactly one token of PHP code and returns its kind.
func (s *scanner) scanCode() token.Kind {
	c := s.src[s.pos]
	start := s.pos

	switch {
	case isSpace(c):
		end := start
		for end < len(s.src) && isSpace(s.src[end]) {
			end++
		}
		return s.emit(token.KindWhitespace, start, end)

	case c == '?' && s.peek(1) == '>':
		s.inPHP = false
		return s.emit(token.KindCloseTag, start, s.skipOneNewline(start+2, false))

	case c == '#' && s.peek(1) == '[':
		return s.emit(token.KindOther, start, start+2)

	case c == '#' || (c == '/' && s.peek(1) == '/'):
		return s.emit(token.KindComment, start, s.lineCommentEnd(start))

	case c == '/' && s.peek(1) == '*':
		kind := token.KindComment
		if s.peek(2) == '*' && isSpace(s.peek(3)) {
			kind = token.KindDocComment
		}
		end := bytes.Index(s.src[start+2:], []byte("*/"))
		if end < 0 {
			return s.emit(kind, start, len(s.src))
		}
		return s.emit(kind, start, start+2+end+2)

	case c == '$' && isIdentStart(s.peek(1)):
		return s.emit(token.KindVariable, start, s.identEnd(start+1))

	case isIdentStart(c):
		end := s.identEnd(start)
		return s.emit(s.classifyWord(start, end), start, end)

	case isDigit(c) || (c == '.' && isDigit(s.peek(1))):
		return s.emit(token.KindNumber, start, s.numberEnd(start))

	case c == '\'':
		return s.emit(token.KindString, start, s.singleQuotedEnd(start))

	case c == '"' || c == '`':
		return s.scanDoubleQuoted(c)

	case c == '<' && s.peek(1) == '<' && s.peek(2) == '<':
		if kind, ok := s.scanHeredoc(); ok {
			return kind
		}
	}

	return s.scanSymbol()
}

func (s *scanner) classifyWord(start, end int) token.Kind {
	switch {
	case s.last == token.KindObjectOperator:
		return token.KindIdentifier
	case s.last == token.KindFunction:
		return token.KindIdentifier
	case s.last == token.KindAmpersand && s.beforeLast == token.KindFunction:
		return token.KindIdentifier
	}
	return token.LookupWord(string(s.src[start:end]))
}

var symbols3 = []string{"?->", "<=>", "**=", "...", "<<=", ">>=", "===", "!==", "??="}

var symbols2 = []string{
	"::", "->", "&&", "||", "??", "==", "!=", "<>", "<=", ">=", "++", "--", "+=", "-=",
	"*=", "/=", ".=", "%=", "&=", "|=", "^=", "<<", ">>", "=>", "**",
}

func (s *scanner) scanSymbol() token.Kind {
	start := s.pos
	for _, sym := range symbols3 {
		if bytes.HasPrefix(s.src[start:], []byte(sym)) {
			return s.emit(token.LookupSymbol(sym), start, start+3)
		}
	}
	for _, sym := range symbols2 {
		if bytes.HasPrefix(s.src[start:], []byte(sym)) {
			return s.emit(token.LookupSymbol(sym), start, start+2)
		}
	}
	return s.emit(token.LookupSymbol(string(s.src[start:start+1])), start, start+1)
}

func (s *scanner) lineCommentEnd(start int) int {
	for i := start; i < len(s.src); i++ {
		switch s.src[i] {
		case '\n':
			return i + 1
		case '?':
			if i+1 < len(s.src) && s.src[i+1] == '>' {
				return i
			}
		}
	}
	return len(s.src)
}

func (s *scanner) identEnd(i int) int {
	for i < len(s.src) && isIdentPart(s.src[i]) {
		i++
	}
	return i
}

func (s *scanner) numberEnd(i int) int {
	for i < len(s.src) {
		c := s.src[i]
		switch {
		case isIdentPart(c) || c == '.':
			i++
		case (c == '+' || c == '-') && i > 0 && (s.src[i-1] == 'e' || s.src[i-1] == 'E') && !isHexLiteral(s.src, i):
			i++
		default:
			return i
		}
	}
	return i
}

func isHexLiteral(src []byte, i int) bool {
	for j := i - 1; j > 0; j-- {
		if !isIdentPart(src[j]) && src[j] != '.' {
			return false
		}
		if (src[j] == 'x' || src[j] == 'X') && src[j-1] == '0' {
			return true
		}
	}
	return false
}

func (s *scanner) singleQuotedEnd(start int) int {
	for i := start + 1; i < len(s.src); i++ {
		switch s.src[i] {
		case '\\':
			i++
		case '\'':
			return i + 1
		}
	}
	return len(s.src)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
