package lexer

import (
	"bytes"

	"phpmetrics/internal/token"
)

// scanDoubleQuoted handles "..." and `...`. A literal without interpolation
// is a single string token; otherwise the quotes, literal parts and embedded
// expressions are emitted separately.
func (s *scanner) scanDoubleQuoted(delim byte) token.Kind {
	start := s.pos
	end, interpolated := s.quotedExtent(start+1, delim)
	if !interpolated {
		return s.emit(token.KindString, start, end)
	}

	s.emit(token.KindOther, start, start+1)
	s.interpolate(func() bool { return s.src[s.pos] == delim })
	if s.pos < len(s.src) {
		return s.emit(token.KindOther, s.pos, s.pos+1)
	}
	return token.KindOther
}

// quotedExtent finds the closing delimiter of a quoted literal, stopping
// early when an interpolation is found.
func (s *scanner) quotedExtent(i int, delim byte) (int, bool) {
	for ; i < len(s.src); i++ {
		switch c := s.src[i]; {
		case c == '\\':
			i++
		case c == delim:
			return i + 1, false
		case startsInterpolation(s.src, i):
			return i, true
		}
	}
	return len(s.src), false
}

func startsInterpolation(src []byte, i int) bool {
	if i+1 >= len(src) {
		return false
	}
	switch src[i] {
	case '$':
		return isIdentStart(src[i+1]) || src[i+1] == '{'
	case '{':
		return src[i+1] == '$'
	}
	return false
}

// interpolate emits the body of an interpolated literal up to (not
// including) the position where done reports true.
func (s *scanner) interpolate(done func() bool) {
	text := s.pos
	flush := func() {
		if s.pos > text {
			at := s.pos
			s.pos = text
			s.emit(token.KindStringPart, text, at)
		}
	}

	for s.pos < len(s.src) {
		if done() {
			flush()
			return
		}
		c := s.src[s.pos]
		switch {
		case c == '\\':
			s.pos += 2
			if s.pos > len(s.src) {
				s.pos = len(s.src)
			}
			continue

		case c == '$' && isIdentStart(s.peek(1)):
			flush()
			s.emit(token.KindVariable, s.pos, s.identEnd(s.pos+1))
			if s.peek(0) == '-' && s.peek(1) == '>' && isIdentStart(s.peek(2)) {
				s.emit(token.KindObjectOperator, s.pos, s.pos+2)
				s.emit(token.KindIdentifier, s.pos, s.identEnd(s.pos))
			}
			text = s.pos
			continue

		case c == '$' && s.peek(1) == '{':
			flush()
			s.emit(token.KindDollarOpenCurly, s.pos, s.pos+2)
			// ${name} and ${name[...]} name a variable, not a constant
			if isIdentStart(s.peek(0)) {
				end := s.identEnd(s.pos)
				if end < len(s.src) && (s.src[end] == '}' || s.src[end] == '[') {
					s.emit(token.KindVariable, s.pos, end)
				}
			}
			s.embedded()
			text = s.pos
			continue

		case c == '{' && s.peek(1) == '$':
			flush()
			s.emit(token.KindCurlyOpen, s.pos, s.pos+1)
			s.embedded()
			text = s.pos
			continue
		}
		s.pos++
	}
	flush()
}

// embedded scans code inside {$...} or ${...} up to and including the
// matching close brace.
func (s *scanner) embedded() {
	depth := 1
	for s.pos < len(s.src) {
		switch s.scanCode() {
		case token.KindOpenBrace, token.KindCurlyOpen, token.KindDollarOpenCurly:
			depth++
		case token.KindCloseBrace:
			depth--
			if depth == 0 {
				return
			}
		}
		// a stray close tag inside a string cannot leave PHP mode
		s.inPHP = true
	}
}

// scanHeredoc handles <<<LABEL, <<<"LABEL" and <<<'LABEL' (nowdoc).
func (s *scanner) scanHeredoc() (token.Kind, bool) {
	start := s.pos
	i := start + 3
	for i < len(s.src) && (s.src[i] == ' ' || s.src[i] == '\t') {
		i++
	}
	quote := byte(0)
	if i < len(s.src) && (s.src[i] == '\'' || s.src[i] == '"') {
		quote = s.src[i]
		i++
	}
	labelStart := i
	if i >= len(s.src) || !isIdentStart(s.src[i]) {
		return token.KindInvalid, false
	}
	i = s.identEnd(i)
	label := s.src[labelStart:i]
	if quote != 0 {
		if i >= len(s.src) || s.src[i] != quote {
			return token.KindInvalid, false
		}
		i++
	}
	bodyStart := s.skipOneNewline(i, false)
	if bodyStart == i {
		return token.KindInvalid, false
	}

	closing := heredocEnd(s.src, bodyStart, label)
	closingEnd := closing + len(label)
	if closing >= len(s.src) {
		closingEnd = len(s.src)
	}

	if quote == '\'' || !hasInterpolation(s.src[bodyStart:min(closing, len(s.src))]) {
		return s.emit(token.KindString, start, closingEnd), true
	}

	s.emit(token.KindOther, start, bodyStart)
	s.interpolate(func() bool { return s.pos >= closing })
	s.emit(token.KindOther, s.pos, closingEnd)
	return token.KindOther, true
}

// heredocEnd returns the offset of the closing label, which must start a
// line (after optional indentation) and not be followed by an identifier byte.
func heredocEnd(src []byte, from int, label []byte) int {
	lineStart := from
	for lineStart <= len(src) {
		i := lineStart
		for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
			i++
		}
		if bytes.HasPrefix(src[i:], label) {
			after := i + len(label)
			if after >= len(src) || !isIdentPart(src[after]) {
				return i
			}
		}
		next := bytes.IndexByte(src[lineStart:], '\n')
		if next < 0 {
			break
		}
		lineStart += next + 1
	}
	return len(src)
}

func hasInterpolation(body []byte) bool {
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' {
			i++
			continue
		}
		if startsInterpolation(body, i) {
			return true
		}
	}
	return false
}
