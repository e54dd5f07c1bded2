package token

// Buffer is a random-access view over a file's tokens. All lookups are
// bounds-checked; a position of -1 means "no such token".
type Buffer struct {
	tokens []Token
}

func NewBuffer(tokens []Token) *Buffer {
	return &Buffer{tokens: tokens}
}

func (b *Buffer) Len() int {
	return len(b.tokens)
}

// At returns the token at i, or a zero Token when i is out of range.
func (b *Buffer) At(i int) Token {
	if i < 0 || i >= len(b.tokens) {
		return Token{}
	}
	return b.tokens[i]
}

// KindAt returns the kind at i, KindInvalid when out of range.
func (b *Buffer) KindAt(i int) Kind {
	return b.At(i).Kind
}

// NextNonWhitespace returns the position after i, skipping a single
// whitespace run. The lexer never emits two adjacent whitespace tokens.
func (b *Buffer) NextNonWhitespace(i int) int {
	next := i + 1
	if next >= len(b.tokens) || next < 0 {
		return -1
	}
	if b.tokens[next].Kind == KindWhitespace {
		if next+1 < len(b.tokens) {
			return next + 1
		}
	}
	return next
}

// PrevNonWhitespace mirrors NextNonWhitespace looking backwards.
func (b *Buffer) PrevNonWhitespace(i int) int {
	prev := i - 1
	if prev < 0 || prev >= len(b.tokens) {
		return -1
	}
	if b.tokens[prev].Kind == KindWhitespace && prev-1 >= 0 {
		return prev - 1
	}
	return prev
}

// PrevNonTrivia returns the closest position before i that is neither
// whitespace nor a comment.
func (b *Buffer) PrevNonTrivia(i int) int {
	for j := i - 1; j >= 0 && j < len(b.tokens); j-- {
		if !b.tokens[j].Kind.IsTrivia() {
			return j
		}
	}
	return -1
}

// NextNonTrivia returns the closest position after i that is neither
// whitespace nor a comment.
func (b *Buffer) NextNonTrivia(i int) int {
	for j := i + 1; j >= 0 && j < len(b.tokens); j++ {
		if !b.tokens[j].Kind.IsTrivia() {
			return j
		}
	}
	return -1
}
