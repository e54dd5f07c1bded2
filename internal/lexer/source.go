// Package lexer turns PHP source text into token streams.
package lexer

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/maypok86/otter"

	"phpmetrics/internal/token"
)

// Source tokenizes one file. Implementations are total: they never fail
// on malformed input and always return tokens in source order.
type Source interface {
	Name() string
	Tokenize(src []byte) []token.Token
}

// New returns the token source registered under name.
func New(name string) (Source, error) {
	switch name {
	case "", "native":
		return NewNative(), nil
	case "treesitter":
		return NewTreeSitter(), nil
	default:
		return nil, fmt.Errorf("unknown tokenizer %q (valid: native, treesitter)", name)
	}
}

// Cache remembers token streams per path and reuses them while the
// content hash is unchanged.
type Cache struct {
	source  Source
	entries otter.Cache[string, cacheEntry]
}

type cacheEntry struct {
	sum    uint64
	tokens []token.Token
}

func NewCache(source Source, capacity int) (*Cache, error) {
	entries, err := otter.MustBuilder[string, cacheEntry](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build token cache: %w", err)
	}
	return &Cache{source: source, entries: entries}, nil
}

func (c *Cache) Name() string {
	return c.source.Name()
}

// Tokenize bypasses the cache; use TokenizeFile when the path is known.
func (c *Cache) Tokenize(src []byte) []token.Token {
	return c.source.Tokenize(src)
}

// TokenizeFile returns cached tokens when path was seen with identical content.
func (c *Cache) TokenizeFile(path string, src []byte) []token.Token {
	sum := xxhash.Sum64(src)
	if entry, ok := c.entries.Get(path); ok && entry.sum == sum {
		return entry.tokens
	}
	tokens := c.source.Tokenize(src)
	c.entries.Set(path, cacheEntry{sum: sum, tokens: tokens})
	return tokens
}

func (c *Cache) Close() {
	c.entries.Close()
}
