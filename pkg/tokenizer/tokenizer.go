// Package tokenizer splits model description text into the atomic tokens
// consumed by the model compiler.
package tokenizer

import "regexp"

// tokenPattern matches identifier/number runs and single punctuation tokens.
// Every other character separates tokens and is dropped.
var tokenPattern = regexp.MustCompile(`[A-Za-z0-9._\-]+|[:;{}]`)

// Tokenizer is a cursor over a fixed token slice with one-token pushback.
type Tokenizer struct {
	tokens []string
	pos    int
}

// New tokenizes text eagerly.
func New(text string) *Tokenizer {
	return &Tokenizer{tokens: tokenPattern.FindAllString(text, -1)}
}

// Advance returns the next token and consumes it. The boolean is false once
// the stream is exhausted; callers treat that as a normal condition.
func (t *Tokenizer) Advance() (string, bool) {
	if t.pos >= len(t.tokens) {
		// A failed read still counts as a read for PushBack.
		t.pos = len(t.tokens) + 1
		return "", false
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, true
}

// PushBack un-consumes the most recently returned token.
func (t *Tokenizer) PushBack() {
	if t.pos > 0 {
		t.pos--
	}
}

// HasMore reports whether tokens remain.
func (t *Tokenizer) HasMore() bool {
	return t.pos < len(t.tokens)
}

// Len returns the total number of tokens.
func (t *Tokenizer) Len() int {
	return len(t.tokens)
}

// Pos returns the index of the next token to be returned.
func (t *Tokenizer) Pos() int {
	if t.pos > len(t.tokens) {
		return len(t.tokens)
	}
	return t.pos
}
