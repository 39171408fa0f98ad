// Package tokenizer splits text into the token units used for passage budgets.
//
// The scheme is simple and deterministic: runs of letters and
// digits form words, runs of whitespace form a single token, and every other
// rune is its own token. Concatenating the tokens of a string reproduces the
// string exactly.
package tokenizer

import (
	"unicode"
	"unicode/utf8"
)

// MaxWordRunes is the longest word kept as a single token. Longer words are
// split into sub-tokens of this many runes.
const MaxWordRunes = 12

type runeClass int

const (
	classWord runeClass = iota
	classSpace
	classOther
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
		return classWord
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classOther
	}
}

// Tokenize returns the ordered tokens of text.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	tokens := make([]string, 0, len(text)/3+1)
	s := NewScanner(text)
	for s.Next() {
		tokens = append(tokens, s.Token())
	}
	return tokens
}

// Count returns the number of tokens in text without allocating them.
func Count(text string) int {
	n := 0
	s := NewScanner(text)
	for s.Next() {
		n++
	}
	return n
}

// Scanner walks the tokens of a string one at a time. A Scanner can be
// restarted with Reset, which makes it safe to reuse across fragments.
type Scanner struct {
	text  string
	pos   int
	start int
}

// NewScanner returns a scanner positioned before the first token of text.
func NewScanner(text string) *Scanner {
	return &Scanner{text: text}
}

// Reset rewinds the scanner to the start of text.
func (s *Scanner) Reset(text string) {
	s.text = text
	s.pos = 0
	s.start = 0
}

// Token returns the token found by the last call to Next.
func (s *Scanner) Token() string {
	return s.text[s.start:s.pos]
}

// Next advances to the next token and reports whether one was found.
func (s *Scanner) Next() bool {
	if s.pos >= len(s.text) {
		return false
	}
	s.start = s.pos

	first, size := utf8.DecodeRuneInString(s.text[s.pos:])
	s.pos += size
	class := classify(first)
	if class == classOther {
		return true
	}

	runes := 1
	for s.pos < len(s.text) {
		r, size := utf8.DecodeRuneInString(s.text[s.pos:])
		if classify(r) != class {
			break
		}
		if class == classWord && runes == MaxWordRunes {
			break
		}
		s.pos += size
		runes++
	}
	return true
}
