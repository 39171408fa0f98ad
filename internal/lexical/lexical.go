// Package lexical reduces text to stemmed terms for keyword ranking.
package lexical

import (
	"strings"
	"unicode"

	"github.com/blevesearch/go-porterstemmer"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// Terms lowercases text, splits it on anything that is not a letter or digit,
// drops stopwords, stems each word and removes duplicates. Order of first
// occurrence is kept.
func Terms(text string) []string {
	words := tokenize(text)
	if len(words) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		stem := porterstemmer.StemString(w)
		if stem == "" {
			continue
		}
		if _, dup := seen[stem]; dup {
			continue
		}
		seen[stem] = struct{}{}
		terms = append(terms, stem)
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

// Set is a membership view over a term list.
type Set map[string]struct{}

// NewSet builds a Set from terms.
func NewSet(terms []string) Set {
	s := make(Set, len(terms))
	for _, t := range terms {
		s[t] = struct{}{}
	}
	return s
}

// Overlap returns the fraction of query terms present in doc, in [0, 1].
// An empty query scores 0.
func Overlap(query []string, doc Set) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}
	matches := 0
	for _, t := range query {
		if _, ok := doc[t]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	return strings.Fields(builder.String())
}
