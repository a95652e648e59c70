// Package similarity provides pluggable string-similarity strategies for
// description matching.
package similarity

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Strategy scores how alike two descriptions are, in [0,1].
type Strategy interface {
	Name() string
	Score(a, b string) float64
}

// Normalize lowercases and collapses whitespace so strategies compare
// content, not formatting.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Levenshtein scores via normalized edit distance:
// 1 - distance/max(len(a), len(b)).
type Levenshtein struct{}

// Name implements Strategy.
func (Levenshtein) Name() string { return "levenshtein" }

// Score implements Strategy.
func (Levenshtein) Score(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	distance := matchr.Levenshtein(a, b)
	return 1 - float64(distance)/float64(longest)
}

// Phonetic scores 1 when the phonetic keys of two descriptions are equal,
// 0 otherwise. Useful for OCR'd or abbreviated statement text.
type Phonetic struct{}

// Name implements Strategy.
func (Phonetic) Name() string { return "phonetic" }

// Score implements Strategy.
func (Phonetic) Score(a, b string) float64 {
	ka, kb := Key(a), Key(b)
	if ka == "" || kb == "" {
		return 0
	}
	if ka == kb {
		return 1
	}
	return 0
}

// Key computes a per-token Soundex key for a whole description.
func Key(s string) string {
	tokens := strings.Fields(Normalize(s))
	keys := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if k := matchr.Soundex(t); k != "" {
			keys = append(keys, k)
		}
	}
	return strings.Join(keys, " ")
}

// Best returns the highest score across the given strategies.
func Best(a, b string, strategies []Strategy) float64 {
	best := 0.0
	for _, s := range strategies {
		if score := s.Score(a, b); score > best {
			best = score
		}
	}
	return best
}
