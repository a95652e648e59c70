package learn

import (
	"strings"
	"unicode"
)

// stopwords are tokens too generic to anchor a rule, covering Portuguese
// and English statement noise.
var stopwords = map[string]struct{}{
	// Articles, prepositions, conjunctions.
	"a": {}, "o": {}, "e": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"em": {}, "no": {}, "na": {}, "com": {}, "para": {}, "por": {}, "um": {}, "uma": {},
	"the": {}, "of": {}, "and": {}, "at": {}, "in": {}, "on": {}, "to": {}, "for": {},
	"from": {}, "with": {},
	// Statement boilerplate.
	"compra": {}, "pagamento": {}, "payment": {}, "purchase": {}, "pos": {},
	"tpa": {}, "mbway": {}, "debito": {}, "credito": {}, "transferencia": {},
	"transfer": {}, "card": {}, "cartao": {}, "visa": {}, "ref": {},
}

// ExtractKeywords pulls up to limit distinctive lowercase tokens from a
// description, in order of appearance, dropping stopwords, numbers, and
// short fragments.
func ExtractKeywords(description string, limit int) []string {
	tokens := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(tokens))
	var keywords []string
	for _, token := range tokens {
		if len(keywords) >= limit {
			break
		}
		if len(token) < 3 || isNumeric(token) {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	return keywords
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}
