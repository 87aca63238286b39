// Package keywords turns free text into the label keywords used for search.
//
// Singularization is a suffix heuristic, not a stemmer. Words that merely end
// in "s" lose it ("glass" becomes "glas"), and irregular plurals are left as
// they are. Indexed labels are matched by the search engine's own analyzer, so
// the approximation only has to be close enough to hit the common plurals.
package keywords

import (
	"strings"
	"unicode/utf8"
)

// StopWords are dropped before any other processing. The list mixes English
// function words with search filler ("show me pictures of ...").
var StopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {},
	"show": {}, "me": {}, "find": {}, "search": {},
	"photos": {}, "pictures": {}, "images": {},
}

// TrailingPunctuation is stripped from the end of every word.
const TrailingPunctuation = ".,!?"

// MinWordLength is the shortest word kept after punctuation is stripped.
const MinWordLength = 3

// esSuffixes are the endings whose plural adds "es" rather than "s".
var esSuffixes = []string{"ches", "shes", "xes", "zes", "sses"}

// Normalize lowercases text, drops stop words and short words, and
// singularizes what remains. Order is preserved and duplicates are kept.
func Normalize(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimRight(word, TrailingPunctuation)
		if utf8.RuneCountInString(word) < MinWordLength || IsStopWord(word) {
			continue
		}
		token := Singularize(word)
		// "ands" singularizes into a stop word.
		if IsStopWord(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// IsStopWord reports whether word is in StopWords.
func IsStopWord(word string) bool {
	_, ok := StopWords[word]
	return ok
}

// Singularize collapses common English plural endings.
func Singularize(word string) string {
	if utf8.RuneCountInString(word) <= 3 {
		return word
	}
	n := len(word)
	if strings.HasSuffix(word, "ies") && n > 4 {
		return word[:n-3] + "y"
	}
	for _, suffix := range esSuffixes {
		if strings.HasSuffix(word, suffix) {
			return word[:n-2]
		}
	}
	if strings.HasSuffix(word, "s") {
		return word[:n-1]
	}
	return word
}
