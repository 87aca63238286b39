package keywords

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_SearchSentence(t *testing.T) {
	got := Normalize("Show me pictures of puppies and beaches")
	assert.Equal(t, []string{"puppy", "beach"}, got)
}

func TestNormalize_Empty(t *testing.T) {
	assert.Empty(t, Normalize(""))
	assert.Empty(t, Normalize("   \t\n"))
	assert.NotNil(t, Normalize(""))
}

func TestNormalize_KeepsOrderAndDuplicates(t *testing.T) {
	got := Normalize("dogs cats dogs")
	assert.Equal(t, []string{"dog", "cat", "dog"}, got)
}

func TestNormalize_StripsTrailingPunctuation(t *testing.T) {
	got := Normalize("Sunset! beaches, mountains? ok. ?!")
	assert.Equal(t, []string{"sunset", "beach", "mountain"}, got)
}

func TestNormalize_PunctuatedStopWordsAreDropped(t *testing.T) {
	got := Normalize("search! photos. of, cats")
	assert.Equal(t, []string{"cat"}, got)
}

func TestNormalize_NeverEmitsStopWordsOrShortTokens(t *testing.T) {
	inputs := []string{
		"Show me the photos of an ox and a cat in my car",
		"FIND images with ands, ors, buts!",
		"by at to it is go up we",
		"pictures pictures pictures",
		"ça té 日本 éé",
	}
	for _, in := range inputs {
		for _, tok := range Normalize(in) {
			assert.False(t, IsStopWord(tok), "stop word %q from %q", tok, in)
			assert.Greater(t, utf8.RuneCountInString(tok), 2, "short token %q from %q", tok, in)
		}
	}

	for _, word := range []string{"ça", "té", "日本", "éé"} {
		assert.Empty(t, Normalize(word), word)
	}
}

func TestNormalize_SecondPassAddsNothing(t *testing.T) {
	inputs := []string{
		"show me dogs and puppies on beaches",
		"boxes near churches",
		"bus trips with families",
	}
	for _, in := range inputs {
		first := Normalize(in)
		second := Normalize(strings.Join(first, " "))
		seen := make(map[string]bool, len(first))
		for _, tok := range first {
			seen[tok] = true
		}
		for _, tok := range second {
			assert.True(t, seen[tok], "second pass of %q introduced %q", in, tok)
		}
	}
}

func TestSingularize(t *testing.T) {
	tests := []struct {
		word string
		want string
	}{
		{"puppies", "puppy"},
		{"berries", "berry"},
		{"beaches", "beach"},
		{"dishes", "dish"},
		{"boxes", "box"},
		{"waltzes", "waltz"},
		{"glasses", "glass"},
		{"dogs", "dog"},
		{"cats", "cat"},
		{"bikes", "bike"},
		{"bus", "bus"},
		{"ies", "ies"},
		{"ties", "tie"},
		{"cat", "cat"},
		{"ocean", "ocean"},
		{"más", "más"},
		{"café", "café"},
		{"niños", "niño"},
		// accepted approximation
		{"glass", "glas"},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, Singularize(tt.word))
		})
	}
}
