package hooks

import (
	"strings"
	"unicode/utf8"
)

// MinKeywordLength is the default length a token must exceed to become a
// hashtag.
const MinKeywordLength = 4

// TrendTags is appended to every hashtag string.
const TrendTags = "#Vibes #Trending"

// ExtractHashtags derives hashtags from a scene description using
// MinKeywordLength.
func ExtractHashtags(description string) string {
	return ExtractHashtagsLonger(description, MinKeywordLength)
}

// ExtractHashtagsLonger keeps every whitespace-separated token longer than
// minLength runes, in order, prefixed with '#', followed by TrendTags.
// Punctuation attached to a token is kept.
func ExtractHashtagsLonger(description string, minLength int) string {
	var tags []string
	for _, word := range strings.Fields(description) {
		if utf8.RuneCountInString(word) > minLength {
			tags = append(tags, "#"+word)
		}
	}
	tags = append(tags, TrendTags)
	return strings.Join(tags, " ")
}
