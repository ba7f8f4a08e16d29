package hooks

import (
	"regexp"
	"strings"
	"unicode"
)

// specialTokenRe matches tokenizer control tokens that some backends leak
// into decoded text.
var specialTokenRe = regexp.MustCompile(`</?s>|<pad>|<unk>|<mask>|<\|[^|<>]*\|>`)

var quoteRemover = strings.NewReplacer(
	`"`, "",
	`'`, "",
	"\u201c", "",
	"\u201d", "",
	"\u2018", "",
	"\u2019", "",
)

// Clean strips special tokens and control characters, then normalizes.
// Removing one token or quote can join the pieces of another, so the passes
// repeat until the text stops changing. Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := raw
	for {
		next := Normalize(stripSpecialTokens(s))
		if next == s {
			return next
		}
		s = next
	}
}

// Normalize removes double and single quotes (straight and typographic) and
// trims surrounding whitespace. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.TrimSpace(quoteRemover.Replace(s))
}

func stripSpecialTokens(s string) string {
	s = specialTokenRe.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
