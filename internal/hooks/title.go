package hooks

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleSuffix is appended to every decorated title.
const TitleSuffix = " 🔥"

// DecorateTitle title-cases a short title and appends TitleSuffix.
// An empty title yields just the suffix.
func DecorateTitle(title string) string {
	// A Caser holds state, so build one per call.
	return cases.Title(language.Und).String(title) + TitleSuffix
}
