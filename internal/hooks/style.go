// Package hooks turns a scene description into short social media copy:
// one hook per caption style plus a keyword hashtag string.
package hooks

import (
	"fmt"
	"text/template"

	"github.com/fpang/media-hooks/internal/assets"
	"github.com/fpang/media-hooks/internal/inference"
)

// Style selects the prompt template and decoding params for one hook.
type Style string

const (
	StyleShortTitle Style = "short_title"
	StyleFunny      Style = "funny"
	StyleQuestion   Style = "question"
	StyleDefault    Style = "default"
)

// Hard decoding bounds shared by every style.
const (
	MaxHookTokens     = 30
	MinHookTokens     = 3
	RepetitionPenalty = 1.5
)

type styleSpec struct {
	tmpl        *template.Template
	temperature float64
}

// styles is the closed set of supported styles. Adding a style is one entry
// here plus its template under assets/prompts.
var styles = map[Style]styleSpec{
	StyleShortTitle: {tmpl: assets.ShortTitleTemplate, temperature: 0.80},
	StyleFunny:      {tmpl: assets.FunnyTemplate, temperature: 0.90},
	StyleQuestion:   {tmpl: assets.QuestionTemplate, temperature: 0.85},
	StyleDefault:    {tmpl: assets.DefaultCaptionTemplate, temperature: 0.85},
}

// ParseStyle maps a style name to a Style. Unknown names select StyleDefault.
func ParseStyle(name string) Style {
	s := Style(name)
	if _, ok := styles[s]; ok {
		return s
	}
	return StyleDefault
}

// resolve returns the effective style and its spec, falling back to the
// default caption style for unknown values.
func resolve(s Style) (Style, styleSpec) {
	if spec, ok := styles[s]; ok {
		return s, spec
	}
	return StyleDefault, styles[StyleDefault]
}

// Prompt renders the generation prompt for a style. The description is
// inserted verbatim.
func Prompt(s Style, description string) (string, error) {
	name, spec := resolve(s)
	prompt, err := assets.RenderHookPrompt(spec.tmpl, description)
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return prompt, nil
}

// Params returns the decoding params for a style.
func Params(s Style) inference.DecodingParams {
	_, spec := resolve(s)
	return inference.DecodingParams{
		MaxTokens:         MaxHookTokens,
		MinTokens:         MinHookTokens,
		Sample:            true,
		Temperature:       spec.temperature,
		RepetitionPenalty: RepetitionPenalty,
	}
}
