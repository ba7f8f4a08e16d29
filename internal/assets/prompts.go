// Package assets provides embedded prompt text for the hook pipeline.
//
// Prompts are stored as text files under prompts/ and embedded at compile time
// so wording can change without touching Go code.
package assets

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed prompts/*.txt
var promptFS embed.FS

// SceneDescriptionPrompt is sent with the image to vision models that accept
// an instruction. Captioning models that take no prompt ignore it.
var SceneDescriptionPrompt = mustRead("prompts/scene-description.txt")

// HookSystemPrompt is the system instruction for chat-style text generators.
// It keeps instruction-tuned models from wrapping the hook in commentary.
var HookSystemPrompt = mustRead("prompts/hook-system.txt")

// Hook prompt templates, one per caption style. template.Must panics on
// malformed templates, catching errors at program startup.
var (
	ShortTitleTemplate     = mustParse("short_title", "prompts/hook-short-title.txt")
	FunnyTemplate          = mustParse("funny", "prompts/hook-funny.txt")
	QuestionTemplate       = mustParse("question", "prompts/hook-question.txt")
	DefaultCaptionTemplate = mustParse("default", "prompts/hook-default.txt")
)

// HookData holds the dynamic data injected into hook templates.
type HookData struct {
	// Description is the scene description, inserted verbatim.
	Description string
}

// RenderHookPrompt executes a hook template with the given scene description.
func RenderHookPrompt(tmpl *template.Template, description string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, HookData{Description: description}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustRead(name string) string {
	b, err := promptFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(b))
}

// mustParse trims the trailing newline editors leave in the file so the
// rendered prompt ends exactly where the description does.
func mustParse(name, file string) *template.Template {
	return template.Must(template.New(name).Parse(mustRead(file)))
}
