// Package cli holds output helpers shared by the command-line entry points.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/pipeline"
)

// PrintResult writes res as labelled lines, or as indented JSON matching the
// HTTP response body when asJSON is set.
func PrintResult(w io.Writer, res *pipeline.Result, asJSON bool) error {
	if asJSON {
		return encodeIndented(w, res)
	}
	_, err := fmt.Fprintf(w, "Title:    %s\nQuestion: %s\nCaption:  %s\nHashtags: %s\n",
		res.Captions[0], res.Captions[1], res.Captions[2], res.Hashtags)
	return err
}

// PrintTimings writes a one-line stage breakdown.
func PrintTimings(w io.Writer, t pipeline.Timings) error {
	_, err := fmt.Fprintf(w, "Took %s (load %s, describe %s, hooks %s)\n",
		FormatDurationShort(t.Total), FormatDurationShort(t.Load),
		FormatDurationShort(t.Describe), FormatDurationShort(t.Hooks))
	return err
}

// PrintError writes the error artifact as JSON when asJSON is set. Plain
// output is left to the caller.
func PrintError(w io.Writer, err error, asJSON bool) error {
	if !asJSON {
		return nil
	}
	return encodeIndented(w, map[string]string{
		"error": err.Error(),
		"kind":  apperr.KindOf(err).String(),
	})
}

// FormatDurationShort formats d with one decimal place of seconds, or in
// milliseconds below one second.
func FormatDurationShort(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
