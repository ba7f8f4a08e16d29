package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fpang/media-hooks/internal/apperr"
)

func TestRequestFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Clip.MP4")
	if err := os.WriteFile(path, []byte("video bytes"), 0o600); err != nil {
		t.Fatal(err)
	}

	req, err := RequestFromFile(path, "fr", 0)
	if err != nil {
		t.Fatalf("RequestFromFile() error = %v", err)
	}
	if string(req.Data) != "video bytes" || req.Filename != "Clip.MP4" || req.ContentType != "video/mp4" || req.Language != "fr" {
		t.Errorf("RequestFromFile() = %+v", req)
	}
}

func TestRequestFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.jpg")
	if err := os.WriteFile(big, make([]byte, 100), 0o600); err != nil {
		t.Fatal(err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("hi"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		path     string
		maxBytes int64
	}{
		{"missing", filepath.Join(dir, "nope.jpg"), 0},
		{"directory", dir, 0},
		{"too large", big, 10},
		{"unsupported", notes, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RequestFromFile(tt.path, "", tt.maxBytes)
			if apperr.KindOf(err) != apperr.KindMediaDecode {
				t.Errorf("error = %v, want media decode", err)
			}
		})
	}
}
