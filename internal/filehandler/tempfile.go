package filehandler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TempFilePrefix starts every temp file name written by this package.
const TempFilePrefix = "hooks-"

// WriteTempVideo writes video bytes to <dir>/hooks-<uuid><ext> and returns
// the path plus a cleanup func that removes the file. Cleanup is safe to call
// more than once and from any goroutine; only the first call acts. An empty
// dir means os.TempDir().
func WriteTempVideo(dir string, data []byte, ext string) (string, func(), error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if ext == "" {
		ext = DefaultVideoExtension
	}
	path := filepath.Join(dir, TempFilePrefix+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp video: %w", err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				log.Warn().Err(err).Str("path", path).Msg("Failed to remove temp video")
				return
			}
			log.Debug().Str("path", path).Msg("Temp video removed")
		})
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp video: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp video: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int("size_bytes", len(data)).
		Msg("Temp video written")

	return path, cleanup, nil
}
