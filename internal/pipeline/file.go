package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fpang/media-hooks/internal/apperr"
	"github.com/fpang/media-hooks/internal/filehandler"
)

// RequestFromFile reads a local media file into a Request. The media kind is
// inferred from the extension. Files larger than maxBytes are rejected when
// maxBytes is positive.
func RequestFromFile(path, language string, maxBytes int64) (Request, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Request{}, apperr.E(apperr.KindMediaDecode, "open", err)
	}
	if info.IsDir() {
		return Request{}, apperr.Errorf(apperr.KindMediaDecode, "open", "%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return Request{}, apperr.Errorf(apperr.KindMediaDecode, "open", "%s is %d bytes, limit is %d", path, info.Size(), maxBytes)
	}

	ext := filepath.Ext(path)
	if !filehandler.IsSupported(ext) {
		return Request{}, apperr.Errorf(apperr.KindMediaDecode, "open", "unsupported file type %q", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, apperr.E(apperr.KindMediaDecode, "read", fmt.Errorf("read %s: %w", path, err))
	}

	contentType, _ := filehandler.GetMIMEType(ext)
	return Request{
		Data:        data,
		ContentType: contentType,
		Filename:    filepath.Base(path),
		Language:    language,
	}, nil
}
