// Package filehandler loads uploaded media into a form the vision model can
// consume.
//
// Images are decoded in pure Go (stdlib plus golang.org/x/image decoders) and
// normalized with disintegration/imaging. Videos are written to a uniquely
// named temp file and a single representative frame is read through ffmpeg.
package filehandler

import (
	"mime"
	"path/filepath"
	"strings"
)

// SupportedImageExtensions maps image file extensions to MIME types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

// SupportedVideoExtensions maps video file extensions to MIME types.
var SupportedVideoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".m4v":  "video/x-m4v",
}

// DefaultVideoExtension is used for temp files when the upload gives no
// usable hint about the container.
const DefaultVideoExtension = ".mp4"

// Kind is the media kind of an upload.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// DetectKind classifies an upload. A declared video/* MIME type means video
// and any other declared type means image. When the declared type is empty
// or application/octet-stream, the filename extension decides.
func DetectKind(contentType, filename string) Kind {
	mediaType := normalizeContentType(contentType)
	if mediaType == "" || mediaType == "application/octet-stream" {
		if IsVideo(filepath.Ext(filename)) {
			return KindVideo
		}
		return KindImage
	}
	if strings.HasPrefix(mediaType, "video") {
		return KindVideo
	}
	return KindImage
}

// TempExtension picks the file extension for a video temp file so ffmpeg can
// recognize the container. The filename wins, then the MIME type.
func TempExtension(contentType, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if IsVideo(ext) {
		return ext
	}
	mediaType := normalizeContentType(contentType)
	for ext, mt := range SupportedVideoExtensions {
		if mt == mediaType {
			return ext
		}
	}
	return DefaultVideoExtension
}

// GetMIMEType returns the MIME type for a given file extension.
func GetMIMEType(ext string) (string, bool) {
	ext = strings.ToLower(ext)
	if mimeType, ok := SupportedImageExtensions[ext]; ok {
		return mimeType, true
	}
	if mimeType, ok := SupportedVideoExtensions[ext]; ok {
		return mimeType, true
	}
	return "", false
}

// IsImage returns true if the file extension corresponds to an image.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// IsVideo returns true if the file extension corresponds to a video.
func IsVideo(ext string) bool {
	_, ok := SupportedVideoExtensions[strings.ToLower(ext)]
	return ok
}

// IsSupported returns true if the file extension is supported (image or video).
func IsSupported(ext string) bool {
	return IsImage(ext) || IsVideo(ext)
}

func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(contentType)
	}
	return mediaType
}
