package filehandler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"strings"
	"time"

	// Decoders beyond JPEG/PNG/GIF.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"

	"github.com/fpang/media-hooks/internal/apperr"
)

// DefaultMaxImageDimension bounds the longest side of a normalized image.
const DefaultMaxImageDimension = 1024

// DefaultMaxImagePixels bounds width*height of a source image before it is
// decoded.
const DefaultMaxImagePixels = 50_000_000

// NormalizedImage is a decoded, oriented, opaque 8-bit RGBA image. It must
// not be modified after creation.
type NormalizedImage struct {
	img *image.NRGBA
}

// Image returns the underlying pixels.
func (n *NormalizedImage) Image() image.Image {
	return n.img
}

// Width returns the image width in pixels.
func (n *NormalizedImage) Width() int {
	return n.img.Bounds().Dx()
}

// Height returns the image height in pixels.
func (n *NormalizedImage) Height() int {
	return n.img.Bounds().Dy()
}

// ImageMetadata holds the EXIF fields logged for an uploaded image.
type ImageMetadata struct {
	DateTaken   time.Time
	HasDate     bool
	CameraMake  string
	CameraModel string
}

// DecodeImage decodes uploaded image bytes, applies EXIF orientation and
// returns a NormalizedImage whose longest side is at most maxDimension
// (no limit when maxDimension <= 0). The header is checked against
// maxPixels (DefaultMaxImagePixels when <= 0) before any pixel is decoded.
// Empty, undecodable or oversized input is a media decode error.
func DecodeImage(data []byte, maxDimension, maxPixels int) (*NormalizedImage, error) {
	const op = "decode image"
	if len(data) == 0 {
		return nil, apperr.E(apperr.KindMediaDecode, op, errors.New("upload is empty"))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.E(apperr.KindMediaDecode, op, err)
	}
	if err := CheckPixels(cfg.Width, cfg.Height, maxPixels); err != nil {
		log.Warn().
			Str("format", format).
			Int("width", cfg.Width).
			Int("height", cfg.Height).
			Msg("Rejecting oversized image")
		return nil, apperr.E(apperr.KindMediaDecode, op, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.E(apperr.KindMediaDecode, op, err)
	}

	norm, err := NormalizeImage(img, maxDimension)
	if err != nil {
		return nil, apperr.E(apperr.KindMediaDecode, op, err)
	}

	if meta, err := ExtractImageMetadata(data); err == nil {
		log.Debug().
			Str("camera", strings.TrimSpace(meta.CameraMake+" "+meta.CameraModel)).
			Bool("has_date", meta.HasDate).
			Time("date_taken", meta.DateTaken).
			Msg("Image EXIF metadata")
	}

	log.Debug().
		Int("width", norm.Width()).
		Int("height", norm.Height()).
		Int("size_bytes", len(data)).
		Msg("Image decoded")

	return norm, nil
}

// CheckPixels returns an error when width*height exceeds maxPixels
// (DefaultMaxImagePixels when maxPixels <= 0).
func CheckPixels(width, height, maxPixels int) error {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("image has no pixels (%dx%d)", width, height)
	}
	if int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("image is %dx%d, above the %d pixel limit", width, height, maxPixels)
	}
	return nil
}

// NormalizeImage converts any decoded image to an opaque NRGBA and downsizes
// it to fit within maxDimension.
func NormalizeImage(img image.Image, maxDimension int) (*NormalizedImage, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("image has no pixels (%dx%d)", b.Dx(), b.Dy())
	}

	var out *image.NRGBA
	if maxDimension > 0 {
		out = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	} else {
		out = imaging.Clone(img)
	}

	// Drop alpha rather than compositing so RGB values are kept as decoded.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return &NormalizedImage{img: out}, nil
}

// EncodeJPEG encodes an image for providers that take compressed uploads.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// ExtractImageMetadata reads EXIF camera and date fields with imagemeta.
// Formats without EXIF return an error, which callers treat as non-fatal.
func ExtractImageMetadata(data []byte) (*ImageMetadata, error) {
	exifData, err := imagemeta.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{
		CameraMake:  strings.TrimSpace(exifData.Make),
		CameraModel: strings.TrimSpace(exifData.Model),
	}

	// Priority: DateTimeOriginal > CreateDate > ModifyDate
	switch {
	case !exifData.DateTimeOriginal().IsZero():
		metadata.DateTaken = exifData.DateTimeOriginal()
	case !exifData.CreateDate().IsZero():
		metadata.DateTaken = exifData.CreateDate()
	case !exifData.ModifyDate().IsZero():
		metadata.DateTaken = exifData.ModifyDate()
	}
	metadata.HasDate = !metadata.DateTaken.IsZero()

	return metadata, nil
}
