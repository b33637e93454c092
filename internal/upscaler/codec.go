package upscaler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // input only
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // input only
)

// DefaultFormat is used when a request does not name an output format.
const DefaultFormat = "png"

var (
	ErrUnsupportedFormat = errors.New("no such format")
	ErrUndecodable       = errors.New("cannot decode image")
	ErrTooManyPixels     = errors.New("too many pixels")
)

// Default pixel bounds: a 4096x4096 input and an 8192x8192 output.
const (
	DefaultMaxInputPixels  int64 = 4096 * 4096
	DefaultMaxOutputPixels int64 = 8192 * 8192
)

// Limits bounds image dimensions. Zero fields are unbounded.
type Limits struct {
	MaxInputPixels  int64
	MaxOutputPixels int64
}

var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

// NormalizeFormat maps a requested output format to its canonical name.
func NormalizeFormat(f string) (string, error) {
	f = strings.ToLower(strings.TrimSpace(f))
	switch f {
	case "":
		return DefaultFormat, nil
	case "jpg":
		return "jpeg", nil
	case "tif":
		return "tiff", nil
	}
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return f, nil
}

// Formats lists the supported output formats.
func Formats() []string { return []string{"png", "jpeg", "bmp", "tiff"} }

// ContentType returns the MIME type for a canonical format.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Decode parses an encoded image of any registered input format.
func Decode(b []byte) (image.Image, string, error) {
	img, kind, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return img, kind, nil
}

// CheckDimensions reads only the image header of b and rejects inputs whose
// source pixel count, or pixel count after scaling, exceeds lim.
func CheckDimensions(b []byte, scale int, lim Limits) (image.Config, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	in := int64(cfg.Width) * int64(cfg.Height)
	if lim.MaxInputPixels > 0 && in > lim.MaxInputPixels {
		return cfg, fmt.Errorf("%w: input %dx%d exceeds %d", ErrTooManyPixels, cfg.Width, cfg.Height, lim.MaxInputPixels)
	}
	s := int64(scale)
	if lim.MaxOutputPixels > 0 && in*s*s > lim.MaxOutputPixels {
		return cfg, fmt.Errorf("%w: output %dx%d exceeds %d", ErrTooManyPixels, cfg.Width*scale, cfg.Height*scale, lim.MaxOutputPixels)
	}
	return cfg, nil
}

// Encode serialises img in the canonical format.
func Encode(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
