// Package imaging validates receipt attachments and normalizes raster
// images to JPEG before upload.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/dvloznov/receipt-organizer/internal/receipt"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// MaxFileSize is the largest accepted attachment, in bytes.
	MaxFileSize = 10 << 20
	// MaxDimension is the largest accepted width or height, in pixels.
	MaxDimension = 4096

	jpegQuality = 85
)

var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"pdf":  true,
}

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
	"pdf":  "application/pdf",
}

// Prepared is an attachment ready for upload.
type Prepared struct {
	Data     []byte
	MIMEType string
	// Filename is the original name with the extension adjusted to match
	// the prepared bytes (raster uploads become .jpg).
	Filename string
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsSupported reports whether the file type can be uploaded at all.
func IsSupported(filename string) bool {
	return supportedExtensions[extension(filename)]
}

// IsPDF reports whether the filename names a PDF.
func IsPDF(filename string) bool {
	return extension(filename) == "pdf"
}

// MIMEType returns the MIME type for a receipt filename.
func MIMEType(filename string) string {
	if m, ok := mimeTypes[extension(filename)]; ok {
		return m
	}
	return "application/octet-stream"
}

// Validate checks a non-PDF attachment: supported extension, size limit,
// decodable image content and the pixel dimension limit. The returned error
// is a *receipt.ValidationError with a user-facing message.
func Validate(data []byte, filename string) error {
	if !supportedExtensions[extension(filename)] {
		return &receipt.ValidationError{
			Field:   "file",
			Message: "Unsupported file type. Use JPG, PNG, GIF, WebP, BMP or PDF.",
		}
	}

	if len(data) > MaxFileSize {
		return &receipt.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("File size exceeds %dMB limit.", MaxFileSize>>20),
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return &receipt.ValidationError{
			Field:   "file",
			Message: "Invalid or corrupted image.",
		}
	}

	bounds := img.Bounds()
	if bounds.Dx() > MaxDimension || bounds.Dy() > MaxDimension {
		return &receipt.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("Image dimensions exceed %dpx limit.", MaxDimension),
		}
	}

	return nil
}

// Prepare converts an attachment into its upload form. Raster images are
// re-encoded as JPEG for consistent storage; PDFs pass through unchanged
// since no renderer is available.
func Prepare(data []byte, filename string) (Prepared, error) {
	if IsPDF(filename) {
		return Prepared{Data: data, MIMEType: "application/pdf", Filename: filename}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("imaging: decode %q: %w", filename, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Prepared{}, fmt.Errorf("imaging: encode jpeg: %w", err)
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return Prepared{
		Data:     buf.Bytes(),
		MIMEType: "image/jpeg",
		Filename: base + ".jpg",
	}, nil
}
