// Package intake validates and decodes images handed to the editor.
package intake

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/muralmend/internal/capture"
	"github.com/example/muralmend/internal/clipboard"
	"github.com/example/muralmend/internal/restore"
)

// DefaultMaxBytes is the largest accepted input.
const DefaultMaxBytes int64 = 50 << 20

var (
	// ErrNotImage rejects input whose content is not a raster image.
	ErrNotImage = errors.New("please select an image file")
	// ErrTooLarge rejects input above the size limit.
	ErrTooLarge = errors.New("file size must be less than 50MB")
)

var extensionTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// Open reads and decodes the image at path.
func Open(path string, maxBytes int64) (image.Image, error) {
	maxBytes = limit(maxBytes)
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotImage)
	}
	if fi.Size() > maxBytes {
		return nil, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, err := Decode(f, filepath.Base(path), maxBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Decode reads at most maxBytes from r and decodes it. name supplies the
// extension used when the content cannot be sniffed.
func Decode(r io.Reader, name string, maxBytes int64) (image.Image, error) {
	maxBytes = limit(maxBytes)
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrTooLarge
	}
	if _, err := DetectType(data, name); err != nil {
		return nil, err
	}
	img, err := restore.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, fmt.Errorf("decode image: empty image")
	}
	return img, nil
}

// DetectType returns the image MIME type of data. Content sniffing decides
// first; the extension of name is only consulted for formats the sniffer
// does not know, such as TIFF.
func DetectType(data []byte, name string) (string, error) {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	if sniffed == "application/octet-stream" {
		if t, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
			return t, nil
		}
	}
	return "", ErrNotImage
}

// FromClipboard decodes the image currently on the system clipboard.
func FromClipboard() (image.Image, error) {
	img, err := clipboard.ReadImage()
	if err != nil {
		return nil, fmt.Errorf("clipboard: %w", err)
	}
	return img, nil
}

// CaptureScreen takes a desktop screenshot to annotate.
func CaptureScreen(interactive bool) (image.Image, error) {
	img, err := capture.Screen(capture.Options{Interactive: interactive})
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	return img, nil
}

func limit(maxBytes int64) int64 {
	if maxBytes <= 0 {
		return DefaultMaxBytes
	}
	return maxBytes
}
