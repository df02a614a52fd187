// Package export writes restored images to disk and the clipboard.
package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/example/muralmend/internal/clipboard"
)

// BaseName is the file name used for saved results, without extension.
const BaseName = "restored_mural"

// FileName returns the export file name for format. Unknown formats and the
// empty string map to PNG.
func FileName(format string) string {
	switch normalize(format) {
	case "jpg":
		return BaseName + ".jpg"
	case "webp":
		return BaseName + ".webp"
	}
	return BaseName + ".png"
}

// Save writes img into dir and returns the written path. An empty dir is the
// current directory.
func Save(img image.Image, dir, format string) (string, error) {
	if img == nil {
		return "", fmt.Errorf("save: no image")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	path := filepath.Join(dir, FileName(format))
	if err := Write(img, path); err != nil {
		return "", err
	}
	return path, nil
}

// Write encodes img to path, choosing the encoder from the extension.
func Write(img image.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			_ = f.Close()
			return fmt.Errorf("encode %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		return nil
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(95)); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// Copy places img on the system clipboard.
func Copy(img image.Image) error {
	if img == nil {
		return fmt.Errorf("copy: no image")
	}
	if err := clipboard.WriteImage(img); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}

func normalize(format string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	if f == "jpeg" {
		return "jpg"
	}
	return f
}
