package intake

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 12, 8))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(3, 4, color.NRGBA{R: 200, A: 255})
	return img
}

func TestOpenPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	if err := imaging.Save(sample(), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	img, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := img.Bounds().Size(); got != image.Pt(12, 8) {
		t.Fatalf("size = %v", got)
	}
}

func TestOpenTIFFByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.tif")
	if err := imaging.Save(sample(), path); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Open(path, 0); err != nil {
		t.Fatalf("Open tiff: %v", err)
	}
}

func TestDecodeWebP(t *testing.T) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, sample(), &webp.Options{Lossless: true}); err != nil {
		t.Fatalf("encode webp: %v", err)
	}
	img, err := Decode(&buf, "photo.webp", 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.Bounds().Dx(); got != 12 {
		t.Fatalf("width = %d", got)
	}
}

func TestRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.png")
	if err := os.WriteFile(path, []byte("just some notes about the mural\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, 0)
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("err = %v, want ErrNotImage", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error %q does not name the file", err)
	}
}

func TestRejectsOversized(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	limit := int64(buf.Len() - 1)
	if _, err := Decode(bytes.NewReader(buf.Bytes()), "wall.png", limit); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Decode err = %v, want ErrTooLarge", err)
	}

	path := filepath.Join(t.TempDir(), "wall.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, limit); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Open err = %v, want ErrTooLarge", err)
	}
}

func TestDetectType(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		data []byte
		file string
		want string
		err  error
	}{
		{"sniffed png", buf.Bytes(), "x.bin", "image/png", nil},
		{"unknown binary with tiff ext", []byte{0x00, 0x01, 0x02}, "x.TIFF", "image/tiff", nil},
		{"unknown binary", []byte{0x00, 0x01, 0x02}, "x.bin", "", ErrNotImage},
		{"text with image ext", []byte("hello"), "x.jpg", "", ErrNotImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectType(tt.data, tt.file)
			if !errors.Is(err, tt.err) || got != tt.want {
				t.Fatalf("DetectType = %q, %v; want %q, %v", got, err, tt.want, tt.err)
			}
		})
	}
}
