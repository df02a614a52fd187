package restore

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrBadDataURL is returned for strings that are not base64 data URLs.
var ErrBadDataURL = errors.New("malformed data URL")

// EncodeDataURL encodes img as a PNG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURL decodes a "data:<mime>;base64,<payload>" string into an
// image. A bare base64 payload without the data: prefix is also accepted.
func DecodeDataURL(s string) (image.Image, string, error) {
	mime := ""
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		head, rest, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(head, ";base64") {
			return nil, "", ErrBadDataURL
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64")
		payload = rest
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	img, err := DecodeBytes(raw)
	if err != nil {
		return nil, "", err
	}
	return img, mime, nil
}

// DecodeBytes decodes any registered raster format, falling back to WebP.
func DecodeBytes(data []byte) (image.Image, error) {
	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}
