// Package imageprep shrinks photos before they are sent to a vision model.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

const (
	DefaultMaxSide = 2048
	JPEGQuality    = 92
)

// Downscale re-encodes data as JPEG when its longest side exceeds maxSide, keeping the
// aspect ratio. Images already small enough are returned untouched with their original
// MIME type.
func Downscale(data []byte, mime string, maxSide int) ([]byte, string, error) {
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("reading image header: %w", err)
	}
	if cfg.Width <= maxSide && cfg.Height <= maxSide {
		return data, mime, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	w, h := fit(cfg.Width, cfg.Height, maxSide)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, "", fmt.Errorf("encoding jpeg: %w", err)
	}
	return out.Bytes(), "image/jpeg", nil
}

func fit(w, h, maxSide int) (int, int) {
	if w >= h {
		return maxSide, max(1, h*maxSide/w)
	}
	return max(1, w*maxSide/h), maxSide
}
