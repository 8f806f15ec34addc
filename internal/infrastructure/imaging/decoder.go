// Package imaging decodes raw image payloads into domain images.
package imaging

import (
	"bytes"
	"fmt"
	"image"

	// registered raster formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/recipebox/backend/internal/domain"
)

// Decoder decodes any registered raster format. The zero value is ready to use.
type Decoder struct {
	// MaxPixels rejects images whose declared dimensions exceed this area before
	// the full decode allocates them. Zero means no limit.
	MaxPixels int
}

// NewDecoder creates a decoder with the given pixel-area limit
func NewDecoder(maxPixels int) *Decoder {
	return &Decoder{MaxPixels: maxPixels}
}

// Decode decodes data and returns an Image holding its own copy of the bytes.
func (d *Decoder) Decode(data []byte) (*domain.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image payload", domain.ErrDecodingFailed)
	}

	if d.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrDecodingFailed, err)
		}
		if cfg.Width*cfg.Height > d.MaxPixels {
			return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", domain.ErrDecodingFailed, cfg.Width, cfg.Height, d.MaxPixels)
		}
	}

	decoded, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecodingFailed, err)
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	return &domain.Image{
		Format:  format,
		Data:    raw,
		Decoded: decoded,
	}, nil
}
