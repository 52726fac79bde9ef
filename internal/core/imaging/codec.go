package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/markdave123-py/baboon-api/internal/models"
)

// ContentType is the single format every derived asset is served in.
const (
	ContentType = "image/webp"
	Extension   = "webp"
)

// decode reads the header first so an image declaring more than maxPixels
// is rejected before its pixel buffer is allocated.
func decode(data []byte, maxPixels int64) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && px > maxPixels {
		return nil, fmt.Errorf("decode image: %dx%d %s exceeds %d pixels", cfg.Width, cfg.Height, format, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty %s", format)
	}
	return img, nil
}

// resize scales src to exactly dims, ignoring the aspect ratio.
func resize(src image.Image, dims models.Dims) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, dims.Width, dims.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
