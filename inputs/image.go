// inputs/image.go
package inputs

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"time"

	"github.com/richinsley/hotshader/graphics"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultSampler is used for textures loaded without explicit sampler settings.
var DefaultSampler = graphics.Sampler{Wrap: "repeat", Filter: "linear"}

// DecodeGray decodes an image file into 8-bit luminance with its origin at (0, 0).
func DecodeGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) && g.Stride == g.Rect.Dx() {
		return g, nil
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray, nil
}

// LoadGrayTexture decodes a single-channel texture from path and uploads it.
// The texture is sized to the image's pixel dimensions. On failure it
// returns 0 and the error.
func LoadGrayTexture(dev graphics.TextureDevice, path string, sampler graphics.Sampler) (uint32, error) {
	start := time.Now()
	gray, err := DecodeGray(path)
	if err != nil {
		log.Printf("ERROR: file %s not found. %v", path, err)
		return 0, err
	}
	size := gray.Rect.Size()
	if size.X == 0 || size.Y == 0 {
		err := fmt.Errorf("image %s is empty", path)
		log.Printf("ERROR: %v", err)
		return 0, err
	}

	tex := dev.CreateGrayTexture(size.X, size.Y, gray.Pix, sampler)
	log.Printf("INFO: loaded file %s. It took %d ms", path, time.Since(start).Milliseconds())
	return tex, nil
}
