package extractor

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/AreTor/labaug/internal/backbone"
	"github.com/AreTor/labaug/internal/dataset"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// loadImage decodes path, resizes it to the backbone input size and
// normalises each channel with stats.
func loadImage(path string, stats dataset.Stats) (*backbone.Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image '%s': %w", path, err)
	}
	return toTensor(img, stats), nil
}

func toTensor(img image.Image, stats dataset.Stats) *backbone.Tensor {
	const size = backbone.InputSize
	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)

	out := backbone.NewTensor(3, size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := scaled.RGBAAt(x, y)
			for c, v := range [3]uint8{px.R, px.G, px.B} {
				out.Set(c, y, x, (float64(v)/0xff-stats.Mean[c])/stats.Std[c])
			}
		}
	}
	return out
}
