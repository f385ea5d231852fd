package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/AreTor/labaug/internal/artifact"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/stretchr/testify/require"
)

// WriteFiles writes every (relative path, content) pair below root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// classColors are well separated base colours for synthetic classes.
var classColors = []color.RGBA{
	{R: 220, G: 30, B: 30, A: 255},
	{R: 30, G: 200, B: 40, A: 255},
	{R: 40, G: 50, B: 210, A: 255},
	{R: 230, G: 220, B: 40, A: 255},
	{R: 200, G: 40, B: 200, A: 255},
	{R: 40, G: 210, B: 210, A: 255},
}

// ImageDataset writes a dataset of small PNG images below root, one
// subdirectory per class ("class_0", "class_1", ...). Images of a class share a
// base colour plus a little deterministic noise, so backbone features cluster
// by class.
func ImageDataset(t *testing.T, root string, classes, perClass int) dataset.Descriptor {
	t.Helper()
	require.LessOrEqual(t, classes, len(classColors), "not enough synthetic colours")
	rng := rand.New(rand.NewPCG(uint64(classes), uint64(perClass)))

	for c := 0; c < classes; c++ {
		dir := filepath.Join(root, fmt.Sprintf("class_%d", c))
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for i := 0; i < perClass; i++ {
			img := image.NewRGBA(image.Rect(0, 0, 16, 16))
			base := classColors[c]
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					img.Set(x, y, color.RGBA{
						R: jitter(rng, base.R),
						G: jitter(rng, base.G),
						B: jitter(rng, base.B),
						A: 255,
					})
				}
			}
			f, err := os.Create(filepath.Join(dir, fmt.Sprintf("img_%02d.png", i)))
			require.NoError(t, err)
			require.NoError(t, png.Encode(f, img))
			require.NoError(t, f.Close())
		}
	}

	return dataset.Descriptor{Name: "toy", Src: root, NumClasses: classes, Stats: dataset.ImageNetStats}
}

func jitter(rng *rand.Rand, v uint8) uint8 {
	n := int(v) + rng.IntN(21) - 10
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return uint8(n)
}

// ClusteredFeatures builds a feature set of classes*perClass rows where each
// class is a tight Gaussian blob around its own centre. Rows are grouped by
// class, matching the order the splitter writes manifests in.
func ClusteredFeatures(seed uint64, net string, classes, perClass, dim int, spread float64) *artifact.FeatureSet {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centres := make([][]float64, classes)
	for c := range centres {
		centres[c] = make([]float64, dim)
		for d := range centres[c] {
			centres[c][d] = rng.NormFloat64() * 5
		}
	}

	fs := &artifact.FeatureSet{Net: net}
	for c := 0; c < classes; c++ {
		for i := 0; i < perClass; i++ {
			row := make([]float64, dim)
			for d := range row {
				row[d] = centres[c][d] + rng.NormFloat64()*spread
			}
			fs.Features = append(fs.Features, row)
			fs.Labels = append(fs.Labels, c)
			fs.Paths = append(fs.Paths, fmt.Sprintf("class_%d/img_%02d.png", c, i))
		}
	}
	return fs
}
