// Package backbone provides the frozen feature networks the extractor runs
// over every image. Each network is a single strided 3x3 convolution block
// with weights derived deterministically from the network name, followed by a
// family-specific head: the resnet family ends in a global average pool, the
// densenet family ends on its 7x7 map and leaves pooling to the caller.
package backbone

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/AreTor/labaug/internal/suggest"
)

// ErrUnknownNetwork is returned for a network name with no registered family.
var ErrUnknownNetwork = errors.New("backbone: unknown network")

// InputSize is the square side every image is resized to before Forward.
const InputSize = 28

// MapSize is the side of the final activation map of every network.
const MapSize = 7

// Network maps a 3 x InputSize x InputSize image to features.
type Network interface {
	// Name returns the registered network name.
	Name() string
	// Width is the channel count of the final block, i.e. the feature dimension.
	Width() int
	// Pooled reports whether Forward already reduces the map to Width x 1 x 1.
	Pooled() bool
	// Forward runs the network. It does not modify in.
	Forward(in *Tensor) *Tensor
}

type family struct {
	width  int
	pooled bool
}

var families = map[string]family{
	"resnet18":    {width: 512, pooled: true},
	"resnet34":    {width: 512, pooled: true},
	"resnet50":    {width: 2048, pooled: true},
	"densenet121": {width: 1024, pooled: false},
	"densenet161": {width: 2208, pooled: false},
}

// Names returns the registered network names in sorted order.
func Names() []string {
	names := make([]string, 0, len(families))
	for n := range families {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Validate reports whether name is a registered network.
func Validate(name string) error {
	if _, ok := families[name]; !ok {
		return fmt.Errorf("%w: %q%s", ErrUnknownNetwork, name, suggest.Hint(name, Names()))
	}
	return nil
}

// New builds the named network.
func New(name string) (Network, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}
	f := families[name]
	return newConvNet(name, f.width, f.pooled), nil
}

// convNet is conv3x3(stride 2, pad 1) -> 2x2 average pool, taking a 28x28
// input to a 7x7 map.
type convNet struct {
	name    string
	width   int
	pooled  bool
	kernels []float64 // width x 3 x 3 x 3
	bias    []float64
}

func newConvNet(name string, width int, pooled bool) *convNet {
	h := fnv.New64a()
	h.Write([]byte(name))
	seed := h.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	std := math.Sqrt(2.0 / 27.0)
	n := &convNet{
		name:    name,
		width:   width,
		pooled:  pooled,
		kernels: make([]float64, width*27),
		bias:    make([]float64, width),
	}
	for i := range n.kernels {
		n.kernels[i] = rng.NormFloat64() * std
	}
	for i := range n.bias {
		n.bias[i] = rng.NormFloat64() * 0.01
	}
	return n
}

func (n *convNet) Name() string { return n.name }
func (n *convNet) Width() int   { return n.width }
func (n *convNet) Pooled() bool { return n.pooled }

func (n *convNet) Forward(in *Tensor) *Tensor {
	conv := n.conv(in)
	mapped := conv.AvgPool(conv.H / MapSize)
	if !n.pooled {
		return mapped
	}
	return mapped.ReLU().AvgPool(MapSize)
}

func (n *convNet) conv(in *Tensor) *Tensor {
	const stride, pad = 2, 1
	oh := (in.H+2*pad-3)/stride + 1
	ow := (in.W+2*pad-3)/stride + 1
	out := NewTensor(n.width, oh, ow)
	for o := 0; o < n.width; o++ {
		k := n.kernels[o*27 : (o+1)*27]
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				s := n.bias[o]
				for c := 0; c < in.C && c < 3; c++ {
					for ky := 0; ky < 3; ky++ {
						iy := y*stride + ky - pad
						if iy < 0 || iy >= in.H {
							continue
						}
						for kx := 0; kx < 3; kx++ {
							ix := x*stride + kx - pad
							if ix < 0 || ix >= in.W {
								continue
							}
							s += k[(c*3+ky)*3+kx] * in.At(c, iy, ix)
						}
					}
				}
				out.Set(o, y, x, s)
			}
		}
	}
	return out
}
