package backbone

// Tensor is a dense C x H x W activation map in channel-major order.
type Tensor struct {
	C, H, W int
	Data    []float64
}

// NewTensor allocates a zeroed c x h x w tensor.
func NewTensor(c, h, w int) *Tensor {
	return &Tensor{C: c, H: h, W: w, Data: make([]float64, c*h*w)}
}

// At returns the value at (c, y, x).
func (t *Tensor) At(c, y, x int) float64 { return t.Data[(c*t.H+y)*t.W+x] }

// Set stores v at (c, y, x).
func (t *Tensor) Set(c, y, x int, v float64) { t.Data[(c*t.H+y)*t.W+x] = v }

// ReLU clamps negative activations to zero in place and returns t.
func (t *Tensor) ReLU() *Tensor {
	for i, v := range t.Data {
		if v < 0 {
			t.Data[i] = 0
		}
	}
	return t
}

// AvgPool applies a non-overlapping size x size average pool (stride = size).
// Trailing rows or columns that do not fill a window are dropped.
func (t *Tensor) AvgPool(size int) *Tensor {
	oh, ow := t.H/size, t.W/size
	out := NewTensor(t.C, oh, ow)
	norm := 1 / float64(size*size)
	for c := 0; c < t.C; c++ {
		for y := 0; y < oh; y++ {
			for x := 0; x < ow; x++ {
				var s float64
				for dy := 0; dy < size; dy++ {
					for dx := 0; dx < size; dx++ {
						s += t.At(c, y*size+dy, x*size+dx)
					}
				}
				out.Set(c, y, x, s*norm)
			}
		}
	}
	return out
}

// Flatten returns a copy of the data as a plain vector.
func (t *Tensor) Flatten() []float64 {
	return append([]float64(nil), t.Data...)
}
