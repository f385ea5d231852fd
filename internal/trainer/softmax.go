package trainer

import (
	"math"
	"math/rand/v2"
)

// head is a linear softmax classifier over standardised features.
type head struct {
	mean, std []float64
	w         [][]float64 // [class][dim]
	b         []float64
}

func newHead(numClasses int, mean, std []float64) *head {
	h := &head{mean: mean, std: std, w: make([][]float64, numClasses), b: make([]float64, numClasses)}
	for c := range h.w {
		h.w[c] = make([]float64, len(mean))
	}
	return h
}

func (h *head) standardise(x []float64) []float64 {
	z := make([]float64, len(x))
	for j, v := range x {
		z[j] = (v - h.mean[j]) / h.std[j]
	}
	return z
}

// probs returns the class distribution for a standardised input.
func (h *head) probs(z []float64) []float64 {
	logits := make([]float64, len(h.w))
	for c, wc := range h.w {
		s := h.b[c]
		for j, v := range z {
			s += wc[j] * v
		}
		logits[c] = s
	}
	return softmax(logits)
}

// fit runs mini-batch SGD on the cross-entropy between the predicted
// distribution and each target distribution. It returns the mean loss of the
// final epoch.
func (h *head) fit(rng *rand.Rand, x [][]float64, y [][]float64, epochs, batch int, lr float64) float64 {
	n := len(x)
	z := make([][]float64, n)
	for i, row := range x {
		z[i] = h.standardise(row)
	}

	var loss float64
	gw := make([][]float64, len(h.w))
	for c := range gw {
		gw[c] = make([]float64, len(h.mean))
	}
	gb := make([]float64, len(h.b))

	for e := 0; e < epochs; e++ {
		loss = 0
		order := rng.Perm(n)
		for start := 0; start < n; start += batch {
			end := min(start+batch, n)
			for c := range gw {
				clear(gw[c])
			}
			clear(gb)

			for _, i := range order[start:end] {
				p := h.probs(z[i])
				for c := range p {
					if y[i][c] > 0 {
						loss -= y[i][c] * math.Log(max(p[c], 1e-12))
					}
					d := p[c] - y[i][c]
					gb[c] += d
					for j, v := range z[i] {
						gw[c][j] += d * v
					}
				}
			}

			step := lr / float64(end-start)
			for c := range h.w {
				h.b[c] -= step * gb[c]
				for j := range h.w[c] {
					h.w[c][j] -= step * gw[c][j]
				}
			}
		}
		loss /= float64(n)
	}
	return loss
}

func softmax(logits []float64) []float64 {
	top := math.Inf(-1)
	for _, v := range logits {
		top = max(top, v)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - top)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// standardisation computes per-dimension mean and standard deviation over
// rows; constant dimensions get a standard deviation of 1.
func standardisation(rows [][]float64) (mean, std []float64) {
	d := len(rows[0])
	mean = make([]float64, d)
	std = make([]float64, d)
	for _, r := range rows {
		for j, v := range r {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(rows))
	}
	for _, r := range rows {
		for j, v := range r {
			std[j] += (v - mean[j]) * (v - mean[j])
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(rows)))
		if std[j] < 1e-12 {
			std[j] = 1
		}
	}
	return mean, std
}

func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}
