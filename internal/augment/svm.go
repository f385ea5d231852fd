package augment

import (
	"math"
	"math/rand/v2"
)

// svmLambda is the L2 regularisation strength of the Pegasos solver.
const svmLambda = 1e-3

// svmMinSteps is the minimum number of stochastic steps per class.
const svmMinSteps = 2000

// linearSVM is a one-vs-rest linear SVM fit with Pegasos (primal
// sub-gradient descent on the hinge loss). Features are standardised with
// statistics computed over every row, known or not, and a constant 1 is
// appended so the bias is learned as an ordinary weight.
type linearSVM struct {
	mean, std []float64
	w         [][]float64
}

func fitSVM(rng *rand.Rand, points [][]float64, labels []int, known []bool, numClasses int) *linearSVM {
	m := &linearSVM{}
	m.mean, m.std = columnStats(points)

	var idx []int
	for i, k := range known {
		if k {
			idx = append(idx, i)
		}
	}
	x := make([][]float64, len(points))
	for i, p := range points {
		x[i] = m.transform(p)
	}

	steps := max(svmMinSteps, 100*len(idx))
	m.w = make([][]float64, numClasses)
	for c := range m.w {
		w := make([]float64, len(x[0]))
		for t := 1; t <= steps; t++ {
			i := idx[rng.IntN(len(idx))]
			y := -1.0
			if labels[i] == c {
				y = 1
			}
			eta := 1 / (svmLambda * float64(t))
			margin := y * dot(w, x[i])
			scale := 1 - eta*svmLambda
			for d := range w {
				w[d] *= scale
			}
			if margin < 1 {
				for d := range w {
					w[d] += eta * y * x[i][d]
				}
			}
			// Pegasos projection onto the ball of radius 1/sqrt(lambda).
			if norm := math.Sqrt(dot(w, w)); norm > 1/math.Sqrt(svmLambda) {
				f := 1 / (math.Sqrt(svmLambda) * norm)
				for d := range w {
					w[d] *= f
				}
			}
		}
		m.w[c] = w
	}
	return m
}

func (m *linearSVM) transform(p []float64) []float64 {
	out := make([]float64, len(p)+1)
	for d, v := range p {
		out[d] = (v - m.mean[d]) / m.std[d]
	}
	out[len(p)] = 1
	return out
}

// margins returns the decision value of every class for p.
func (m *linearSVM) margins(p []float64) []float64 {
	x := m.transform(p)
	out := make([]float64, len(m.w))
	for c, w := range m.w {
		out[c] = dot(w, x)
	}
	return out
}

// columnStats returns per-dimension mean and standard deviation; constant
// dimensions get a standard deviation of 1.
func columnStats(points [][]float64) (mean, std []float64) {
	d := len(points[0])
	mean = make([]float64, d)
	std = make([]float64, d)
	for _, p := range points {
		for j, v := range p {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(points))
	}
	for _, p := range points {
		for j, v := range p {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(len(points)))
		if std[j] < 1e-12 {
			std[j] = 1
		}
	}
	return mean, std
}

// softmaxMasked turns scores into a distribution restricted to allowed classes.
func softmaxMasked(scores []float64, allowed []bool) []float64 {
	out := make([]float64, len(scores))
	hi := math.Inf(-1)
	for h, s := range scores {
		if allowed[h] && s > hi {
			hi = s
		}
	}
	var z float64
	for h, s := range scores {
		if allowed[h] {
			out[h] = math.Exp(s - hi)
			z += out[h]
		}
	}
	for h := range out {
		out[h] /= z
	}
	return out
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
