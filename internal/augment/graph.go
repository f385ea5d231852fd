package augment

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// SigmaMode selects how the kernel width is estimated from the distances to
// each node's k-th nearest neighbour.
type SigmaMode string

const (
	// SigmaMedian uses one global width: the median k-th neighbour distance.
	SigmaMedian SigmaMode = "median"
	// SigmaMean uses one global width: the mean k-th neighbour distance.
	SigmaMean SigmaMode = "mean"
	// SigmaLocal gives every node its own width (self-tuning kernel):
	// w(i,j) = exp(-d(i,j)^2 / (sigma_i * sigma_j)).
	SigmaLocal SigmaMode = "local"
)

// Valid reports whether m is a known mode.
func (m SigmaMode) Valid() bool {
	switch m {
	case SigmaMedian, SigmaMean, SigmaLocal:
		return true
	}
	return false
}

// Edge is a weighted link to a neighbour.
type Edge struct {
	To     int
	Weight float64
}

// Graph is an undirected similarity graph in adjacency-list form. Adj[i] is
// sorted by neighbour index and never contains i itself.
type Graph struct {
	Adj [][]Edge
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Adj) }

// Degree returns the weighted degree of node i.
func (g *Graph) Degree(i int) float64 {
	var s float64
	for _, e := range g.Adj[i] {
		s += e.Weight
	}
	return s
}

// BuildKNN builds the symmetrised k-nearest-neighbour graph over points.
//
// Stage 1 (Neighbours): for each node, rank every other node by Euclidean
// distance; ties keep the original index order, and the first k are kept.
// Stage 2 (Width): estimate sigma from the k-th neighbour distances per mode.
// A zero width (duplicated points) falls back to the smallest positive k-th
// distance, or 1 if every point coincides.
// Stage 3 (Weights): w(i,j) = exp(-d^2 / sigma^2); an edge exists when either
// endpoint lists the other among its k nearest.
//
// k is clamped to len(points)-1. Complexity: O(n^2 (d + log n)) time, O(n k) space.
func BuildKNN(points [][]float64, k int, mode SigmaMode) (*Graph, error) {
	n := len(points)
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidParams, k)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown sigma mode %q", ErrInvalidParams, mode)
	}
	g := &Graph{Adj: make([][]Edge, n)}
	if n < 2 {
		return g, nil
	}
	k = min(k, n-1)

	type cand struct {
		j int
		d float64
	}
	neigh := make([][]cand, n)
	kth := make([]float64, n)
	cands := make([]cand, 0, n-1)
	for i := 0; i < n; i++ {
		cands = cands[:0]
		for j := 0; j < n; j++ {
			if j != i {
				cands = append(cands, cand{j: j, d: euclidean(points[i], points[j])})
			}
		}
		slices.SortStableFunc(cands, func(a, b cand) int { return cmp.Compare(a.d, b.d) })
		neigh[i] = append([]cand(nil), cands[:k]...)
		kth[i] = cands[k-1].d
	}

	sigma := estimateSigma(kth, mode)

	weights := make([]map[int]float64, n)
	for i := range weights {
		weights[i] = make(map[int]float64, k)
	}
	for i, ns := range neigh {
		for _, c := range ns {
			var w float64
			if mode == SigmaLocal {
				w = math.Exp(-c.d * c.d / (sigma[i] * sigma[c.j]))
			} else {
				w = math.Exp(-c.d * c.d / (sigma[0] * sigma[0]))
			}
			weights[i][c.j] = w
			weights[c.j][i] = w
		}
	}

	for i, ws := range weights {
		adj := make([]Edge, 0, len(ws))
		for j, w := range ws {
			adj = append(adj, Edge{To: j, Weight: w})
		}
		slices.SortFunc(adj, func(a, b Edge) int { return cmp.Compare(a.To, b.To) })
		g.Adj[i] = adj
	}
	return g, nil
}

// estimateSigma returns a single global width in [0] for median/mean, or one
// width per node for local scaling. Every returned width is > 0.
func estimateSigma(kth []float64, mode SigmaMode) []float64 {
	fallback, found := 1.0, false
	for _, d := range kth {
		if d > 0 && (!found || d < fallback) {
			fallback, found = d, true
		}
	}
	positive := func(s float64) float64 {
		if s > 0 {
			return s
		}
		return fallback
	}

	switch mode {
	case SigmaLocal:
		out := make([]float64, len(kth))
		for i, d := range kth {
			out[i] = positive(d)
		}
		return out
	case SigmaMean:
		var s float64
		for _, d := range kth {
			s += d
		}
		return []float64{positive(s / float64(len(kth)))}
	default:
		sorted := slices.Clone(kth)
		slices.Sort(sorted)
		m := len(sorted) / 2
		med := sorted[m]
		if len(sorted)%2 == 0 {
			med = (sorted[m-1] + sorted[m]) / 2
		}
		return []float64{positive(med)}
	}
}

func euclidean(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
