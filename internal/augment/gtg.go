package augment

import (
	"fmt"
	"math"
)

// GTGParams are the tunable constants of graph transduction. None of them has
// a single correct value; the defaults are a reasonable starting point for
// backbone features of a few hundred to a few thousand dimensions.
type GTGParams struct {
	// K is the neighbourhood size of the similarity graph.
	K int
	// Sigma selects the kernel width estimate.
	Sigma SigmaMode
	// Tolerance stops the dynamics once the largest per-sample L1 change of
	// an unknown strategy falls below it.
	Tolerance float64
	// MaxIter caps the number of replicator steps. Hitting the cap is not
	// an error; the last iterate is returned.
	MaxIter int
}

// DefaultGTGParams returns the defaults used when the run configuration omits them.
func DefaultGTGParams() GTGParams {
	return GTGParams{K: 10, Sigma: SigmaMedian, Tolerance: 1e-6, MaxIter: 100}
}

// Validate checks the parameters.
func (p GTGParams) Validate() error {
	if p.K < 1 {
		return fmt.Errorf("%w: gtg k must be >= 1, got %d", ErrInvalidParams, p.K)
	}
	if !p.Sigma.Valid() {
		return fmt.Errorf("%w: gtg sigma must be one of median, mean, local; got %q", ErrInvalidParams, p.Sigma)
	}
	if p.Tolerance <= 0 {
		return fmt.Errorf("%w: gtg tolerance must be > 0, got %v", ErrInvalidParams, p.Tolerance)
	}
	if p.MaxIter < 1 {
		return fmt.Errorf("%w: gtg max_iter must be >= 1, got %d", ErrInvalidParams, p.MaxIter)
	}
	return nil
}

// strategies is a row-major n x c matrix of mixed strategies, one
// probability vector over classes per player (sample).
type strategies struct {
	n, c int
	data []float64
}

func newStrategies(n, c int) *strategies {
	return &strategies{n: n, c: c, data: make([]float64, n*c)}
}

func (s *strategies) row(i int) []float64 { return s.data[i*s.c : (i+1)*s.c] }

// Transduce runs graph transduction over g.
//
// Known players start on a pure strategy (their label) and never move.
// Unknown players start uniform over the classes that have at least one known
// player; classes with no known player get zero mass, and replicator dynamics
// keep zero entries at zero, so they stay empty throughout.
//
// Each step is a synchronous discrete replicator update with identity payoff:
//
//	q_i(h)   = sum_j w_ij * x_j(h)
//	x_i(h)' = x_i(h) * q_i(h) / sum_k x_i(k) * q_i(k)
//
// A player whose expected payoff is zero (no neighbours, or neighbours with no
// mass on its support) keeps its current strategy.
//
// Complexity: O(iter * |E| * c) time, O(n * c) space.
func Transduce(g *Graph, labels []int, known []bool, numClasses int, p GTGParams) (probs [][]float64, iters int, converged bool, err error) {
	n := g.Len()
	if len(labels) != n || len(known) != n {
		return nil, 0, false, fmt.Errorf("%w: graph has %d nodes, got %d labels and %d known flags", ErrDimension, n, len(labels), len(known))
	}

	present := make([]bool, numClasses)
	nPresent := 0
	for i, k := range known {
		if !k {
			continue
		}
		if labels[i] < 0 || labels[i] >= numClasses {
			return nil, 0, false, fmt.Errorf("%w: known label %d outside [0,%d)", ErrDimension, labels[i], numClasses)
		}
		if !present[labels[i]] {
			present[labels[i]] = true
			nPresent++
		}
	}
	if nPresent == 0 {
		return nil, 0, false, ErrNoKnownSamples
	}

	x := newStrategies(n, numClasses)
	for i := 0; i < n; i++ {
		row := x.row(i)
		if known[i] {
			row[labels[i]] = 1
			continue
		}
		for h := range row {
			if present[h] {
				row[h] = 1 / float64(nPresent)
			}
		}
	}

	next := newStrategies(n, numClasses)
	copy(next.data, x.data)
	q := make([]float64, numClasses)

	for iters < p.MaxIter {
		iters++
		var maxDelta float64
		for i := 0; i < n; i++ {
			if known[i] {
				continue
			}
			for h := range q {
				q[h] = 0
			}
			for _, e := range g.Adj[i] {
				xj := x.row(e.To)
				for h := range q {
					q[h] += e.Weight * xj[h]
				}
			}

			cur, upd := x.row(i), next.row(i)
			var den float64
			for h := range q {
				den += cur[h] * q[h]
			}
			if den <= 0 || math.IsNaN(den) {
				copy(upd, cur)
				continue
			}
			var delta float64
			for h := range q {
				upd[h] = cur[h] * q[h] / den
				delta += math.Abs(upd[h] - cur[h])
			}
			maxDelta = max(maxDelta, delta)
		}
		x, next = next, x
		if maxDelta < p.Tolerance {
			converged = true
			break
		}
	}

	probs = make([][]float64, n)
	for i := range probs {
		probs[i] = append([]float64(nil), x.row(i)...)
	}
	return probs, iters, converged, nil
}
