package augment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/suggest"
)

// Algorithm names.
const (
	AlgGTG        = "gtg"
	AlgSVM        = "svm"
	AlgLabelsOnly = "labels_only"
)

// Input is what an algorithm sees. Labels of unknown rows are -1: the ground
// truth of withheld samples never reaches an algorithm.
type Input struct {
	Features   [][]float64
	Labels     []int
	Known      []bool
	NumClasses int
}

// Output is an assignment over Rows, a subset of the input rows in increasing
// order. Probs[i] is the distribution assigned to Rows[i].
type Output struct {
	Rows       []int
	Probs      [][]float64
	Iterations int
	Converged  bool
}

// Algorithm infers labels for the unknown rows of an Input.
type Algorithm interface {
	Name() string
	Assign(ctx context.Context, rng *rand.Rand, in Input) (*Output, error)
}

type factory func(p GTGParams) Algorithm

var algorithms = map[string]factory{
	AlgGTG:        func(p GTGParams) Algorithm { return &gtgAlgorithm{params: p} },
	AlgSVM:        func(GTGParams) Algorithm { return svmAlgorithm{} },
	AlgLabelsOnly: func(GTGParams) Algorithm { return labelsOnly{} },
}

// AlgorithmNames returns the registered algorithm names in sorted order.
func AlgorithmNames() []string {
	names := make([]string, 0, len(algorithms))
	for n := range algorithms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ValidateAlgorithms fails on the first unknown or duplicated name.
func ValidateAlgorithms(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: no algorithms selected", ErrInvalidParams)
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := algorithms[n]; !ok {
			return fmt.Errorf("%w: %q%s", ErrUnknownAlgorithm, n, suggest.Hint(n, AlgorithmNames()))
		}
		if seen[n] {
			return fmt.Errorf("%w: algorithm %q listed twice", ErrInvalidParams, n)
		}
		seen[n] = true
	}
	return nil
}

// NewAlgorithm returns the named algorithm.
func NewAlgorithm(name string, p GTGParams) (Algorithm, error) {
	f, ok := algorithms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q%s", ErrUnknownAlgorithm, name, suggest.Hint(name, AlgorithmNames()))
	}
	return f(p), nil
}

type gtgAlgorithm struct {
	params GTGParams
}

func (a *gtgAlgorithm) Name() string { return AlgGTG }

func (a *gtgAlgorithm) Assign(ctx context.Context, _ *rand.Rand, in Input) (*Output, error) {
	logger := ctxlog.FromContext(ctx)
	g, err := BuildKNN(in.Features, a.params.K, a.params.Sigma)
	if err != nil {
		return nil, err
	}
	logger.Debug("Similarity graph built.", "nodes", g.Len(), "k", a.params.K, "sigma", a.params.Sigma)

	probs, iters, converged, err := Transduce(g, in.Labels, in.Known, in.NumClasses, a.params)
	if err != nil {
		return nil, err
	}
	if !converged {
		logger.Warn("Graph transduction hit the iteration cap; keeping the last iterate.", "max_iter", a.params.MaxIter)
	}
	return &Output{Rows: allRows(len(in.Features)), Probs: probs, Iterations: iters, Converged: converged}, nil
}

type svmAlgorithm struct{}

func (svmAlgorithm) Name() string { return AlgSVM }

func (svmAlgorithm) Assign(_ context.Context, rng *rand.Rand, in Input) (*Output, error) {
	present := presentClasses(in)
	if present == nil {
		return nil, ErrNoKnownSamples
	}
	m := fitSVM(rng, in.Features, in.Labels, in.Known, in.NumClasses)

	probs := make([][]float64, len(in.Features))
	for i, p := range in.Features {
		if in.Known[i] {
			probs[i] = oneHot(in.Labels[i], in.NumClasses)
			continue
		}
		probs[i] = softmaxMasked(m.margins(p), present)
	}
	return &Output{Rows: allRows(len(in.Features)), Probs: probs, Iterations: 1, Converged: true}, nil
}

// labelsOnly keeps only the known rows, so a classifier trained on its output
// is the supervised baseline that propagation is compared against.
type labelsOnly struct{}

func (labelsOnly) Name() string { return AlgLabelsOnly }

func (labelsOnly) Assign(_ context.Context, _ *rand.Rand, in Input) (*Output, error) {
	out := &Output{Iterations: 0, Converged: true}
	for i, k := range in.Known {
		if k {
			out.Rows = append(out.Rows, i)
			out.Probs = append(out.Probs, oneHot(in.Labels[i], in.NumClasses))
		}
	}
	if len(out.Rows) == 0 {
		return nil, ErrNoKnownSamples
	}
	return out, nil
}

func presentClasses(in Input) []bool {
	present := make([]bool, in.NumClasses)
	found := false
	for i, k := range in.Known {
		if k {
			present[in.Labels[i]] = true
			found = true
		}
	}
	if !found {
		return nil
	}
	return present
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func oneHot(label, numClasses int) []float64 {
	v := make([]float64, numClasses)
	v[label] = 1
	return v
}

// argmax returns the index of the largest entry; ties go to the lowest index.
func argmax(v []float64) int {
	best := 0
	for i, x := range v {
		if x > v[best] {
			best = i
		}
	}
	return best
}
