// Package augment propagates labels from a small known subset of the
// training split to the rest of it. The main algorithm is graph transduction:
// samples are players in a non-cooperative game on a k-nearest-neighbour
// similarity graph, classes are pure strategies, and replicator dynamics drive
// the unknown players towards the classes their neighbours favour. A linear
// SVM and a known-labels-only baseline share the same interface.
package augment

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"math/rand/v2"

	"github.com/AreTor/labaug/internal/artifact"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/manifest"
)

// Request selects the configurations to produce.
type Request struct {
	TrPercs []float64
	Algs    []string
	Soft    bool
	GTG     GTGParams
}

// Validate checks the request before any work is done.
func (r Request) Validate() error {
	if len(r.TrPercs) == 0 {
		return fmt.Errorf("%w: no labeled fractions selected", ErrInvalidParams)
	}
	seen := make(map[string]bool, len(r.TrPercs))
	for _, p := range r.TrPercs {
		if p <= 0 || p >= 1 {
			return fmt.Errorf("%w: labeled fraction must be in (0,1), got %v", ErrInvalidParams, p)
		}
		// Fractions that format alike share a label path.
		key := layout.FormatPerc(p)
		if seen[key] {
			return fmt.Errorf("%w: labeled fraction %s listed twice", ErrInvalidParams, key)
		}
		seen[key] = true
	}
	if err := ValidateAlgorithms(r.Algs); err != nil {
		return err
	}
	return r.GTG.Validate()
}

// Summary reports one produced label artifact.
type Summary struct {
	Net        string
	Perc       float64
	Alg        string
	Path       string
	Known      int
	Inferred   int
	Iterations int
	Converged  bool
	// Accuracy of the inferred labels against the withheld ground truth.
	// It is reported only; the ground truth never feeds the algorithms.
	Accuracy float64
}

// Augmenter produces label artifacts for one dataset.
type Augmenter struct {
	dset   dataset.Descriptor
	layout layout.Layout
	nets   []string
}

// New returns an augmenter over the given networks' training features.
func New(dset dataset.Descriptor, l layout.Layout, nets []string) *Augmenter {
	return &Augmenter{dset: dset, layout: l, nets: nets}
}

// Augment writes one label artifact per (network, labeled fraction,
// algorithm). The known subset of a fraction is drawn once and shared by every
// network and algorithm, so their results are comparable. Every fraction and
// every (network, fraction, algorithm) draws from its own stream derived from
// rng, so its output does not depend on what else the request lists.
func (a *Augmenter) Augment(ctx context.Context, rng *rand.Rand, req Request) ([]Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mPath := a.layout.ManifestPath(layout.Train)
	m, err := manifest.ReadFile(mPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &artifact.MissingError{Path: mPath}
		}
		return nil, err
	}
	truth := m.Labels()

	seed := rng.Uint64()
	knownByPerc := make([][]bool, len(req.TrPercs))
	for i, p := range req.TrPercs {
		knownByPerc[i], err = SelectKnown(subRand(seed, "known", layout.FormatPerc(p)), truth, a.dset.NumClasses, p)
		if err != nil {
			return nil, err
		}
	}

	var out []Summary
	for _, net := range a.nets {
		feats, err := a.loadFeatures(net, m)
		if err != nil {
			return nil, err
		}
		for pi, perc := range req.TrPercs {
			known := knownByPerc[pi]
			masked := maskLabels(truth, known)
			for _, name := range req.Algs {
				ctx, logger := ctxlog.With(ctx, "net", net, "tr_perc", perc, "alg", name)
				alg, err := NewAlgorithm(name, req.GTG)
				if err != nil {
					return nil, err
				}
				algRng := subRand(seed, "assign", net, layout.FormatPerc(perc), name)
				res, err := alg.Assign(ctx, algRng, Input{
					Features:   feats.Features,
					Labels:     masked,
					Known:      known,
					NumClasses: a.dset.NumClasses,
				})
				if err != nil {
					return nil, fmt.Errorf("algorithm %s on %s at %v: %w", name, net, perc, err)
				}

				set, sum := a.labelSet(feats, truth, known, res, req.Soft)
				set.Net, set.Alg, set.Perc = net, name, perc
				sum.Net, sum.Alg, sum.Perc = net, name, perc
				sum.Path = a.layout.LabelPath(net, perc, name)
				if err := artifact.Save(sum.Path, set); err != nil {
					return nil, err
				}
				logger.Info("Labels propagated.",
					"known", sum.Known, "inferred", sum.Inferred,
					"iterations", sum.Iterations, "converged", sum.Converged,
					"accuracy", sum.Accuracy, "path", sum.Path)
				out = append(out, sum)
			}
		}
	}
	return out, nil
}

func (a *Augmenter) loadFeatures(net string, m manifest.Manifest) (*artifact.FeatureSet, error) {
	var feats artifact.FeatureSet
	if err := artifact.Load(a.layout.FeaturePath(layout.Train, net), &feats); err != nil {
		return nil, err
	}
	if err := feats.Validate(); err != nil {
		return nil, err
	}
	if feats.Len() != len(m) {
		return nil, fmt.Errorf("%w: %s train features have %d rows, manifest has %d", ErrDimension, net, feats.Len(), len(m))
	}
	for i, e := range m {
		if feats.Labels[i] != e.Label {
			return nil, fmt.Errorf("%w: %s train features row %d has label %d, manifest says %d", ErrDimension, net, i, feats.Labels[i], e.Label)
		}
	}
	return &feats, nil
}

// labelSet turns an algorithm output into the persisted assignment. Known rows
// are written from the ground truth regardless of what the algorithm returned.
func (a *Augmenter) labelSet(feats *artifact.FeatureSet, truth []int, known []bool, res *Output, soft bool) (*artifact.LabelSet, Summary) {
	n := len(res.Rows)
	set := &artifact.LabelSet{
		Soft:       soft,
		NumClasses: a.dset.NumClasses,
		Indices:    make([]int, 0, n),
		Paths:      make([]string, 0, n),
		Known:      make([]bool, 0, n),
		Labels:     make([]int, 0, n),
		Iterations: res.Iterations,
		Converged:  res.Converged,
	}
	if soft {
		set.Probs = make([][]float64, 0, n)
	}
	sum := Summary{Iterations: res.Iterations, Converged: res.Converged}

	correct := 0
	for r, row := range res.Rows {
		probs, label := res.Probs[r], argmax(res.Probs[r])
		if known[row] {
			probs, label = oneHot(truth[row], a.dset.NumClasses), truth[row]
			sum.Known++
		} else {
			sum.Inferred++
			if label == truth[row] {
				correct++
			}
		}
		set.Indices = append(set.Indices, row)
		set.Paths = append(set.Paths, feats.Paths[row])
		set.Known = append(set.Known, known[row])
		set.Labels = append(set.Labels, label)
		if soft {
			set.Probs = append(set.Probs, probs)
		}
	}
	if sum.Inferred > 0 {
		sum.Accuracy = float64(correct) / float64(sum.Inferred)
	}
	return set, sum
}

// subRand returns a source keyed by seed and the given configuration names.
func subRand(seed uint64, key ...string) *rand.Rand {
	h := fnv.New64a()
	for _, k := range key {
		h.Write([]byte(k))
		h.Write([]byte{0})
	}
	return rand.New(rand.NewPCG(seed, h.Sum64()))
}

func maskLabels(truth []int, known []bool) []int {
	masked := make([]int, len(truth))
	for i, l := range truth {
		if known[i] {
			masked[i] = l
		} else {
			masked[i] = -1
		}
	}
	return masked
}
