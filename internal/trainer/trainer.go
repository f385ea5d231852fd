// Package trainer fits a classifier head on the training features under each
// label assignment and evaluates it on the test split.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/AreTor/labaug/internal/artifact"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/layout"
)

// ErrInvalidOptions reports unusable training options.
var ErrInvalidOptions = errors.New("invalid training options")

// Defaults.
const (
	DefaultEpochs       = 10
	DefaultBatchSize    = 64
	DefaultLearningRate = 0.1
)

// Options select the configurations to train and the optimiser settings.
type Options struct {
	TrPercs      []float64
	Algs         []string
	Epochs       int
	BatchSize    int
	LearningRate float64
	// Device is recorded in results.
	Device string
}

// Validate checks o before any work is done.
func (o Options) Validate() error {
	switch {
	case len(o.TrPercs) == 0:
		return fmt.Errorf("%w: no labeled fractions selected", ErrInvalidOptions)
	case len(o.Algs) == 0:
		return fmt.Errorf("%w: no algorithms selected", ErrInvalidOptions)
	case o.Epochs < 1:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidOptions, o.Epochs)
	case o.BatchSize < 1:
		return fmt.Errorf("%w: batch_size_tr must be positive, got %d", ErrInvalidOptions, o.BatchSize)
	case o.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be positive, got %v", ErrInvalidOptions, o.LearningRate)
	}
	seen := make(map[string]bool, len(o.TrPercs))
	for _, p := range o.TrPercs {
		key := layout.FormatPerc(p)
		if seen[key] {
			return fmt.Errorf("%w: labeled fraction %s listed twice", ErrInvalidOptions, key)
		}
		seen[key] = true
	}
	return nil
}

// Trainer trains one head per (network, labeled fraction, algorithm).
type Trainer struct {
	dset   dataset.Descriptor
	layout layout.Layout
	nets   []string
}

// New returns a trainer over the given networks.
func New(dset dataset.Descriptor, l layout.Layout, nets []string) *Trainer {
	return &Trainer{dset: dset, layout: l, nets: nets}
}

// Train reads the label artifacts of the layout's mode, trains, evaluates and
// writes a checkpoint plus a result report per configuration.
func (t *Trainer) Train(ctx context.Context, rng *rand.Rand, opts Options) ([]Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var out []Result
	for _, net := range t.nets {
		train, err := t.loadFeatures(layout.Train, net)
		if err != nil {
			return nil, err
		}
		test, err := t.loadFeatures(layout.Test, net)
		if err != nil {
			return nil, err
		}
		if train.Dim() != test.Dim() {
			return nil, fmt.Errorf("%w: %s train features have width %d, test %d", artifact.ErrCorrupt, net, train.Dim(), test.Dim())
		}

		for _, perc := range opts.TrPercs {
			for _, alg := range opts.Algs {
				ctx, logger := ctxlog.With(ctx, "net", net, "tr_perc", perc, "alg", alg)
				res, err := t.trainOne(ctx, rng, train, test, net, perc, alg, opts)
				if err != nil {
					return nil, err
				}
				logger.Info("Classifier trained.",
					"accuracy", res.Accuracy, "train_samples", res.TrainSamples,
					"test_samples", res.TestSamples, "loss", res.FinalLoss)
				out = append(out, res)
			}
		}
	}
	return out, nil
}

func (t *Trainer) trainOne(ctx context.Context, rng *rand.Rand, train, test *artifact.FeatureSet, net string, perc float64, alg string, opts Options) (Result, error) {
	var ls artifact.LabelSet
	if err := artifact.Load(t.layout.LabelPath(net, perc, alg), &ls); err != nil {
		return Result{}, err
	}
	if err := ls.Validate(); err != nil {
		return Result{}, err
	}
	if ls.NumClasses != t.dset.NumClasses {
		return Result{}, fmt.Errorf("%w: label set %s/%s has %d classes, dataset %q has %d",
			artifact.ErrCorrupt, net, alg, ls.NumClasses, t.dset.Name, t.dset.NumClasses)
	}
	if ls.Len() == 0 {
		return Result{}, fmt.Errorf("%w: label set %s/%s is empty", artifact.ErrCorrupt, net, alg)
	}

	x := make([][]float64, ls.Len())
	y := make([][]float64, ls.Len())
	for i, row := range ls.Indices {
		if row < 0 || row >= train.Len() {
			return Result{}, fmt.Errorf("%w: label set %s/%s points at row %d of %d", artifact.ErrCorrupt, net, alg, row, train.Len())
		}
		x[i] = train.Features[row]
		y[i] = ls.Target(i)
	}

	mean, std := standardisation(x)
	h := newHead(ls.NumClasses, mean, std)
	ctxlog.FromContext(ctx).Debug("Training classifier head.", "samples", len(x), "dim", len(mean), "epochs", opts.Epochs)
	loss := h.fit(rng, x, y, opts.Epochs, opts.BatchSize, opts.LearningRate)

	correct := 0
	for i, f := range test.Features {
		if argmax(h.probs(h.standardise(f))) == test.Labels[i] {
			correct++
		}
	}

	mode := string(t.layout.Mode)
	cp := &artifact.Checkpoint{
		Net: net, Alg: alg, Perc: perc, Mode: mode,
		NumClasses: ls.NumClasses,
		Mean:       h.mean, Std: h.std,
		Weights: h.w, Bias: h.b,
		Epochs: opts.Epochs,
	}
	cpPath := t.layout.CheckpointPath(net, perc, alg)
	if err := artifact.Save(cpPath, cp); err != nil {
		return Result{}, err
	}

	res := Result{
		Net: net, Perc: perc, Alg: alg, Mode: mode,
		TrainSamples: len(x),
		TestSamples:  test.Len(),
		Epochs:       opts.Epochs,
		FinalLoss:    loss,
		Device:       opts.Device,
		Checkpoint:   cpPath,
	}
	if test.Len() > 0 {
		res.Accuracy = float64(correct) / float64(test.Len())
	}
	if err := WriteResult(t.layout.ResultPath(net, perc, alg), res); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (t *Trainer) loadFeatures(split, net string) (*artifact.FeatureSet, error) {
	var fs artifact.FeatureSet
	if err := artifact.Load(t.layout.FeaturePath(split, net), &fs); err != nil {
		return nil, err
	}
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Predict returns the class distribution a checkpoint assigns to a raw
// feature vector.
func Predict(cp *artifact.Checkpoint, features []float64) ([]float64, error) {
	if len(features) != len(cp.Mean) {
		return nil, fmt.Errorf("%w: checkpoint expects %d features, got %d", artifact.ErrCorrupt, len(cp.Mean), len(features))
	}
	h := &head{mean: cp.Mean, std: cp.Std, w: cp.Weights, b: cp.Bias}
	return h.probs(h.standardise(features)), nil
}
