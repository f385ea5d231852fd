package artifact

import "fmt"

// FeatureSet holds the backbone features of one split: parallel columns with
// one row per manifest entry, in manifest order.
type FeatureSet struct {
	Net      string      `msgpack:"net"`
	Labels   []int       `msgpack:"labels"`
	Features [][]float64 `msgpack:"features"`
	Paths    []string    `msgpack:"paths"`
}

// Len returns the number of rows.
func (fs *FeatureSet) Len() int { return len(fs.Labels) }

// Dim returns the feature dimension, or 0 for an empty set.
func (fs *FeatureSet) Dim() int {
	if len(fs.Features) == 0 {
		return 0
	}
	return len(fs.Features[0])
}

// Validate checks that the columns line up and every row has the same width.
func (fs *FeatureSet) Validate() error {
	n := len(fs.Labels)
	if len(fs.Features) != n || len(fs.Paths) != n {
		return fmt.Errorf("%w: feature set %q has %d labels, %d features, %d paths",
			ErrCorrupt, fs.Net, n, len(fs.Features), len(fs.Paths))
	}
	d := fs.Dim()
	for i, row := range fs.Features {
		if len(row) != d {
			return fmt.Errorf("%w: feature set %q row %d has width %d, want %d", ErrCorrupt, fs.Net, i, len(row), d)
		}
	}
	return nil
}

// LabelSet is a label assignment over the training split for one
// (network, labeled fraction, algorithm, mode) configuration. Indices point
// into the training FeatureSet. Known rows carry their ground truth.
type LabelSet struct {
	Net        string  `msgpack:"net"`
	Alg        string  `msgpack:"alg"`
	Perc       float64 `msgpack:"perc"`
	Soft       bool    `msgpack:"soft"`
	NumClasses int     `msgpack:"num_classes"`

	Indices []int       `msgpack:"indices"`
	Paths   []string    `msgpack:"paths"`
	Known   []bool      `msgpack:"known"`
	Labels  []int       `msgpack:"labels"`
	Probs   [][]float64 `msgpack:"probs,omitempty"`

	Iterations int  `msgpack:"iterations"`
	Converged  bool `msgpack:"converged"`
}

// Len returns the number of assigned samples.
func (ls *LabelSet) Len() int { return len(ls.Indices) }

// Target returns the training target of row i: the distribution for soft
// sets and a one-hot vector otherwise.
func (ls *LabelSet) Target(i int) []float64 {
	if ls.Soft {
		return ls.Probs[i]
	}
	t := make([]float64, ls.NumClasses)
	t[ls.Labels[i]] = 1
	return t
}

// Validate checks column lengths and label ranges.
func (ls *LabelSet) Validate() error {
	n := len(ls.Indices)
	if len(ls.Paths) != n || len(ls.Known) != n || len(ls.Labels) != n {
		return fmt.Errorf("%w: label set %s/%s has mismatched columns", ErrCorrupt, ls.Net, ls.Alg)
	}
	if ls.Soft && len(ls.Probs) != n {
		return fmt.Errorf("%w: soft label set %s/%s has %d distributions for %d rows", ErrCorrupt, ls.Net, ls.Alg, len(ls.Probs), n)
	}
	for i, l := range ls.Labels {
		if l < 0 || l >= ls.NumClasses {
			return fmt.Errorf("%w: label set %s/%s row %d has label %d outside [0,%d)", ErrCorrupt, ls.Net, ls.Alg, i, l, ls.NumClasses)
		}
		if ls.Soft && len(ls.Probs[i]) != ls.NumClasses {
			return fmt.Errorf("%w: label set %s/%s row %d has %d probabilities", ErrCorrupt, ls.Net, ls.Alg, i, len(ls.Probs[i]))
		}
	}
	return nil
}

// Checkpoint is a trained linear classifier head with the feature
// standardisation it was trained under.
type Checkpoint struct {
	Net        string      `msgpack:"net"`
	Alg        string      `msgpack:"alg"`
	Perc       float64     `msgpack:"perc"`
	Mode       string      `msgpack:"mode"`
	NumClasses int         `msgpack:"num_classes"`
	Mean       []float64   `msgpack:"mean"`
	Std        []float64   `msgpack:"std"`
	Weights    [][]float64 `msgpack:"weights"`
	Bias       []float64   `msgpack:"bias"`
	Epochs     int         `msgpack:"epochs"`
}
