// Package layout defines the on-disk artifact tree of an experiment. Every
// path is a pure function of (root, experiment number, dataset, label mode)
// plus the artifact key, so stages never concatenate paths themselves:
//
//	<root>/exp_<N>/<dataset>/splitting/{train,test}.txt
//	<root>/exp_<N>/<dataset>/feature/<split>/<net>.msgpack.zst
//	<root>/exp_<N>/<dataset>/label/<mode>/<net>/<perc>/<alg>.msgpack.zst
//	<root>/exp_<N>/<dataset>/net/<mode>/<net>/<perc>/<alg>.msgpack.zst
//	<root>/exp_<N>/<dataset>/result/<mode>/<net>/<perc>/<alg>.yaml
package layout

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Stage subdirectories below the dataset directory.
const (
	SplittingSubdir = "splitting"
	FeatureSubdir   = "feature"
	LabelSubdir     = "label"
	NetSubdir       = "net"
	ResultSubdir    = "result"
)

// Split names.
const (
	Train = "train"
	Test  = "test"
)

// Splits lists the split names in the order stages process them.
var Splits = []string{Train, Test}

// ArtifactExt is the extension of binary artifacts (msgpack inside a zstd frame).
const ArtifactExt = ".msgpack.zst"

const expPrefix = "exp_"

// Mode namespaces label, net and result artifacts.
type Mode string

const (
	Hard Mode = "hard"
	Soft Mode = "soft"
)

// ModeOf maps the hard-labels flag to a Mode.
func ModeOf(hardLabels bool) Mode {
	if hardLabels {
		return Hard
	}
	return Soft
}

// ExperimentDir returns <root>/exp_<n>.
func ExperimentDir(root string, n int) string {
	return filepath.Join(root, expPrefix+strconv.Itoa(n))
}

// FormatPerc renders a labeled fraction the same way in every path, e.g. 0.05 -> "0.05".
func FormatPerc(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Layout addresses the artifact tree of one dataset inside one experiment.
type Layout struct {
	Root    string
	Exp     int
	Dataset string
	Mode    Mode
}

// String implements fmt.Stringer.
func (l Layout) String() string {
	return fmt.Sprintf("%s[%s]", l.DatasetDir(), l.Mode)
}

// ExperimentDir returns the experiment root.
func (l Layout) ExperimentDir() string { return ExperimentDir(l.Root, l.Exp) }

// DatasetDir returns the per-dataset subtree.
func (l Layout) DatasetDir() string { return filepath.Join(l.ExperimentDir(), l.Dataset) }

// SplittingDir holds the split manifests. It is shared by both label modes.
func (l Layout) SplittingDir() string { return filepath.Join(l.DatasetDir(), SplittingSubdir) }

// ManifestPath returns the manifest of split.
func (l Layout) ManifestPath(split string) string {
	return filepath.Join(l.SplittingDir(), split+".txt")
}

// FeatureDir holds extracted features. It is shared by both label modes.
func (l Layout) FeatureDir() string { return filepath.Join(l.DatasetDir(), FeatureSubdir) }

// FeaturePath returns the feature artifact of (split, net).
func (l Layout) FeaturePath(split, net string) string {
	return filepath.Join(l.FeatureDir(), split, net+ArtifactExt)
}

// LabelDir holds label assignments for the current mode.
func (l Layout) LabelDir() string { return filepath.Join(l.DatasetDir(), LabelSubdir, string(l.Mode)) }

// LabelPath returns the label artifact of (net, perc, alg).
func (l Layout) LabelPath(net string, perc float64, alg string) string {
	return filepath.Join(l.LabelDir(), net, FormatPerc(perc), alg+ArtifactExt)
}

// NetDir holds trained classifier checkpoints for the current mode.
func (l Layout) NetDir() string { return filepath.Join(l.DatasetDir(), NetSubdir, string(l.Mode)) }

// CheckpointPath returns the checkpoint of (net, perc, alg).
func (l Layout) CheckpointPath(net string, perc float64, alg string) string {
	return filepath.Join(l.NetDir(), net, FormatPerc(perc), alg+ArtifactExt)
}

// ResultDir holds evaluation reports for the current mode.
func (l Layout) ResultDir() string {
	return filepath.Join(l.DatasetDir(), ResultSubdir, string(l.Mode))
}

// ResultPath returns the report of (net, perc, alg).
func (l Layout) ResultPath(net string, perc float64, alg string) string {
	return filepath.Join(l.ResultDir(), net, FormatPerc(perc), alg+".yaml")
}
