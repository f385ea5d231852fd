package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given files or directories and
	// translates it into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Model is the unified, format-agnostic representation of the whole
// configuration.
type Model struct {
	// Datasets extend or replace the built-in dataset descriptors.
	Datasets []*Dataset
	// Experiment is nil when no experiment block was given.
	Experiment *Experiment
	// Run is nil when no run block was given.
	Run *Run
}

// Dataset is the format-agnostic representation of a `dataset` block.
type Dataset struct {
	Name       string
	Src        string
	NumClasses int
	// Mean and Std are per-channel; nil means the ImageNet statistics.
	Mean []float64
	Std  []float64
}

// Experiment selects what to run.
type Experiment struct {
	Dataset    *string
	Nets       []string
	HardLabels *bool
	Device     *string
	Exp        *int
	Steps      []string
	DataDir    *string
	Workers    *int
	NotifyURL  *string
}

// Run holds the stage options.
type Run struct {
	Seed         *uint64
	TrFrac       *float64
	Exts         []string
	TrPercs      []float64
	Algs         []string
	Epochs       *int
	BatchSizeTr  *int
	BatchSizeFE  *int
	SoftLabels   *bool
	LearningRate *float64
	GTG          *GTG
}

// GTG holds the graph transduction options.
type GTG struct {
	K         *int
	Sigma     *string
	Tolerance *float64
	MaxIter   *int
}
