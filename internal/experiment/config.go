package experiment

import (
	"errors"
	"fmt"

	"github.com/AreTor/labaug/internal/augment"
	"github.com/AreTor/labaug/internal/backbone"
	"github.com/AreTor/labaug/internal/device"
	"github.com/AreTor/labaug/internal/splitter"
	"github.com/AreTor/labaug/internal/trainer"
)

// ErrInvalidConfig is returned when an experiment cannot start.
var ErrInvalidConfig = errors.New("invalid experiment configuration")

// Defaults.
const (
	DefaultDataDir     = "data"
	DefaultDataset     = "caltech"
	DefaultTrainFrac   = 0.8
	DefaultBatchSizeFE = 1
	// AllocateExp asks for the lowest unused experiment number.
	AllocateExp = -1
)

var (
	DefaultNets    = []string{"resnet18"}
	DefaultTrPercs = []float64{0.05}
	DefaultAlgs    = []string{augment.AlgGTG}
)

// RunConfig holds the per-stage keyword options shared by every stage.
type RunConfig struct {
	// Seed is drawn at random when nil.
	Seed         *uint64
	TrFrac       float64
	Exts         []string
	TrPercs      []float64
	Algs         []string
	Epochs       int
	BatchSizeTr  int
	BatchSizeFE  int
	LearningRate float64
	// SoftLabels defaults to the opposite of Config.HardLabels.
	SoftLabels *bool
	GTG        augment.GTGParams
}

// DefaultRunConfig returns the options used when nothing is configured.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		TrFrac:       DefaultTrainFrac,
		Exts:         append([]string(nil), splitter.DefaultExtensions...),
		TrPercs:      append([]float64(nil), DefaultTrPercs...),
		Algs:         append([]string(nil), DefaultAlgs...),
		Epochs:       trainer.DefaultEpochs,
		BatchSizeTr:  trainer.DefaultBatchSize,
		BatchSizeFE:  DefaultBatchSizeFE,
		LearningRate: trainer.DefaultLearningRate,
		GTG:          augment.DefaultGTGParams(),
	}
}

// Config describes one experiment.
type Config struct {
	DataDir    string
	Dataset    string
	Nets       []string
	HardLabels bool
	Device     string
	// Exp is the experiment number, or AllocateExp.
	Exp   int
	Steps []string
	// Workers bounds the concurrent feature extractors; 0 uses one per
	// hardware thread of the device.
	Workers int
	Run     RunConfig
}

// DefaultConfig returns a configuration that runs every stage on the default
// dataset.
func DefaultConfig() Config {
	return Config{
		DataDir: DefaultDataDir,
		Dataset: DefaultDataset,
		Nets:    append([]string(nil), DefaultNets...),
		Device:  device.Default,
		Exp:     AllocateExp,
		Run:     DefaultRunConfig(),
	}
}

// soft resolves the label mode the augmenter writes.
func (c Config) soft() (bool, error) {
	if c.Run.SoftLabels == nil {
		return !c.HardLabels, nil
	}
	if *c.Run.SoftLabels == c.HardLabels {
		return false, fmt.Errorf("%w: soft_labels=%t contradicts hard_labels=%t", ErrInvalidConfig, *c.Run.SoftLabels, c.HardLabels)
	}
	return *c.Run.SoftLabels, nil
}

// validate checks everything that does not depend on the dataset registry or
// the filesystem.
func (c Config) validate(steps []StageID) error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data directory is empty", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Exp < AllocateExp {
		return fmt.Errorf("%w: experiment number must be >= 0 or %d, got %d", ErrInvalidConfig, AllocateExp, c.Exp)
	}
	if len(c.Nets) == 0 {
		return fmt.Errorf("%w: no networks selected", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Nets))
	for _, n := range c.Nets {
		if err := backbone.Validate(n); err != nil {
			return err
		}
		if seen[n] {
			return fmt.Errorf("%w: network %q listed twice", ErrInvalidConfig, n)
		}
		seen[n] = true
	}
	if _, err := c.soft(); err != nil {
		return err
	}

	r := c.Run
	for _, id := range steps {
		switch id {
		case StageSplitter:
			if r.TrFrac <= 0 || r.TrFrac >= 1 {
				return fmt.Errorf("%w: tr_frac must be in (0,1), got %v", ErrInvalidConfig, r.TrFrac)
			}
		case StageExtractor:
			if r.BatchSizeFE < 1 {
				return fmt.Errorf("%w: batch_size_fe must be positive, got %d", ErrInvalidConfig, r.BatchSizeFE)
			}
		case StageAugmenter:
			req := augment.Request{TrPercs: r.TrPercs, Algs: r.Algs, GTG: r.GTG}
			if err := req.Validate(); err != nil {
				return err
			}
		case StageTrainer:
			if err := r.trainerOptions("").Validate(); err != nil {
				return err
			}
			if err := augment.ValidateAlgorithms(r.Algs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r RunConfig) trainerOptions(dev string) trainer.Options {
	return trainer.Options{
		TrPercs:      r.TrPercs,
		Algs:         r.Algs,
		Epochs:       r.Epochs,
		BatchSize:    r.BatchSizeTr,
		LearningRate: r.LearningRate,
		Device:       dev,
	}
}
