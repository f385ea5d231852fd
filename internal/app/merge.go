package app

import (
	"github.com/AreTor/labaug/internal/augment"
	"github.com/AreTor/labaug/internal/config"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/experiment"
)

// registerDatasets adds the configured datasets to reg, replacing built-ins of
// the same name.
func registerDatasets(reg *dataset.Registry, model *config.Model) error {
	for _, d := range model.Datasets {
		desc := dataset.Descriptor{
			Name:       d.Name,
			Src:        d.Src,
			NumClasses: d.NumClasses,
			Stats:      dataset.ImageNetStats,
		}
		if d.Mean != nil {
			copy(desc.Stats.Mean[:], d.Mean)
			copy(desc.Stats.Std[:], d.Std)
		}
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

// experimentConfig layers the configuration sources: defaults, then the
// configuration files, then the command line.
func experimentConfig(model *config.Model, cfg *Config) experiment.Config {
	out := experiment.DefaultConfig()

	if e := model.Experiment; e != nil {
		set(&out.Dataset, e.Dataset)
		set(&out.HardLabels, e.HardLabels)
		set(&out.Device, e.Device)
		set(&out.Exp, e.Exp)
		set(&out.DataDir, e.DataDir)
		set(&out.Workers, e.Workers)
		setSlice(&out.Nets, e.Nets)
		setSlice(&out.Steps, e.Steps)
	}

	if r := model.Run; r != nil {
		run := &out.Run
		run.Seed = r.Seed
		set(&run.TrFrac, r.TrFrac)
		set(&run.Epochs, r.Epochs)
		set(&run.BatchSizeTr, r.BatchSizeTr)
		set(&run.BatchSizeFE, r.BatchSizeFE)
		set(&run.LearningRate, r.LearningRate)
		run.SoftLabels = r.SoftLabels
		setSlice(&run.Exts, r.Exts)
		setSlice(&run.TrPercs, r.TrPercs)
		setSlice(&run.Algs, r.Algs)
		if g := r.GTG; g != nil {
			set(&run.GTG.K, g.K)
			set(&run.GTG.Tolerance, g.Tolerance)
			set(&run.GTG.MaxIter, g.MaxIter)
			if g.Sigma != nil {
				run.GTG.Sigma = augment.SigmaMode(*g.Sigma)
			}
		}
	}

	set(&out.Dataset, cfg.Dataset)
	set(&out.HardLabels, cfg.HardLabels)
	set(&out.Device, cfg.Device)
	set(&out.Exp, cfg.Exp)
	set(&out.DataDir, cfg.DataDir)
	set(&out.Workers, cfg.WorkerCount)
	setSlice(&out.Nets, cfg.Nets)
	setSlice(&out.Steps, cfg.Steps)
	if cfg.Seed != nil {
		out.Run.Seed = cfg.Seed
	}
	return out
}

// notifyURL picks the monitor URL, the command line winning over files.
func notifyURL(model *config.Model, cfg *Config) string {
	var out string
	if e := model.Experiment; e != nil {
		set(&out, e.NotifyURL)
	}
	set(&out, cfg.NotifyURL)
	return out
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setSlice[T any](dst *[]T, src []T) {
	if src != nil {
		*dst = src
	}
}
