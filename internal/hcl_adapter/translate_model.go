// This file translates the HCL schema structs into the format-agnostic
// configuration model defined in the config package.

package hcl_adapter

import (
	"fmt"

	"github.com/AreTor/labaug/internal/config"
)

func translateDataset(d *datasetBlock) (*config.Dataset, error) {
	for name, v := range map[string][]float64{"mean": d.Mean, "std": d.Std} {
		if v != nil && len(v) != 3 {
			return nil, fmt.Errorf("dataset %q: %s must have 3 channel values, got %d", d.Name, name, len(v))
		}
	}
	if (d.Mean == nil) != (d.Std == nil) {
		return nil, fmt.Errorf("dataset %q: mean and std must be given together", d.Name)
	}
	return &config.Dataset{
		Name:       d.Name,
		Src:        d.Src,
		NumClasses: d.NumClasses,
		Mean:       d.Mean,
		Std:        d.Std,
	}, nil
}

func translateExperiment(e *experimentBlock) *config.Experiment {
	return &config.Experiment{
		Dataset:    e.Dataset,
		Nets:       e.Nets,
		HardLabels: e.HardLabels,
		Device:     e.Device,
		Exp:        e.Exp,
		Steps:      e.Steps,
		DataDir:    e.DataDir,
		Workers:    e.Workers,
		NotifyURL:  e.NotifyURL,
	}
}

func translateRun(r *runBlock) *config.Run {
	out := &config.Run{
		Seed:         r.Seed,
		TrFrac:       r.TrFrac,
		Exts:         r.Exts,
		TrPercs:      r.TrPercs,
		Algs:         r.Algs,
		Epochs:       r.Epochs,
		BatchSizeTr:  r.BatchSizeTr,
		BatchSizeFE:  r.BatchSizeFE,
		SoftLabels:   r.SoftLabels,
		LearningRate: r.LearningRate,
	}
	if r.GTG != nil {
		out.GTG = &config.GTG{
			K:         r.GTG.K,
			Sigma:     r.GTG.Sigma,
			Tolerance: r.GTG.Tolerance,
			MaxIter:   r.GTG.MaxIter,
		}
	}
	return out
}
