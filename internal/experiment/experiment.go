// Package experiment orchestrates the pipeline stages of one experiment. It
// validates the whole configuration up front, resolves the artifact layout,
// then runs the requested steps in order with a freshly seeded random source
// each, so any stage can be re-run alone from the artifacts of earlier ones.
package experiment

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/AreTor/labaug/internal/augment"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/device"
	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/trainer"
	"github.com/google/uuid"
)

// Env is what every stage receives.
type Env struct {
	Dataset dataset.Descriptor
	Layout  layout.Layout
	Nets    []string
	Soft    bool
	Device  device.Info
	Workers int
	Run     RunConfig
	Rng     *rand.Rand

	// Filled in by the stages that ran.
	Labels  []augment.Summary
	Results []trainer.Result
}

// Report summarises a finished run.
type Report struct {
	RunID   string
	Exp     int
	Seed    uint64
	Layout  layout.Layout
	Steps   []StageID
	Labels  []augment.Summary
	Results []trainer.Result
}

// Transition is one state change of a running experiment.
type Transition struct {
	RunID   string
	Dataset string
	Exp     int
	State   State
	// Stage is set while a stage runs and when one fails.
	Stage *StageID
	Err   error
	At    time.Time
}

// Observer is told about every state change. Calls are made synchronously
// from Run, so implementations must not block.
type Observer interface {
	Transition(ctx context.Context, t Transition)
}

// Experiment runs a configured step sequence once.
type Experiment struct {
	cfg      Config
	datasets *dataset.Registry
	observer Observer
	// state is read by observers while Run advances it.
	state atomic.Int32
}

// New returns an experiment resolving dataset names against datasets.
func New(cfg Config, datasets *dataset.Registry) *Experiment {
	return &Experiment{cfg: cfg, datasets: datasets}
}

// State returns the current state.
func (e *Experiment) State() State { return State(e.state.Load()) }

// SetObserver registers o for the next Run. It must not be called while Run
// is in progress.
func (e *Experiment) SetObserver(o Observer) { e.observer = o }

func (e *Experiment) setState(ctx context.Context, t Transition) {
	e.state.Store(int32(t.State))
	if e.observer != nil {
		t.At = time.Now()
		e.observer.Transition(ctx, t)
	}
}

// Validate checks the configuration without touching the filesystem.
func (e *Experiment) Validate() error {
	_, _, _, err := e.resolve()
	return err
}

func (e *Experiment) resolve() ([]StageID, dataset.Descriptor, device.Info, error) {
	steps, err := ParseSteps(e.cfg.Steps)
	if err != nil {
		return nil, dataset.Descriptor{}, device.Info{}, err
	}
	dset, err := e.datasets.Lookup(e.cfg.Dataset)
	if err != nil {
		return nil, dataset.Descriptor{}, device.Info{}, err
	}
	if err := e.cfg.validate(steps); err != nil {
		return nil, dataset.Descriptor{}, device.Info{}, err
	}
	dev, err := device.Resolve(e.cfg.Device)
	if err != nil {
		return nil, dataset.Descriptor{}, device.Info{}, err
	}
	return steps, dset, dev, nil
}

// Run executes the configured steps. Configuration errors are returned before
// any stage runs or any directory is created. A stage failure stops the
// sequence and is returned as a *StageError.
func (e *Experiment) Run(ctx context.Context) (*Report, error) {
	steps, dset, dev, err := e.resolve()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run_id", runID, "dataset", dset.Name)

	seed := rand.Uint64()
	if e.cfg.Run.Seed != nil {
		seed = *e.cfg.Run.Seed
	} else {
		logger.Info("No seed configured; drew one.", "seed", seed)
	}

	exp := e.cfg.Exp
	if exp == AllocateExp {
		if exp, err = layout.Allocate(e.cfg.DataDir); err != nil {
			return nil, err
		}
	} else if err := layout.Open(e.cfg.DataDir, exp); err != nil {
		return nil, err
	}

	soft, _ := e.cfg.soft()
	env := &Env{
		Dataset: dset,
		Layout: layout.Layout{
			Root:    e.cfg.DataDir,
			Exp:     exp,
			Dataset: dset.Name,
			Mode:    layout.ModeOf(e.cfg.HardLabels),
		},
		Nets:    e.cfg.Nets,
		Soft:    soft,
		Device:  dev,
		Workers: e.cfg.Workers,
		Run:     e.cfg.Run,
	}
	if env.Workers == 0 {
		env.Workers = max(dev.Threads, 1)
	}
	logger.Info("Experiment starting.",
		"exp", exp, "dir", env.Layout.DatasetDir(), "steps", steps,
		"nets", env.Nets, "mode", env.Layout.Mode, "seed", seed, "device", dev.String(), "workers", env.Workers)

	base := Transition{RunID: runID, Dataset: dset.Name, Exp: exp}
	for _, id := range steps {
		t := base
		t.State, t.Stage = runningState(id), &id
		e.setState(ctx, t)
		sctx, stageLog := ctxlog.With(ctx, "stage", id.String())
		env.Rng = rand.New(rand.NewPCG(seed, seed))
		stageLog.Info("Stage starting.", "state", e.State().String())

		if err := stageTable[id].Run(sctx, env); err != nil {
			t.State, t.Err = StateFailed, err
			e.setState(ctx, t)
			stageLog.Error("Stage failed.", "error", err)
			return nil, &StageError{Stage: id, Err: err}
		}
		stageLog.Info("Stage finished.")
	}
	done := base
	done.State = StateDone
	e.setState(ctx, done)
	logger.Info("Experiment finished.", "exp", exp)

	return &Report{
		RunID:   runID,
		Exp:     exp,
		Seed:    seed,
		Layout:  env.Layout,
		Steps:   steps,
		Labels:  env.Labels,
		Results: env.Results,
	}, nil
}
