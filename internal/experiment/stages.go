package experiment

import (
	"context"

	"github.com/AreTor/labaug/internal/augment"
	"github.com/AreTor/labaug/internal/extractor"
	"github.com/AreTor/labaug/internal/splitter"
	"github.com/AreTor/labaug/internal/trainer"
)

// Stage is one step of the pipeline. Stages communicate only through the
// artifacts under Env.Layout; Env.Rng is freshly seeded before every call.
type Stage interface {
	Run(ctx context.Context, env *Env) error
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, env *Env) error

// Run calls f.
func (f StageFunc) Run(ctx context.Context, env *Env) error { return f(ctx, env) }

var stageTable = map[StageID]Stage{
	StageSplitter:  StageFunc(runSplitter),
	StageExtractor: StageFunc(runExtractor),
	StageAugmenter: StageFunc(runAugmenter),
	StageTrainer:   StageFunc(runTrainer),
}

func runSplitter(ctx context.Context, env *Env) error {
	_, _, err := splitter.New(env.Dataset, env.Layout.SplittingDir()).Split(ctx, env.Rng, splitter.Options{
		TrainFraction: env.Run.TrFrac,
		Extensions:    env.Run.Exts,
	})
	return err
}

func runExtractor(ctx context.Context, env *Env) error {
	return extractor.New(env.Dataset, env.Layout, env.Nets).Extract(ctx, extractor.Options{
		BatchSize: env.Run.BatchSizeFE,
		Workers:   env.Workers,
	})
}

func runAugmenter(ctx context.Context, env *Env) error {
	sums, err := augment.New(env.Dataset, env.Layout, env.Nets).Augment(ctx, env.Rng, augment.Request{
		TrPercs: env.Run.TrPercs,
		Algs:    env.Run.Algs,
		Soft:    env.Soft,
		GTG:     env.Run.GTG,
	})
	env.Labels = append(env.Labels, sums...)
	return err
}

func runTrainer(ctx context.Context, env *Env) error {
	res, err := trainer.New(env.Dataset, env.Layout, env.Nets).Train(ctx, env.Rng, env.Run.trainerOptions(env.Device.Name))
	env.Results = append(env.Results, res...)
	return err
}
