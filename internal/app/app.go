package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/AreTor/labaug/internal/config"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/experiment"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	datasets   *dataset.Registry
	expConfig  experiment.Config
	experiment *experiment.Experiment
	notifyURL  string
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and dataset registry.
// Configuration that cannot be loaded is a fatal startup error and panics.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := dataset.NewRegistry()
	if err := registerDatasets(reg, model); err != nil {
		panic(fmt.Errorf("failed to register datasets: %w", err))
	}
	logger.Debug("Datasets registered.", "names", reg.Names())

	expCfg := experimentConfig(model, appConfig)
	logger.Debug("Experiment configured.", "dataset", expCfg.Dataset, "nets", expCfg.Nets,
		"steps", expCfg.Steps, "exp", expCfg.Exp, "data_dir", expCfg.DataDir)

	return &App{
		ctx:        ctx,
		outW:       outW,
		logger:     logger,
		config:     appConfig,
		datasets:   reg,
		expConfig:  expCfg,
		experiment: experiment.New(expCfg, reg),
		notifyURL:  notifyURL(model, appConfig),
	}
}

// ExperimentConfig returns the merged experiment configuration. This is
// primarily for testing.
func (a *App) ExperimentConfig() experiment.Config {
	return a.expConfig
}

// NotifyURL returns the merged monitor URL; empty disables notifications.
func (a *App) NotifyURL() string {
	return a.notifyURL
}

// Datasets returns the application's dataset registry.
func (a *App) Datasets() *dataset.Registry {
	return a.datasets
}
