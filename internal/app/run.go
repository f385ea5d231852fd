package app

import (
	"context"
	"fmt"

	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/notify"
)

// Run executes the configured experiment.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if err := a.experiment.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if a.config.HealthcheckPort > 0 {
		a.healthCheckServer()
		defer func() { _ = a.closeHealthCheckServer() }()
	}

	if a.notifyURL != "" {
		n, err := notify.Dial(ctx, notify.Options{URL: a.notifyURL})
		if err != nil {
			// The monitor is optional; the experiment runs without it.
			a.logger.Warn("Monitor unavailable, state changes will not be forwarded.", "url", a.notifyURL, "error", err)
		} else {
			a.experiment.SetObserver(n)
			defer func() { _ = n.Close() }()
		}
	}

	a.logger.Info("🚀 Starting experiment...")
	rep, err := a.experiment.Run(ctx)
	if err != nil {
		return fmt.Errorf("experiment failed: %w", err)
	}

	for _, s := range rep.Labels {
		a.logger.Info("Label propagation summary.", "net", s.Net, "tr_perc", s.Perc, "alg", s.Alg,
			"known", s.Known, "inferred", s.Inferred, "accuracy", s.Accuracy)
	}
	for _, r := range rep.Results {
		a.logger.Info("Evaluation summary.", "net", r.Net, "tr_perc", r.Perc, "alg", r.Alg,
			"mode", r.Mode, "accuracy", r.Accuracy)
	}
	a.logger.Info("🏁 Experiment finished.", "exp", rep.Exp, "dir", rep.Layout.DatasetDir(), "seed", rep.Seed)

	a.logger.Debug("App.Run method finished.")
	return nil
}
