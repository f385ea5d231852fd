package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AreTor/labaug/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Only flags present on the command line override the configuration files.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("labaug", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
labaug - Semi-supervised image classification by label propagation.

Usage:
  labaug [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the configuration file or directory (shorthand).")
	dataDirFlag := flagSet.String("data-dir", "", "Root directory for experiment artifacts.")
	datasetFlag := flagSet.String("dataset", "", "Dataset name, e.g. 'caltech' or 'indoors'.")
	netsFlag := flagSet.String("nets", "", "Comma-separated backbone networks, e.g. 'resnet18,densenet121'.")
	hardLabelsFlag := flagSet.Bool("hard-labels", false, "Propagate and train on hard labels instead of distributions.")
	deviceFlag := flagSet.String("device", "", "Compute device. Only 'cpu' is supported.")
	expFlag := flagSet.Int("exp", -1, "Experiment number to reuse; -1 allocates a new one.")
	stepsFlag := flagSet.String("steps", "", "Comma-separated steps: splitter, extractor, augmenter, trainer.")
	seedFlag := flagSet.Uint64("seed", 0, "Random seed; drawn at random when not given.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent feature extraction workers. 0 uses one per CPU thread.")
	notifyFlag := flagSet.String("notify-url", "", "socket.io monitor URL that receives experiment state changes.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	given := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) { given[f.Name] = true })

	var paths []string
	switch {
	case *configFlag != "":
		paths = append(paths, *configFlag)
	case *cFlag != "":
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Config paths determined.", "paths", paths)

	if len(paths) == 0 && !given["dataset"] {
		slog.Debug("Neither a config path nor a dataset given, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := app.Config{
		ConfigPaths:     paths,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	}
	if given["data-dir"] {
		cfg.DataDir = dataDirFlag
	}
	if given["dataset"] {
		cfg.Dataset = datasetFlag
	}
	if given["nets"] {
		cfg.Nets = splitList(*netsFlag)
	}
	if given["hard-labels"] {
		cfg.HardLabels = hardLabelsFlag
	}
	if given["device"] {
		cfg.Device = deviceFlag
	}
	if given["exp"] {
		cfg.Exp = expFlag
	}
	if given["steps"] {
		cfg.Steps = splitList(*stepsFlag)
	}
	if given["notify-url"] {
		cfg.NotifyURL = notifyFlag
	}
	if given["workers"] {
		cfg.WorkerCount = workersFlag
	}
	if given["seed"] {
		cfg.Seed = seedFlag
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// splitList splits a comma-separated flag value, dropping empty items. It
// never returns nil, so an explicitly empty flag still overrides.
func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
