package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AreTor/labaug/internal/config"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/fsutil"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	environ func() []string
}

// NewLoader creates a new HCL configuration loader whose expressions see the
// process environment.
func NewLoader() *Loader {
	return &Loader{environ: processEnv}
}

// NewLoaderWithEnv creates a loader whose `env` variable is built from the
// given KEY=VALUE pairs instead of the process environment.
func NewLoaderWithEnv(environ []string) *Loader {
	return &Loader{environ: func() []string { return environ }}
}

// Load parses every .hcl file under the given paths and merges them into one
// model. A dataset name may be declared once; the experiment and run blocks
// may each appear at most once across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext(l.environ())
	model := &config.Model{}
	datasetSeen := make(map[string]string)
	var experimentFile, runFile string

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, d := range root.Datasets {
			if prev, ok := datasetSeen[d.Name]; ok {
				return nil, fmt.Errorf("dataset %q in %s is already declared in %s", d.Name, file, prev)
			}
			datasetSeen[d.Name] = file
			ds, err := translateDataset(d)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			model.Datasets = append(model.Datasets, ds)
		}
		for _, e := range root.Experiments {
			if experimentFile != "" {
				return nil, fmt.Errorf("experiment block in %s is already declared in %s", file, experimentFile)
			}
			experimentFile = file
			model.Experiment = translateExperiment(e)
		}
		for _, r := range root.Runs {
			if runFile != "" {
				return nil, fmt.Errorf("run block in %s is already declared in %s", file, runFile)
			}
			runFile = file
			model.Run = translateRun(r)
		}
	}

	logger.Debug("HCL loading complete.", "datasets", len(model.Datasets),
		"experiment", model.Experiment != nil, "run", model.Run != nil)
	return model, nil
}

// findAllHCLFiles expands directories into the .hcl files below them. Paths
// that do not exist are skipped.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}
	return all, nil
}
