// Package extractor runs the frozen backbones over every manifest entry and
// persists one feature set per (split, network).
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/AreTor/labaug/internal/artifact"
	"github.com/AreTor/labaug/internal/backbone"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/manifest"
)

// Options configure an extraction run.
type Options struct {
	// BatchSize groups samples between progress reports. Values < 1 mean 1.
	BatchSize int
	// Workers is the number of concurrent decoders. Values < 1 mean 1.
	Workers int
}

// Extractor computes features for both splits of one dataset.
type Extractor struct {
	dset   dataset.Descriptor
	layout layout.Layout
	nets   []string
}

// New returns an extractor for the given networks.
func New(dset dataset.Descriptor, l layout.Layout, nets []string) *Extractor {
	return &Extractor{dset: dset, layout: l, nets: nets}
}

// Extract reads each split manifest and writes the feature artifacts.
func (e *Extractor) Extract(ctx context.Context, opts Options) error {
	batch := max(opts.BatchSize, 1)
	workers := max(opts.Workers, 1)

	for _, split := range layout.Splits {
		mPath := e.layout.ManifestPath(split)
		m, err := manifest.ReadFile(mPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return &artifact.MissingError{Path: mPath}
			}
			return err
		}

		for _, name := range e.nets {
			ctx, logger := ctxlog.With(ctx, "split", split, "net", name)
			net, err := backbone.New(name)
			if err != nil {
				return err
			}
			logger.Info("Extracting features.", "samples", len(m), "classes", e.dset.NumClasses, "dim", net.Width(), "workers", workers)

			set, err := e.run(ctx, net, m, batch, workers)
			if err != nil {
				return err
			}
			out := e.layout.FeaturePath(split, name)
			if err := artifact.Save(out, set); err != nil {
				return err
			}
			logger.Info("Features written.", "path", out)
		}
	}
	return nil
}

func (e *Extractor) run(ctx context.Context, net backbone.Network, m manifest.Manifest, batch, workers int) (*artifact.FeatureSet, error) {
	feats, err := e.extractAll(ctx, net, m, batch, workers)
	if err != nil {
		return nil, err
	}
	set := &artifact.FeatureSet{
		Net:      net.Name(),
		Labels:   make([]int, len(m)),
		Features: feats,
		Paths:    make([]string, len(m)),
	}
	for i, entry := range m {
		set.Labels[i] = entry.Label
		set.Paths[i] = entry.Path
	}
	return set, nil
}

// features applies the backbone followed by ReLU and, for networks that do
// not pool internally, a fixed 7x7 average pool before flattening.
func (e *Extractor) features(net backbone.Network, rel string) ([]float64, error) {
	img, err := loadImage(filepath.Join(e.dset.Src, filepath.FromSlash(rel)), e.dset.Stats)
	if err != nil {
		return nil, fmt.Errorf("failed to load sample '%s': %w", rel, err)
	}
	out := net.Forward(img).ReLU()
	if !net.Pooled() {
		out = out.AvgPool(backbone.MapSize)
	}
	return out.Flatten(), nil
}
