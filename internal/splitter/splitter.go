// Package splitter partitions a dataset into class-stratified train and test
// manifests.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"path/filepath"
	"sort"

	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/fsutil"
	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/manifest"
)

var (
	// ErrTooFewSamples is returned when a class cannot contribute to both splits.
	ErrTooFewSamples = errors.New("splitter: too few samples")
	// ErrClassCount is returned when the class directories disagree with the descriptor.
	ErrClassCount = errors.New("splitter: class count mismatch")
)

// DefaultExtensions are accepted when the run configuration names none.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png"}

// Options configure one split.
type Options struct {
	TrainFraction float64
	Extensions    []string
}

// Splitter writes train.txt and test.txt for one dataset.
type Splitter struct {
	dset dataset.Descriptor
	dir  string
}

// New returns a splitter that writes its manifests to dir.
func New(dset dataset.Descriptor, dir string) *Splitter {
	return &Splitter{dset: dset, dir: dir}
}

// Split scans the dataset source and writes the two manifests. The same rng
// state always produces the same manifests.
func (s *Splitter) Split(ctx context.Context, rng *rand.Rand, opts Options) (train, test manifest.Manifest, err error) {
	logger := ctxlog.FromContext(ctx)
	if opts.TrainFraction <= 0 || opts.TrainFraction >= 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0,1), got %v", opts.TrainFraction)
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	classes, err := fsutil.ListSubdirs(s.dset.Src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list classes of dataset '%s': %w", s.dset.Name, err)
	}
	if len(classes) != s.dset.NumClasses {
		return nil, nil, fmt.Errorf("%w: dataset '%s' declares %d classes, found %d under %s",
			ErrClassCount, s.dset.Name, s.dset.NumClasses, len(classes), s.dset.Src)
	}
	logger.Debug("Discovered classes.", "count", len(classes))

	for label, class := range classes {
		files, err := fsutil.FindFilesByExtension(filepath.Join(s.dset.Src, class), exts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list samples of class '%s': %w", class, err)
		}
		nTrain := int(math.Round(opts.TrainFraction * float64(len(files))))
		if nTrain == 0 || nTrain == len(files) {
			return nil, nil, fmt.Errorf("%w: class '%s' has %d samples, cannot split with fraction %v",
				ErrTooFewSamples, class, len(files), opts.TrainFraction)
		}

		rng.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
		trFiles, teFiles := files[:nTrain], files[nTrain:]
		sort.Strings(trFiles)
		sort.Strings(teFiles)

		for _, f := range trFiles {
			train = append(train, manifest.Entry{Path: s.rel(f), Label: label})
		}
		for _, f := range teFiles {
			test = append(test, manifest.Entry{Path: s.rel(f), Label: label})
		}
		logger.Debug("Split class.", "class", class, "label", label, "train", len(trFiles), "test", len(teFiles))
	}

	if err := manifest.WriteFile(filepath.Join(s.dir, layout.Train+".txt"), train); err != nil {
		return nil, nil, err
	}
	if err := manifest.WriteFile(filepath.Join(s.dir, layout.Test+".txt"), test); err != nil {
		return nil, nil, err
	}
	logger.Info("Split written.", "dir", s.dir, "train", len(train), "test", len(test))
	return train, test, nil
}

func (s *Splitter) rel(path string) string {
	r, err := filepath.Rel(s.dset.Src, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(r)
}
