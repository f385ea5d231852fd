// Package dataset holds the static registry of dataset descriptors: where the
// images live, how many classes they have and how to normalise them.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AreTor/labaug/internal/suggest"
)

var (
	// ErrUnknownDataset is returned when a dataset name is not registered.
	ErrUnknownDataset = errors.New("dataset: unknown dataset")
	// ErrInvalidDescriptor is returned when a descriptor fails validation.
	ErrInvalidDescriptor = errors.New("dataset: invalid descriptor")
)

// Stats are per-channel (R, G, B) normalisation statistics.
type Stats struct {
	Mean [3]float64
	Std  [3]float64
}

// ImageNetStats are the statistics the pretrained backbones expect.
var ImageNetStats = Stats{
	Mean: [3]float64{0.485, 0.456, 0.406},
	Std:  [3]float64{0.229, 0.224, 0.225},
}

// Descriptor describes one image dataset laid out as one subdirectory per class.
type Descriptor struct {
	Name       string
	Src        string
	NumClasses int
	Stats      Stats
}

// Validate checks that the descriptor is usable.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidDescriptor)
	}
	// The name becomes a directory under exp_N.
	if d.Name == "." || d.Name == ".." || strings.ContainsAny(d.Name, `/\`) {
		return fmt.Errorf("%w: name %q must be a single path element", ErrInvalidDescriptor, d.Name)
	}
	if d.Src == "" {
		return fmt.Errorf("%w: dataset %q has no src", ErrInvalidDescriptor, d.Name)
	}
	if d.NumClasses < 2 {
		return fmt.Errorf("%w: dataset %q needs at least 2 classes, got %d", ErrInvalidDescriptor, d.Name, d.NumClasses)
	}
	for c, s := range d.Stats.Std {
		if s <= 0 {
			return fmt.Errorf("%w: dataset %q has non-positive std for channel %d", ErrInvalidDescriptor, d.Name, c)
		}
	}
	return nil
}

// Registry maps dataset names to descriptors. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry returns a registry pre-populated with the built-in datasets.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Descriptor)}
	for _, d := range builtins {
		r.byName[d.Name] = d
	}
	return r
}

// Register adds d, replacing any descriptor with the same name.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	r.byName[d.Name] = d
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q%s", ErrUnknownDataset, name, suggest.Hint(name, r.Names()))
	}
	return d, nil
}

// Names returns the registered dataset names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var builtins = []Descriptor{
	{Name: "caltech", Src: "datasets/caltech/256_ObjectCategories", NumClasses: 256, Stats: ImageNetStats},
	{Name: "indoors", Src: "datasets/indoors/Images", NumClasses: 67, Stats: ImageNetStats},
}
