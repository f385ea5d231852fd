package splitter

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/AreTor/labaug/internal/manifest"
	"github.com/AreTor/labaug/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG(seed uint64) *rand.Rand { return rand.New(rand.NewPCG(seed, seed)) }

func TestSplit_ThreeClassesOfTen(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 3, 10)
	out := t.TempDir()

	train, test, err := New(dset, out).Split(ctx, newRNG(314), Options{TrainFraction: 0.8})
	require.NoError(t, err)

	assert.Len(t, train, 24)
	assert.Len(t, test, 6)
	perClass := map[int]int{}
	for _, e := range train {
		perClass[e.Label]++
	}
	assert.Equal(t, map[int]int{0: 8, 1: 8, 2: 8}, perClass)

	onDisk, err := manifest.ReadFile(filepath.Join(out, "train.txt"))
	require.NoError(t, err)
	assert.Equal(t, train, onDisk)
	onDisk, err = manifest.ReadFile(filepath.Join(out, "test.txt"))
	require.NoError(t, err)
	assert.Equal(t, test, onDisk)
}

func TestSplit_DisjointAndRelative(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 2, 6)

	train, test, err := New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: 0.5})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range append(append(manifest.Manifest{}, train...), test...) {
		assert.False(t, filepath.IsAbs(e.Path), "path %q should be relative to the source", e.Path)
		assert.False(t, seen[e.Path], "path %q appears twice", e.Path)
		seen[e.Path] = true
		assert.FileExists(t, filepath.Join(dset.Src, e.Path))
	}
	assert.Len(t, seen, 12)
}

func TestSplit_DeterministicForSeed(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 3, 10)

	a, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(7), Options{TrainFraction: 0.7})
	require.NoError(t, err)
	b, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(7), Options{TrainFraction: 0.7})
	require.NoError(t, err)
	c, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(8), Options{TrainFraction: 0.7})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestSplit_TooFewSamples(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 2, 1)

	_, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: 0.8})
	require.ErrorIs(t, err, ErrTooFewSamples)
}

func TestSplit_ClassCountMismatch(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 2, 4)
	dset.NumClasses = 3

	_, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: 0.5})
	require.ErrorIs(t, err, ErrClassCount)
}

func TestSplit_FiltersExtensions(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 2, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dset.Src, "class_0", "README.txt"), []byte("x"), 0o644))

	train, test, err := New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: 0.5, Extensions: []string{".png"}})
	require.NoError(t, err)
	assert.Len(t, train, 4)
	assert.Len(t, test, 4)

	_, _, err = New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: 0.5, Extensions: []string{".jpg"}})
	require.ErrorIs(t, err, ErrTooFewSamples)
}

func TestSplit_RejectsBadFraction(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset := testutil.ImageDataset(t, t.TempDir(), 2, 4)
	for _, f := range []float64{0, 1, -0.2, 1.5} {
		_, _, err := New(dset, t.TempDir()).Split(ctx, newRNG(1), Options{TrainFraction: f})
		require.Error(t, err, "fraction %v", f)
	}
}
