package augment

import (
	"os"
	"testing"

	"github.com/AreTor/labaug/internal/artifact"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/manifest"
	"github.com/AreTor/labaug/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture writes a train manifest and a matching clustered feature set.
func fixture(t *testing.T, mode layout.Mode, classes, perClass int) (dataset.Descriptor, layout.Layout) {
	t.Helper()
	root := t.TempDir()
	dset := dataset.Descriptor{Name: "toy", Src: root, NumClasses: classes, Stats: dataset.ImageNetStats}
	l := layout.Layout{Root: root, Exp: 0, Dataset: "toy", Mode: mode}
	writeFixture(t, l, classes, perClass)
	return dset, l
}

func writeFixture(t *testing.T, l layout.Layout, classes, perClass int) {
	t.Helper()
	fs := testutil.ClusteredFeatures(42, "resnet18", classes, perClass, 16, 0.5)
	m := make(manifest.Manifest, fs.Len())
	for i := range m {
		m[i] = manifest.Entry{Path: fs.Paths[i], Label: fs.Labels[i]}
	}
	require.NoError(t, manifest.WriteFile(l.ManifestPath(layout.Train), m))
	require.NoError(t, artifact.Save(l.FeaturePath(layout.Train, "resnet18"), fs))
}

func request(soft bool, algs ...string) Request {
	return Request{TrPercs: []float64{0.1}, Algs: algs, Soft: soft, GTG: DefaultGTGParams()}
}

func loadLabels(t *testing.T, path string) *artifact.LabelSet {
	t.Helper()
	var ls artifact.LabelSet
	require.NoError(t, artifact.Load(path, &ls))
	require.NoError(t, ls.Validate())
	return &ls
}

func TestAugment_GTGScenario(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 8)

	sums, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(314), request(true, AlgGTG))
	require.NoError(t, err)
	require.Len(t, sums, 1)
	s := sums[0]
	assert.Equal(t, 3, s.Known)
	assert.Equal(t, 21, s.Inferred)
	assert.GreaterOrEqual(t, s.Accuracy, 0.9)
	assert.Equal(t, l.LabelPath("resnet18", 0.1, AlgGTG), s.Path)

	ls := loadLabels(t, s.Path)
	assert.Equal(t, 24, ls.Len())
	assert.True(t, ls.Soft)
	assert.Equal(t, "resnet18", ls.Net)
	assert.Equal(t, AlgGTG, ls.Alg)
	assert.Equal(t, 0.1, ls.Perc)

	m, err := manifest.ReadFile(l.ManifestPath(layout.Train))
	require.NoError(t, err)
	for i := range ls.Indices {
		assertDistribution(t, ls.Probs[i])
		assert.Equal(t, argmax(ls.Probs[i]), ls.Labels[i])
		if ls.Known[i] {
			assert.Equal(t, m[ls.Indices[i]].Label, ls.Labels[i], "known labels are never altered")
			assert.Equal(t, 1.0, ls.Probs[i][ls.Labels[i]])
		}
		assert.Contains(t, []int{0, 1, 2}, ls.Labels[i])
		assert.Equal(t, m[ls.Indices[i]].Path, ls.Paths[i])
	}
}

func TestAugment_AllAlgorithmsAndFractions(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 10)
	req := Request{TrPercs: []float64{0.1, 0.3}, Algs: []string{AlgGTG, AlgSVM, AlgLabelsOnly}, Soft: true, GTG: DefaultGTGParams()}

	sums, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(5), req)
	require.NoError(t, err)
	require.Len(t, sums, 6)

	for _, s := range sums {
		ls := loadLabels(t, s.Path)
		switch s.Alg {
		case AlgLabelsOnly:
			assert.Equal(t, s.Known, ls.Len())
			assert.Zero(t, s.Inferred)
			for _, k := range ls.Known {
				assert.True(t, k)
			}
		case AlgGTG:
			assert.Equal(t, 30, ls.Len())
			assert.GreaterOrEqual(t, s.Accuracy, 0.8, "gtg at %v", s.Perc)
		default:
			assert.Equal(t, 30, ls.Len())
			assert.Positive(t, s.Accuracy)
		}
	}
	assert.Equal(t, 3, sums[0].Known)
	assert.Equal(t, 9, sums[3].Known)
}

func TestAugment_KnownSubsetSharedAcrossAlgorithms(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 10)

	sums, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(11), request(true, AlgGTG, AlgLabelsOnly))
	require.NoError(t, err)

	gtg := loadLabels(t, sums[0].Path)
	only := loadLabels(t, sums[1].Path)
	var gtgKnown []int
	for i, k := range gtg.Known {
		if k {
			gtgKnown = append(gtgKnown, gtg.Indices[i])
		}
	}
	assert.Equal(t, gtgKnown, only.Indices)
}

func TestAugment_HardLabelsAreArgmaxOfSoft(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, soft := fixture(t, layout.Soft, 3, 8)
	hard := soft
	hard.Mode = layout.Hard

	_, err := New(dset, soft, []string{"resnet18"}).Augment(ctx, rng(3), request(true, AlgGTG, AlgSVM))
	require.NoError(t, err)
	_, err = New(dset, hard, []string{"resnet18"}).Augment(ctx, rng(3), request(false, AlgGTG, AlgSVM))
	require.NoError(t, err)

	for _, alg := range []string{AlgGTG, AlgSVM} {
		s := loadLabels(t, soft.LabelPath("resnet18", 0.1, alg))
		h := loadLabels(t, hard.LabelPath("resnet18", 0.1, alg))
		assert.False(t, h.Soft)
		assert.Nil(t, h.Probs)
		require.Equal(t, s.Indices, h.Indices)
		for i := range h.Labels {
			assert.Equal(t, argmax(s.Probs[i]), h.Labels[i], "%s row %d", alg, i)
		}
	}
}

func TestAugment_SameSeedSameLabels(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, a := fixture(t, layout.Soft, 3, 8)
	_, b := fixture(t, layout.Soft, 3, 8)

	_, err := New(dset, a, []string{"resnet18"}).Augment(ctx, rng(77), request(true, AlgGTG, AlgSVM))
	require.NoError(t, err)
	_, err = New(dset, b, []string{"resnet18"}).Augment(ctx, rng(77), request(true, AlgGTG, AlgSVM))
	require.NoError(t, err)

	for _, alg := range []string{AlgGTG, AlgSVM} {
		assert.Equal(t,
			loadLabels(t, a.LabelPath("resnet18", 0.1, alg)),
			loadLabels(t, b.LabelPath("resnet18", 0.1, alg)))
	}
}

func TestAugment_DegenerateClass(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 5, 4)

	sums, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), request(true, AlgGTG))
	require.NoError(t, err)
	assert.Equal(t, 2, sums[0].Known)

	ls := loadLabels(t, sums[0].Path)
	present := map[int]bool{}
	for i, k := range ls.Known {
		if k {
			present[ls.Labels[i]] = true
		}
	}
	require.Len(t, present, 2)
	for i := range ls.Probs {
		require.Len(t, ls.Probs[i], 5)
		assertDistribution(t, ls.Probs[i])
		for c := 0; c < 5; c++ {
			if !present[c] {
				assert.Zero(t, ls.Probs[i][c])
			}
		}
	}
}

func TestAugment_MissingPrerequisites(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	root := t.TempDir()
	dset := dataset.Descriptor{Name: "toy", Src: root, NumClasses: 3, Stats: dataset.ImageNetStats}
	l := layout.Layout{Root: root, Dataset: "toy", Mode: layout.Soft}

	_, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), request(true, AlgGTG))
	require.ErrorIs(t, err, artifact.ErrMissing)
	assert.Contains(t, err.Error(), l.ManifestPath(layout.Train))

	require.NoError(t, manifest.WriteFile(l.ManifestPath(layout.Train), manifest.Manifest{{Path: "a", Label: 0}, {Path: "b", Label: 1}}))
	_, err = New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), request(true, AlgGTG))
	require.ErrorIs(t, err, artifact.ErrMissing)
	assert.Contains(t, err.Error(), l.FeaturePath(layout.Train, "resnet18"))
}

func TestAugment_FeatureRowsMustMatchManifest(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 8)
	m, err := manifest.ReadFile(l.ManifestPath(layout.Train))
	require.NoError(t, err)
	require.NoError(t, manifest.WriteFile(l.ManifestPath(layout.Train), m[:10]))

	_, err = New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), request(true, AlgGTG))
	require.ErrorIs(t, err, ErrDimension)
}

func TestAugment_InvalidRequestWritesNothing(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 8)

	_, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), request(true, "gtgg"))
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	assert.Contains(t, err.Error(), `did you mean "gtg"?`)

	bad := request(true, AlgGTG)
	bad.TrPercs = []float64{1.5}
	_, err = New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), bad)
	require.ErrorIs(t, err, ErrInvalidParams)

	_, statErr := os.Stat(l.LabelDir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestAugment_RepeatedFractionIsRejected(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, l := fixture(t, layout.Soft, 3, 8)

	for _, percs := range [][]float64{{0.1, 0.1}, {0.2, 0.1, 0.10}} {
		req := request(true, AlgGTG)
		req.TrPercs = percs
		sums, err := New(dset, l, []string{"resnet18"}).Augment(ctx, rng(1), req)
		require.ErrorIs(t, err, ErrInvalidParams, "%v", percs)
		assert.Contains(t, err.Error(), "0.1 listed twice")
		assert.Nil(t, sums)
	}

	_, statErr := os.Stat(l.LabelDir())
	assert.True(t, os.IsNotExist(statErr))
}

func TestAugment_ConfigurationsAreIndependentOfTheRest(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.Context(t)
	dset, alone := fixture(t, layout.Soft, 3, 10)
	_, mixed := fixture(t, layout.Soft, 3, 10)

	req := request(true, AlgSVM)
	_, err := New(dset, alone, []string{"resnet18"}).Augment(ctx, rng(21), req)
	require.NoError(t, err)

	req.TrPercs = []float64{0.3, 0.1}
	req.Algs = []string{AlgLabelsOnly, AlgSVM}
	_, err = New(dset, mixed, []string{"resnet18"}).Augment(ctx, rng(21), req)
	require.NoError(t, err)

	// Same known subset and same svm fit for 0.1, whatever else was requested.
	assert.Equal(t,
		loadLabels(t, alone.LabelPath("resnet18", 0.1, AlgSVM)),
		loadLabels(t, mixed.LabelPath("resnet18", 0.1, AlgSVM)))
}
