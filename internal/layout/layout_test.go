package layout

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout_Paths(t *testing.T) {
	t.Parallel()
	l := Layout{Root: "/data", Exp: 4, Dataset: "caltech", Mode: Soft}

	assert.Equal(t, "/data/exp_4", l.ExperimentDir())
	assert.Equal(t, "/data/exp_4/caltech/splitting/train.txt", l.ManifestPath(Train))
	assert.Equal(t, "/data/exp_4/caltech/feature/test/resnet18.msgpack.zst", l.FeaturePath(Test, "resnet18"))
	assert.Equal(t, "/data/exp_4/caltech/label/soft/resnet18/0.05/gtg.msgpack.zst", l.LabelPath("resnet18", 0.05, "gtg"))
	assert.Equal(t, "/data/exp_4/caltech/net/soft/resnet18/0.05/gtg.msgpack.zst", l.CheckpointPath("resnet18", 0.05, "gtg"))
	assert.Equal(t, "/data/exp_4/caltech/result/soft/resnet18/0.05/gtg.yaml", l.ResultPath("resnet18", 0.05, "gtg"))
}

func TestLayout_ModeOnlyAffectsModeNamespacedDirs(t *testing.T) {
	t.Parallel()
	soft := Layout{Root: "/r", Exp: 0, Dataset: "d", Mode: Soft}
	hard := soft
	hard.Mode = Hard

	assert.Equal(t, soft.SplittingDir(), hard.SplittingDir())
	assert.Equal(t, soft.FeatureDir(), hard.FeatureDir())
	assert.NotEqual(t, soft.LabelDir(), hard.LabelDir())
	assert.NotEqual(t, soft.NetDir(), hard.NetDir())
	assert.NotEqual(t, soft.ResultDir(), hard.ResultDir())
}

func TestModeOf(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Hard, ModeOf(true))
	assert.Equal(t, Soft, ModeOf(false))
}

func TestFormatPerc(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.05", FormatPerc(0.05))
	assert.Equal(t, "0.1", FormatPerc(0.1))
	assert.Equal(t, "0.333", FormatPerc(0.333))
}

func TestAllocate_LowestFree(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(ExperimentDir(root, 0), 0o755))
	require.NoError(t, os.Mkdir(ExperimentDir(root, 2), 0o755))

	n, err := Allocate(root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = Allocate(root)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAllocate_ConcurrentCallersNeverCollide(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "data")

	const callers = 16
	var wg sync.WaitGroup
	got := make([]int, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i], errs[i] = Allocate(root)
		}(i)
	}
	wg.Wait()

	seen := make(map[int]bool)
	for i := range got {
		require.NoError(t, errs[i])
		assert.False(t, seen[got[i]], "experiment %d allocated twice", got[i])
		seen[got[i]] = true
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, Open(root, 7))
	require.DirExists(t, ExperimentDir(root, 7))
	require.NoError(t, Open(root, 7), "reopening an experiment is allowed")
	require.Error(t, Open(root, -1))
}
