package integrationtests

import (
	"testing"

	"github.com/AreTor/labaug/internal/app"
	"github.com/AreTor/labaug/internal/augment"
	"github.com/AreTor/labaug/internal/dataset"
	"github.com/AreTor/labaug/internal/experiment"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// TestConfig_FlagsOverrideFilesOverrideDefaults checks the layering of
// configuration sources. The run is limited to a step that fails fast so
// only the merge is exercised.
func TestConfig_FlagsOverrideFilesOverrideDefaults(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"exp/experiment.hcl": `
experiment {
  dataset     = "indoors"
  nets        = ["resnet50"]
  hard_labels = true
  exp         = 2
  data_dir    = "${env.ROOT}/out"
  workers     = 3
  notify_url  = "http://files:3000/socket.io/"
}
`,
		"exp/run.hcl": `
run {
  seed     = 11
  tr_percs = [0.2]
  algs     = ["svm"]

  gtg {
    k = 4
  }
}
`,
	}
	cfg := app.Config{
		Dataset:     ptr("caltech"),
		Seed:        ptr(uint64(99)),
		WorkerCount: ptr(2),
		NotifyURL:   ptr("http://flags:3000/socket.io/"),
		Steps:       []string{"no-such-step"},
	}

	result := RunIntegrationTest(t, files, cfg)
	require.ErrorIs(t, result.Err, experiment.ErrUnknownStage)
	require.NotNil(t, result.App)

	got := result.App.ExperimentConfig()
	want := experiment.DefaultConfig()
	want.Dataset = "caltech"
	want.Nets = []string{"resnet50"}
	want.HardLabels = true
	want.Exp = 2
	want.Workers = 2
	want.DataDir = result.Root + "/out"
	want.Steps = []string{"no-such-step"}
	want.Run.Seed = ptr(uint64(99))
	want.Run.TrPercs = []float64{0.2}
	want.Run.Algs = []string{augment.AlgSVM}
	want.Run.GTG.K = 4

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("experiment config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "http://flags:3000/socket.io/", result.App.NotifyURL())
}

func TestConfig_DatasetBlocksExtendRegistry(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"datasets.hcl": `
dataset "flowers" {
  src        = "/srv/flowers"
  nr_classes = 102
  mean       = [0.4, 0.5, 0.6]
  std        = [0.1, 0.2, 0.3]
}

dataset "indoors" {
  src        = "/mnt/indoors"
  nr_classes = 67
}
`,
	}
	result := RunIntegrationTest(t, files, app.Config{Steps: []string{"bogus"}})
	require.NotNil(t, result.App)

	reg := result.App.Datasets()
	require.Equal(t, []string{"caltech", "flowers", "indoors"}, reg.Names())

	flowers, err := reg.Lookup("flowers")
	require.NoError(t, err)
	require.Equal(t, dataset.Stats{Mean: [3]float64{0.4, 0.5, 0.6}, Std: [3]float64{0.1, 0.2, 0.3}}, flowers.Stats)

	indoors, err := reg.Lookup("indoors")
	require.NoError(t, err)
	require.Equal(t, "/mnt/indoors", indoors.Src)
	require.Equal(t, dataset.ImageNetStats, indoors.Stats)
}
