package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AreTor/labaug/internal/layout"
	"github.com/AreTor/labaug/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A syntax error makes app.NewApp panic while loading configuration.
	invalidHCL := `
		run {
			seed = 1
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	errStr := runErr.Error()
	require.True(t, strings.Contains(errStr, "application startup panicked"), "The error message should indicate that a panic was recovered.")
	require.True(t, strings.Contains(errStr, "failed to parse"), "The error message should contain the underlying reason for the panic.")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_UnknownStepFailsBeforeAnyWork(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-dataset", "caltech", "-data-dir", dataDir, "-steps", "splitter,trainr"})

	require.Error(t, err)
	require.Contains(t, err.Error(), `did you mean "trainer"?`)
	require.NoDirExists(t, dataDir)
}

// Not parallel: it sets an environment variable.
func TestRun_EndToEnd(t *testing.T) {
	// --- Arrange ---
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "images")
	testutil.ImageDataset(t, src, 3, 10)
	dataDir := filepath.Join(tempDir, "data")

	cfg := `
dataset "toy" {
  src        = env.LABAUG_TEST_SRC
  nr_classes = 3
}

experiment {
  dataset  = "toy"
  data_dir = "` + filepath.ToSlash(dataDir) + `"
}

run {
  seed     = 7
  tr_percs = [0.1]
  algs     = ["gtg", "labels_only"]
  epochs   = 2
}
`
	cfgPath := filepath.Join(tempDir, "exp.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	t.Setenv("LABAUG_TEST_SRC", src)

	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-log-format", "json", cfgPath})

	// --- Assert ---
	require.NoError(t, err, out.String())
	l := layout.Layout{Root: dataDir, Exp: 0, Dataset: "toy", Mode: layout.Soft}
	require.FileExists(t, l.ManifestPath(layout.Train))
	require.FileExists(t, l.FeaturePath(layout.Test, "resnet18"))
	require.FileExists(t, l.LabelPath("resnet18", 0.1, "gtg"))
	require.FileExists(t, l.ResultPath("resnet18", 0.1, "labels_only"))
	require.Contains(t, out.String(), `"msg":"Evaluation summary."`)
}
