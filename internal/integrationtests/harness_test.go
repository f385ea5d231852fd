package integrationtests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/AreTor/labaug/internal/app"
	"github.com/AreTor/labaug/internal/hcl_adapter"
	"github.com/AreTor/labaug/internal/testutil"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	// Root is the temporary directory holding the configuration files.
	Root string
}

// RunIntegrationTest writes files below a fresh temporary directory, points
// an App at it, and runs it. Relative paths in cfg.ConfigPaths are resolved
// against that directory; an empty list loads the whole directory. Startup
// panics are returned as errors.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, env ...string) *HarnessResult {
	t.Helper()

	root := t.TempDir()
	testutil.WriteFiles(t, root, files)

	if len(cfg.ConfigPaths) == 0 {
		cfg.ConfigPaths = []string{root}
	}
	for i, p := range cfg.ConfigPaths {
		if !filepath.IsAbs(p) {
			cfg.ConfigPaths[i] = filepath.Join(root, p)
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	logBuffer := &testutil.SafeBuffer{}
	loader := hcl_adapter.NewLoaderWithEnv(append(env, "ROOT="+filepath.ToSlash(root)))

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, &cfg, loader)
	}()
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Root:      root,
		}
	}

	runErr := testApp.Run(context.Background())
	if os.Getenv("LABAUG_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Root:      root,
	}
}

// toyDataset writes a 3 class x 10 image dataset below the harness root and
// returns the HCL block declaring it.
func toyDataset(t *testing.T) (files map[string]string, src string) {
	t.Helper()
	src = t.TempDir()
	testutil.ImageDataset(t, src, 3, 10)
	return map[string]string{
		"datasets.hcl": fmt.Sprintf(`
dataset "toy" {
  src        = "%s"
  nr_classes = 3
}
`, filepath.ToSlash(src)),
	}, src
}
