package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Allocate claims the lowest experiment number whose directory does not exist
// under root. The claim is an exclusive mkdir, so two processes allocating at
// the same time never receive the same number.
func Allocate(root string) (int, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create data root '%s': %w", root, err)
	}
	for n := 0; ; n++ {
		err := os.Mkdir(ExperimentDir(root, n), 0o755)
		if err == nil {
			return n, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return 0, fmt.Errorf("failed to claim experiment %d: %w", n, err)
	}
}

// Open makes sure the directory of an explicitly numbered experiment exists.
// Existing experiments are reused, which is how partial re-runs find the
// artifacts of earlier stages.
func Open(root string, n int) error {
	if n < 0 {
		return fmt.Errorf("experiment number must be >= 0, got %d", n)
	}
	if err := os.MkdirAll(ExperimentDir(root, n), 0o755); err != nil {
		return fmt.Errorf("failed to open experiment %d: %w", n, err)
	}
	return nil
}
