// Package artifact persists the binary artifacts that stages hand to each
// other: feature sets, label assignments and classifier checkpoints. Each
// artifact is a msgpack document inside a single zstd frame, written to a
// temporary file and renamed into place so a crashed stage never leaves a
// truncated artifact behind for the next stage to trip over.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrMissing is the sentinel for a prerequisite artifact that does not exist.
var ErrMissing = errors.New("missing prerequisite artifact")

// ErrCorrupt is returned when an artifact decodes but violates its invariants.
var ErrCorrupt = errors.New("artifact: corrupt")

// MissingError names the artifact a stage expected to find.
type MissingError struct {
	Path string
}

// Error implements the error interface.
func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissing, e.Path)
}

// Unwrap lets errors.Is match ErrMissing.
func (e *MissingError) Unwrap() error { return ErrMissing }

// Save encodes v and atomically writes it to path, creating parent directories.
func Save(path string, v any) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory '%s': %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create artifact '%s': %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		return fmt.Errorf("failed to start compressor for '%s': %w", path, err)
	}
	if err := msgpack.NewEncoder(zw).Encode(v); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode artifact '%s': %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress artifact '%s': %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to flush artifact '%s': %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to publish artifact '%s': %w", path, err)
	}
	return nil
}

// Load decodes the artifact at path into v. A missing file yields a
// *MissingError naming path.
func Load(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingError{Path: path}
		}
		return fmt.Errorf("failed to open artifact '%s': %w", path, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to start decompressor for '%s': %w", path, err)
	}
	defer zr.Close()

	if err := msgpack.NewDecoder(zr).Decode(v); err != nil {
		return fmt.Errorf("failed to decode artifact '%s': %w", path, err)
	}
	return nil
}

// Require returns a *MissingError when path does not exist.
func Require(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingError{Path: path}
		}
		return err
	}
	return nil
}
