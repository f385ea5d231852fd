// Package manifest reads and writes split manifests: plain text files with one
// "<path> <label>" entry per line. The label is always the last
// space-separated field, so paths may themselves contain spaces.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMalformed is returned for a line that is not "<path> <label>".
var ErrMalformed = errors.New("manifest: malformed line")

// Entry is one sample of a split.
type Entry struct {
	Path  string
	Label int
}

// Manifest is an ordered list of entries.
type Manifest []Entry

// Labels returns the label column.
func (m Manifest) Labels() []int {
	out := make([]int, len(m))
	for i, e := range m {
		out[i] = e.Label
	}
	return out
}

// Encode writes m to w.
func Encode(w io.Writer, m Manifest) error {
	bw := bufio.NewWriter(w)
	for _, e := range m {
		if strings.ContainsAny(e.Path, "\r\n") {
			return fmt.Errorf("%w: path %q contains a line break", ErrMalformed, e.Path)
		}
		if _, err := fmt.Fprintf(bw, "%s %d\n", e.Path, e.Label); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode parses a manifest from r. Blank lines are ignored.
func Decode(r io.Reader) (Manifest, error) {
	var m Manifest
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		i := strings.LastIndexAny(line, " \t")
		if i <= 0 {
			return nil, fmt.Errorf("%w %d: %q", ErrMalformed, lineNo, line)
		}
		label, err := strconv.Atoi(line[i+1:])
		if err != nil || label < 0 {
			return nil, fmt.Errorf("%w %d: bad label in %q", ErrMalformed, lineNo, line)
		}
		m = append(m, Entry{Path: line[:i], Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteFile writes m to path, creating parent directories.
func WriteFile(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest '%s': %w", path, err)
	}
	if err := Encode(f, m); err != nil {
		f.Close()
		return fmt.Errorf("failed to write manifest '%s': %w", path, err)
	}
	return f.Close()
}

// ReadFile reads the manifest at path.
func ReadFile(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest '%s': %w", path, err)
	}
	return m, nil
}
