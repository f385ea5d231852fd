// Package fsutil provides file system utility functions shared by the config
// loader and the dataset splitter.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files
// whose name ends with one of the given extensions, compared case-insensitively.
// Extensions are plain suffixes, so both ".jpg" and "jpeg" are accepted. The
// result is sorted so callers get a stable order across file systems.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("fsutil: at least one extension is required")
	}
	suffixes := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		if ext == "" {
			panic("fsutil: extension must not be empty")
		}
		suffixes = append(suffixes, strings.ToLower(ext))
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasAnySuffix(strings.ToLower(d.Name()), suffixes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ListSubdirs returns the sorted names of the immediate subdirectories of root.
func ListSubdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Exists reports whether path exists. Errors other than "not exist" are
// returned so that permission problems are not mistaken for absence.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
