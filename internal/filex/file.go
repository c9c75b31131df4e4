// Package filex holds small filesystem helpers.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureSubDir creates base/name (and parents) when missing and returns its
// path. An empty base means the working directory.
func EnsureSubDir(base, name string) (string, error) {
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		base = cwd
	}

	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// WriteAtomic writes r to path through a temporary file in the same
// directory, replacing any existing file only once the copy succeeded.
func WriteAtomic(path string, r io.Reader) (n int64, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if n, err = io.Copy(tmp, r); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename %s: %w", path, err)
	}
	return n, nil
}
