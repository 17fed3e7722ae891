// Package atomicfile provides the temp-file-then-rename write pattern
// used everywhere the core persists depot or environment state, so a
// crash mid-write never leaves a half-written file behind.
package atomicfile

import (
	"os"
	"path/filepath"
)

// Write atomically replaces path with data: the file is written to a
// temporary sibling and renamed into place, written even when data is
// empty so a stale file at path is truncated (spec §4.6's orphaned.toml
// note applies the same trick to every TOML file the core writes).
func Write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// ReadOrEmpty reads path, returning (nil, false, nil) if it does not
// exist rather than an error.
func ReadOrEmpty(path string) (data []byte, present bool, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
