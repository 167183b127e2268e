// Package fsutil holds small filesystem helpers shared by the
// persistence layers.
package fsutil

import (
	"os"
	"path/filepath"
)

// rename is swappable so tests can fail the final step.
var rename = os.Rename

// WriteFileAtomic replaces the file at path with the given contents
// such that a reader never observes a partial write.  The bytes are
// staged in a temporary file in the same directory, synced, and then
// renamed over the destination.  On any failure the destination is
// left untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return rename(tmpPath, path)
}
