// Package atomicfile replaces files atomically: data is written to a
// temporary file in the destination directory, synced and renamed over the
// destination. Readers see either the old or the new content, never a
// partial write.
package atomicfile

import (
	"os"
	"path/filepath"
)

// Some references:
// - https://www.slideshare.net/nan1nan1/eat-my-data
// - https://lwn.net/Articles/457667/

// WriteFile writes d to path atomically. If anything fails, the temporary
// file is removed and path is left untouched.
func WriteFile(path string, d []byte, perm os.FileMode) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if name == "" {
		return &os.PathError{Op: "open", Path: path, Err: os.ErrInvalid}
	}
	tmpFile, err := os.CreateTemp(dir, name)
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	didRename := false
	defer func() {
		if !didRename {
			// ignoring error on this one
			_ = os.Remove(tmpPath)
		}
	}()

	_, err = tmpFile.Write(d)
	if err == nil {
		err = tmpFile.Chmod(perm)
	}
	if err == nil {
		err = tmpFile.Sync()
	}
	// https://www.joeshaw.org/dont-defer-close-on-writable-files/
	errClose := tmpFile.Close()
	if err == nil {
		err = errClose
	}
	if err != nil {
		return err
	}

	// this will over-write path (if it exists)
	if err = os.Rename(tmpPath, path); err != nil {
		return err
	}
	didRename = true

	// for extra protection against crashes elsewhere,
	// sync directory after rename
	if fdir, _ := os.Open(dir); fdir != nil {
		_ = fdir.Sync()
		_ = fdir.Close()
	}
	return nil
}
