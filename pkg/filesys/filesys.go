// Package filesys provides the small set of file system utilities the
// decoder needs to open a path and size it for backend selection. The
// teacher's broader directory-bootstrap helpers (CreateDir, CopyDir,
// SearchFiles, Cd, Pwd, ...) supported write-path segment rotation and have
// no caller in a read-only decoder, so they were not carried over.
package filesys

import (
	"errors"
	"os"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

// Exists checks if a file or directory at the given `file` path exists.
// It returns true if the file/directory exists, false if it does not,
// and an error if there's any other issue checking its status.
func Exists(file string) (bool, error) {
	_, err := os.Stat(file)
	if err == nil {
		return true, nil // Path exists.
	}
	// If the error indicates that the file does not exist, return false.
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Size returns the size, in bytes, of the regular file at filePath. It
// returns ErrIsNotDir if the path names a directory.
func Size(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, ErrIsNotDir
	}
	return info.Size(), nil
}
