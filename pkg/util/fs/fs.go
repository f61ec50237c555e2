// Package fs provides the filesystem abstraction the release tasks run
// against, so the rename/remove choreography around the output directory
// can be tested without touching the real project tree.
package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	utillog "github.com/singer-contrib/tbrel/pkg/util/log"
)

var log = utillog.StderrLog

// FileSystem allows working with the file system.
type FileSystem interface {
	Chmod(file string, mode os.FileMode) error
	Rename(from, to string) error
	MkdirAll(dirname string) error
	Mkdir(dirname string) error
	Exists(file string) bool
	RemoveDirectory(dir string) error
	CreateWorkingDirectory() (string, error)
	Open(file string) (io.ReadCloser, error)
	ReadFile(file string) ([]byte, error)
	WriteFile(file string, data []byte) error
	Glob(pattern string) ([]string, error)
}

// NewFileSystem creates a new instance of the default FileSystem
// implementation.
func NewFileSystem() FileSystem {
	return &fs{}
}

type fs struct{}

// Chmod sets the file mode.
func (h *fs) Chmod(file string, mode os.FileMode) error {
	return os.Chmod(file, mode)
}

// Rename renames or moves a file.
func (h *fs) Rename(from, to string) error {
	return os.Rename(from, to)
}

// MkdirAll creates the directory and all its parents.
func (h *fs) MkdirAll(dirname string) error {
	return os.MkdirAll(dirname, 0700)
}

// Mkdir creates the specified directory.
func (h *fs) Mkdir(dirname string) error {
	return os.Mkdir(dirname, 0700)
}

// Exists determines whether the specified file exists.
func (h *fs) Exists(file string) bool {
	_, err := os.Stat(file)
	return err == nil
}

// RemoveDirectory removes the specified directory and all its contents.
func (h *fs) RemoveDirectory(dir string) error {
	log.V(2).Infof("Removing directory '%s'", dir)

	err := os.RemoveAll(dir)
	if err != nil {
		log.Errorf("Error removing directory '%s': %v", dir, err)
	}
	return err
}

// CreateWorkingDirectory creates a directory to be used for the workflow.
func (h *fs) CreateWorkingDirectory() (directory string, err error) {
	directory, err = os.MkdirTemp("", "tbrel")
	if err != nil {
		return "", fmt.Errorf("error creating temporary directory '%s': %v", directory, err)
	}
	return directory, err
}

// Open opens a file and returns a ReadCloser interface to that file.
func (h *fs) Open(filename string) (io.ReadCloser, error) {
	return os.Open(filename)
}

// ReadFile reads the whole file.
func (h *fs) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// WriteFile writes data to a file, creating it if necessary.
func (h *fs) WriteFile(filename string, data []byte) error {
	return os.WriteFile(filename, data, 0644)
}

// Glob returns the names of all files matching the shell pattern.
func (h *fs) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
