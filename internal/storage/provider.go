// Package storage defines the project file-system abstraction used by the
// scanner and the folder manager.
package storage

import (
	"io/fs"

	"github.com/starford/doclife/internal/models"
)

// Provider is the interface for document file operations. All paths are
// relative to the project root and use forward slashes.
type Provider interface {
	// Root returns the absolute project root.
	Root() string
	// List returns metadata for every document file under dir without
	// reading contents. Directories for which skipDir reports true are not
	// entered. Unreadable entries below dir are returned with Error set.
	List(dir string, skipDir func(rel string) bool) ([]models.DocumentMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Move renames oldPath to newPath. It never overwrites an existing file.
	Move(oldPath, newPath string) error
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
	// MkdirAll creates dir and its parents and reports whether dir was created.
	MkdirAll(dir string) (bool, error)
}
