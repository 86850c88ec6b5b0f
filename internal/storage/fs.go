package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/models"
)

const tmpPrefix = ".doclife-tmp-"

// FS implements Provider backed by the local file system.
type FS struct {
	root       string // absolute path to the project root
	extensions []string
}

// NewFS creates a new FS provider rooted at the given directory. Only files
// with one of the given extensions are listed; ".md" when none are given.
// The directory must already exist.
func NewFS(root string, extensions ...string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	if len(extensions) == 0 {
		extensions = []string{".md"}
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &FS{root: abs, extensions: exts}, nil
}

// Root returns the absolute project root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves a relative path against the root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute path %s: %w", rel, apperr.ErrInvalidPath)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path %s escapes project root: %w", rel, apperr.ErrInvalidPath)
	}
	return abs, nil
}

func (f *FS) isDocument(name string) bool {
	if strings.HasPrefix(name, tmpPrefix) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range f.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// List walks dir (relative to root) and returns metadata for every document
// file. Hidden directories such as .git are skipped, as is any directory
// skipDir matches. Only a failure on dir itself is returned as an error.
func (f *FS) List(dir string, skipDir func(rel string) bool) ([]models.DocumentMetadata, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []models.DocumentMetadata
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		rel := f.relPath(p)
		if walkErr != nil {
			if p == base {
				return walkErr
			}
			out = append(out, models.DocumentMetadata{Path: rel, Error: walkErr.Error()})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p == base {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || (skipDir != nil && skipDir(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !f.isDocument(d.Name()) {
			return nil
		}
		meta := models.DocumentMetadata{Path: rel}
		if info, err := d.Info(); err != nil {
			meta.Error = err.Error()
		} else {
			meta.UpdatedAt = info.ModTime()
		}
		out = append(out, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	return out, nil
}

func (f *FS) relPath(abs string) string {
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Read returns the raw bytes of a project file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file → fsync → rename.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(abs); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Move renames a file within the project. The destination must not exist.
func (f *FS) Move(oldPath, newPath string) error {
	absOld, err := f.safePath(oldPath)
	if err != nil {
		return err
	}
	absNew, err := f.safePath(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absNew); err == nil {
		return fmt.Errorf("storage: move %s: destination %s: %w", oldPath, newPath, apperr.ErrAlreadyExists)
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return fmt.Errorf("storage: move: %w", err)
	}
	return nil
}

// Stat returns file info for a project path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info, nil
}

// MkdirAll creates dir if it is missing and reports whether it did.
func (f *FS) MkdirAll(dir string) (bool, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("storage: %s is not a directory: %w", dir, apperr.ErrInvalidDirectory)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("storage: stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return false, fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return true, nil
}
