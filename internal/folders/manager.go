// Package folders materializes lifecycle transitions on disk: it keeps the
// lifecycle subfolders in place, moves documents between them, and rewrites
// status headers. It never decides a target state itself.
package folders

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"time"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/parser"
	"github.com/starford/doclife/internal/storage"
)

// Reasons reported when a header update does not happen.
const (
	ReasonNoHeader = "no status header"
)

// MoveResult describes a move request. Moved is false when the document
// already sat in its target folder.
type MoveResult struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Moved bool   `json:"moved"`
}

// HeaderResult describes a status header rewrite.
type HeaderResult struct {
	Path               string `json:"path"`
	Updated            bool   `json:"updated"`
	LastUpdatedChanged bool   `json:"last_updated_changed"`
	Reason             string `json:"reason,omitempty"`
}

// Manager performs folder and header mutations through a storage.Provider.
type Manager struct {
	store storage.Provider
	now   func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for last-updated dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager.
func NewManager(store storage.Provider, opts ...Option) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BaseDir returns the documentation directory that owns docPath's lifecycle
// folders: if the immediate parent is one of the four lifecycle folder names
// its parent is the base, otherwise the immediate parent is.
func BaseDir(docPath string) string {
	parent := path.Dir(docPath)
	if lifecycle.IsFolder(path.Base(parent)) {
		return path.Dir(parent)
	}
	return parent
}

// TargetPath returns where docPath lives once it reaches target. Drafts
// live directly in the base directory.
func TargetPath(docPath string, target lifecycle.State) string {
	base := BaseDir(docPath)
	if target == lifecycle.Draft {
		return path.Join(base, path.Base(docPath))
	}
	return path.Join(base, string(target), path.Base(docPath))
}

// EnsureLifecycleFolders creates any missing lifecycle subfolders under
// baseDir and returns the names it created. A second call creates nothing.
func (m *Manager) EnsureLifecycleFolders(baseDir string) ([]string, error) {
	info, err := m.store.Stat(baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("folders: %s does not exist: %w", baseDir, apperr.ErrInvalidDirectory)
		}
		return nil, fmt.Errorf("folders: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("folders: %s is not a directory: %w", baseDir, apperr.ErrInvalidDirectory)
	}

	created := []string{}
	for _, f := range lifecycle.Folders {
		ok, err := m.store.MkdirAll(path.Join(baseDir, string(f)))
		if err != nil {
			return created, fmt.Errorf("folders: %w", err)
		}
		if ok {
			created = append(created, string(f))
		}
	}
	return created, nil
}

// CheckTarget fails with apperr.ErrAlreadyExists when another file already
// occupies docPath's destination for target.
func (m *Manager) CheckTarget(docPath string, target lifecycle.State) error {
	dst := TargetPath(docPath, target)
	if dst == docPath {
		return nil
	}
	_, err := m.store.Stat(dst)
	switch {
	case err == nil:
		return fmt.Errorf("folders: destination %s: %w", dst, apperr.ErrAlreadyExists)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("folders: %w", err)
	}
}

// MoveToLifecycleFolder relocates docPath into the folder for target.
func (m *Manager) MoveToLifecycleFolder(docPath string, target lifecycle.State) (MoveResult, error) {
	dst := TargetPath(docPath, target)
	res := MoveResult{From: docPath, To: dst}
	if dst == docPath {
		return res, nil
	}
	if _, err := m.store.Stat(docPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("folders: %s: %w", docPath, apperr.ErrNotFound)
		}
		return res, fmt.Errorf("folders: %w", err)
	}
	if target != lifecycle.Draft {
		if _, err := m.store.MkdirAll(path.Dir(dst)); err != nil {
			return res, fmt.Errorf("folders: %w", err)
		}
	}
	if err := m.store.Move(docPath, dst); err != nil {
		return res, fmt.Errorf("folders: %w", err)
	}
	res.Moved = true
	return res, nil
}

// UpdateStatusHeader rewrites the status header of docPath to state and
// refreshes its last-updated date. A document without a status header is
// left untouched and reported with Updated=false; that is not an error.
func (m *Manager) UpdateStatusHeader(docPath string, state lifecycle.State) (HeaderResult, error) {
	res := HeaderResult{Path: docPath}
	data, err := m.store.Read(docPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, fmt.Errorf("folders: %s: %w", docPath, apperr.ErrNotFound)
		}
		return res, fmt.Errorf("folders: %w", err)
	}
	out, updated, dated := parser.RewriteHeader(data, state, m.now())
	if !updated {
		res.Reason = ReasonNoHeader
		return res, nil
	}
	if err := m.store.Write(docPath, out); err != nil {
		return res, fmt.Errorf("folders: %w", err)
	}
	res.Updated = true
	res.LastUpdatedChanged = dated
	return res, nil
}
