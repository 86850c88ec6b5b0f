// Package vcs answers one question for the lifecycle engine: did source
// code change within a revision range?
package vcs

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/doclife/internal/apperr"
)

// Range is a parsed revision range. MergeBase selects the three-dot form,
// where From is replaced by the merge base of From and To.
type Range struct {
	From      string
	To        string
	MergeBase bool
}

// String renders the range in git notation.
func (r Range) String() string {
	if r.MergeBase {
		return r.From + "..." + r.To
	}
	return r.From + ".." + r.To
}

// ParseRange parses "A..B", "A...B", or "A" (meaning A..HEAD). An empty
// string parses fallback instead.
func ParseRange(s, fallback string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = strings.TrimSpace(fallback)
	}
	if s == "" {
		return Range{}, fmt.Errorf("vcs: empty range: %w", apperr.ErrInvalidRange)
	}

	var r Range
	switch {
	case strings.Contains(s, "..."):
		from, to, _ := strings.Cut(s, "...")
		r = Range{From: from, To: to, MergeBase: true}
	case strings.Contains(s, ".."):
		from, to, _ := strings.Cut(s, "..")
		r = Range{From: from, To: to}
	default:
		r = Range{From: s, To: "HEAD"}
	}
	if r.To == "" {
		r.To = "HEAD"
	}
	if r.From == "" || strings.Contains(r.To, "..") {
		return Range{}, fmt.Errorf("vcs: %q: %w", s, apperr.ErrInvalidRange)
	}
	return r, nil
}

// ChangeSource lists the paths changed within a revision range.
type ChangeSource interface {
	ChangedPaths(ctx context.Context, r Range) ([]string, error)
}

// StaticSource is a fixed ChangeSource, handy for tests and for running
// without a repository.
type StaticSource []string

// ChangedPaths returns the fixed path list.
func (s StaticSource) ChangedPaths(_ context.Context, _ Range) ([]string, error) {
	return s, nil
}

// CodeFilter decides which changed paths count as code changes.
type CodeFilter struct {
	DocRoots   []string
	Extensions []string
}

// CodePaths returns the changed paths that sit outside every documentation
// root and carry a recognized source-code extension.
func (f CodeFilter) CodePaths(paths []string) []string {
	exts := make(map[string]struct{}, len(f.Extensions))
	for _, e := range f.Extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	var out []string
	for _, p := range paths {
		p = path.Clean(filepath.ToSlash(p))
		if f.underDocRoot(p) {
			continue
		}
		if _, ok := exts[strings.ToLower(path.Ext(p))]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (f CodeFilter) underDocRoot(p string) bool {
	for _, root := range f.DocRoots {
		root = path.Clean(filepath.ToSlash(root))
		if root == "." {
			return true
		}
		if p == root || strings.HasPrefix(p, root+"/") {
			return true
		}
	}
	return false
}
