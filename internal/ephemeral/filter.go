// Package ephemeral classifies document paths that are excluded from
// lifecycle management, such as scratch pads and handoff notes.
package ephemeral

import (
	"path/filepath"
	"strings"
)

// Filter matches paths against a set of ephemeral directory names.
type Filter struct {
	names map[string]struct{}
}

// New builds a Filter from directory names. Blank names are ignored.
func New(names []string) *Filter {
	f := &Filter{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(strings.Trim(n, "/"))
		if n != "" {
			f.names[n] = struct{}{}
		}
	}
	return f
}

// Match reports whether any directory segment of p (intermediate or the
// immediate parent, never the file name itself) is an ephemeral name.
func (f *Filter) Match(p string) bool {
	if f == nil || len(f.names) == 0 {
		return false
	}
	segments := strings.Split(filepath.ToSlash(filepath.Clean(p)), "/")
	for _, seg := range segments[:len(segments)-1] {
		if _, ok := f.names[seg]; ok {
			return true
		}
	}
	return false
}

// MatchDir reports whether dir itself or any of its ancestors is ephemeral.
func (f *Filter) MatchDir(dir string) bool {
	return f.Match(filepath.Join(dir, "_"))
}

// IsEphemeral is the functional form of Filter.Match.
func IsEphemeral(p string, names []string) bool {
	return New(names).Match(p)
}
