package parser

import (
	"path"
	"path/filepath"

	"github.com/starford/doclife/internal/lifecycle"
	"github.com/starford/doclife/internal/models"
)

// DetectStatus determines a document's lifecycle state. Priority:
//
//  1. a status header whose value matches a known state (source "header")
//  2. the immediate parent directory named after a state (source "directory")
//  3. draft, with source "default" when no header exists at all and
//     "header-unrecognized" when one exists but names no state
//
// The last-updated value is extracted verbatim and independently.
func DetectStatus(content []byte, docPath string, mode Matching) models.Status {
	h := ParseHeader(content)
	st := models.Status{
		HeaderStatus: h.Status,
		LastUpdated:  h.LastUpdated,
	}

	if h.HasStatus {
		if s, ok := MatchState(h.Status, mode); ok {
			st.State = s
			st.Source = lifecycle.SourceHeader
			return st
		}
	}

	if s, ok := directoryState(docPath); ok {
		st.State = s
		st.Source = lifecycle.SourceDirectory
		return st
	}

	st.State = lifecycle.Draft
	st.Source = lifecycle.SourceDefault
	if h.HasStatus {
		st.Source = lifecycle.SourceHeaderUnrecognized
	}
	return st
}

// directoryState matches the immediate parent directory name exactly
// against the five state names.
func directoryState(docPath string) (lifecycle.State, bool) {
	parent := path.Base(path.Dir(filepath.ToSlash(docPath)))
	s := lifecycle.State(parent)
	return s, s.Valid()
}
