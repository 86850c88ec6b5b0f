// Package lifecycle defines document lifecycle states and the rules that
// move a document from one state to the next.
package lifecycle

import "strings"

// State is a document's lifecycle stage.
type State string

// Lifecycle states, in maturity order.
const (
	Draft       State = "draft"
	Approved    State = "approved"
	InProgress  State = "in-progress"
	Implemented State = "implemented"
	Staged      State = "staged"
)

// States lists every known state in maturity order.
var States = []State{Draft, Approved, InProgress, Implemented, Staged}

// Folders lists the states that own a lifecycle subfolder. Drafts live in
// the base documentation directory.
var Folders = []State{Approved, InProgress, Implemented, Staged}

// Source records where a detected state came from.
type Source string

const (
	// SourceHeader means an explicit status line named the state.
	SourceHeader Source = "header"
	// SourceDirectory means the state was inferred from the parent folder.
	SourceDirectory Source = "directory"
	// SourceDefault means nothing matched and the state defaulted to draft.
	SourceDefault Source = "default"
	// SourceHeaderUnrecognized means a status line existed but its value
	// named no known state and no folder matched either.
	SourceHeaderUnrecognized Source = "header-unrecognized"
)

// Valid reports whether s is one of the five known states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// ParseState matches name exactly (trimmed, case-folded) against the known states.
func ParseState(name string) (State, bool) {
	s := State(strings.ToLower(strings.TrimSpace(name)))
	if s.Valid() {
		return s, true
	}
	return "", false
}

// IsFolder reports whether name is one of the four lifecycle subfolder names.
func IsFolder(name string) bool {
	for _, f := range Folders {
		if string(f) == name {
			return true
		}
	}
	return false
}
