// Package models defines the domain types for doclife.
package models

import (
	"time"

	"github.com/starford/doclife/internal/lifecycle"
)

// DocumentMetadata is a lightweight representation returned by list
// operations. Error is set when the entry could not be inspected; the path
// may then name a directory whose contents were not listed.
type DocumentMetadata struct {
	Path      string    `json:"path"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

// Completion holds checklist counts for one document.
type Completion struct {
	Path       string `json:"path,omitempty"`
	Percentage int    `json:"percentage"`
	Checked    int    `json:"checked"`
	Unchecked  int    `json:"unchecked"`
	Total      int    `json:"total"`
	Error      string `json:"error,omitempty"`
}

// NewCompletion derives total and percentage from raw counts.
// Percentage is floored and is 0 when there are no markers.
func NewCompletion(checked, unchecked int) Completion {
	c := Completion{Checked: checked, Unchecked: unchecked, Total: checked + unchecked}
	if c.Total > 0 {
		c.Percentage = checked * 100 / c.Total
	}
	return c
}

// Status is a document's detected lifecycle state.
type Status struct {
	Path         string           `json:"path,omitempty"`
	State        lifecycle.State  `json:"state"`
	Source       lifecycle.Source `json:"source"`
	HeaderStatus string           `json:"header_status,omitempty"`
	LastUpdated  string           `json:"last_updated,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Document is one managed document as seen by a single scan. It is rebuilt
// from the file on every scan and never cached.
type Document struct {
	Path            string           `json:"path"`
	Title           string           `json:"title,omitempty"`
	State           lifecycle.State  `json:"state"`
	Source          lifecycle.Source `json:"source"`
	HeaderStatus    string           `json:"header_status,omitempty"`
	LastUpdated     string           `json:"last_updated,omitempty"`
	Completion      Completion       `json:"completion"`
	TargetState     lifecycle.State  `json:"target_state"`
	Reason          string           `json:"reason,omitempty"`
	NeedsTransition bool             `json:"needs_transition"`
	Checksum        string           `json:"checksum,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// CodeChanges describes the code-change check shared by every document in a scan.
type CodeChanges struct {
	Range    string   `json:"range,omitempty"`
	Detected bool     `json:"detected"`
	Paths    []string `json:"paths,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ScanResult is the per-document output of one scan.
type ScanResult struct {
	CodeChanges CodeChanges `json:"code_changes"`
	Documents   []Document  `json:"documents"`
}

// Summary aggregates a scan.
type Summary struct {
	Total           int                      `json:"total"`
	ByState         map[lifecycle.State]int  `json:"by_state"`
	BySource        map[lifecycle.Source]int `json:"by_source"`
	NeedsTransition int                      `json:"needs_transition"`
	Errors          int                      `json:"errors"`
}

// Report wraps a scan with aggregate counts.
type Report struct {
	Summary     Summary     `json:"summary"`
	CodeChanges CodeChanges `json:"code_changes"`
	Documents   []Document  `json:"documents"`
}

// TransitionOutcome records what happened (or would happen) to one document.
type TransitionOutcome struct {
	Path          string          `json:"path"`
	NewPath       string          `json:"new_path,omitempty"`
	From          lifecycle.State `json:"from"`
	To            lifecycle.State `json:"to"`
	Reason        string          `json:"reason"`
	HeaderUpdated bool            `json:"header_updated"`
	Moved         bool            `json:"moved"`
	Error         string          `json:"error,omitempty"`
}

// ApplyResult is the outcome of an apply or dry-run pass.
type ApplyResult struct {
	DryRun      bool                `json:"dry_run"`
	CodeChanges CodeChanges         `json:"code_changes"`
	Transitions []TransitionOutcome `json:"transitions"`
	Applied     int                 `json:"applied"`
	Failed      int                 `json:"failed"`
}

// FolderResult is the outcome of ensuring lifecycle folders under a directory.
type FolderResult struct {
	BaseDir string   `json:"base_dir"`
	Created []string `json:"created"`
	Error   string   `json:"error,omitempty"`
}
