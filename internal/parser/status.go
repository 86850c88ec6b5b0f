package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/starford/doclife/internal/lifecycle"
)

// Both "**Status**: x" and "**Status:** x" spellings are accepted.
var (
	statusRe      = regexp.MustCompile(`(?i)^(\s*(?:[-*+]\s+)?\*\*(?:current\s+)?status(?:\*\*\s*:|:\*\*)[ \t]*)(.*)$`)
	lastUpdatedRe = regexp.MustCompile(`(?i)^(\s*(?:[-*+]\s+)?\*\*last[ \t]+updated(?:\*\*\s*:|:\*\*)[ \t]*)(.*)$`)
	markupRe      = regexp.MustCompile("[*_`~\\[\\]]")
)

// Matching selects how a status header value is compared to state names.
type Matching string

const (
	// Lenient accepts any value that contains a state name; the first
	// state in maturity order wins ("in-progress (blocked)" is in-progress).
	Lenient Matching = "lenient"
	// Strict requires the normalized value to equal a state name exactly.
	Strict Matching = "strict"
)

// Header is the status metadata found in a document.
type Header struct {
	HasStatus      bool
	Status         string
	HasLastUpdated bool
	LastUpdated    string
}

// ParseHeader finds the first status line and the first last-updated line.
func ParseHeader(content []byte) Header {
	var h Header
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if !h.HasStatus {
			if m := statusRe.FindStringSubmatch(line); m != nil {
				h.HasStatus = true
				h.Status = strings.TrimSpace(m[2])
				continue
			}
		}
		if !h.HasLastUpdated {
			if m := lastUpdatedRe.FindStringSubmatch(line); m != nil {
				h.HasLastUpdated = true
				h.LastUpdated = strings.TrimSpace(m[2])
			}
		}
		if h.HasStatus && h.HasLastUpdated {
			break
		}
	}
	return h
}

// MatchState maps a raw status value to a state under the given matching mode.
func MatchState(value string, mode Matching) (lifecycle.State, bool) {
	norm := strings.ToLower(strings.TrimSpace(markupRe.ReplaceAllString(value, "")))
	if mode == Strict {
		return lifecycle.ParseState(norm)
	}
	for _, s := range lifecycle.States {
		if strings.Contains(norm, string(s)) {
			return s, true
		}
	}
	return "", false
}

// RewriteHeader sets the first status line's value to state and, when a
// last-updated line exists, sets it to now's date. It reports false when
// the content carries no status line; content is then returned unchanged.
func RewriteHeader(content []byte, state lifecycle.State, now time.Time) ([]byte, bool, bool) {
	lines := strings.Split(string(content), "\n")
	var statusDone, dateDone bool
	for i, line := range lines {
		cr := ""
		if strings.HasSuffix(line, "\r") {
			cr = "\r"
			line = strings.TrimSuffix(line, "\r")
		}
		if !statusDone {
			if m := statusRe.FindStringSubmatch(line); m != nil {
				lines[i] = m[1] + string(state) + cr
				statusDone = true
				continue
			}
		}
		if !dateDone {
			if m := lastUpdatedRe.FindStringSubmatch(line); m != nil {
				lines[i] = m[1] + now.Format("2006-01-02") + cr
				dateDone = true
			}
		}
	}
	if !statusDone {
		return content, false, false
	}
	return []byte(strings.Join(lines, "\n")), true, dateDone
}
