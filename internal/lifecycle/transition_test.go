package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		current State
		pct     int
		code    bool
		want    State
		reason  string
	}{
		{"approved with code changes", Approved, 0, true, InProgress, ReasonCodeChanges},
		{"approved with code changes at 100", Approved, 100, true, InProgress, ReasonCodeChanges},
		{"approved without code changes", Approved, 100, false, Approved, ""},
		{"in-progress complete", InProgress, 100, false, Implemented, ReasonComplete},
		{"in-progress complete with code", InProgress, 100, true, Implemented, ReasonComplete},
		{"in-progress partial", InProgress, 99, true, InProgress, ""},
		{"draft never moves", Draft, 100, true, Draft, ""},
		{"staged never moves", Staged, 100, true, Staged, ""},
		{"implemented stays", Implemented, 100, true, Implemented, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.current, tt.pct, tt.code)
			assert.Equal(t, tt.want, d.Target)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.want != tt.current, d.Changed(tt.current))
		})
	}
}

func TestEvaluate_DraftNeverTransitions(t *testing.T) {
	for pct := 0; pct <= 100; pct += 10 {
		for _, code := range []bool{false, true} {
			d := Evaluate(Draft, pct, code)
			assert.Equal(t, Draft, d.Target, "pct=%d code=%v", pct, code)
		}
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		in   string
		want State
		ok   bool
	}{
		{"draft", Draft, true},
		{"  In-Progress ", InProgress, true},
		{"IMPLEMENTED", Implemented, true},
		{"in progress", "", false},
		{"in-progress (blocked)", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseState(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsFolder(t *testing.T) {
	assert.True(t, IsFolder("approved"))
	assert.True(t, IsFolder("staged"))
	assert.False(t, IsFolder("draft"))
	assert.False(t, IsFolder("Approved"))
}
