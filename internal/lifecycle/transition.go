package lifecycle

// Reasons attached to automatic transitions.
const (
	ReasonCodeChanges = "code changes detected in revision range"
	ReasonComplete    = "checklist 100% complete"
)

// Decision is the outcome of evaluating the transition rules.
// Reason is empty when Target equals the current state.
type Decision struct {
	Target State  `json:"target_state"`
	Reason string `json:"reason,omitempty"`
}

// Changed reports whether the decision moves the document.
func (d Decision) Changed(current State) bool {
	return d.Target != current
}

// Evaluate applies the automatic transition rules in fixed order; the first
// rule that matches wins:
//
//  1. approved with code changes becomes in-progress
//  2. in-progress at 100% completion becomes implemented
//
// Every other combination stays put. Draft and staged never move on their
// own, and promotion into approved or staged is always a manual edit.
func Evaluate(current State, percentage int, hasCodeChanges bool) Decision {
	switch {
	case current == Approved && hasCodeChanges:
		return Decision{Target: InProgress, Reason: ReasonCodeChanges}
	case current == InProgress && percentage == 100:
		return Decision{Target: Implemented, Reason: ReasonComplete}
	default:
		return Decision{Target: current}
	}
}
