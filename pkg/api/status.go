package api

// Status represents the lifecycle state of a workflow instance.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusWaiting   Status = "WAITING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// legalTransitions is the full lifecycle table. Terminal states have no
// outgoing transitions.
var legalTransitions = map[Status][]Status{
	StatusPending:   {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusWaiting, StatusPaused, StatusCompleted, StatusFailed, StatusCancelled},
	StatusWaiting:   {StatusRunning, StatusFailed, StatusCancelled},
	StatusPaused:    {StatusRunning, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

// IsValid reports whether s is one of the known lifecycle states.
func (s Status) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal reports whether s is a final state. Terminal instances are
// immutable; no further transition is legal.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// IsActive reports whether an instance in this state can still make progress.
func (s Status) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// CanTransition reports whether moving from s to target is legal.
func (s Status) CanTransition(target Status) bool {
	for _, t := range legalTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the legal targets from s, in table order.
// The returned slice is a copy.
func (s Status) AllowedTransitions() []Status {
	allowed := legalTransitions[s]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}
