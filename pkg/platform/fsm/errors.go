package fsm

import "fmt"

// TransitionError is returned by Transition when the rule chain refuses the
// requested edge. Reason holds the exact permission or guard message and must
// be preserved for callers that surface it to users.
type TransitionError struct {
	From   State
	To     State
	Denial Denial
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s refused: %s", e.From, e.To, e.Reason)
}
