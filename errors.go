package rewind

import (
	"errors"
	"fmt"
)

// Absence-of-work conditions. These are normal steady states: the Manager
// swallows them and the corresponding call becomes a silent no-op.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Stack-level protocol errors. The Manager converts these into
// ProtocolError panics; they never escape as return values.
var (
	errUnbalancedGroup = errors.New("end group without matching begin group")
	errNoOpenGroup     = errors.New("no open undo group")
	errGroupStillOpen  = errors.New("open group has no closed group to pop")
)

// ProtocolError reports caller misuse of the undo manager's calling
// protocol: unbalanced grouping, undo of a still-open group, redo during
// undo, mismatched enable/disable, or metadata mutation with no open
// context. These are contract breaches rather than runtime conditions, so
// the Manager panics with a *ProtocolError instead of returning an error.
type ProtocolError struct {
	Op     string // the offending call, e.g. "Undo"
	Reason string // the violated precondition
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rewind: %s: %s", e.Op, e.Reason)
}

// violation aborts the current call path with a ProtocolError.
func violation(op, format string, args ...any) {
	panic(&ProtocolError{Op: op, Reason: fmt.Sprintf(format, args...)})
}
