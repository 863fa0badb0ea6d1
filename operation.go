package rewind

import "weak"

// targetRef is a type-erased, non-owning handle to an operation's target.
// The engine never keeps a target alive: once the host drops its last
// strong reference the record becomes inert and replay skips it.
type targetRef interface {
	// Alive reports whether the target is still reachable.
	Alive() bool

	// Key returns a comparable value identifying the target. Two refs to
	// the same object return equal keys.
	Key() any
}

// weakRef backs targetRef with a stdlib weak pointer.
type weakRef[T any] struct {
	p weak.Pointer[T]
}

func makeRef[T any](target *T) weakRef[T] {
	return weakRef[T]{p: weak.Make(target)}
}

func (r weakRef[T]) Alive() bool { return r.p.Value() != nil }

// Key returns the weak pointer itself; weak.Make yields equal pointers for
// equal targets, so the key is stable for the target's lifetime and after.
func (r weakRef[T]) Key() any { return r.p }

// operation is a single reversible step recorded on a history stack.
//
// The action slot always holds the next reversal step for the stack the
// record currently sits on: the undo step while on the undo stack, the
// redo step after an undo migrates the record to the redo stack. Replay
// empties the slot before invoking it; the invoked closure re-registers,
// which refills the slot with the inverse step.
type operation struct {
	target targetRef
	action func()

	// Mutable only while the record is current: being registered, or being
	// replayed as currentUndoing/currentRedoing.
	name        string
	discardable bool
}

func (op *operation) alive() bool {
	return op.target != nil && op.target.Alive()
}
