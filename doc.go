// Package rewind provides a grouped undo/redo action-history manager.
//
// Callers register reversible operations against mutable targets; the
// Manager can later reverse ("undo") or re-apply ("redo") the most recent
// batch of operations. Operations nest into named groups that undo and
// redo as one atomic unit, and the history depth is bounded by a
// configurable retention limit.
//
// # Registration
//
// An operation is a target plus a closure that performs one reversal step:
//
//	rewind.RegisterUndo(mgr, doc, func(d *Document) {
//	    d.Remove(line)
//	})
//	mgr.SetActionName("Insert Line")
//
// The reversal closure is expected to register its own inverse when it
// runs. That is the whole protocol: undoing an insertion performs a
// removal, the removal registers an insertion, and the redo stack builds
// itself from those re-registrations.
//
// # Grouping
//
// Operations registered between BeginGroup and EndGroup undo together:
//
//	mgr.BeginGroup()
//	// ... several registrations ...
//	mgr.EndGroup()
//
// Groups nest arbitrarily. When automatic grouping is enabled (the
// default), a registration outside any group opens an implicit group that
// an event-loop driver closes at the end of the iteration.
//
// # Targets
//
// Targets are held weakly. The manager never keeps a target alive, and a
// record whose target has been collected is skipped during replay rather
// than treated as an error.
//
// # Failure policy
//
// Absence of work (nothing to undo, nothing to redo, registration while
// disabled) is a silent no-op. Protocol violations such as unbalanced
// grouping or redo during undo are caller contract breaches and panic
// with a *ProtocolError.
//
// A Manager is single-threaded: the caller serializes all access.
package rewind
