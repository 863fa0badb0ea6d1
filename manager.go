package rewind

import (
	"errors"
	"fmt"
	"strings"
)

// replayState tracks which replay, if any, is in flight.
type replayState uint8

const (
	stateIdle replayState = iota
	stateUndoing
	stateRedoing
)

func (s replayState) String() string {
	switch s {
	case stateUndoing:
		return "undoing"
	case stateRedoing:
		return "redoing"
	default:
		return "idle"
	}
}

// DefaultRunLoopMode is the run-loop mode automatic grouping is active in
// unless the host configures otherwise.
const DefaultRunLoopMode = "default"

// Manager coordinates grouped undo and redo across two history stacks.
//
// A Manager is single-threaded with respect to a given instance: every
// public operation is synchronous and the caller serializes access. The
// replay loops in Undo and Redo synchronously re-enter RegisterUndo from
// the actions they invoke; that recursion is how the opposite stack is
// built and is not reentrancy corruption.
type Manager struct {
	undoStack *histStack
	redoStack *histStack

	state   replayState
	current *operation // record being replayed right now

	// captured accumulates the inverse batch while redoing; stepCaptured
	// flags that the current replay step re-registered.
	captured     []*operation
	stepCaptured bool

	// replayNest counts groups opened by replayed actions. Such groups are
	// absorbed by the atomic inverse batch and carry no stack state.
	replayNest int

	disabled      int // registration disable depth; 0 = enabled
	groupsByEvent bool
	eventGroup    bool // the outermost open group was opened implicitly
	modes         []string

	notifier Notifier

	undoTitle string
	redoTitle string
}

// Option configures a Manager.
type Option func(*Manager)

// WithNotifier routes lifecycle notifications to n.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLevelsOfUndo sets the initial retention limit (0 = unlimited).
func WithLevelsOfUndo(levels int) Option {
	return func(m *Manager) { m.SetLevelsOfUndo(levels) }
}

// WithMenuTitles overrides the menu title formats. Each format receives
// the action name as its single %s operand.
func WithMenuTitles(undoFormat, redoFormat string) Option {
	return func(m *Manager) {
		m.undoTitle = undoFormat
		m.redoTitle = redoFormat
	}
}

// New creates a Manager with automatic event grouping enabled, unlimited
// history, and the default run-loop mode.
func New(opts ...Option) *Manager {
	m := &Manager{
		undoStack:     &histStack{},
		redoStack:     &histStack{},
		groupsByEvent: true,
		modes:         []string{DefaultRunLoopMode},
		undoTitle:     "Undo %s",
		redoTitle:     "Redo %s",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterUndo records a reversible step against target. The action runs
// when the step is replayed and receives the target; it is expected to
// call RegisterUndo again with the inverse step, which is how the
// opposite stack gets built during undo and redo.
//
// The target is held weakly. If it is collected before replay, the record
// is skipped. Registration while disabled is a deliberate drop, not an
// error. Registering with no open group while automatic grouping is off
// is a protocol violation.
func RegisterUndo[T any](m *Manager, target *T, action func(*T)) {
	if target == nil {
		violation("RegisterUndo", "nil target")
	}
	ref := makeRef(target)
	m.register(&operation{
		target: ref,
		action: func() {
			if t := ref.p.Value(); t != nil {
				action(t)
			}
		},
	})
}

// register routes a new record according to the replay state. See the
// Manager doc for the protocol.
func (m *Manager) register(op *operation) {
	if m.disabled > 0 {
		return
	}
	switch m.state {
	case stateUndoing:
		// The replayed action is supplying the redo half of the record in
		// flight; it commits to the redo stack when this step finishes.
		m.current.action = op.action
		m.current.target = op.target
		m.stepCaptured = true
	case stateRedoing:
		// A fresh record for the inverse batch accumulating toward the
		// undo stack, inheriting the replayed record's metadata.
		op.name = m.current.name
		op.discardable = m.current.discardable
		m.captured = append(m.captured, op)
		m.stepCaptured = true
	default:
		if m.undoStack.openDepth() == 0 {
			if !m.groupsByEvent {
				violation("RegisterUndo", "no open group and grouping by event is off")
			}
			m.beginEventGroup()
		}
		if err := m.undoStack.addOperation(op); err != nil {
			violation("RegisterUndo", "%v", err)
		}
		// New work invalidates all forward history, unconditionally.
		m.redoStack.clear()
	}
}

// BeginGroup opens an undo group. Groups nest; operations registered
// inside undo and redo as a single unit. During replay a begin is
// absorbed by the atomic inverse batch.
func (m *Manager) BeginGroup() {
	if m.state != stateIdle {
		m.replayNest++
		return
	}
	m.post(NoteCheckpoint)
	m.undoStack.markBegin()
	m.post(NoteGroupOpened)
}

// EndGroup closes the innermost open group. Closing a group that was
// never opened is a protocol violation.
func (m *Manager) EndGroup() {
	if m.state != stateIdle {
		if m.replayNest == 0 {
			violation("EndGroup", "no group opened during replay")
		}
		m.replayNest--
		return
	}
	m.post(NoteCheckpoint)
	disc, ok := m.undoStack.openGroupDiscardable()
	if !ok {
		violation("EndGroup", "%v", errUnbalancedGroup)
	}
	m.postGroupWillClose(disc)
	if err := m.undoStack.markEnd(); err != nil {
		violation("EndGroup", "%v", err)
	}
	if m.undoStack.openDepth() == 0 {
		m.eventGroup = false
	}
	m.post(NoteGroupClosed)
}

// beginEventGroup opens the implicit group that brackets event-driven
// registrations until the run-loop iteration ends.
func (m *Manager) beginEventGroup() {
	m.BeginGroup()
	m.eventGroup = true
}

// EndEventGroup closes the implicit group opened by event-driven
// registration, if one is both pending and innermost. The run-loop driver
// calls this at every iteration boundary; hosts without a driver may call
// it directly. No-ops when nothing is pending.
func (m *Manager) EndEventGroup() {
	if !m.eventGroup || m.undoStack.openDepth() != 1 {
		return
	}
	m.EndGroup()
}

// Undo reverses the most recent closed top-level group. An open top-level
// group (the event-grouping case) is closed first; deeper open nesting is
// a protocol violation, as is calling Undo during a replay.
func (m *Manager) Undo() {
	if m.state != stateIdle {
		violation("Undo", "not allowed while %s", m.state)
	}
	if m.undoStack.openDepth() == 1 {
		m.EndGroup()
	}
	if depth := m.undoStack.openDepth(); depth > 0 {
		violation("Undo", "%d nested groups still open", depth)
	}
	m.UndoNestedGroup()
}

// UndoNestedGroup reverses exactly the innermost closed group without
// first closing an open outer group. With nothing to undo it is a silent
// no-op.
func (m *Manager) UndoNestedGroup() {
	if m.state != stateIdle {
		violation("UndoNestedGroup", "not allowed while %s", m.state)
	}
	m.post(NoteCheckpoint)

	b, err := m.undoStack.popBack()
	switch {
	case errors.Is(err, ErrNothingToUndo):
		return
	case err != nil:
		violation("UndoNestedGroup", "%v", err)
	}

	m.post(NoteWillUndo)
	m.state = stateUndoing

	// Replay in reverse. Each surviving step re-registers through
	// RegisterUndo, which attaches the redo half to the record in flight;
	// completed records accumulate into the inverse batch.
	inverse := make([]*operation, 0, len(b.ops))
	for i := len(b.ops) - 1; i >= 0; i-- {
		op := b.ops[i]
		if !op.alive() {
			continue
		}
		act := op.action
		op.action = nil
		m.current = op
		m.stepCaptured = false
		if act != nil {
			act()
		}
		if m.stepCaptured {
			inverse = append(inverse, op)
		}
	}
	m.current = nil
	m.state = stateIdle
	m.replayNest = 0

	if len(inverse) > 0 {
		// The batch was captured in replay (reverse) order; flip it back
		// so a forward redo reapplies the original order.
		for i, j := 0, len(inverse)-1; i < j; i, j = i+1, j-1 {
			inverse[i], inverse[j] = inverse[j], inverse[i]
		}
		rb := &batch{ops: inverse}
		if len(inverse) > 1 && b.meta != nil {
			rb.meta = b.meta.copy()
		}
		m.redoStack.pushFront(rb)
	}
	m.post(NoteDidUndo)
}

// Redo re-applies the oldest pending redo batch as one atomic group on
// the undo stack. Calling Redo during a replay, or with a group open, is
// a protocol violation. With nothing to redo it is a silent no-op.
func (m *Manager) Redo() {
	if m.state != stateIdle {
		violation("Redo", "not allowed while %s", m.state)
	}
	if depth := m.undoStack.openDepth(); depth > 0 {
		violation("Redo", "%d groups still open", depth)
	}
	m.post(NoteCheckpoint)

	b, err := m.redoStack.popFront()
	switch {
	case errors.Is(err, ErrNothingToRedo):
		return
	case err != nil:
		violation("Redo", "%v", err)
	}

	m.post(NoteWillRedo)
	m.state = stateRedoing
	m.captured = nil

	for _, op := range b.ops {
		if !op.alive() {
			continue
		}
		act := op.action
		op.action = nil
		m.current = op
		m.stepCaptured = false
		if act != nil {
			act()
		}
	}
	m.current = nil
	m.state = stateIdle
	m.replayNest = 0

	if len(m.captured) > 0 {
		meta := m.undoStack.markBegin()
		if b.meta != nil {
			*meta = *b.meta
		}
		for _, op := range m.captured {
			// The group is open; addOperation cannot fail here.
			if err := m.undoStack.addOperation(op); err != nil {
				violation("Redo", "%v", err)
			}
		}
		if err := m.undoStack.markEnd(); err != nil {
			violation("Redo", "%v", err)
		}
	}
	m.captured = nil
	m.post(NoteDidRedo)
}

// SetActionName names the record being replayed, or the open group's
// pending record otherwise. Calling it with no replay in progress and no
// open group is a protocol violation.
func (m *Manager) SetActionName(name string) {
	if m.state != stateIdle {
		if m.current != nil {
			m.current.name = name
		}
		return
	}
	if m.undoStack.openDepth() == 0 {
		violation("SetActionName", "no open group and no replay in progress")
	}
	if err := m.undoStack.setName(name); err != nil {
		violation("SetActionName", "%v", err)
	}
}

// SetActionIsDiscardable flags the record being replayed, or the open
// group's pending record, as droppable without user confirmation. The
// enclosing open group stays discardable only while every member is.
func (m *Manager) SetActionIsDiscardable(discardable bool) {
	if m.state != stateIdle {
		if m.current != nil {
			m.current.discardable = discardable
		}
		return
	}
	if m.undoStack.openDepth() == 0 {
		violation("SetActionIsDiscardable", "no open group and no replay in progress")
	}
	if err := m.undoStack.setDiscardable(discardable); err != nil {
		violation("SetActionIsDiscardable", "%v", err)
	}
}

// RemoveAllActions clears both stacks, open groups included.
func (m *Manager) RemoveAllActions() {
	m.undoStack.clear()
	m.redoStack.clear()
	m.eventGroup = false
}

// RemoveAllActionsFor removes every record referencing target from both
// stacks, collapsing groups the removal leaves empty. Records for other
// targets are untouched.
func RemoveAllActionsFor[T any](m *Manager, target *T) {
	if target == nil {
		return
	}
	key := makeRef(target).Key()
	m.undoStack.removeAll(key)
	m.redoStack.removeAll(key)
}

// DisableRegistration suppresses registration until a balancing
// EnableRegistration. Calls nest.
func (m *Manager) DisableRegistration() { m.disabled++ }

// EnableRegistration balances one DisableRegistration. Enabling while
// already enabled is a protocol violation.
func (m *Manager) EnableRegistration() {
	if m.disabled == 0 {
		violation("EnableRegistration", "registration is not disabled")
	}
	m.disabled--
}

// IsRegistrationEnabled reports whether RegisterUndo currently records.
func (m *Manager) IsRegistrationEnabled() bool { return m.disabled == 0 }

// IsUndoing reports whether an undo replay is in flight.
func (m *Manager) IsUndoing() bool { return m.state == stateUndoing }

// IsRedoing reports whether a redo replay is in flight.
func (m *Manager) IsRedoing() bool { return m.state == stateRedoing }

// CanUndo reports whether the undo stack holds anything to reverse.
func (m *Manager) CanUndo() bool { return m.undoStack.size() > 0 }

// CanRedo reports whether a redo batch is pending. Emits a checkpoint
// first so observers can flush pending state into the current group.
func (m *Manager) CanRedo() bool {
	m.post(NoteCheckpoint)
	return m.redoStack.size() > 0
}

// UndoActionName returns the display name of the next undo unit, or ""
// when there is none.
func (m *Manager) UndoActionName() string { return m.undoStack.backName() }

// RedoActionName returns the display name of the next redo unit, or ""
// when there is none.
func (m *Manager) RedoActionName() string { return m.redoStack.frontName() }

// UndoActionIsDiscardable reports whether the next undo unit may be
// dropped without user confirmation.
func (m *Manager) UndoActionIsDiscardable() bool { return m.undoStack.backDiscardable() }

// RedoActionIsDiscardable reports whether the next redo unit may be
// dropped without user confirmation.
func (m *Manager) RedoActionIsDiscardable() bool { return m.redoStack.frontDiscardable() }

// GroupingLevel returns the number of open groups, the implicit event
// group included.
func (m *Manager) GroupingLevel() int { return m.undoStack.openDepth() }

// LevelsOfUndo returns the retention limit; 0 means unlimited.
func (m *Manager) LevelsOfUndo() int { return m.undoStack.limit }

// SetLevelsOfUndo sets the maximum number of retained top-level groups
// and prunes immediately. 0 removes the limit.
func (m *Manager) SetLevelsOfUndo(levels int) {
	if levels < 0 {
		levels = 0
	}
	m.undoStack.limit = levels
	m.redoStack.limit = levels
	if levels > 0 {
		m.undoStack.enforceLimit()
		m.redoStack.enforceLimit()
	}
}

// GroupsByEvent reports whether registration outside a group opens an
// implicit per-iteration group.
func (m *Manager) GroupsByEvent() bool { return m.groupsByEvent }

// SetGroupsByEvent toggles automatic event grouping.
func (m *Manager) SetGroupsByEvent(on bool) { m.groupsByEvent = on }

// RunLoopModes returns the modes automatic grouping is active in. The
// tokens are opaque to the engine; the run-loop driver interprets them.
func (m *Manager) RunLoopModes() []string {
	modes := make([]string, len(m.modes))
	copy(modes, m.modes)
	return modes
}

// SetRunLoopModes replaces the active run-loop modes.
func (m *Manager) SetRunLoopModes(modes []string) {
	m.modes = make([]string, len(modes))
	copy(m.modes, modes)
}

// UndoMenuItemTitle returns the host-facing title for the undo menu item,
// e.g. "Undo Typing", or the bare verb when no action is named.
func (m *Manager) UndoMenuItemTitle() string {
	return menuTitle(m.undoTitle, m.UndoActionName())
}

// RedoMenuItemTitle returns the host-facing title for the redo menu item.
func (m *Manager) RedoMenuItemTitle() string {
	return menuTitle(m.redoTitle, m.RedoActionName())
}

func menuTitle(format, name string) string {
	return strings.TrimSpace(fmt.Sprintf(format, name))
}
