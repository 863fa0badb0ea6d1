package rewind

import (
	"testing"
)

// recorder is a replay-visible target: every step logs itself and
// registers its inverse, which is the registration contract replay
// depends on.
type recorder struct {
	mgr *Manager
	log []string
}

func (r *recorder) do(name string) {
	r.log = append(r.log, "do:"+name)
	r.registerUndo(name)
}

func (r *recorder) registerUndo(name string) {
	RegisterUndo(r.mgr, r, func(rr *recorder) {
		rr.log = append(rr.log, "undo:"+name)
		rr.registerRedo(name)
	})
}

func (r *recorder) registerRedo(name string) {
	RegisterUndo(r.mgr, r, func(rr *recorder) {
		rr.log = append(rr.log, "redo:"+name)
		rr.registerUndo(name)
	})
}

func (r *recorder) tail(n int) []string {
	if n > len(r.log) {
		n = len(r.log)
	}
	return r.log[len(r.log)-n:]
}

func newTestManager() (*Manager, *recorder) {
	m := New()
	m.SetGroupsByEvent(false)
	return m, &recorder{mgr: m}
}

func expectViolation(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		switch r := recover().(type) {
		case nil:
			t.Fatal("expected a protocol violation")
		case *ProtocolError:
		default:
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	fn()
}

// counter is a target whose state round-trips through undo/redo.
type counter struct {
	mgr *Manager
	n   int
}

func (c *counter) set(v int) {
	old := c.n
	c.n = v
	RegisterUndo(c.mgr, c, func(cc *counter) { cc.set(old) })
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := New()
	m.SetGroupsByEvent(false)
	c := &counter{mgr: m}

	m.BeginGroup()
	c.set(1)
	c.set(2)
	m.EndGroup()

	before := c.n
	m.Undo()
	if c.n != 0 {
		t.Fatalf("after undo n = %d, want 0", c.n)
	}
	m.Redo()
	if c.n != before {
		t.Errorf("after redo n = %d, want %d (round-trip law)", c.n, before)
	}
	if !m.CanUndo() {
		t.Error("redo must leave a fresh undoable batch")
	}
}

func TestNestedGroupReplayOrder(t *testing.T) {
	m, rec := newTestManager()

	m.BeginGroup()
	m.SetActionName("Outer")
	rec.do("A")
	m.BeginGroup()
	rec.do("B")
	rec.do("C")
	m.EndGroup()
	m.EndGroup()

	if got := m.UndoActionName(); got != "Outer" {
		t.Errorf("UndoActionName = %q, want Outer", got)
	}

	m.Undo()
	want := []string{"undo:C", "undo:B", "undo:A"}
	if !sameNames(rec.tail(3), want) {
		t.Fatalf("undo order = %v, want %v", rec.tail(3), want)
	}
	if m.CanUndo() {
		t.Error("undo stack should be empty")
	}
	if got := m.RedoActionName(); got != "Outer" {
		t.Errorf("RedoActionName = %q, want Outer", got)
	}

	m.Redo()
	want = []string{"redo:A", "redo:B", "redo:C"}
	if !sameNames(rec.tail(3), want) {
		t.Fatalf("redo order = %v, want %v", rec.tail(3), want)
	}
	if !m.CanUndo() {
		t.Error("redo must leave one fresh undoable batch")
	}
	if got := m.UndoActionName(); got != "Outer" {
		t.Errorf("UndoActionName after redo = %q, want Outer", got)
	}
}

func TestRedoOrderIsLastUndoneFirst(t *testing.T) {
	m, rec := newTestManager()

	for _, g := range []string{"G1", "G2"} {
		m.BeginGroup()
		rec.do(g)
		m.SetActionName(g)
		m.EndGroup()
	}

	m.Undo() // G2
	m.Undo() // G1
	if got := m.RedoActionName(); got != "G1" {
		t.Fatalf("RedoActionName = %q, want G1 (last undone redoes first)", got)
	}
	m.Redo()
	if got := m.RedoActionName(); got != "G2" {
		t.Errorf("RedoActionName = %q, want G2", got)
	}
	m.Redo()
	if got := m.UndoActionName(); got != "G2" {
		t.Errorf("UndoActionName = %q, want G2", got)
	}
}

func TestEmptyGroupIsRetained(t *testing.T) {
	m, _ := newTestManager()
	m.BeginGroup()
	m.EndGroup()
	if !m.CanUndo() {
		t.Fatal("an empty closed group must remain undoable")
	}
	m.Undo()
	if m.CanUndo() {
		t.Error("undo of the empty group should leave nothing")
	}
	if m.CanRedo() {
		t.Error("an empty group captures no inverse batch")
	}
}

func TestLevelsOfUndoEviction(t *testing.T) {
	m, rec := newTestManager()
	m.SetLevelsOfUndo(2)

	for _, g := range []string{"G1", "G2", "G3"} {
		m.BeginGroup()
		m.SetActionName(g)
		rec.do(g)
		m.EndGroup()
	}

	if got := m.UndoActionName(); got != "G3" {
		t.Fatalf("UndoActionName = %q, want G3", got)
	}
	m.Undo()
	if got := m.UndoActionName(); got != "G2" {
		t.Fatalf("UndoActionName = %q, want G2", got)
	}
	m.Undo()
	if got := m.UndoActionName(); got != "" {
		t.Fatalf("UndoActionName = %q, want empty (G1 evicted)", got)
	}
	m.Undo() // silent no-op
	if m.CanUndo() {
		t.Error("nothing should remain undoable")
	}
}

func TestSingleOperationBatchStaysLone(t *testing.T) {
	m, rec := newTestManager()
	m.BeginGroup()
	rec.do("solo")
	m.SetActionName("Solo")
	m.EndGroup()

	m.Undo()
	// One record: the redo side stores it unbracketed, and its own name
	// serves as the display name.
	if got := m.redoStack.size(); got != 1 {
		t.Errorf("redo stack size = %d, want 1 lone entry", got)
	}
	if got := m.RedoActionName(); got != "Solo" {
		t.Errorf("RedoActionName = %q, want Solo", got)
	}
}

func TestRegistrationClearsRedoStack(t *testing.T) {
	m, rec := newTestManager()
	m.BeginGroup()
	rec.do("A")
	m.EndGroup()
	m.Undo()
	if !m.CanRedo() {
		t.Fatal("expected pending redo")
	}

	m.BeginGroup()
	rec.do("B")
	m.EndGroup()
	if m.CanRedo() {
		t.Error("new registration must clear all forward history")
	}
}

func TestRegistrationWhileDisabledIsDropped(t *testing.T) {
	m, rec := newTestManager()
	m.DisableRegistration()
	if m.IsRegistrationEnabled() {
		t.Fatal("registration should be disabled")
	}
	rec.do("dropped") // no group open either: the drop wins over the violation
	if m.CanUndo() {
		t.Error("disabled registration must not record")
	}
	m.EnableRegistration()
	if !m.IsRegistrationEnabled() {
		t.Error("registration should be enabled again")
	}
}

func TestDisableRegistrationNests(t *testing.T) {
	m, _ := newTestManager()
	m.DisableRegistration()
	m.DisableRegistration()
	m.EnableRegistration()
	if m.IsRegistrationEnabled() {
		t.Error("still one disable outstanding")
	}
	m.EnableRegistration()
	if !m.IsRegistrationEnabled() {
		t.Error("balanced enable must re-enable")
	}
}

func TestProtocolViolations(t *testing.T) {
	t.Run("end without begin", func(t *testing.T) {
		m, _ := newTestManager()
		expectViolation(t, m.EndGroup)
	})

	t.Run("undo with nested open groups", func(t *testing.T) {
		m, rec := newTestManager()
		m.BeginGroup()
		m.BeginGroup()
		rec.do("A")
		expectViolation(t, m.Undo)
	})

	t.Run("nested undo with no closed group", func(t *testing.T) {
		m, rec := newTestManager()
		m.BeginGroup()
		rec.do("A")
		expectViolation(t, m.UndoNestedGroup)
	})

	t.Run("redo while undoing", func(t *testing.T) {
		m, _ := newTestManager()
		r := &recorder{mgr: m}
		m.BeginGroup()
		RegisterUndo(m, r, func(*recorder) { m.Redo() })
		m.EndGroup()
		expectViolation(t, m.Undo)
	})

	t.Run("set name without context", func(t *testing.T) {
		m, _ := newTestManager()
		expectViolation(t, func() { m.SetActionName("x") })
	})

	t.Run("set discardable without context", func(t *testing.T) {
		m, _ := newTestManager()
		expectViolation(t, func() { m.SetActionIsDiscardable(true) })
	})

	t.Run("unbalanced enable", func(t *testing.T) {
		m, _ := newTestManager()
		expectViolation(t, m.EnableRegistration)
	})

	t.Run("register without group when event grouping off", func(t *testing.T) {
		_, rec := newTestManager()
		expectViolation(t, func() { rec.do("A") })
	})
}

func TestEventGroupingOpensImplicitGroup(t *testing.T) {
	m := New()
	rec := &recorder{mgr: m}

	rec.do("A")
	if m.GroupingLevel() != 1 {
		t.Fatalf("GroupingLevel = %d, want 1 implicit group", m.GroupingLevel())
	}
	m.EndEventGroup()
	if m.GroupingLevel() != 0 {
		t.Fatalf("GroupingLevel = %d after EndEventGroup, want 0", m.GroupingLevel())
	}

	// Undo also closes a pending single event group on its own.
	rec.do("B")
	m.Undo()
	if !sameNames(rec.tail(1), []string{"undo:B"}) {
		t.Errorf("log tail = %v, want [undo:B]", rec.tail(1))
	}
}

func TestEndEventGroupIgnoresExplicitGroups(t *testing.T) {
	m, rec := newTestManager()
	m.BeginGroup()
	rec.do("A")
	m.EndEventGroup() // explicit group: not ours to close
	if m.GroupingLevel() != 1 {
		t.Errorf("GroupingLevel = %d, want 1", m.GroupingLevel())
	}
	m.EndGroup()
}

func TestDeadTargetSkippedDuringReplay(t *testing.T) {
	m, _ := newTestManager()
	deadRef := &stubRef{}
	invoked := false

	m.BeginGroup()
	m.register(&operation{target: deadRef, action: func() { invoked = true }})
	live := &recorder{mgr: m}
	live.do("live")
	m.EndGroup()

	deadRef.dead = true
	m.Undo()

	if invoked {
		t.Error("dead-target record must not replay")
	}
	if !sameNames(live.tail(1), []string{"undo:live"}) {
		t.Errorf("live record skipped: %v", live.tail(1))
	}
	// Only the live record re-registered, so the redo batch is a lone entry.
	if got := m.redoStack.size(); got != 1 {
		t.Errorf("redo stack size = %d, want 1", got)
	}
}

func TestRemoveAllActionsForTarget(t *testing.T) {
	m := New()
	m.SetGroupsByEvent(false)
	keep := &counter{mgr: m}
	drop := &counter{mgr: m}

	m.BeginGroup()
	keep.set(1)
	drop.set(10)
	m.EndGroup()

	RemoveAllActionsFor(m, drop)
	m.Undo()

	if keep.n != 0 {
		t.Errorf("keep.n = %d, want 0", keep.n)
	}
	if drop.n != 10 {
		t.Errorf("drop.n = %d, want 10 (its records were removed)", drop.n)
	}
}

func TestRemoveAllActions(t *testing.T) {
	m, rec := newTestManager()
	m.BeginGroup()
	rec.do("A")
	m.EndGroup()
	m.Undo()
	m.BeginGroup()
	rec.do("B")

	m.RemoveAllActions()

	if m.CanUndo() || m.CanRedo() {
		t.Error("RemoveAllActions must clear both stacks")
	}
	if m.GroupingLevel() != 0 {
		t.Errorf("GroupingLevel = %d, want 0", m.GroupingLevel())
	}
}

func TestReplayNestedGroupingIsAbsorbed(t *testing.T) {
	m, _ := newTestManager()
	r := &recorder{mgr: m}

	m.BeginGroup()
	RegisterUndo(m, r, func(rr *recorder) {
		// A replayed action may bracket its own work; the brackets are
		// absorbed by the atomic inverse batch.
		m.BeginGroup()
		rr.log = append(rr.log, "undo:wrapped")
		rr.registerRedo("wrapped")
		m.EndGroup()
	})
	m.EndGroup()

	m.Undo()
	if !sameNames(r.tail(1), []string{"undo:wrapped"}) {
		t.Fatalf("log = %v", r.log)
	}
	if !m.CanRedo() {
		t.Error("wrapped registration should still capture a redo batch")
	}
	m.Redo()
	if !sameNames(r.tail(1), []string{"redo:wrapped"}) {
		t.Errorf("log = %v", r.log)
	}
}

func TestDiscardableQueries(t *testing.T) {
	m, rec := newTestManager()
	m.BeginGroup()
	rec.do("A")
	m.SetActionIsDiscardable(true)
	m.EndGroup()
	if !m.UndoActionIsDiscardable() {
		t.Error("fully discardable group should report discardable")
	}

	m.BeginGroup()
	rec.do("B")
	m.EndGroup()
	if m.UndoActionIsDiscardable() {
		t.Error("unmarked operation must leave the group non-discardable")
	}
}

func TestMenuItemTitles(t *testing.T) {
	m, rec := newTestManager()
	if got := m.UndoMenuItemTitle(); got != "Undo" {
		t.Errorf("empty UndoMenuItemTitle = %q, want Undo", got)
	}
	m.BeginGroup()
	rec.do("A")
	m.SetActionName("Typing")
	m.EndGroup()
	if got := m.UndoMenuItemTitle(); got != "Undo Typing" {
		t.Errorf("UndoMenuItemTitle = %q, want %q", got, "Undo Typing")
	}
	m.Undo()
	if got := m.RedoMenuItemTitle(); got != "Redo Typing" {
		t.Errorf("RedoMenuItemTitle = %q, want %q", got, "Redo Typing")
	}
}

func TestUndoRedoNoOpWhenEmpty(t *testing.T) {
	m, _ := newTestManager()
	m.Undo() // must not panic
	m.Redo() // must not panic
	if m.CanUndo() || m.CanRedo() {
		t.Error("stacks should be empty")
	}
}
