package rewind

// Notification names. They are dot-separated so they map directly onto
// topic-based buses.
const (
	// NoteCheckpoint marks a boundary in the registration stream: it is
	// emitted before every begin/end/undo/redo transition and before a
	// CanRedo query, giving observers a chance to flush pending work into
	// the current group.
	NoteCheckpoint = "undo.checkpoint"

	// NoteWillUndo and NoteDidUndo bracket the replay of one undo batch.
	NoteWillUndo = "undo.will"
	NoteDidUndo  = "undo.did"

	// NoteWillRedo and NoteDidRedo bracket the replay of one redo batch.
	NoteWillRedo = "redo.will"
	NoteDidRedo  = "redo.did"

	// NoteGroupOpened follows a successful BeginGroup.
	NoteGroupOpened = "group.opened"

	// NoteGroupWillClose and NoteGroupClosed bracket a successful
	// EndGroup. NoteGroupWillClose carries the closing group's
	// discardability.
	NoteGroupWillClose = "group.willclose"
	NoteGroupClosed    = "group.closed"
)

// Notification is a lifecycle signal emitted by a Manager.
type Notification struct {
	Name string

	// GroupDiscardable is meaningful only for NoteGroupWillClose.
	GroupDiscardable bool
}

// Notifier receives lifecycle notifications. Implementations run on the
// Manager's calling goroutine and must not call back into the Manager.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f.
func (f NotifierFunc) Notify(n Notification) { f(n) }

func (m *Manager) post(name string) {
	if m.notifier != nil {
		m.notifier.Notify(Notification{Name: name})
	}
}

func (m *Manager) postGroupWillClose(discardable bool) {
	if m.notifier != nil {
		m.notifier.Notify(Notification{Name: NoteGroupWillClose, GroupDiscardable: discardable})
	}
}
