// Package document provides a small line-oriented text buffer whose
// mutations register their own inverses with a history manager. It is
// the reference client for the undo engine: every edit method performs
// the change, records the reverse edit, and names the action for menu
// display.
package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/rewind"
)

// Errors returned by document edits.
var (
	// ErrLineOutOfRange indicates a line index outside the buffer.
	ErrLineOutOfRange = errors.New("document: line out of range")

	// ErrColumnOutOfRange indicates a rune column outside the line.
	ErrColumnOutOfRange = errors.New("document: column out of range")
)

// Document is a line buffer wired to an undo manager. Line indices are
// zero-based; columns count runes, not bytes.
type Document struct {
	mgr   *rewind.Manager
	lines []string
}

// New creates an empty document recording history on mgr.
func New(mgr *rewind.Manager) *Document {
	return &Document{mgr: mgr}
}

// FromText creates a document from newline-separated text. Loading is
// not undoable.
func FromText(mgr *rewind.Manager, text string) *Document {
	d := New(mgr)
	if text != "" {
		d.lines = strings.Split(text, "\n")
	}
	return d
}

// Manager returns the history manager recording this document's edits.
func (d *Document) Manager() *rewind.Manager { return d.mgr }

// LineCount returns the number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// Line returns line i.
func (d *Document) Line(i int) (string, error) {
	if i < 0 || i >= len(d.lines) {
		return "", fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	return d.lines[i], nil
}

// Text returns the whole buffer joined with newlines.
func (d *Document) Text() string { return strings.Join(d.lines, "\n") }

// InsertLine inserts text as a new line at index i, 0 <= i <= LineCount.
func (d *Document) InsertLine(i int, text string) error {
	if i < 0 || i > len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	d.lines = append(d.lines, "")
	copy(d.lines[i+1:], d.lines[i:])
	d.lines[i] = text

	rewind.RegisterUndo(d.mgr, d, func(doc *Document) {
		_ = doc.RemoveLine(i)
	})
	d.nameAction("Insert Line")
	return nil
}

// RemoveLine deletes line i.
func (d *Document) RemoveLine(i int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	removed := d.lines[i]
	d.lines = append(d.lines[:i], d.lines[i+1:]...)

	rewind.RegisterUndo(d.mgr, d, func(doc *Document) {
		_ = doc.InsertLine(i, removed)
	})
	d.nameAction("Delete Line")
	return nil
}

// SetLine replaces line i with text.
func (d *Document) SetLine(i int, text string) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	old := d.lines[i]
	d.lines[i] = text

	rewind.RegisterUndo(d.mgr, d, func(doc *Document) {
		_ = doc.SetLine(i, old)
	})
	d.nameAction("Edit Line")
	return nil
}

// AppendLine adds text as the last line.
func (d *Document) AppendLine(text string) error {
	return d.InsertLine(len(d.lines), text)
}

// InsertText inserts text into line i at rune column col.
func (d *Document) InsertText(i, col int, text string) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	runes := []rune(d.lines[i])
	if col < 0 || col > len(runes) {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	inserted := []rune(text)
	d.lines[i] = string(runes[:col]) + text + string(runes[col:])

	n := len(inserted)
	rewind.RegisterUndo(d.mgr, d, func(doc *Document) {
		_ = doc.DeleteText(i, col, n)
	})
	d.nameAction("Typing")
	return nil
}

// DeleteText removes n runes from line i starting at rune column col.
func (d *Document) DeleteText(i, col, n int) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("%w: %d", ErrLineOutOfRange, i)
	}
	runes := []rune(d.lines[i])
	if col < 0 || col > len(runes) {
		return fmt.Errorf("%w: %d", ErrColumnOutOfRange, col)
	}
	if n < 0 || col+n > len(runes) {
		return fmt.Errorf("%w: %d+%d", ErrColumnOutOfRange, col, n)
	}
	removed := string(runes[col : col+n])
	d.lines[i] = string(runes[:col]) + string(runes[col+n:])

	rewind.RegisterUndo(d.mgr, d, func(doc *Document) {
		_ = doc.InsertText(i, col, removed)
	})
	d.nameAction("Delete")
	return nil
}

// nameAction labels the registration just made. When the manager is
// replaying, the action name belongs to the batch being rebuilt and the
// replayed registration inherits it, so only idle edits are named here.
func (d *Document) nameAction(name string) {
	if !d.mgr.IsRegistrationEnabled() || d.mgr.IsUndoing() || d.mgr.IsRedoing() {
		return
	}
	if d.mgr.GroupingLevel() > 0 {
		d.mgr.SetActionName(name)
	}
}
