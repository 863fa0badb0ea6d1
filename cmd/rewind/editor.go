package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/rewind"
	"github.com/dshills/rewind/internal/config"
	"github.com/dshills/rewind/internal/document"
	"github.com/dshills/rewind/internal/event"
)

const historyLogLines = 6

// editor is the interactive scratchpad. Each polled terminal event is
// one run-loop iteration: pending event-opened undo groups close when
// the event has been handled.
type editor struct {
	screen tcell.Screen
	mgr    *rewind.Manager
	doc    *document.Document

	line, col int
	log       []string
}

func newEditor(mgr *rewind.Manager, doc *document.Document, bus *event.Bus) (*editor, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(tcell.StyleDefault)

	ed := &editor{screen: screen, mgr: mgr, doc: doc}
	if _, err := bus.Subscribe("**", ed.recordNotification); err != nil {
		screen.Fini()
		return nil, err
	}
	return ed, nil
}

func (ed *editor) close() {
	ed.screen.Fini()
}

// applyConfig is the reload callback. It runs on the watcher goroutine,
// so the new settings are shipped to the event loop rather than applied
// here.
func (ed *editor) applyConfig(cfg config.Config) {
	_ = ed.screen.PostEvent(tcell.NewEventInterrupt(cfg))
}

func (ed *editor) recordNotification(e event.Event) {
	ed.log = append(ed.log, string(e.Topic))
	if len(ed.log) > historyLogLines {
		ed.log = ed.log[len(ed.log)-historyLogLines:]
	}
}

func (ed *editor) loop() error {
	ed.draw()
	for {
		ev := ed.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlQ {
				return nil
			}
			ed.handleKey(ev)
		case *tcell.EventInterrupt:
			if cfg, ok := ev.Data().(config.Config); ok {
				cfg.Apply(ed.mgr)
			}
		case *tcell.EventResize:
			ed.screen.Sync()
		}
		ed.mgr.EndEventGroup()
		ed.draw()
	}
}

func (ed *editor) handleKey(ev *tcell.EventKey) {
	switch ev.Key() {
	case tcell.KeyCtrlZ:
		if ed.mgr.CanUndo() {
			ed.mgr.Undo()
			ed.clampCursor()
		}
	case tcell.KeyCtrlY:
		if ed.mgr.CanRedo() {
			ed.mgr.Redo()
			ed.clampCursor()
		}
	case tcell.KeyEnter:
		ed.insertNewline()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		ed.backspace()
	case tcell.KeyUp:
		ed.moveCursor(-1, 0)
	case tcell.KeyDown:
		ed.moveCursor(1, 0)
	case tcell.KeyLeft:
		ed.moveCursor(0, -1)
	case tcell.KeyRight:
		ed.moveCursor(0, 1)
	case tcell.KeyRune:
		ed.insertRune(ev.Rune())
	}
}

func (ed *editor) insertRune(r rune) {
	if ed.doc.LineCount() == 0 {
		if err := ed.doc.AppendLine(""); err != nil {
			return
		}
	}
	if err := ed.doc.InsertText(ed.line, ed.col, string(r)); err != nil {
		return
	}
	ed.col++
}

func (ed *editor) insertNewline() {
	if ed.doc.LineCount() == 0 {
		if err := ed.doc.AppendLine(""); err != nil {
			return
		}
		ed.line = 0
		ed.col = 0
		return
	}
	text, err := ed.doc.Line(ed.line)
	if err != nil {
		return
	}
	runes := []rune(text)
	head, tail := string(runes[:ed.col]), string(runes[ed.col:])
	if err := ed.doc.SetLine(ed.line, head); err != nil {
		return
	}
	if err := ed.doc.InsertLine(ed.line+1, tail); err != nil {
		return
	}
	ed.line++
	ed.col = 0
}

func (ed *editor) backspace() {
	if ed.col > 0 {
		if err := ed.doc.DeleteText(ed.line, ed.col-1, 1); err != nil {
			return
		}
		ed.col--
		return
	}
	if ed.line == 0 {
		return
	}
	prev, err := ed.doc.Line(ed.line - 1)
	if err != nil {
		return
	}
	cur, err := ed.doc.Line(ed.line)
	if err != nil {
		return
	}
	if err := ed.doc.SetLine(ed.line-1, prev+cur); err != nil {
		return
	}
	if err := ed.doc.RemoveLine(ed.line); err != nil {
		return
	}
	ed.line--
	ed.col = len([]rune(prev))
}

func (ed *editor) moveCursor(dl, dc int) {
	ed.line += dl
	ed.col += dc
	ed.clampCursor()
}

func (ed *editor) clampCursor() {
	if ed.line < 0 {
		ed.line = 0
	}
	if n := ed.doc.LineCount(); ed.line >= n {
		if n == 0 {
			ed.line, ed.col = 0, 0
			return
		}
		ed.line = n - 1
	}
	if ed.col < 0 {
		ed.col = 0
	}
	if text, err := ed.doc.Line(ed.line); err == nil {
		if n := len([]rune(text)); ed.col > n {
			ed.col = n
		}
	}
}

func (ed *editor) draw() {
	ed.screen.Clear()
	width, height := ed.screen.Size()

	textRows := height - historyLogLines - 2
	if textRows < 1 {
		textRows = 1
	}
	for i := 0; i < ed.doc.LineCount() && i < textRows; i++ {
		text, err := ed.doc.Line(i)
		if err != nil {
			continue
		}
		drawString(ed.screen, 0, i, width, text, tcell.StyleDefault)
	}

	status := fmt.Sprintf("%s | %s | Ctrl-Q quit", ed.mgr.UndoMenuItemTitle(), ed.mgr.RedoMenuItemTitle())
	drawString(ed.screen, 0, textRows, width, status, tcell.StyleDefault.Reverse(true))

	for i, topic := range ed.log {
		drawString(ed.screen, 0, textRows+1+i, width, topic, tcell.StyleDefault.Dim(true))
	}

	ed.screen.ShowCursor(ed.col, ed.line)
	ed.screen.Show()
}

func drawString(s tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= x+maxWidth {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
}
