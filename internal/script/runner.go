// Package script runs Lua scenarios against a document and its history
// manager. Scripts drive edits, grouping, and undo/redo through a small
// host API, which makes history behavior testable and demoable without
// a terminal.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind"
	"github.com/dshills/rewind/internal/document"
)

// Runner executes Lua scenario scripts.
//
// gopher-lua's LState is not goroutine-safe; a Runner must be used from
// a single goroutine.
type Runner struct {
	L   *lua.LState
	mgr *rewind.Manager
	doc *document.Document
}

// New creates a Runner bound to doc and its manager. Close must be
// called when done.
func New(doc *document.Document) *Runner {
	r := &Runner{
		L:   lua.NewState(),
		mgr: doc.Manager(),
		doc: doc,
	}
	r.register()
	return r
}

// Close releases the Lua state.
func (r *Runner) Close() {
	r.L.Close()
}

// RunFile executes the script at path.
func (r *Runner) RunFile(path string) error {
	if err := r.L.DoFile(path); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunString executes src as a script.
func (r *Runner) RunString(src string) error {
	if err := r.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// register installs the host API as the global "history" table.
func (r *Runner) register() {
	fns := map[string]lua.LGFunction{
		"insert_line": r.luaInsertLine,
		"remove_line": r.luaRemoveLine,
		"set_line":    r.luaSetLine,
		"append":      r.luaAppend,
		"text":        r.luaText,
		"line_count":  r.luaLineCount,
		"begin_group": r.luaBeginGroup,
		"end_group":   r.luaEndGroup,
		"set_name":    r.luaSetName,
		"undo":        r.luaUndo,
		"redo":        r.luaRedo,
		"can_undo":    r.luaCanUndo,
		"can_redo":    r.luaCanRedo,
		"undo_title":  r.luaUndoTitle,
		"redo_title":  r.luaRedoTitle,
		"set_levels":  r.luaSetLevels,
	}
	mod := r.L.SetFuncs(r.L.NewTable(), fns)
	r.L.SetGlobal("history", mod)
}

func (r *Runner) hostErr(L *lua.LState, err error) int {
	if err != nil {
		L.RaiseError("%v", err)
	}
	return 0
}

func (r *Runner) luaInsertLine(L *lua.LState) int {
	idx := L.CheckInt(1)
	text := L.CheckString(2)
	return r.hostErr(L, r.doc.InsertLine(idx, text))
}

func (r *Runner) luaRemoveLine(L *lua.LState) int {
	return r.hostErr(L, r.doc.RemoveLine(L.CheckInt(1)))
}

func (r *Runner) luaSetLine(L *lua.LState) int {
	idx := L.CheckInt(1)
	text := L.CheckString(2)
	return r.hostErr(L, r.doc.SetLine(idx, text))
}

func (r *Runner) luaAppend(L *lua.LState) int {
	return r.hostErr(L, r.doc.AppendLine(L.CheckString(1)))
}

func (r *Runner) luaText(L *lua.LState) int {
	L.Push(lua.LString(r.doc.Text()))
	return 1
}

func (r *Runner) luaLineCount(L *lua.LState) int {
	L.Push(lua.LNumber(r.doc.LineCount()))
	return 1
}

func (r *Runner) luaBeginGroup(L *lua.LState) int {
	r.mgr.BeginGroup()
	if L.GetTop() >= 1 {
		if name := L.CheckString(1); name != "" {
			r.mgr.SetActionName(name)
		}
	}
	return 0
}

func (r *Runner) luaEndGroup(L *lua.LState) int {
	r.mgr.EndGroup()
	return 0
}

func (r *Runner) luaSetName(L *lua.LState) int {
	r.mgr.SetActionName(L.CheckString(1))
	return 0
}

func (r *Runner) luaUndo(L *lua.LState) int {
	r.mgr.Undo()
	return 0
}

func (r *Runner) luaRedo(L *lua.LState) int {
	r.mgr.Redo()
	return 0
}

func (r *Runner) luaCanUndo(L *lua.LState) int {
	L.Push(lua.LBool(r.mgr.CanUndo()))
	return 1
}

func (r *Runner) luaCanRedo(L *lua.LState) int {
	L.Push(lua.LBool(r.mgr.CanRedo()))
	return 1
}

func (r *Runner) luaUndoTitle(L *lua.LState) int {
	L.Push(lua.LString(r.mgr.UndoMenuItemTitle()))
	return 1
}

func (r *Runner) luaRedoTitle(L *lua.LState) int {
	L.Push(lua.LString(r.mgr.RedoMenuItemTitle()))
	return 1
}

func (r *Runner) luaSetLevels(L *lua.LState) int {
	n := L.CheckInt(1)
	if n < 0 {
		L.RaiseError("set_levels: negative limit %d", n)
	}
	r.mgr.SetLevelsOfUndo(n)
	return 0
}
