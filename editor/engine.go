package editor

import (
	"errors"
	"fmt"

	"penpal/utils"
)

// ErrReadOnly is returned for edits attempted after the letter was sent
var ErrReadOnly = errors.New("editor is read-only")

// Format is a formatting command of the toolbar
type Format string

const (
	FormatBold          Format = "bold"
	FormatItalic        Format = "italic"
	FormatUnderline     Format = "underline"
	FormatOrderedList   Format = "orderedList"
	FormatUnorderedList Format = "unorderedList"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, bool) {
	switch f := Format(s); f {
	case FormatBold, FormatItalic, FormatUnderline, FormatOrderedList, FormatUnorderedList:
		return f, true
	}
	return "", false
}

func (f Format) inlineStyle() (InlineStyle, bool) {
	switch f {
	case FormatBold:
		return StyleBold, true
	case FormatItalic:
		return StyleItalic, true
	case FormatUnderline:
		return StyleUnderline, true
	}
	return "", false
}

// Engine applies edits to a Surface and records undo history. It is not
// safe for concurrent use.
type Engine struct {
	surface   Surface
	history   *History
	preserved *Selection
	readOnly  bool
	log       *utils.Logger
}

// NewEngine creates an engine over surface
func NewEngine(surface Surface, historyCapacity int) *Engine {
	return &Engine{
		surface: surface,
		history: NewHistory(historyCapacity),
		log:     utils.Log,
	}
}

// Content returns the current body
func (e *Engine) Content() string {
	return e.surface.Content()
}

// PlainText returns the plain-text projection of the body
func (e *Engine) PlainText() string {
	return PlainText(e.surface.Content())
}

func (e *Engine) CanUndo() bool { return !e.readOnly && e.history.CanUndo() }
func (e *Engine) CanRedo() bool { return !e.readOnly && e.history.CanRedo() }

func (e *Engine) ReadOnly() bool { return e.readOnly }

// SetReadOnly locks or unlocks the body
func (e *Engine) SetReadOnly(readOnly bool) {
	e.readOnly = readOnly
}

// Selection returns the surface selection
func (e *Engine) Selection() (Selection, bool) {
	return e.surface.Selection()
}

// Select sets the selection. A non-collapsed selection is remembered so
// list commands can still use it after focus moved to the toolbar. A
// selection that does not resolve against the body is ignored and Select
// reports false.
func (e *Engine) Select(sel Selection) bool {
	doc, err := Parse(e.surface.Content())
	if err != nil {
		return false
	}
	if _, ok := doc.Resolve(sel); !ok {
		e.log.Debug("ignoring selection %v outside the body", sel)
		return false
	}
	e.surface.SetSelection(sel)
	if !sel.Collapsed() {
		saved := sel
		e.preserved = &saved
	}
	return true
}

// Edit replaces the body with content typed by the writer. Ordered lists
// are renumbered and the previous body is pushed onto the undo stack.
func (e *Engine) Edit(content string) (bool, error) {
	if e.readOnly {
		return false, ErrReadOnly
	}
	doc, err := Parse(content)
	if err != nil {
		return false, err
	}
	NormalizeOrderedLists(doc)

	before := e.surface.Content()
	next := doc.HTML()
	if next == before {
		return false, nil
	}
	if err := e.surface.SetContent(next); err != nil {
		return false, err
	}
	e.history.Push(before)
	e.preserved = nil
	return true, nil
}

// ToggleFormatting applies kind to sel, or to the current selection when
// sel is nil. A selection that cannot be resolved against the body leaves
// everything untouched.
func (e *Engine) ToggleFormatting(kind Format, sel *Selection) (bool, error) {
	if e.readOnly {
		return false, ErrReadOnly
	}
	if sel != nil && !e.Select(*sel) {
		return false, nil
	}

	before := e.surface.Content()
	var changed bool
	switch kind {
	case FormatBold, FormatItalic, FormatUnderline:
		style, _ := kind.inlineStyle()
		changed = e.surface.ApplyInlineStyle(style)
		if changed {
			// the remembered paths point into the old tree
			e.preserved = nil
		}
	case FormatOrderedList, FormatUnorderedList:
		changed = e.applyList(kind == FormatOrderedList)
	default:
		return false, fmt.Errorf("unknown format %q", kind)
	}

	if !changed || e.surface.Content() == before {
		e.log.Debug("format %s left the body unchanged", kind)
		return false, nil
	}
	e.history.Push(before)
	return true, nil
}

func (e *Engine) applyList(ordered bool) bool {
	sel, ok := e.surface.Selection()
	if (!ok || sel.Collapsed()) && e.preserved != nil {
		sel, ok = *e.preserved, true
	}
	if !ok {
		return false
	}

	doc, err := Parse(e.surface.Content())
	if err != nil {
		return false
	}
	r, ok := doc.Resolve(sel)
	if !ok {
		return false
	}

	before := doc.HTML()
	next, changed := ApplyCustomList(doc, ordered, r)
	if !changed || doc.HTML() == before {
		next, changed = WrapSelectionInList(doc, ordered, r)
		if !changed {
			return false
		}
	}
	NormalizeOrderedLists(doc)

	if err := e.surface.SetContent(doc.HTML()); err != nil {
		return false
	}
	e.preserved = nil
	if next != nil {
		if loc, ok := doc.Locate(next); ok {
			e.surface.SetSelection(loc)
		}
	}
	return true
}

// Undo restores the previous body
func (e *Engine) Undo() bool {
	if e.readOnly {
		return false
	}
	prev, ok := e.history.Undo(e.surface.Content())
	if !ok {
		return false
	}
	e.restore(prev)
	return true
}

// Redo re-applies the last undone change
func (e *Engine) Redo() bool {
	if e.readOnly {
		return false
	}
	next, ok := e.history.Redo(e.surface.Content())
	if !ok {
		return false
	}
	e.restore(next)
	return true
}

func (e *Engine) restore(content string) {
	if err := e.surface.SetContent(content); err != nil {
		e.log.Error("failed to restore history snapshot: %v", err)
	}
	e.preserved = nil
}

// Reset replaces the body without recording history, clears both history
// stacks and unlocks the editor.
func (e *Engine) Reset(content string) error {
	if err := e.surface.SetContent(content); err != nil {
		return err
	}
	e.history.Clear()
	e.preserved = nil
	e.readOnly = false
	return nil
}
