package editor

// DefaultHistoryCapacity bounds the undo and redo stacks
const DefaultHistoryCapacity = 50

// History keeps full-body snapshots for undo and redo
type History struct {
	undo     []string
	redo     []string
	capacity int
}

// NewHistory creates a history holding at most capacity snapshots per
// stack. A non-positive capacity uses DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Push records the body as it was before a change and clears the redo
// stack. A snapshot equal to the newest undo entry is skipped.
func (h *History) Push(snapshot string) bool {
	if n := len(h.undo); n > 0 && h.undo[n-1] == snapshot {
		return false
	}
	h.undo = pushBounded(h.undo, snapshot, h.capacity)
	h.redo = h.redo[:0]
	return true
}

// Undo returns the previous snapshot and saves current for redo
func (h *History) Undo(current string) (string, bool) {
	n := len(h.undo)
	if n == 0 {
		return "", false
	}
	prev := h.undo[n-1]
	h.undo = h.undo[:n-1]
	h.redo = pushBounded(h.redo, current, h.capacity)
	return prev, true
}

// Redo returns the next snapshot and saves current for undo
func (h *History) Redo(current string) (string, bool) {
	n := len(h.redo)
	if n == 0 {
		return "", false
	}
	next := h.redo[n-1]
	h.redo = h.redo[:n-1]
	h.undo = pushBounded(h.undo, current, h.capacity)
	return next, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undo snapshots held
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redo snapshots held
func (h *History) RedoDepth() int { return len(h.redo) }

// Clear drops both stacks
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

func pushBounded(stack []string, s string, capacity int) []string {
	stack = append(stack, s)
	if over := len(stack) - capacity; over > 0 {
		stack = append(stack[:0], stack[over:]...)
	}
	return stack
}
