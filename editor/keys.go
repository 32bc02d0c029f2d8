package editor

import "strings"

// Command is the action bound to a key press
type Command string

const (
	CommandNone             Command = ""
	CommandUndo             Command = "undo"
	CommandRedo             Command = "redo"
	CommandBold             Command = "bold"
	CommandItalic           Command = "italic"
	CommandUnderline        Command = "underline"
	CommandToggleFontPicker Command = "toggleFontPicker"
)

// KeyPress is a key event from the editor. Mod is Ctrl or Cmd.
type KeyPress struct {
	Key   string `json:"key"`
	Mod   bool   `json:"mod"`
	Shift bool   `json:"shift"`
}

// BindingFor returns the command bound to k
func BindingFor(k KeyPress) Command {
	if !k.Mod {
		return CommandNone
	}
	switch strings.ToLower(k.Key) {
	case "z":
		if k.Shift {
			return CommandRedo
		}
		return CommandUndo
	case "y":
		return CommandRedo
	case "b":
		return CommandBold
	case "i":
		return CommandItalic
	case "u":
		return CommandUnderline
	case "k":
		return CommandToggleFontPicker
	}
	return CommandNone
}

// HandleKey runs the edit bound to k. The font picker command is returned
// for the caller to handle; it never changes the body.
func (e *Engine) HandleKey(k KeyPress, sel *Selection) (Command, bool, error) {
	cmd := BindingFor(k)
	switch cmd {
	case CommandUndo:
		return cmd, e.Undo(), nil
	case CommandRedo:
		return cmd, e.Redo(), nil
	case CommandBold:
		changed, err := e.ToggleFormatting(FormatBold, sel)
		return cmd, changed, err
	case CommandItalic:
		changed, err := e.ToggleFormatting(FormatItalic, sel)
		return cmd, changed, err
	case CommandUnderline:
		changed, err := e.ToggleFormatting(FormatUnderline, sel)
		return cmd, changed, err
	}
	return cmd, false, nil
}
