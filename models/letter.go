package models

// LetterStyles carries the visual settings sent alongside a letter
type LetterStyles struct {
	FontSize   int    `json:"font_size"`
	FontFamily string `json:"font_family"`
}

// LetterTemplate is a starter text the writer can load into the editor
type LetterTemplate struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Content          string   `json:"content"`
	Category         string   `json:"category"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

// FontPreset describes a selectable letter font
type FontPreset struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Family string `json:"family"`
}

// FontPresets is the catalog of fonts offered in the compose screen
var FontPresets = []FontPreset{
	{ID: "handwritten", Label: "Handwritten", Family: "'Caveat', cursive"},
	{ID: "serif", Label: "Classic Serif", Family: "'Lora', Georgia, serif"},
	{ID: "sans", Label: "Clean Sans", Family: "'Inter', Helvetica, sans-serif"},
	{ID: "typewriter", Label: "Typewriter", Family: "'Courier Prime', 'Courier New', monospace"},
	{ID: "script", Label: "Elegant Script", Family: "'Dancing Script', cursive"},
	{ID: "rounded", Label: "Rounded", Family: "'Nunito', sans-serif"},
}

// FindFontPreset looks up a font by id
func FindFontPreset(id string) (FontPreset, bool) {
	for _, fp := range FontPresets {
		if fp.ID == id {
			return fp, true
		}
	}
	return FontPreset{}, false
}
