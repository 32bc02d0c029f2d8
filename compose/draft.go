package compose

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"penpal/editor"
	"penpal/models"
	"penpal/utils"
)

// PlaceholderLetter is the body a new compose session starts with
const PlaceholderLetter = `I'm writing this from a small cafe, watching the world go by. The smell of coffee and old books hangs in the air, a comforting mix. I've been thinking a lot about the simple things that bring us joy. For me, it's the first sip of tea in the morning, the feeling of a good book in my hands, and the sound of rain against the windowpane. What simple pleasures do you cherish in your part of the world? I'm curious about the daily rituals and moments that make up your life. I've been learning to paint with watercolors recently. My creations are far from perfect, but I love how the colors blend and create something unexpected. It feels like a small act of magic.`

// Font sizes accepted by the messaging service's letter_styles
const (
	MinFontSize = 8
	MaxFontSize = 96
)

var (
	// ErrInvalidFont is returned for an unknown font or a size out of range
	ErrInvalidFont = errors.New("invalid font")
)

// DraftOptions are the starting values of a draft
type DraftOptions struct {
	Body            string
	Heading         string
	FooterPrefix    string
	FontID          string
	FontSizePx      int
	HistoryCapacity int
}

// DefaultDraftOptions returns the built-in defaults
func DefaultDraftOptions() DraftOptions {
	return DraftOptions{
		Body:            "<p>" + html.EscapeString(PlaceholderLetter) + "</p>",
		Heading:         "To a kindred spirit,",
		FooterPrefix:    "Yours,",
		FontID:          "handwritten",
		FontSizePx:      16,
		HistoryCapacity: editor.DefaultHistoryCapacity,
	}
}

// Draft is the letter being written. The body lives in an edit engine;
// heading, footer prefix and font are plain settings.
type Draft struct {
	engine       *editor.Engine
	heading      string
	footerPrefix string
	fontID       string
	fontSizePx   int
}

// NewDraft creates a draft from opts
func NewDraft(opts DraftOptions) (*Draft, error) {
	surface, err := editor.NewHTMLSurface(utils.SanitizeLetterHTML(opts.Body))
	if err != nil {
		return nil, err
	}
	d := &Draft{
		engine:       editor.NewEngine(surface, opts.HistoryCapacity),
		heading:      utils.SanitizeText(opts.Heading),
		footerPrefix: utils.SanitizeText(opts.FooterPrefix),
	}
	if err := d.SetFont(opts.FontID, opts.FontSizePx); err != nil {
		return nil, fmt.Errorf("default font: %w", err)
	}
	return d, nil
}

// Editor exposes the edit engine holding the body
func (d *Draft) Editor() *editor.Engine {
	return d.engine
}

// Body returns the body markup
func (d *Draft) Body() string {
	return d.engine.Content()
}

// PlainText returns the body as plain text
func (d *Draft) PlainText() string {
	return d.engine.PlainText()
}

// IsEmpty reports whether the body has no visible text
func (d *Draft) IsEmpty() bool {
	return strings.TrimSpace(d.PlainText()) == ""
}

func (d *Draft) Stats() Stats {
	return GetStats(d.PlainText())
}

func (d *Draft) Readability() CEFRLevel {
	return EstimateReadability(d.PlainText())
}

// Edit replaces the body with sanitised markup
func (d *Draft) Edit(content string) (bool, error) {
	return d.engine.Edit(utils.SanitizeLetterHTML(content))
}

func (d *Draft) Heading() string      { return d.heading }
func (d *Draft) FooterPrefix() string { return d.footerPrefix }
func (d *Draft) FontID() string       { return d.fontID }
func (d *Draft) FontSizePx() int      { return d.fontSizePx }

// SetHeading sets the greeting line shown above the body
func (d *Draft) SetHeading(heading string) {
	d.heading = utils.SanitizeText(heading)
}

// SetFooterPrefix sets the sign-off placed before the writer's handle
func (d *Draft) SetFooterPrefix(prefix string) {
	d.footerPrefix = utils.SanitizeText(prefix)
}

// SetFont changes the font. A zero size keeps the current one.
func (d *Draft) SetFont(id string, sizePx int) error {
	if id == "" {
		id = d.fontID
	}
	if _, ok := models.FindFontPreset(id); !ok {
		return fmt.Errorf("%w: unknown font %q", ErrInvalidFont, id)
	}
	if sizePx == 0 {
		sizePx = d.fontSizePx
	}
	if sizePx < MinFontSize || sizePx > MaxFontSize {
		return fmt.Errorf("%w: size %d is outside %d-%d", ErrInvalidFont, sizePx, MinFontSize, MaxFontSize)
	}
	d.fontID = id
	d.fontSizePx = sizePx
	return nil
}

// Styles returns the letter_styles sent with the letter
func (d *Draft) Styles() models.LetterStyles {
	return models.LetterStyles{FontSize: d.fontSizePx, FontFamily: d.fontID}
}

// Footer joins the sign-off prefix and the writer's handle
func Footer(prefix, handle string) string {
	return strings.TrimSpace(prefix + " " + handle)
}
