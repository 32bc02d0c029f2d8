package compose

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraftDefaults(t *testing.T) {
	d, err := NewDraft(DefaultDraftOptions())
	require.NoError(t, err)

	assert.Equal(t, "To a kindred spirit,", d.Heading())
	assert.Equal(t, "Yours,", d.FooterPrefix())
	assert.Equal(t, "handwritten", d.FontID())
	assert.Equal(t, 16, d.FontSizePx())
	assert.Equal(t, PlaceholderLetter, d.PlainText())
	assert.False(t, d.IsEmpty())

	stats := d.Stats()
	assert.Equal(t, len(strings.Fields(PlaceholderLetter)), stats.WordCount)
	assert.Equal(t, 1, stats.ReadingTimeMinutes)
	assert.NotEmpty(t, d.Readability())
}

func TestNewDraftRejectsBadFont(t *testing.T) {
	opts := DefaultDraftOptions()
	opts.FontID = "comic"
	_, err := NewDraft(opts)
	assert.ErrorIs(t, err, ErrInvalidFont)
}

func TestDraftSetFont(t *testing.T) {
	d, err := NewDraft(DefaultDraftOptions())
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetFont("comic", 16), ErrInvalidFont)
	assert.ErrorIs(t, d.SetFont("serif", 200), ErrInvalidFont)
	assert.ErrorIs(t, d.SetFont("serif", 7), ErrInvalidFont)
	assert.Equal(t, "handwritten", d.FontID())

	require.NoError(t, d.SetFont("serif", 20))
	require.NoError(t, d.SetFont("", 0))
	assert.Equal(t, "serif", d.FontID())
	assert.Equal(t, 20, d.FontSizePx())
	assert.Equal(t, 20, d.Styles().FontSize)
	assert.Equal(t, "serif", d.Styles().FontFamily)
}

func TestDraftEditSanitizes(t *testing.T) {
	d, err := NewDraft(DefaultDraftOptions())
	require.NoError(t, err)

	changed, err := d.Edit(`<p onclick="x()">Hi <strong>there</strong></p><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "<p>Hi <strong>there</strong></p>", d.Body())

	d.SetHeading("  <b>Dear</b>   pal, ")
	assert.Equal(t, "Dear pal,", d.Heading())
}

func TestFooter(t *testing.T) {
	assert.Equal(t, "Yours, QuietOtter", Footer("Yours,", "QuietOtter"))
	assert.Equal(t, "QuietOtter", Footer("", "QuietOtter"))
	assert.Equal(t, "Yours,", Footer("Yours,", ""))
}
