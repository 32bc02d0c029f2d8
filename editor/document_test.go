package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Hello there", "Hello there"},
		{"paragraphs", "<p>Hello <strong>pen</strong> pal</p><p>Second</p>", "Hello pen pal\nSecond"},
		{"lists", "<p>Intro</p><ol><li>one</li><li>two</li></ol>", "Intro\none\ntwo"},
		{"line break", "first<br>second", "first\nsecond"},
		{"entities", "<p>Tom &amp; Jerry</p>", "Tom & Jerry"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mustParse(t, tc.input).Text())
		})
	}
}

func TestDocumentHTMLIsStable(t *testing.T) {
	input := `<p>Hi <em>friend</em></p><ol start="3"><li>a</li></ol>`
	doc := mustParse(t, input)
	assert.Equal(t, input, doc.HTML())
	assert.Equal(t, doc.HTML(), canon(t, doc.HTML()))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a\nb", PlainText("<p>a</p><p>b</p>"))
}
