package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content)
	require.NoError(t, err)
	return doc
}

// canon renders content the way Document.HTML does
func canon(t *testing.T, content string) string {
	t.Helper()
	return mustParse(t, content).HTML()
}

// findText returns the first text node containing substr
func findText(t *testing.T, doc *Document, substr string) *html.Node {
	t.Helper()
	var found *html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, substr) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc.Root())
	require.NotNil(t, found, "text %q not found", substr)
	return found
}

// textRange selects from startOff in the text node containing startText
// to endOff in the text node containing endText.
func textRange(t *testing.T, doc *Document, startText string, startOff int, endText string, endOff int) *Range {
	t.Helper()
	return &Range{
		Start: Point{Node: findText(t, doc, startText), Offset: startOff},
		End:   Point{Node: findText(t, doc, endText), Offset: endOff},
	}
}
