package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"
)

func TestResolveAndLocate(t *testing.T) {
	doc := mustParse(t, "<p>Hello <strong>world</strong></p><p>café au lait</p>")

	sel := Selection{
		Start: Position{Path: []int{0, 1, 0}, Offset: 1},
		End:   Position{Path: []int{1, 0}, Offset: 4},
	}
	r, ok := doc.Resolve(sel)
	require.True(t, ok)
	assert.Equal(t, "world", r.Start.Node.Data)
	assert.Equal(t, 1, r.Start.Offset)
	// "café" is five bytes long
	assert.Equal(t, 5, r.End.Offset)
	assert.Equal(t, "orldcafé", r.String())

	back, ok := doc.Locate(r)
	require.True(t, ok)
	assert.Equal(t, sel, back)
}

func TestResolveRejectsUnknownPositions(t *testing.T) {
	doc := mustParse(t, "<p>Hello</p>")

	cases := []Selection{
		{Start: Position{Path: []int{3}}, End: Position{Path: []int{0}}},
		{Start: Position{Path: []int{0, 0}, Offset: 9}, End: Position{Path: []int{0, 0}, Offset: 9}},
		{Start: Position{Path: []int{0}, Offset: -1}, End: Position{Path: []int{0}}},
		{Start: Position{Path: []int{0}, Offset: 2}, End: Position{Path: []int{0}}},
	}
	for _, sel := range cases {
		_, ok := doc.Resolve(sel)
		assert.False(t, ok, "%+v", sel)
	}
}

func TestResolveOrdersBackwardSelections(t *testing.T) {
	doc := mustParse(t, "<p>Hello</p>")
	r, ok := doc.Resolve(Selection{
		Start: Position{Path: []int{0, 0}, Offset: 4},
		End:   Position{Path: []int{0, 0}, Offset: 1},
	})
	require.True(t, ok)
	assert.Equal(t, "ell", r.String())
}

func TestLocateMergesSplitText(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p>")
	r := textRange(t, doc, "Hello", 6, "Hello", 11)
	r.splitBoundaries()

	// the tree now holds "Hello " and "world" as separate nodes, which a
	// re-parse of the HTML would see as one
	loc, ok := doc.Locate(r)
	require.True(t, ok)
	assert.Equal(t, Selection{
		Start: Position{Path: []int{0, 0}, Offset: 6},
		End:   Position{Path: []int{0}, Offset: 1},
	}, loc)

	reparsed := mustParse(t, doc.HTML())
	back, ok := reparsed.Resolve(loc)
	require.True(t, ok)
	assert.Equal(t, "world", back.String())
}

func TestRangeDeleteContentsAcrossParagraphs(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p><p>Second line</p>")
	r := textRange(t, doc, "Hello", 6, "Second", 6)
	assert.Equal(t, "worldSecond", r.String())

	r.DeleteContents()

	assert.Equal(t, canon(t, "<p>Hello </p><p> line</p>"), doc.HTML())
	assert.True(t, r.Collapsed())
	assert.Equal(t, doc.Root(), r.Start.Node)
	assert.Equal(t, 1, r.Start.Offset)
}

func TestRangeCloneContentsKeepsPartialAncestors(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p><p>Second line</p>")
	r := textRange(t, doc, "Hello", 6, "Second", 6)

	frag := r.CloneContents()
	require.Len(t, frag, 2)

	out := mustParse(t, "")
	for _, n := range frag {
		out.Root().AppendChild(n)
	}
	assert.Equal(t, "<p>world</p><p>Second</p>", out.HTML())
	// cloning leaves the document's markup alone
	assert.Equal(t, "<p>Hello world</p><p>Second line</p>", doc.HTML())
}

func TestRangeInsertNodeInsideText(t *testing.T) {
	doc := mustParse(t, "<p>Hello world</p>")
	r := textRange(t, doc, "Hello", 5, "Hello", 5)

	r.InsertNode(newElement(atom.Br))

	assert.Equal(t, "<p>Hello<br/> world</p>", doc.HTML())
	assert.Equal(t, Point{Node: r.Start.Node, Offset: 1}, r.Start)
	assert.Equal(t, 2, r.End.Offset)
}

func TestRangeCommonAncestor(t *testing.T) {
	doc := mustParse(t, "<div><p>one</p><p>two</p></div>")
	r := textRange(t, doc, "one", 0, "two", 3)
	assert.Equal(t, "div", r.CommonAncestor().Data)

	r = textRange(t, doc, "one", 0, "one", 2)
	assert.Equal(t, "one", r.CommonAncestor().Data)
}

func TestSelectionCollapsed(t *testing.T) {
	at := Position{Path: []int{0, 0}, Offset: 2}
	assert.True(t, Selection{Start: at, End: at}.Collapsed())
	assert.False(t, Selection{Start: at, End: Position{Path: []int{0, 1}, Offset: 2}}.Collapsed())
}
