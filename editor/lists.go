package editor

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func listAtom(ordered bool) atom.Atom {
	if ordered {
		return atom.Ol
	}
	return atom.Ul
}

// listItems returns the direct <li> children of list
func listItems(list *html.Node) []*html.Node {
	var items []*html.Node
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, atom.Li) {
			items = append(items, c)
		}
	}
	return items
}

// enclosingList finds the nearest ancestor of n (inclusive) that is a list
// of the given tag, stopping at the editor root.
func (d *Document) enclosingList(n *html.Node, tag atom.Atom) *html.Node {
	for ; n != nil && n != d.root; n = n.Parent {
		if isElement(n, tag) {
			return n
		}
	}
	return nil
}

// ApplyCustomList toggles a list of the requested kind over r.
//
// Inside an existing list of that kind, a selection covering every item
// unwraps the list into plain lines; otherwise the list is split into the
// items before the selection, the selected items as paragraphs, and the
// items after it. Outside such a list the selected text is segmented into
// items of a new list, or an empty list is inserted at a collapsed caret.
//
// The returned range is the selection to show afterwards. The boolean is
// false when the document was not changed.
func ApplyCustomList(doc *Document, ordered bool, r *Range) (*Range, bool) {
	if !doc.owns(r) {
		return nil, false
	}
	tag := listAtom(ordered)

	if list := doc.enclosingList(r.Start.Node, tag); list != nil {
		return splitList(doc, list, r, ordered)
	}
	if list := doc.enclosingList(r.End.Node, tag); list != nil {
		return splitList(doc, list, r, ordered)
	}

	raw := strings.TrimSpace(r.String())
	if r.Collapsed() || raw == "" {
		list := newElement(tag)
		li := newElement(atom.Li)
		li.AppendChild(newElement(atom.Br))
		list.AppendChild(li)

		r.InsertNode(list)
		hoistBlock(list)
		caret := Point{Node: li, Offset: 0}
		return &Range{Start: caret, End: caret}, true
	}

	doc.expandToParagraph(r, raw)

	list := newElement(tag)
	for _, segment := range segmentSelection(raw, ordered) {
		li := newElement(atom.Li)
		li.AppendChild(newText(segment))
		list.AppendChild(li)
	}

	r.DeleteContents()
	r.InsertNode(list)
	hoistBlock(list)
	list = mergeAdjacentLists(list)

	sel := &Range{}
	sel.SelectNodeContents(list)
	return sel, true
}

func splitList(doc *Document, list *html.Node, r *Range, ordered bool) (*Range, bool) {
	items := listItems(list)
	if len(items) == 0 {
		return nil, false
	}

	from, to := 0, len(items)-1
	if isInclusiveAncestor(list, r.Start.Node) {
		from = itemIndex(list, items, r.Start, false)
	}
	if isInclusiveAncestor(list, r.End.Node) {
		to = itemIndex(list, items, r.End, true)
	}
	if from < 0 || to < 0 || from > to {
		return nil, false
	}

	parent := list.Parent

	if from == 0 && to == len(items)-1 {
		lines := make([]string, len(items))
		for i, li := range items {
			lines[i] = textContent(li)
		}
		text := newText(strings.Join(lines, "\n"))
		parent.InsertBefore(text, list)
		parent.RemoveChild(list)

		sel := &Range{}
		sel.SelectNodeContents(text)
		return sel, true
	}

	before, selected, after := items[:from], items[from:to+1], items[to+1:]

	if len(before) > 0 {
		parent.InsertBefore(buildList(listAtom(ordered), before, 1), list)
	}

	var firstParagraph *html.Node
	for _, li := range selected {
		p := newElement(atom.P)
		moveChildren(li, p)
		parent.InsertBefore(p, list)
		if firstParagraph == nil {
			firstParagraph = p
		}
	}

	if len(after) > 0 {
		// numbering carries on from the items' original positions when
		// earlier items remain as a list, and restarts otherwise
		start := 1
		if ordered && len(before) > 0 {
			start = to + 2
		}
		parent.InsertBefore(buildList(listAtom(ordered), after, start), list)
	}

	parent.RemoveChild(list)

	caret := Point{Node: firstParagraph, Offset: childCount(firstParagraph)}
	return &Range{Start: caret, End: caret}, true
}

// itemIndex maps a boundary point inside list to the position in items of
// the first (start) or last (end) list item it touches, or -1.
func itemIndex(list *html.Node, items []*html.Node, p Point, isEnd bool) int {
	var k int
	if p.Node == list {
		k = p.Offset
		if isEnd {
			k--
		}
	} else {
		child := p.Node
		for child.Parent != list {
			child = child.Parent
		}
		k = indexOf(child)
	}

	if isEnd {
		for i := len(items) - 1; i >= 0; i-- {
			if indexOf(items[i]) <= k {
				return i
			}
		}
		return -1
	}
	for i, li := range items {
		if indexOf(li) >= k {
			return i
		}
	}
	return -1
}

func buildList(tag atom.Atom, items []*html.Node, start int) *html.Node {
	list := newElement(tag)
	if tag == atom.Ol && start != 1 {
		setAttr(list, "start", strconv.Itoa(start))
	}
	for _, li := range items {
		detach(li)
		list.AppendChild(li)
	}
	return list
}

// expandToParagraph widens r to a whole top-level paragraph when the
// selected text is exactly that paragraph's text.
func (d *Document) expandToParagraph(r *Range, raw string) {
	n := r.CommonAncestor()
	if n != nil && n.Type == html.TextNode {
		n = n.Parent
	}
	for n != nil && n != d.root && n.Parent != d.root {
		n = n.Parent
	}
	if n != nil && n != d.root && isElement(n, atom.P) && strings.TrimSpace(textContent(n)) == raw {
		r.SelectNode(n)
	}
}

var (
	orderedSplitter  = regexp.MustCompile(`\.+\s*`)
	sentenceBoundary = regexp.MustCompile(`[.!?]\s+`)
)

// segmentSelection splits selected text into list item texts. Explicit
// line breaks win; otherwise ordered lists split on periods and bullet
// lists split after sentence punctuation.
func segmentSelection(raw string, ordered bool) []string {
	var segments []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	switch {
	case strings.Contains(raw, "\n"):
		for _, line := range strings.Split(raw, "\n") {
			add(line)
		}
	case ordered:
		for _, part := range orderedSplitter.Split(raw, -1) {
			add(part)
		}
		for i, s := range segments {
			if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
				segments[i] = s + "."
			}
		}
	default:
		prev := 0
		for _, m := range sentenceBoundary.FindAllStringIndex(raw, -1) {
			add(raw[prev : m[0]+1])
			prev = m[1]
		}
		add(raw[prev:])
	}

	if len(segments) == 0 {
		return []string{raw}
	}
	return segments
}

// hoistBlock lifts a list out of an enclosing paragraph, splitting the
// paragraph around it and dropping halves left blank.
func hoistBlock(list *html.Node) {
	p := list.Parent
	if !isElement(p, atom.P) || p.Parent == nil {
		return
	}
	grand := p.Parent

	tail := cloneNode(p, false)
	for c := list.NextSibling; c != nil; {
		next := c.NextSibling
		p.RemoveChild(c)
		tail.AppendChild(c)
		c = next
	}
	p.RemoveChild(list)
	grand.InsertBefore(list, p.NextSibling)
	grand.InsertBefore(tail, list.NextSibling)

	if isBlank(p) {
		grand.RemoveChild(p)
	}
	if isBlank(tail) {
		grand.RemoveChild(tail)
	}
}

// mergeAdjacentLists joins list with same-tag sibling lists separated
// only by whitespace, returning the surviving list.
func mergeAdjacentLists(list *html.Node) *html.Node {
	prev := list.PrevSibling
	for prev != nil && isWhitespaceText(prev) {
		prev = prev.PrevSibling
	}
	if prev != nil && isElement(prev, list.DataAtom) {
		moveChildren(list, prev)
		list.Parent.RemoveChild(list)
		list = prev
	}

	next := list.NextSibling
	for next != nil && isWhitespaceText(next) {
		next = next.NextSibling
	}
	if next != nil && isElement(next, list.DataAtom) {
		moveChildren(next, list)
		next.Parent.RemoveChild(next)
	}
	return list
}

// WrapSelectionInList wraps the selected top-level nodes in a new list,
// one item per node. Selected <li> elements are kept as items.
func WrapSelectionInList(doc *Document, ordered bool, r *Range) (*Range, bool) {
	if !doc.owns(r) || r.Collapsed() {
		return nil, false
	}

	list := newElement(listAtom(ordered))
	for _, n := range r.CloneContents() {
		switch {
		case isElement(n, atom.Li):
			list.AppendChild(n)
		case n.Type == html.ElementNode:
			li := newElement(atom.Li)
			li.AppendChild(n)
			list.AppendChild(li)
		case n.Type == html.TextNode && strings.TrimSpace(n.Data) != "":
			li := newElement(atom.Li)
			li.AppendChild(newText(n.Data))
			list.AppendChild(li)
		}
	}
	if list.FirstChild == nil {
		return nil, false
	}

	r.DeleteContents()
	r.InsertNode(list)
	hoistBlock(list)

	sel := &Range{}
	sel.SelectNodeContents(list)
	return sel, true
}

// NormalizeOrderedLists renumbers the top-level ordered lists so numbering
// runs on across the document: each list starts one past the number of
// items in the ordered lists before it. The start attribute is written only
// when that number is not 1. It reports whether anything changed.
func NormalizeOrderedLists(doc *Document) bool {
	count := 0
	changed := false

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Ol:
				if setListStart(c, count+1) {
					changed = true
				}
				count += len(listItems(c))
			case atom.Ul:
			default:
				walk(c)
			}
		}
	}
	walk(doc.root)
	return changed
}

func setListStart(list *html.Node, start int) bool {
	current, has := getAttr(list, "start")
	if start == 1 {
		if has {
			removeAttr(list, "start")
			return true
		}
		return false
	}
	want := strconv.Itoa(start)
	if has && current == want {
		return false
	}
	setAttr(list, "start", want)
	return true
}
