package editor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Position is the wire form of a boundary point: the child-index path
// from the editor root to a node, plus an offset into it. For text nodes
// the offset counts characters, for elements it counts children.
type Position struct {
	Path   []int `json:"path"`
	Offset int   `json:"offset"`
}

// Selection is the wire form of a range inside the editor
type Selection struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Collapsed reports whether both ends of the selection are the same point
func (s Selection) Collapsed() bool {
	if s.Start.Offset != s.End.Offset || len(s.Start.Path) != len(s.End.Path) {
		return false
	}
	for i := range s.Start.Path {
		if s.Start.Path[i] != s.End.Path[i] {
			return false
		}
	}
	return true
}

// Point is a boundary point inside a document tree. For text nodes
// Offset counts bytes of Data, for elements it counts children.
type Point struct {
	Node   *html.Node
	Offset int
}

// Range is a DOM-style range between two boundary points, Start never
// after End.
type Range struct {
	Start Point
	End   Point
}

// Resolve turns a wire selection into a Range over d. It fails when a
// path or offset does not exist in the document.
func (d *Document) Resolve(sel Selection) (*Range, bool) {
	start, ok := d.point(sel.Start)
	if !ok {
		return nil, false
	}
	end, ok := d.point(sel.End)
	if !ok {
		return nil, false
	}
	if comparePoints(start, end) > 0 {
		start, end = end, start
	}
	return &Range{Start: start, End: end}, true
}

func (d *Document) point(p Position) (Point, bool) {
	n := d.root
	for _, i := range p.Path {
		c := childAt(n, i)
		if c == nil {
			return Point{}, false
		}
		n = c
	}
	if p.Offset < 0 {
		return Point{}, false
	}

	if n.Type == html.TextNode {
		off, ok := byteOffset(n.Data, p.Offset)
		if !ok {
			return Point{}, false
		}
		return Point{Node: n, Offset: off}, true
	}
	if p.Offset > nodeLength(n) {
		return Point{}, false
	}
	return Point{Node: n, Offset: p.Offset}, true
}

func byteOffset(s string, chars int) (int, bool) {
	if chars == 0 {
		return 0, true
	}
	count := 0
	for i := range s {
		if count == chars {
			return i, true
		}
		count++
	}
	if count == chars {
		return len(s), true
	}
	return 0, false
}

// Locate converts r back to its wire form. Adjacent text nodes are
// counted as one, matching the tree a re-parse of HTML() produces.
func (d *Document) Locate(r *Range) (Selection, bool) {
	if !d.owns(r) {
		return Selection{}, false
	}
	start, ok := d.position(r.Start)
	if !ok {
		return Selection{}, false
	}
	end, ok := d.position(r.End)
	if !ok {
		return Selection{}, false
	}
	return Selection{Start: start, End: end}, true
}

func (d *Document) position(p Point) (Position, bool) {
	node, off := p.Node, p.Offset

	// A point between two text siblings lands inside the merged text
	if node.Type == html.ElementNode && off > 0 && off < childCount(node) {
		prev, next := childAt(node, off-1), childAt(node, off)
		if prev.Type == html.TextNode && next.Type == html.TextNode {
			node, off = prev, len(prev.Data)
		}
	}

	if node.Type == html.TextNode {
		for prev := node.PrevSibling; prev != nil && prev.Type == html.TextNode; prev = prev.PrevSibling {
			off += len(prev.Data)
			node = prev
		}
		var run strings.Builder
		for n := node; n != nil && n.Type == html.TextNode; n = n.NextSibling {
			run.WriteString(n.Data)
		}
		text := run.String()
		if off > len(text) {
			off = len(text)
		}
		off = utf8.RuneCountInString(text[:off])
	} else {
		off = mergedIndex(node, off)
	}

	var path []int
	for n := node; n != d.root; n = n.Parent {
		if n.Parent == nil {
			return Position{}, false
		}
		path = append(path, mergedIndex(n.Parent, indexOf(n)))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return Position{Path: path, Offset: off}, true
}

// mergedIndex counts the child units before index k of parent, where a
// run of adjacent text nodes is one unit.
func mergedIndex(parent *html.Node, k int) int {
	units := 0
	i := 0
	for c := parent.FirstChild; c != nil && i < k; c = c.NextSibling {
		if !(c.Type == html.TextNode && c.PrevSibling != nil && c.PrevSibling.Type == html.TextNode) {
			units++
		}
		i++
	}
	return units
}

// pathTo lists the child indices leading from the topmost ancestor to n
func pathTo(n *html.Node) []int {
	var path []int
	for ; n.Parent != nil; n = n.Parent {
		path = append(path, indexOf(n))
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// comparePoints orders two points of the same tree in document order
func comparePoints(a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	pa := append(pathTo(a.Node), a.Offset)
	pb := append(pathTo(b.Node), b.Offset)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(pa) < len(pb):
		return -1
	case len(pa) > len(pb):
		return 1
	}
	return 0
}

func pointBefore(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: indexOf(n)}
}

func pointAfter(n *html.Node) Point {
	return Point{Node: n.Parent, Offset: indexOf(n) + 1}
}

func isInclusiveAncestor(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// Collapsed reports whether the range is empty
func (r *Range) Collapsed() bool {
	return r.Start == r.End
}

// SelectNode makes the range span n itself
func (r *Range) SelectNode(n *html.Node) {
	r.Start = pointBefore(n)
	r.End = pointAfter(n)
}

// SelectNodeContents makes the range span the children of n
func (r *Range) SelectNodeContents(n *html.Node) {
	r.Start = Point{Node: n, Offset: 0}
	r.End = Point{Node: n, Offset: nodeLength(n)}
}

// CommonAncestor returns the deepest node containing both ends
func (r *Range) CommonAncestor() *html.Node {
	for n := r.Start.Node; n != nil; n = n.Parent {
		if isInclusiveAncestor(n, r.End.Node) {
			return n
		}
	}
	return nil
}

// contains reports whether n lies entirely inside the range
func (r *Range) contains(n *html.Node) bool {
	return n.Parent != nil &&
		comparePoints(r.Start, pointBefore(n)) <= 0 &&
		comparePoints(pointAfter(n), r.End) <= 0
}

// intersects reports whether some part of n lies inside the range
func (r *Range) intersects(n *html.Node) bool {
	return n.Parent != nil &&
		comparePoints(pointBefore(n), r.End) < 0 &&
		comparePoints(pointAfter(n), r.Start) > 0
}

// String returns the text inside the range
func (r *Range) String() string {
	ca := r.CommonAncestor()
	if ca == nil {
		return ""
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			lo, hi := 0, len(n.Data)
			if r.Start.Node == n {
				lo = r.Start.Offset
			} else if comparePoints(r.Start, Point{Node: n}) > 0 {
				lo = len(n.Data)
			}
			if r.End.Node == n {
				hi = r.End.Offset
			} else if comparePoints(Point{Node: n, Offset: len(n.Data)}, r.End) > 0 {
				hi = 0
			}
			if hi > lo {
				b.WriteString(n.Data[lo:hi])
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(ca)
	return b.String()
}

// splitText cuts the text node of p at p's offset and returns the
// equivalent point in the parent element.
func splitText(p Point) Point {
	t := p.Node
	parent, idx := t.Parent, indexOf(t)
	switch {
	case p.Offset <= 0:
		return Point{Node: parent, Offset: idx}
	case p.Offset >= len(t.Data):
		return Point{Node: parent, Offset: idx + 1}
	}

	tail := newText(t.Data[p.Offset:])
	t.Data = t.Data[:p.Offset]
	parent.InsertBefore(tail, t.NextSibling)
	return Point{Node: parent, Offset: idx + 1}
}

// splitBoundaries rewrites both ends as element points, splitting text
// nodes where an end falls inside one. The rendered HTML is unchanged.
func (r *Range) splitBoundaries() {
	if r.End.Node.Type == html.TextNode && r.End.Node.Parent != nil {
		r.End = splitText(r.End)
	}
	if r.Start.Node.Type == html.TextNode && r.Start.Node.Parent != nil {
		t := r.Start.Node
		parent, idx := t.Parent, indexOf(t)
		inserts := r.Start.Offset > 0 && r.Start.Offset < len(t.Data)
		r.Start = splitText(r.Start)
		if inserts && r.End.Node == parent && r.End.Offset > idx {
			r.End.Offset++
		}
	}
}

// CloneContents returns deep copies of the nodes inside the range.
// Partially selected elements are copied shallowly with only their
// selected children.
func (r *Range) CloneContents() []*html.Node {
	if r.Collapsed() {
		return nil
	}
	r.splitBoundaries()
	return r.cloneWithin(r.CommonAncestor())
}

func (r *Range) cloneWithin(parent *html.Node) []*html.Node {
	var out []*html.Node
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case r.contains(c):
			out = append(out, cloneNode(c, true))
		case r.intersects(c):
			shallow := cloneNode(c, false)
			for _, k := range r.cloneWithin(c) {
				shallow.AppendChild(k)
			}
			out = append(out, shallow)
		}
	}
	return out
}

// DeleteContents removes the nodes inside the range and collapses it.
// Partially selected elements keep their unselected children.
func (r *Range) DeleteContents() {
	if r.Collapsed() {
		return
	}
	r.splitBoundaries()
	start, end := r.Start, r.End

	var victims []*html.Node
	var collect func(n *html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case r.contains(c):
				victims = append(victims, c)
			case r.intersects(c):
				collect(c)
			}
		}
	}
	collect(r.CommonAncestor())

	for _, v := range victims {
		v.Parent.RemoveChild(v)
	}

	if isInclusiveAncestor(start.Node, end.Node) {
		r.End = r.Start
		return
	}
	ref := start.Node
	for ref.Parent != nil && !isInclusiveAncestor(ref.Parent, end.Node) {
		ref = ref.Parent
	}
	r.Start = pointAfter(ref)
	r.End = r.Start
}

// ExtractContents moves the selected content out of the document
func (r *Range) ExtractContents() []*html.Node {
	frag := r.CloneContents()
	r.DeleteContents()
	return frag
}

// InsertNode inserts n at the start of the range
func (r *Range) InsertNode(n *html.Node) {
	r.splitBoundaries()
	detach(n)

	parent := r.Start.Node
	parent.InsertBefore(n, childAt(parent, r.Start.Offset))
	if r.End.Node == parent && r.End.Offset >= r.Start.Offset {
		r.End.Offset++
	}
}
