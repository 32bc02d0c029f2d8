package editor

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// InlineStyle is a character-level formatting toggle
type InlineStyle string

const (
	StyleBold      InlineStyle = "bold"
	StyleItalic    InlineStyle = "italic"
	StyleUnderline InlineStyle = "underline"
)

// tags lists the elements that carry the style; the first one is used
// when applying it.
func (s InlineStyle) tags() []atom.Atom {
	switch s {
	case StyleBold:
		return []atom.Atom{atom.Strong, atom.B}
	case StyleItalic:
		return []atom.Atom{atom.Em, atom.I}
	case StyleUnderline:
		return []atom.Atom{atom.U}
	}
	return nil
}

// Surface is the editable body the engine works on. Selections are
// always passed explicitly; there is no ambient selection state.
type Surface interface {
	// Content returns the serialized body
	Content() string
	// SetContent replaces the body and clears the selection
	SetContent(content string) error
	Selection() (Selection, bool)
	SetSelection(sel Selection)
	// ApplyInlineStyle toggles style over the current selection. It is
	// best effort and reports whether the body changed.
	ApplyInlineStyle(style InlineStyle) bool
}

// HTMLSurface is an in-memory Surface holding the body as canonical HTML
type HTMLSurface struct {
	content string
	sel     *Selection
}

// NewHTMLSurface creates a surface holding content
func NewHTMLSurface(content string) (*HTMLSurface, error) {
	s := &HTMLSurface{}
	if err := s.SetContent(content); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HTMLSurface) Content() string {
	return s.content
}

func (s *HTMLSurface) SetContent(content string) error {
	doc, err := Parse(content)
	if err != nil {
		return err
	}
	s.content = doc.HTML()
	s.sel = nil
	return nil
}

func (s *HTMLSurface) Selection() (Selection, bool) {
	if s.sel == nil {
		return Selection{}, false
	}
	return *s.sel, true
}

func (s *HTMLSurface) SetSelection(sel Selection) {
	s.sel = &sel
}

func (s *HTMLSurface) ApplyInlineStyle(style InlineStyle) bool {
	tags := style.tags()
	if s.sel == nil || len(tags) == 0 {
		return false
	}
	doc, err := Parse(s.content)
	if err != nil {
		return false
	}
	r, ok := doc.Resolve(*s.sel)
	if !ok || r.Collapsed() {
		return false
	}

	if wrapper := styledAncestor(doc, r.CommonAncestor(), tags); wrapper != nil {
		r = unwrap(wrapper)
	} else {
		frag := r.ExtractContents()
		if len(frag) == 0 {
			return false
		}
		w := newElement(tags[0])
		for _, n := range frag {
			w.AppendChild(n)
		}
		r.InsertNode(w)
		r.SelectNodeContents(w)
	}

	s.content = doc.HTML()
	s.sel = nil
	if loc, ok := doc.Locate(r); ok {
		s.sel = &loc
	}
	return true
}

func styledAncestor(doc *Document, n *html.Node, tags []atom.Atom) *html.Node {
	for ; n != nil && n != doc.root; n = n.Parent {
		if isElement(n, tags...) {
			return n
		}
	}
	return nil
}

// unwrap replaces an element by its children and returns a range over them
func unwrap(n *html.Node) *Range {
	parent := n.Parent
	start := indexOf(n)
	count := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		count++
		c = next
	}
	parent.RemoveChild(n)
	return &Range{
		Start: Point{Node: parent, Offset: start},
		End:   Point{Node: parent, Offset: start + count},
	}
}
