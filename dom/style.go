package dom

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"edkit/css"
)

// StyleResolver answers computed-style questions the deletion engine needs:
// whitespace significance and block-ness, taking inline style attributes
// into account on top of tag defaults.
type StyleResolver struct {
	parser *css.Parser
	cache  map[*html.Node]css.InlineStyle
}

// NewStyleResolver creates a resolver with its own inline style parser.
func NewStyleResolver(log *zap.Logger) *StyleResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &StyleResolver{
		parser: css.NewParser(log),
		cache:  make(map[*html.Node]css.InlineStyle),
	}
}

func (sr *StyleResolver) inline(n *html.Node) css.InlineStyle {
	if st, ok := sr.cache[n]; ok {
		return st
	}
	st := sr.parser.ParseInline(Attr(n, "style"))
	sr.cache[n] = st
	return st
}

// Invalidate drops cached style for n, to be called when a style attribute
// changes. Deletion never edits style attributes so this is rarely needed.
func (sr *StyleResolver) Invalidate(n *html.Node) {
	delete(sr.cache, n)
}

// WhiteSpaceOf resolves the effective white-space value at n by walking up
// through inherited declarations. <pre> family tags default to pre.
func (sr *StyleResolver) WhiteSpaceOf(n *html.Node) css.WhiteSpace {
	for c := n; c != nil; c = c.Parent {
		if !IsElement(c) {
			continue
		}
		if st := sr.inline(c); st.HasWhiteSpace {
			return st.WhiteSpace
		}
		switch c.DataAtom {
		case atom.Pre, atom.Listing, atom.Xmp, atom.Plaintext:
			return css.WhiteSpacePre
		case atom.Textarea:
			return css.WhiteSpacePreWrap
		}
	}
	return css.WhiteSpaceNormal
}

// DisplayOf resolves the effective display of element n: the inline
// declaration when present, the tag default otherwise.
func (sr *StyleResolver) DisplayOf(n *html.Node) css.Display {
	if !IsElement(n) {
		return css.DisplayUnset
	}
	if st := sr.inline(n); st.Display != css.DisplayUnset {
		return st.Display
	}
	switch {
	case tableStructuralTags[n.DataAtom]:
		switch n.DataAtom {
		case atom.Table:
			return css.DisplayTable
		case atom.Tr:
			return css.DisplayTableRow
		case atom.Td, atom.Th:
			return css.DisplayTableCell
		}
		return css.DisplayBlock
	case listItemTags[n.DataAtom]:
		return css.DisplayListItem
	case blockTags[n.DataAtom]:
		return css.DisplayBlock
	default:
		return css.DisplayInline
	}
}

// IsBlockLevel reports whether n renders as a block once inline display
// overrides are applied.
func (sr *StyleResolver) IsBlockLevel(n *html.Node) bool {
	return sr.DisplayOf(n).IsBlockLevel()
}

// IsHidden reports whether n is removed from rendering entirely.
func (sr *StyleResolver) IsHidden(n *html.Node) bool {
	return IsElement(n) && sr.inline(n).Display == css.DisplayNone
}

// PreservesNewlines reports whether a "\n" inside n produces a line break.
func (sr *StyleResolver) PreservesNewlines(n *html.Node) bool {
	return sr.WhiteSpaceOf(n).PreservesNewlines()
}

// CollapsesWhiteSpace reports whether space runs inside n collapse.
func (sr *StyleResolver) CollapsesWhiteSpace(n *html.Node) bool {
	return sr.WhiteSpaceOf(n).CollapsesSpaces()
}
