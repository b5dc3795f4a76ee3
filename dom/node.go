// Package dom defines the document model the deletion engine operates on:
// positions and ranges over golang.org/x/net/html node trees, element
// classification, and the mutation primitives with their observer and
// point-tracking machinery.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockTags are elements that establish their own line box by default.
var blockTags = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true,
	atom.Blockquote: true, atom.Caption: true, atom.Center: true,
	atom.Dd: true, atom.Details: true, atom.Dialog: true, atom.Dir: true,
	atom.Div: true, atom.Dl: true, atom.Dt: true, atom.Fieldset: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true,
	atom.Form: true, atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true, atom.Header: true,
	atom.Hgroup: true, atom.Hr: true, atom.Li: true, atom.Listing: true,
	atom.Main: true, atom.Menu: true, atom.Nav: true, atom.Ol: true,
	atom.P: true, atom.Plaintext: true, atom.Pre: true, atom.Section: true,
	atom.Summary: true, atom.Table: true, atom.Tbody: true, atom.Td: true,
	atom.Tfoot: true, atom.Th: true, atom.Thead: true, atom.Tr: true,
	atom.Ul: true, atom.Xmp: true,
}

// tableStructuralTags are elements whose partial removal corrupts tabular
// structure. The engine deletes their content, never the skeleton.
var tableStructuralTags = map[atom.Atom]bool{
	atom.Table: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.Caption: true,
	atom.Colgroup: true, atom.Col: true,
}

// voidTags are atomic leaves with no internal caret positions.
var voidTags = map[atom.Atom]bool{
	atom.Img: true, atom.Input: true, atom.Embed: true, atom.Object: true,
	atom.Iframe: true, atom.Video: true, atom.Audio: true, atom.Canvas: true,
	atom.Select: true, atom.Textarea: true, atom.Button: true,
	atom.Meter: true, atom.Progress: true,
}

var listTags = map[atom.Atom]bool{
	atom.Ul: true, atom.Ol: true, atom.Dl: true,
}

var listItemTags = map[atom.Atom]bool{
	atom.Li: true, atom.Dt: true, atom.Dd: true,
}

// mergeableBlockTags are block kinds that a same-parent join may merge.
var mergeableBlockTags = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Pre: true, atom.Address: true,
}

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool {
	return n != nil && n.Type == html.TextNode
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// IsOtherData reports whether n is a non-element non-text data node
// (comment, doctype) that renders nothing.
func IsOtherData(n *html.Node) bool {
	if n == nil {
		return false
	}
	return n.Type == html.CommentNode || n.Type == html.DoctypeNode
}

// IsBlock reports whether n is a block-level element by tag default.
// Inline style display overrides are resolved by StyleResolver, not here.
func IsBlock(n *html.Node) bool {
	return IsElement(n) && blockTags[n.DataAtom]
}

// IsInlineElement reports whether n is an element flowing within a line.
func IsInlineElement(n *html.Node) bool {
	return IsElement(n) && !blockTags[n.DataAtom]
}

// IsTableStructural reports whether n is a table skeleton element.
func IsTableStructural(n *html.Node) bool {
	return IsElement(n) && tableStructuralTags[n.DataAtom]
}

// IsTableCellOrCaption reports whether n bounds empty-ancestor cleanup.
func IsTableCellOrCaption(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	switch n.DataAtom {
	case atom.Td, atom.Th, atom.Caption:
		return true
	}
	return false
}

// IsVoid reports whether n is an atomic leaf. An element explicitly marked
// contenteditable=false behaves atomically too.
func IsVoid(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if voidTags[n.DataAtom] {
		return true
	}
	return strings.EqualFold(Attr(n, "contenteditable"), "false")
}

// IsBR reports whether n is a line-break element.
func IsBR(n *html.Node) bool {
	return IsElement(n) && n.DataAtom == atom.Br
}

// IsHR reports whether n is a horizontal-rule element.
func IsHR(n *html.Node) bool {
	return IsElement(n) && n.DataAtom == atom.Hr
}

// IsList reports whether n is a list wrapper element.
func IsList(n *html.Node) bool {
	return IsElement(n) && listTags[n.DataAtom]
}

// IsListItem reports whether n is a list item element.
func IsListItem(n *html.Node) bool {
	return IsElement(n) && listItemTags[n.DataAtom]
}

// IsMergeableBlock reports whether two same-tag siblings of this kind may be
// deep-joined after a cross-block range delete.
func IsMergeableBlock(n *html.Node) bool {
	return IsElement(n) && mergeableBlockTags[n.DataAtom]
}

// IsDocumentStructure reports whether n is a top-level document element that
// must never participate in a join.
func IsDocumentStructure(n *html.Node) bool {
	if n == nil {
		return false
	}
	if n.Type == html.DocumentNode {
		return true
	}
	if !IsElement(n) {
		return false
	}
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return true
	}
	return false
}

// IsMailCite reports whether n is a quoted-reply wrapper.
func IsMailCite(n *html.Node) bool {
	if !IsElement(n) {
		return false
	}
	if n.DataAtom == atom.Blockquote && strings.EqualFold(Attr(n, "type"), "cite") {
		return true
	}
	return Attr(n, "cite") != "" && n.DataAtom == atom.Blockquote
}

// IsPaddingBR reports whether n is a placeholder break inserted by the engine
// to keep an emptied block visible.
func IsPaddingBR(n *html.Node) bool {
	return IsBR(n) && Attr(n, "data-padding") == "true"
}

// Attr returns the value of the named attribute, empty when absent.
func Attr(n *html.Node, name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the named attribute is present, even empty.
func HasAttr(n *html.Node, name string) bool {
	if n == nil {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// EditingHost returns the nearest ancestor (or n itself) that is an editable
// root: an element carrying contenteditable unless explicitly disabled.
// Returns nil when n is not inside editable content.
func EditingHost(n *html.Node) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if !IsElement(c) {
			continue
		}
		switch strings.ToLower(Attr(c, "contenteditable")) {
		case "false":
			return nil
		default:
			if HasAttr(c, "contenteditable") {
				return c
			}
		}
	}
	return nil
}

// IsEditable reports whether n belongs to editable content: it has an editing
// host and is not inside a contenteditable=false island.
func IsEditable(n *html.Node) bool {
	return n != nil && EditingHost(n) != nil
}

// IsRemovable reports whether deleting n is allowed: its parent is editable
// content and n is not an editing host. A contenteditable=false island is
// itself removable as a unit when it sits in editable content.
func IsRemovable(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	host := EditingHost(n.Parent)
	return host != nil && host != n
}

// ClosestBlock returns the nearest block-level ancestor of n, inclusive,
// stopping at (and never passing) the editing host. When n has no block
// ancestor inside the host, the host is returned.
func ClosestBlock(n *html.Node) *html.Node {
	host := EditingHost(n)
	for c := n; c != nil; c = c.Parent {
		if IsBlock(c) {
			return c
		}
		if c == host {
			return host
		}
	}
	return nil
}

// ClosestAncestor returns the nearest ancestor of n, inclusive, for which
// match returns true, stopping after limit (inclusive).
func ClosestAncestor(n, limit *html.Node, match func(*html.Node) bool) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if match(c) {
			return c
		}
		if c == limit {
			break
		}
	}
	return nil
}

// AnyTableElementAncestor returns the nearest table-structural ancestor of n,
// inclusive, or nil.
func AnyTableElementAncestor(n *html.Node) *html.Node {
	return ClosestAncestor(n, nil, IsTableStructural)
}

// CanContain reports whether parent may directly hold a child of the given
// kind without breaking structural invariants the engine relies on.
func CanContain(parent, child *html.Node) bool {
	if !IsElement(parent) || child == nil {
		return false
	}
	if IsVoid(parent) {
		return false
	}
	switch {
	case IsListItem(child):
		return IsList(parent)
	case IsTableStructural(child) && child.DataAtom != atom.Table:
		return IsTableStructural(parent)
	case IsText(child):
		return !IsList(parent) && parent.DataAtom != atom.Table &&
			parent.DataAtom != atom.Tbody && parent.DataAtom != atom.Thead &&
			parent.DataAtom != atom.Tfoot && parent.DataAtom != atom.Tr
	}
	return true
}
