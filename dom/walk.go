package dom

import (
	"golang.org/x/net/html"
)

// IsDescendantOf reports whether n is a strict descendant of ancestor.
func IsDescendantOf(n, ancestor *html.Node) bool {
	if n == nil || ancestor == nil {
		return false
	}
	for c := n.Parent; c != nil; c = c.Parent {
		if c == ancestor {
			return true
		}
	}
	return false
}

// IsInclusiveDescendantOf reports whether n is ancestor or inside it.
func IsInclusiveDescendantOf(n, ancestor *html.Node) bool {
	return n == ancestor || IsDescendantOf(n, ancestor)
}

// CommonAncestor returns the deepest node containing both a and b
// (inclusive), nil when they belong to disjoint trees.
func CommonAncestor(a, b *html.Node) *html.Node {
	seen := make(map[*html.Node]bool)
	for c := a; c != nil; c = c.Parent {
		seen[c] = true
	}
	for c := b; c != nil; c = c.Parent {
		if seen[c] {
			return c
		}
	}
	return nil
}

// NextNode returns the node after n in document order within limit,
// descending into children first.
func NextNode(n, limit *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for c := n; c != nil && c != limit; c = c.Parent {
		if c.NextSibling != nil {
			return c.NextSibling
		}
	}
	return nil
}

// NextNodeSkippingChildren returns the node after n's subtree within limit.
func NextNodeSkippingChildren(n, limit *html.Node) *html.Node {
	for c := n; c != nil && c != limit; c = c.Parent {
		if c.NextSibling != nil {
			return c.NextSibling
		}
	}
	return nil
}

// PrevNode returns the node before n in document order within limit; when
// the previous sibling has children the deepest last descendant is returned.
func PrevNode(n, limit *html.Node) *html.Node {
	if n == nil || n == limit {
		return nil
	}
	if n.PrevSibling == nil {
		if n.Parent == limit {
			return nil
		}
		return n.Parent
	}
	c := n.PrevSibling
	for c.LastChild != nil {
		c = c.LastChild
	}
	return c
}

// FirstLeaf returns the deepest first descendant of n, or n itself when
// childless.
func FirstLeaf(n *html.Node) *html.Node {
	c := n
	for c != nil && c.FirstChild != nil {
		c = c.FirstChild
	}
	return c
}

// LastLeaf returns the deepest last descendant of n, or n itself.
func LastLeaf(n *html.Node) *html.Node {
	c := n
	for c != nil && c.LastChild != nil {
		c = c.LastChild
	}
	return c
}

// ContentKind is what a leaf search may be asked to stop on.
type contentFilter func(*html.Node) bool

func isContentLeaf(n *html.Node) bool {
	if IsText(n) {
		return true
	}
	if !IsElement(n) {
		return false
	}
	return IsVoid(n) || IsBR(n) || IsHR(n)
}

// PreviousContent returns the closest editable content leaf before p within
// limit: a text node, void element, <br> or <hr>. Data nodes (comments) are
// skipped. Returns nil when nothing remains.
func PreviousContent(p Point, limit *html.Node) *html.Node {
	return adjacentContent(p, limit, false)
}

// NextContent returns the closest editable content leaf after p within limit.
func NextContent(p Point, limit *html.Node) *html.Node {
	return adjacentContent(p, limit, true)
}

func adjacentContent(p Point, limit *html.Node, forward bool) *html.Node {
	if !p.IsSet() {
		return nil
	}
	var n *html.Node
	if p.IsInText() {
		if forward && p.Offset < Length(p.Container) {
			return p.Container
		}
		if !forward && p.Offset > 0 {
			return p.Container
		}
		if forward {
			n = NextNodeSkippingChildren(p.Container, limit)
		} else {
			n = PrevNode(p.Container, limit)
		}
	} else {
		if forward {
			if after := p.NodeAfter(); after != nil {
				n = after
			} else {
				n = NextNodeSkippingChildren(p.Container, limit)
			}
		} else {
			if before := p.NodeBefore(); before != nil {
				n = before
				for n.LastChild != nil {
					n = n.LastChild
				}
			} else {
				n = PrevNode(p.Container, limit)
			}
		}
	}
	for n != nil {
		if isContentLeaf(n) {
			return n
		}
		if forward {
			// void subtrees count as a single unit
			if IsVoid(n) {
				return n
			}
			n = NextNode(n, limit)
		} else {
			n = PrevNode(n, limit)
		}
	}
	return nil
}

// LeafRange iterates content leaves intersecting [start, end) in document
// order, calling fn for each; fn returning false stops the walk.
func LeafRange(start, end Point, fn func(*html.Node) bool) {
	n := NextContent(start, nil)
	for n != nil {
		if Compare(Before(n), end) >= 0 {
			return
		}
		if !fn(n) {
			return
		}
		n = NextContent(After(n), nil)
	}
}
