package whitespace

import (
	"golang.org/x/net/html"

	"edkit/dom"
)

// IsInvisibleText reports whether text node n contributes nothing to
// rendered output: it holds only collapsible whitespace and sits where that
// whitespace collapses away (against a block edge or after other
// whitespace).
func (s *Scanner) IsInvisibleText(n *html.Node) bool {
	if !dom.IsText(n) {
		return false
	}
	if !WhiteSpaceOnly(n.Data) {
		return false
	}
	if len(n.Data) == 0 {
		return true
	}
	if !s.styles.CollapsesWhiteSpace(n) {
		return false
	}

	block := dom.ClosestBlock(n)

	// whitespace at the very start or very end of its block never renders
	prev := dom.PreviousContent(dom.Before(n), block)
	if prev == nil || !dom.IsInclusiveDescendantOf(prev, block) {
		return true
	}
	next := dom.NextContent(dom.After(n), block)
	if next == nil || !dom.IsInclusiveDescendantOf(next, block) {
		return true
	}
	// whitespace following a break never renders either
	if dom.IsBR(prev) {
		return true
	}
	// neighbors on the far side of a block boundary do not hold the run open
	if dom.ClosestBlock(prev) != block || dom.ClosestBlock(next) != block {
		return true
	}
	// a run split across text nodes renders at most one space
	if dom.IsText(prev) && len(prev.Data) > 0 && isSpaceByte(prev.Data[len(prev.Data)-1]) && s.styles.CollapsesWhiteSpace(prev) {
		return true
	}
	return false
}

// IsInvisibleBR reports whether br renders nothing: it is the last content
// leaf of its block and the block already has a line of visible content
// before it. A lone <br> keeping an empty block open is visible.
func (s *Scanner) IsInvisibleBR(br *html.Node) bool {
	if !dom.IsBR(br) {
		return false
	}
	if dom.IsPaddingBR(br) {
		// padding breaks are invisible by construction once content returns
		// in front of them, visible otherwise
		return s.hasVisibleContentBefore(br)
	}
	block := dom.ClosestBlock(br)
	if block == nil {
		return false
	}
	// anything visible after the break keeps it meaningful
	for leaf := dom.NextContent(dom.After(br), block); leaf != nil && dom.IsInclusiveDescendantOf(leaf, block); leaf = dom.NextContent(dom.After(leaf), block) {
		if dom.IsText(leaf) && s.IsInvisibleText(leaf) {
			continue
		}
		return false
	}
	return s.hasVisibleContentBefore(br)
}

func (s *Scanner) hasVisibleContentBefore(n *html.Node) bool {
	block := dom.ClosestBlock(n)
	if block == nil {
		return false
	}
	for leaf := dom.PreviousContent(dom.Before(n), block); leaf != nil && dom.IsInclusiveDescendantOf(leaf, block); leaf = dom.PreviousContent(dom.Before(leaf), block) {
		if dom.IsText(leaf) && s.IsInvisibleText(leaf) {
			continue
		}
		return true
	}
	return false
}

// IsEmptyNode reports whether n has no visible content at all. When
// tolerateBR is set a single trailing (invisible or padding) line break does
// not count as content.
func (s *Scanner) IsEmptyNode(n *html.Node, tolerateBR bool) bool {
	if n == nil {
		return true
	}
	if dom.IsText(n) {
		return s.IsInvisibleText(n)
	}
	if dom.IsVoid(n) || dom.IsHR(n) {
		return false
	}
	sawBR := false
	for leaf := dom.FirstLeaf(n); leaf != nil; {
		if !dom.IsInclusiveDescendantOf(leaf, n) {
			break
		}
		switch {
		case dom.IsText(leaf):
			if !s.IsInvisibleText(leaf) {
				return false
			}
		case dom.IsBR(leaf):
			if !tolerateBR || sawBR {
				return false
			}
			sawBR = true
		case dom.IsVoid(leaf) || dom.IsHR(leaf):
			return false
		}
		leaf = dom.NextNode(leaf, n)
	}
	return true
}

// HasVisibleContent reports whether the subtree under n renders anything.
func (s *Scanner) HasVisibleContent(n *html.Node) bool {
	return !s.IsEmptyNode(n, false)
}

// SkipInvisibleWhiteSpaceBackward moves p backward over invisible trailing
// whitespace so the returned point abuts visible content or a boundary.
// Visible whitespace is never crossed.
func (s *Scanner) SkipInvisibleWhiteSpaceBackward(p dom.Point) dom.Point {
	for {
		if p.IsInText() {
			n := p.Container
			if p.Offset == 0 {
				if s.IsInvisibleText(n) {
					p = dom.Before(n)
					continue
				}
				return p
			}
			if s.IsInvisibleText(n) {
				p = dom.Before(n)
				continue
			}
			return p
		}
		before := p.NodeBefore()
		if before == nil {
			return p
		}
		if dom.IsText(before) && s.IsInvisibleText(before) {
			p = dom.Before(before)
			continue
		}
		return p
	}
}

// SkipInvisibleWhiteSpaceForward moves p forward over invisible leading
// whitespace.
func (s *Scanner) SkipInvisibleWhiteSpaceForward(p dom.Point) dom.Point {
	for {
		if p.IsInText() {
			n := p.Container
			if s.IsInvisibleText(n) {
				p = dom.After(n)
				continue
			}
			return p
		}
		after := p.NodeAfter()
		if after == nil {
			return p
		}
		if dom.IsText(after) && s.IsInvisibleText(after) {
			p = dom.After(after)
			continue
		}
		return p
	}
}
