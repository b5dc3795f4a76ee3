// Package whitespace classifies what surrounds a position in the document:
// collapsible whitespace, visible characters, line breaks, atomic elements
// and block boundaries. The deletion engine bases every caret decision on
// these answers.
package whitespace

import (
	"strings"

	"github.com/rivo/uniseg"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
)

// Kind tags what a scan reached.
type Kind int

const (
	// KindNoContent means the scan ran off the editable root with nothing left.
	KindNoContent Kind = iota
	// KindCollapsibleWhiteSpace is a whitespace character that collapses.
	KindCollapsibleWhiteSpace
	// KindNonCollapsibleChar is a visible character (possibly multi-byte).
	KindNonCollapsibleChar
	// KindPreformattedLineBreak is a literal newline under white-space:pre.
	KindPreformattedLineBreak
	// KindBRElement is a <br>.
	KindBRElement
	// KindAtomicContent is a void or non-editable element treated as a unit.
	KindAtomicContent
	// KindHRElement is a horizontal rule.
	KindHRElement
	// KindCurrentBlockBoundary is the edge of the block holding the scan origin.
	KindCurrentBlockBoundary
	// KindOtherBlockBoundary is the edge of a block that does not hold the origin.
	KindOtherBlockBoundary
)

func (k Kind) String() string {
	switch k {
	case KindNoContent:
		return "no-content"
	case KindCollapsibleWhiteSpace:
		return "collapsible-whitespace"
	case KindNonCollapsibleChar:
		return "char"
	case KindPreformattedLineBreak:
		return "preformatted-break"
	case KindBRElement:
		return "br"
	case KindAtomicContent:
		return "atomic"
	case KindHRElement:
		return "hr"
	case KindCurrentBlockBoundary:
		return "current-block-boundary"
	case KindOtherBlockBoundary:
		return "other-block-boundary"
	default:
		return "unknown"
	}
}

// Classification is the closed result type of a scan: the kind of thing
// reached, the node carrying it, and the precise position of the reached
// unit (for characters, the byte range start in scan direction).
type Classification struct {
	Kind    Kind
	Content *html.Node
	Point   dom.Point
}

// Scanner answers visibility and classification questions. It is stateless
// apart from the style resolver's cache and safe to reuse across operations.
type Scanner struct {
	styles *dom.StyleResolver
	log    *zap.Logger
}

// NewScanner creates a scanner over the given style resolver.
func NewScanner(styles *dom.StyleResolver, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{styles: styles, log: log.Named("wsscan")}
}

// Styles exposes the underlying resolver for callers that share it.
func (s *Scanner) Styles() *dom.StyleResolver {
	return s.styles
}

const spaceChars = " \t\n\r\f"

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}

// ScanBackward classifies what lies immediately before p.
func (s *Scanner) ScanBackward(p dom.Point) Classification {
	return s.scan(p, false)
}

// ScanForward classifies what lies immediately after p.
func (s *Scanner) ScanForward(p dom.Point) Classification {
	return s.scan(p, true)
}

func (s *Scanner) scan(p dom.Point, forward bool) Classification {
	host := dom.EditingHost(p.Container)
	if host == nil {
		return Classification{Kind: KindNoContent, Point: p}
	}

	// inside text data the classification comes straight from the character
	if p.IsInText() {
		if forward && p.Offset < dom.Length(p.Container) {
			return s.classifyChar(p.Container, p.Offset, forward)
		}
		if !forward && p.Offset > 0 {
			return s.classifyChar(p.Container, p.Offset, forward)
		}
	}

	origin := dom.ClosestBlock(p.Container)
	from := p
	for {
		var leaf *html.Node
		if forward {
			leaf = dom.NextContent(from, host)
		} else {
			leaf = dom.PreviousContent(from, host)
		}
		if leaf == nil {
			if origin != nil && origin != host {
				return Classification{Kind: KindCurrentBlockBoundary, Content: origin, Point: p}
			}
			return Classification{Kind: KindNoContent, Point: p}
		}

		// a rule is its own block; classify it before the boundary checks
		// or it would masquerade as a block edge
		if dom.IsHR(leaf) {
			return Classification{Kind: KindHRElement, Content: leaf, Point: dom.Before(leaf)}
		}

		leafBlock := dom.ClosestBlock(leaf)
		if leafBlock != origin {
			if other := s.interveningBlock(leaf, origin, host); other != nil {
				return Classification{Kind: KindOtherBlockBoundary, Content: other, Point: p}
			}
			// leaf lies outside the origin block: the scan climbs out
			return Classification{Kind: KindCurrentBlockBoundary, Content: origin, Point: p}
		}

		switch {
		case dom.IsText(leaf):
			if s.IsInvisibleText(leaf) {
				// skip and keep scanning in the same direction
				if forward {
					from = dom.After(leaf)
				} else {
					from = dom.Before(leaf)
				}
				continue
			}
			if forward {
				return s.classifyChar(leaf, 0, true)
			}
			return s.classifyChar(leaf, dom.Length(leaf), false)
		case dom.IsBR(leaf):
			return Classification{Kind: KindBRElement, Content: leaf, Point: dom.Before(leaf)}
		case dom.IsHR(leaf):
			return Classification{Kind: KindHRElement, Content: leaf, Point: dom.Before(leaf)}
		default:
			return Classification{Kind: KindAtomicContent, Content: leaf, Point: dom.Before(leaf)}
		}
	}
}

// interveningBlock returns the highest block ancestor of leaf strictly below
// origin, when leaf sits inside a block nested in the origin block. Nil when
// leaf is outside origin entirely.
func (s *Scanner) interveningBlock(leaf, origin, host *html.Node) *html.Node {
	if origin == nil || !dom.IsDescendantOf(leaf, origin) {
		return nil
	}
	var top *html.Node
	for c := leaf; c != nil && c != origin; c = c.Parent {
		if dom.IsBlock(c) || (dom.IsElement(c) && s.styles.IsBlockLevel(c)) {
			top = c
		}
		if c == host {
			break
		}
	}
	return top
}

// classifyChar classifies the character adjacent to offset within text node
// n: the one before it when scanning backward, the one after it otherwise.
func (s *Scanner) classifyChar(n *html.Node, offset int, forward bool) Classification {
	data := n.Data
	var start, end int
	if forward {
		start = offset
		end = GraphemeEnd(data, offset)
	} else {
		start = GraphemeStart(data, offset)
		end = offset
	}
	if start >= end {
		return Classification{Kind: KindNoContent, Point: dom.At(n, offset)}
	}

	ch := data[start:end]
	at := dom.At(n, start)

	if len(ch) == 1 && isSpaceByte(ch[0]) {
		if ch[0] == '\n' && s.styles.PreservesNewlines(n) {
			return Classification{Kind: KindPreformattedLineBreak, Content: n, Point: at}
		}
		if s.styles.CollapsesWhiteSpace(n) {
			return Classification{Kind: KindCollapsibleWhiteSpace, Content: n, Point: at}
		}
	}
	return Classification{Kind: KindNonCollapsibleChar, Content: n, Point: at}
}

// GraphemeStart returns the byte index of the grapheme cluster ending at
// offset.
func GraphemeStart(s string, offset int) int {
	if offset <= 0 {
		return 0
	}
	state := -1
	rest := s
	pos := 0
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.StepString(rest, state)
		next := pos + len(cluster)
		if next >= offset {
			return pos
		}
		pos = next
	}
	return pos
}

// GraphemeEnd returns the byte index just past the grapheme cluster starting
// at offset.
func GraphemeEnd(s string, offset int) int {
	if offset >= len(s) {
		return len(s)
	}
	cluster, _, _, _ := uniseg.StepString(s[offset:], -1)
	return offset + len(cluster)
}

// CollapsibleRunStart returns the byte index where the whitespace run ending
// at offset begins.
func CollapsibleRunStart(data string, offset int) int {
	i := offset
	for i > 0 && isSpaceByte(data[i-1]) {
		i--
	}
	return i
}

// CollapsibleRunEnd returns the byte index just past the whitespace run
// starting at offset.
func CollapsibleRunEnd(data string, offset int) int {
	i := offset
	for i < len(data) && isSpaceByte(data[i]) {
		i++
	}
	return i
}

// WhiteSpaceOnly reports whether data contains nothing but space characters.
func WhiteSpaceOnly(data string) bool {
	return strings.TrimLeft(data, spaceChars) == ""
}
