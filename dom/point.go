package dom

import (
	"fmt"

	"golang.org/x/net/html"
)

// Direction is the logical delete direction. Forward corresponds to the
// Delete key, Backward to Backspace. DirNone is used for deletions driven by
// an explicit range rather than a key.
type Direction int

const (
	DirNone Direction = iota
	DirForward
	DirBackward
)

func (d Direction) String() string {
	switch d {
	case DirForward:
		return "forward"
	case DirBackward:
		return "backward"
	default:
		return "none"
	}
}

// Interline disambiguates caret placement at block boundaries: whether the
// caret belongs to the end of the previous line or the start of the next.
type Interline int

const (
	InterlineStart Interline = iota
	InterlineEnd
)

// Point addresses a location in the tree: inside a text node Offset counts
// bytes into the node data, inside an element it counts children.
type Point struct {
	Container *html.Node
	Offset    int
}

// At returns a point addressing offset within container.
func At(container *html.Node, offset int) Point {
	return Point{Container: container, Offset: offset}
}

// Before returns the point immediately before n in its parent.
func Before(n *html.Node) Point {
	if n == nil || n.Parent == nil {
		return Point{}
	}
	return Point{Container: n.Parent, Offset: IndexOf(n)}
}

// After returns the point immediately after n in its parent.
func After(n *html.Node) Point {
	if n == nil || n.Parent == nil {
		return Point{}
	}
	return Point{Container: n.Parent, Offset: IndexOf(n) + 1}
}

// StartOf returns the first point inside n.
func StartOf(n *html.Node) Point {
	return Point{Container: n, Offset: 0}
}

// EndOf returns the last point inside n.
func EndOf(n *html.Node) Point {
	return Point{Container: n, Offset: Length(n)}
}

// Length returns the addressable extent of n: data bytes for text, child
// count for elements.
func Length(n *html.Node) int {
	if n == nil {
		return 0
	}
	if n.Type == html.TextNode {
		return len(n.Data)
	}
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

// IndexOf returns n's position among its parent's children, -1 when orphaned.
func IndexOf(n *html.Node) int {
	if n == nil || n.Parent == nil {
		return -1
	}
	i := 0
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c == n {
			return i
		}
		i++
	}
	return -1
}

// ChildAt returns parent's child at the given index, nil when out of range.
func ChildAt(parent *html.Node, index int) *html.Node {
	if parent == nil || index < 0 {
		return nil
	}
	i := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if i == index {
			return c
		}
		i++
	}
	return nil
}

// IsSet reports whether the point names a container.
func (p Point) IsSet() bool {
	return p.Container != nil
}

// IsInText reports whether the point addresses text node data.
func (p Point) IsInText() bool {
	return p.Container != nil && p.Container.Type == html.TextNode
}

// IsValid reports whether the offset is within the container's extent.
func (p Point) IsValid() bool {
	return p.Container != nil && p.Offset >= 0 && p.Offset <= Length(p.Container)
}

// IsStart reports whether the point is at the very start of its container.
func (p Point) IsStart() bool {
	return p.IsSet() && p.Offset == 0
}

// IsEnd reports whether the point is at the very end of its container.
func (p Point) IsEnd() bool {
	return p.IsSet() && p.Offset == Length(p.Container)
}

// NodeAfter returns the child immediately after the point, nil inside text
// nodes or at container end.
func (p Point) NodeAfter() *html.Node {
	if !p.IsSet() || p.IsInText() {
		return nil
	}
	return ChildAt(p.Container, p.Offset)
}

// NodeBefore returns the child immediately before the point.
func (p Point) NodeBefore() *html.Node {
	if !p.IsSet() || p.IsInText() || p.Offset == 0 {
		return nil
	}
	return ChildAt(p.Container, p.Offset-1)
}

func (p Point) String() string {
	if !p.IsSet() {
		return "point(unset)"
	}
	return fmt.Sprintf("point(%s@%d)", NodeName(p.Container), p.Offset)
}

// NodeName returns a short diagnostic name for n.
func NodeName(n *html.Node) string {
	switch {
	case n == nil:
		return "nil"
	case n.Type == html.TextNode:
		return fmt.Sprintf("#text(%q)", clip(n.Data, 16))
	case n.Type == html.DocumentNode:
		return "#document"
	case n.Type == html.CommentNode:
		return "#comment"
	case n.Type == html.ElementNode:
		return "<" + n.Data + ">"
	default:
		return "#other"
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// path returns child indexes from the root down to n; used for ordering.
func path(n *html.Node) []int {
	var p []int
	for c := n; c != nil && c.Parent != nil; c = c.Parent {
		p = append(p, IndexOf(c))
	}
	// reverse into root-first order
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Compare orders two points in document order: -1, 0 or 1. Points in
// disjoint trees compare by pointer identity of their roots arbitrarily but
// consistently.
func Compare(a, b Point) int {
	if a.Container == b.Container {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return 0
		}
	}
	pa, pb := path(a.Container), path(b.Container)
	pa = append(pa, a.Offset)
	pb = append(pb, b.Offset)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	// one point is inside the other's container subtree
	if len(pa) < len(pb) {
		return -1
	}
	if len(pa) > len(pb) {
		return 1
	}
	return 0
}

// Range is an ordered pair of points.
type Range struct {
	Start Point
	End   Point
}

// NewRange returns a range with its boundaries in document order.
func NewRange(a, b Point) *Range {
	if Compare(a, b) > 0 {
		a, b = b, a
	}
	return &Range{Start: a, End: b}
}

// CollapsedAt returns a zero-length range at p.
func CollapsedAt(p Point) *Range {
	return &Range{Start: p, End: p}
}

// SelectNode returns a range spanning exactly n.
func SelectNode(n *html.Node) *Range {
	return &Range{Start: Before(n), End: After(n)}
}

// Collapsed reports whether the range is zero-length.
func (r *Range) Collapsed() bool {
	return r.Start == r.End
}

// Collapse shrinks the range to its start (toStart) or end boundary.
func (r *Range) Collapse(toStart bool) {
	if toStart {
		r.End = r.Start
	} else {
		r.Start = r.End
	}
}

// InSameContainer reports whether both boundaries share a container node.
func (r *Range) InSameContainer() bool {
	return r.Start.Container == r.End.Container
}

// Contains reports whether n lies entirely inside the range.
func (r *Range) Contains(n *html.Node) bool {
	if n == nil || n.Parent == nil {
		return false
	}
	return Compare(Before(n), r.Start) >= 0 && Compare(After(n), r.End) <= 0
}

// IsValid reports whether both boundaries are set, valid and ordered.
func (r *Range) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid() && Compare(r.Start, r.End) <= 0
}

func (r *Range) String() string {
	if r.Collapsed() {
		return fmt.Sprintf("caret%s", r.Start)
	}
	return fmt.Sprintf("range[%s..%s]", r.Start, r.End)
}

// Selection is an ordered, non-overlapping list of ranges with a designated
// anchor/focus range and an interline bias.
type Selection struct {
	Ranges    []*Range
	Anchor    int // index of the anchor/focus range
	Interline Interline
}

// NewSelection returns a selection over the given ranges; the last range is
// the anchor, matching how multi-range selections accrete.
func NewSelection(ranges ...*Range) *Selection {
	s := &Selection{Ranges: ranges}
	if len(ranges) > 0 {
		s.Anchor = len(ranges) - 1
	}
	return s
}

// Caret returns a collapsed single-range selection at p.
func Caret(p Point) *Selection {
	return NewSelection(CollapsedAt(p))
}

// IsCollapsed reports whether every range in the selection is collapsed.
func (s *Selection) IsCollapsed() bool {
	if len(s.Ranges) == 0 {
		return true
	}
	for _, r := range s.Ranges {
		if !r.Collapsed() {
			return false
		}
	}
	return true
}

// Focus returns the anchor range, nil on an empty selection.
func (s *Selection) Focus() *Range {
	if len(s.Ranges) == 0 {
		return nil
	}
	if s.Anchor >= 0 && s.Anchor < len(s.Ranges) {
		return s.Ranges[s.Anchor]
	}
	return s.Ranges[len(s.Ranges)-1]
}

// CollapseTo replaces the selection with a single caret at p.
func (s *Selection) CollapseTo(p Point) {
	s.Ranges = []*Range{CollapsedAt(p)}
	s.Anchor = 0
}

// Clone returns a deep copy sharing no Range pointers with the original.
func (s *Selection) Clone() *Selection {
	c := &Selection{Anchor: s.Anchor, Interline: s.Interline}
	c.Ranges = make([]*Range, len(s.Ranges))
	for i, r := range s.Ranges {
		cp := *r
		c.Ranges[i] = &cp
	}
	return c
}
