package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
	"edkit/whitespace"
)

// resolve restricts the selection to editable content and normalizes every
// range to its deletion boundary: invisible whitespace adjoining a real
// range is pulled in, a selection covering all of a list's items is turned
// into a content selection so the list itself survives, and growth never
// escapes a table cell or the selection limiter. The second result is the
// list whose wrapper must outlive the delete, nil in every other case.
func (e *Engine) resolve(sel *dom.Selection, dir dom.Direction) (*dom.Selection, *html.Node, error) {
	kept := sel.Ranges[:0]
	for _, r := range sel.Ranges {
		clamped, ok := e.clampToHost(r)
		if !ok {
			continue
		}
		kept = append(kept, clamped)
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("resolve selection: %w", ErrNoEditableRange)
	}
	sel.Ranges = kept
	if sel.Anchor >= len(kept) {
		sel.Anchor = len(kept) - 1
	}

	var preservedList *html.Node
	if len(sel.Ranges) == 1 && !sel.Ranges[0].Collapsed() {
		r := sel.Ranges[0]
		if items := allListItemsSelected(r); items != nil {
			r.Start = dom.StartOf(items[0])
			r.End = dom.EndOf(items[len(items)-1])
			preservedList = items[0].Parent
			e.log.Debug("Selection spans whole list, keeping wrapper",
				zap.Int("items", len(items)))
		}
		e.growOverInvisibleWhiteSpace(r)
	}

	for _, r := range sel.Ranges {
		if err := e.checkLimits(r); err != nil {
			return nil, nil, err
		}
	}
	return sel, preservedList, nil
}

// clampToHost restricts r to the editing host containing it. A range with
// neither boundary in editable content is dropped.
func (e *Engine) clampToHost(r *dom.Range) (*dom.Range, bool) {
	startHost := dom.EditingHost(r.Start.Container)
	endHost := dom.EditingHost(r.End.Container)
	switch {
	case startHost == nil && endHost == nil:
		return nil, false
	case startHost == nil:
		r.Start = dom.StartOf(endHost)
	case endHost == nil:
		r.End = dom.EndOf(startHost)
	case startHost != endHost:
		// boundaries in different hosts: keep the start-side host
		r.End = dom.EndOf(startHost)
	}
	if !r.IsValid() {
		return nil, false
	}
	return r, true
}

// growOverInvisibleWhiteSpace widens a real range so invisible whitespace
// abutting either boundary is deleted along with the selected content.
// Visible whitespace is never pulled in, and growth stays inside the table
// cell holding the boundary.
func (e *Engine) growOverInvisibleWhiteSpace(r *dom.Range) {
	start := e.scanner.SkipInvisibleWhiteSpaceBackward(r.Start)
	if sameCellScope(r.Start, start) {
		r.Start = start
	}
	end := e.scanner.SkipInvisibleWhiteSpaceForward(r.End)
	if sameCellScope(r.End, end) {
		r.End = end
	}
}

// sameCellScope reports whether moving a boundary from a to b stays within
// the same table cell (or equally outside any cell). A range boundary must
// not drift across the table skeleton.
func sameCellScope(a, b dom.Point) bool {
	if !b.IsSet() {
		return false
	}
	ca := dom.ClosestAncestor(a.Container, nil, dom.IsTableCellOrCaption)
	cb := dom.ClosestAncestor(b.Container, nil, dom.IsTableCellOrCaption)
	return ca == cb
}

// checkLimits verifies both range boundaries against the selection limiter.
func (e *Engine) checkLimits(r *dom.Range) error {
	if !e.limiter.IsValidSelectionPoint(r.Start.Container) {
		return fmt.Errorf("range start %s outside selection limiter: %w", r.Start, ErrNoEditableRange)
	}
	if !e.limiter.IsValidSelectionPoint(r.End.Container) {
		return fmt.Errorf("range end %s outside selection limiter: %w", r.End, ErrNoEditableRange)
	}
	return nil
}

// allListItemsSelected reports whether r selects a whole list: either the
// list element itself or everything from the first item's start to the last
// item's end. Returns the items in order, nil otherwise.
func allListItemsSelected(r *dom.Range) []*html.Node {
	var list *html.Node
	if n := selectedSingleNode(r); n != nil && dom.IsList(n) {
		list = n
	} else {
		startItem := dom.ClosestAncestor(r.Start.Container, nil, dom.IsListItem)
		endItem := dom.ClosestAncestor(r.End.Container, nil, dom.IsListItem)
		if startItem == nil || endItem == nil || startItem.Parent != endItem.Parent {
			return nil
		}
		parent := startItem.Parent
		if !dom.IsList(parent) {
			return nil
		}
		if firstItemOf(parent) != startItem || lastItemOf(parent) != endItem {
			return nil
		}
		if !atContentStart(r.Start, startItem) || !atContentEnd(r.End, endItem) {
			return nil
		}
		list = parent
	}

	var items []*html.Node
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsListItem(c) {
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// selectedSingleNode returns the one node r spans exactly, nil otherwise.
func selectedSingleNode(r *dom.Range) *html.Node {
	if r.Start.IsInText() || r.Start.Container != r.End.Container {
		return nil
	}
	if r.End.Offset != r.Start.Offset+1 {
		return nil
	}
	return r.Start.NodeAfter()
}

func firstItemOf(list *html.Node) *html.Node {
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsListItem(c) {
			return c
		}
	}
	return nil
}

func lastItemOf(list *html.Node) *html.Node {
	for c := list.LastChild; c != nil; c = c.PrevSibling {
		if dom.IsListItem(c) {
			return c
		}
	}
	return nil
}

// atContentStart reports whether p sits before any content of item.
func atContentStart(p dom.Point, item *html.Node) bool {
	leaf := dom.NextContent(dom.StartOf(item), item)
	if leaf == nil {
		return true
	}
	var first dom.Point
	if dom.IsText(leaf) {
		first = dom.StartOf(leaf)
	} else {
		first = dom.Before(leaf)
	}
	return dom.Compare(p, first) <= 0
}

// atContentEnd reports whether p sits after all content of item.
func atContentEnd(p dom.Point, item *html.Node) bool {
	leaf := dom.PreviousContent(dom.EndOf(item), item)
	if leaf == nil {
		return true
	}
	var last dom.Point
	if dom.IsText(leaf) {
		last = dom.EndOf(leaf)
	} else {
		last = dom.After(leaf)
	}
	return dom.Compare(p, last) >= 0
}

// computeCollapsedTarget reports what a collapsed delete at p in the given
// direction would remove, as a range, without touching the tree. Nil means
// nothing would be deleted or the effect is a pure block join with no
// content extent of its own.
func (e *Engine) computeCollapsedTarget(p dom.Point, dir dom.Direction) *dom.Range {
	forward := dir == dom.DirForward
	var cls whitespace.Classification
	if forward {
		cls = e.scanner.ScanForward(p)
	} else {
		cls = e.scanner.ScanBackward(p)
	}

	switch cls.Kind {
	case whitespace.KindNoContent:
		return nil

	case whitespace.KindCollapsibleWhiteSpace:
		n := cls.Content
		if e.opts.BlinkCompatibleWhiteSpace {
			return graphemeRange(n, cls.Point.Offset, forward)
		}
		start := whitespace.CollapsibleRunStart(n.Data, cls.Point.Offset+1)
		end := whitespace.CollapsibleRunEnd(n.Data, cls.Point.Offset)
		return dom.NewRange(dom.At(n, start), dom.At(n, end))

	case whitespace.KindNonCollapsibleChar, whitespace.KindPreformattedLineBreak:
		return graphemeRange(cls.Content, cls.Point.Offset, forward)

	case whitespace.KindBRElement, whitespace.KindHRElement, whitespace.KindAtomicContent:
		return dom.SelectNode(cls.Content)

	case whitespace.KindOtherBlockBoundary, whitespace.KindCurrentBlockBoundary:
		host := dom.EditingHost(p.Container)
		var leaf *html.Node
		if forward {
			leaf = dom.NextContent(p, host)
		} else {
			leaf = dom.PreviousContent(p, host)
		}
		if leaf == nil {
			return nil
		}
		var edge dom.Point
		switch {
		case dom.IsText(leaf) && forward:
			edge = dom.StartOf(leaf)
		case dom.IsText(leaf):
			edge = dom.EndOf(leaf)
		case forward:
			edge = dom.Before(leaf)
		default:
			edge = dom.After(leaf)
		}
		return dom.NewRange(p, edge)
	}
	return nil
}

// graphemeRange spans the single grapheme cluster starting at offset in text
// node n. The scanner reports the cluster start for both scan directions, so
// the extent is direction-independent.
func graphemeRange(n *html.Node, offset int, _ bool) *dom.Range {
	return dom.NewRange(dom.At(n, offset), dom.At(n, whitespace.GraphemeEnd(n.Data, offset)))
}
