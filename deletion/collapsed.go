package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
	"edkit/whitespace"
)

// handleCollapsed is the caret deletion state machine: classify what the
// scan reaches in the delete direction, then dispatch to exactly one
// strategy.
func (h *handler) handleCollapsed(sel *dom.Selection, p dom.Point) (Result, error) {
	forward := h.dir == dom.DirForward
	var cls whitespace.Classification
	if forward {
		cls = h.e.scanner.ScanForward(p)
	} else {
		cls = h.e.scanner.ScanBackward(p)
	}
	h.log.Debug("Collapsed scan", zap.Stringer("kind", cls.Kind), zap.String("at", p.String()))

	switch cls.Kind {
	case whitespace.KindNoContent:
		// top (or bottom) of the editable content, nothing to delete
		return Result{}, nil

	case whitespace.KindCollapsibleWhiteSpace:
		return h.deleteWhiteSpace(sel, cls)

	case whitespace.KindNonCollapsibleChar, whitespace.KindPreformattedLineBreak:
		return h.deleteCharacter(sel, cls)

	case whitespace.KindBRElement:
		if h.e.scanner.IsInvisibleBR(cls.Content) {
			return h.deleteInvisibleBR(sel, cls.Content, p)
		}
		return h.deleteAtomic(sel, cls.Content)

	case whitespace.KindAtomicContent:
		return h.deleteAtomic(sel, cls.Content)

	case whitespace.KindHRElement:
		return h.deleteHR(sel, cls.Content, p)

	case whitespace.KindOtherBlockBoundary:
		return h.joinAtBoundary(sel, p, joinOtherBlock)

	case whitespace.KindCurrentBlockBoundary:
		return h.joinAtBoundary(sel, p, joinCurrentBlock)
	}
	return Result{}, fmt.Errorf("unclassifiable content at %s: %w", p, ErrUnexpectedTreeState)
}

// deleteWhiteSpace removes the collapsible whitespace run holding the
// reached character, or a single character in Blink compatibility mode.
func (h *handler) deleteWhiteSpace(sel *dom.Selection, cls whitespace.Classification) (Result, error) {
	n := cls.Content
	at := cls.Point.Offset
	start, end := at, whitespace.GraphemeEnd(n.Data, at)
	if !h.e.opts.BlinkCompatibleWhiteSpace {
		start = whitespace.CollapsibleRunStart(n.Data, at+1)
		end = whitespace.CollapsibleRunEnd(n.Data, at)
	}
	return h.deleteTextSpan(sel, n, start, end)
}

// deleteCharacter removes exactly one grapheme cluster so multi-byte
// characters and combining sequences never come apart.
func (h *handler) deleteCharacter(sel *dom.Selection, cls whitespace.Classification) (Result, error) {
	n := cls.Content
	start := cls.Point.Offset
	end := whitespace.GraphemeEnd(n.Data, start)
	return h.deleteTextSpan(sel, n, start, end)
}

// deleteTextSpan deletes [start, end) of text node n, then repairs the
// surroundings: drop the text node if nothing visible remains in it, keep
// the block open with a padding break, collapse the caret at the gap.
func (h *handler) deleteTextSpan(sel *dom.Selection, n *html.Node, start, end int) (Result, error) {
	caret := dom.At(n, start)
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if err := h.e.tree.DeleteTextRange(n, start, end); err != nil {
		return Result{}, fmt.Errorf("delete text span: %w", err)
	}
	if err := h.checkAlive(); err != nil {
		return Result{}, err
	}

	block := dom.ClosestBlock(n)
	if len(n.Data) == 0 && dom.IsRemovable(n) {
		if err := h.e.tree.DeleteNode(n); err != nil {
			return Result{}, fmt.Errorf("drop emptied text node: %w", err)
		}
	}
	if err := h.checkAlive(); err != nil {
		return Result{}, err
	}
	if err := h.finishAt(sel, caret, block); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// deleteInvisibleBR removes a line break that renders nothing and runs the
// whole state machine once more from the surviving caret: the break was in
// the way of the real deletion target.
func (h *handler) deleteInvisibleBR(sel *dom.Selection, br *html.Node, p dom.Point) (Result, error) {
	caret := p
	h.e.tree.Track(&caret)
	if err := h.e.tree.DeleteNode(br); err != nil {
		h.e.tree.Untrack(&caret)
		return Result{}, fmt.Errorf("delete invisible break: %w", err)
	}
	h.e.tree.Untrack(&caret)
	if err := h.checkAlive(); err != nil {
		return Result{}, err
	}
	if err := h.checkPoint(caret); err != nil {
		return Result{}, err
	}
	sel.CollapseTo(caret)
	return h.retry(sel)
}

// deleteAtomic removes a void or otherwise indivisible node as a unit. When
// the reached node itself cannot be removed the closest removable ancestor
// goes instead, and text runs split by the removed node are joined back.
func (h *handler) deleteAtomic(sel *dom.Selection, n *html.Node) (Result, error) {
	target := n
	if !dom.IsRemovable(target) {
		target = dom.ClosestAncestor(n, dom.EditingHost(n), dom.IsRemovable)
		if target == nil {
			return Result{}, fmt.Errorf("no removable ancestor for %s: %w", dom.NodeName(n), ErrUnexpectedTreeState)
		}
	}
	if dom.IsTableStructural(target) {
		// never delete skeleton nodes from a caret edit
		return Result{}, nil
	}

	prev := target.PrevSibling
	next := target.NextSibling
	block := dom.ClosestBlock(target.Parent)
	caret := dom.Before(target)
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if err := h.e.tree.DeleteNode(target); err != nil {
		return Result{}, fmt.Errorf("delete atomic node: %w", err)
	}
	if err := h.checkAlive(); err != nil {
		return Result{}, err
	}

	// the node may have separated two halves of one text run
	if dom.IsText(prev) && dom.IsText(next) && prev.Parent != nil && prev.NextSibling == next {
		seam, err := h.e.tree.JoinAdjacentNodes(prev, next)
		if err != nil {
			return Result{}, fmt.Errorf("join text around deleted node: %w", err)
		}
		caret = seam
		if err := h.checkAlive(); err != nil {
			return Result{}, err
		}
	}

	if err := h.finishAt(sel, caret, block); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// deleteHR applies the horizontal rule compatibility dance: a backspace from
// the line after the rule first only moves the caret to the rule's trailing
// edge; a second backspace (or the permissive option) deletes it.
func (h *handler) deleteHR(sel *dom.Selection, hr *html.Node, p dom.Point) (Result, error) {
	if h.dir == dom.DirForward || h.e.opts.AllowDeleteHRFromFollowingLine {
		return h.deleteAtomic(sel, hr)
	}
	atTrailingEdge := p.NodeBefore() == hr
	if atTrailingEdge {
		return h.deleteAtomic(sel, hr)
	}

	// move the caret past the rule; a trailing invisible break would park
	// the caret on a phantom line, so it goes too
	caret := dom.After(hr)
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if next := hr.NextSibling; next != nil && dom.IsBR(next) && h.e.scanner.IsInvisibleBR(next) {
		if err := h.e.tree.DeleteNode(next); err != nil {
			return Result{}, fmt.Errorf("delete break after rule: %w", err)
		}
		if err := h.checkAlive(); err != nil {
			return Result{}, err
		}
	}
	if err := h.checkPoint(caret); err != nil {
		return Result{}, err
	}
	sel.CollapseTo(caret)
	sel.Interline = dom.InterlineEnd
	h.log.Debug("Moved caret to rule edge instead of deleting", zap.String("caret", caret.String()))
	return Result{Handled: true}, nil
}

// joinAtBoundary hands a block boundary over to the block joiner.
func (h *handler) joinAtBoundary(sel *dom.Selection, p dom.Point, mode joinMode) (Result, error) {
	j := newBlockJoiner(h, mode)
	if err := j.prepareAtBoundary(p); err != nil {
		return Result{}, err
	}
	if j.leafDeleteInstead {
		// both sides live in one block after all; delete the adjacent leaf
		target := j.rightContent
		if h.dir == dom.DirBackward {
			target = j.leftContent
		}
		return h.deleteAtomic(sel, target)
	}
	if !j.canJoin() {
		return Result{}, nil
	}
	caret, err := j.execute()
	if err != nil {
		return Result{}, err
	}
	if err := h.checkPoint(caret); err != nil {
		return Result{}, err
	}
	sel.CollapseTo(caret)
	if h.stripWrappers {
		if err := h.stripEmptyWrappers(sel); err != nil {
			return Result{}, err
		}
	}
	return Result{Handled: true}, nil
}

// finishAt settles the document after a content deletion: remove invisible
// text left at the gap, keep the emptied block visible, strip empty inline
// wrappers when asked, and collapse the selection at the gap.
func (h *handler) finishAt(sel *dom.Selection, caret dom.Point, block *html.Node) error {
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if err := h.removeInvisibleTextAt(caret); err != nil {
		return err
	}
	if block != nil {
		if err := h.insertPaddingBRIfNeeded(block); err != nil {
			return err
		}
	}
	if err := h.checkPoint(caret); err != nil {
		return err
	}
	sel.CollapseTo(caret)
	if h.stripWrappers {
		if err := h.stripEmptyWrappers(sel); err != nil {
			return err
		}
	}
	return nil
}
