package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
)

// handleNonCollapsed deletes a selection with real extent: an in-place
// delete when both boundaries share a container, a content-only delete when
// no block boundary is crossed, a same-parent block merge for two adjacent
// twins, or a full cross-block delete-then-join.
func (h *handler) handleNonCollapsed(sel *dom.Selection) (Result, error) {
	h.applyMailCiteDirection(sel.Focus())

	if len(sel.Ranges) == 1 && sel.Ranges[0].InSameContainer() {
		return h.deleteWithinContainer(sel, sel.Ranges[0])
	}

	focus := sel.Focus()
	leftBlock := closestEditableBlock(focus.Start.Container)
	rightBlock := closestEditableBlock(focus.End.Container)

	if leftBlock == nil || rightBlock == nil || leftBlock == rightBlock {
		return h.deleteContentInRanges(sel)
	}

	if leftBlock.Parent == rightBlock.Parent && leftBlock.DataAtom == rightBlock.DataAtom &&
		dom.IsMergeableBlock(leftBlock) && h.mergeableAdjacent(leftBlock, rightBlock) {
		return h.mergeSiblingBlocks(sel, leftBlock, rightBlock)
	}

	return h.deleteNonCollapsedRanges(sel, leftBlock, rightBlock)
}

// applyMailCiteDirection forces the logical direction when exactly one side
// of the selection sits inside a quoted reply, so the caret lands outside
// the quote.
func (h *handler) applyMailCiteDirection(r *dom.Range) {
	if r == nil {
		return
	}
	startCite := dom.ClosestAncestor(r.Start.Container, dom.EditingHost(r.Start.Container), dom.IsMailCite)
	endCite := dom.ClosestAncestor(r.End.Container, dom.EditingHost(r.End.Container), dom.IsMailCite)
	switch {
	case startCite != nil && endCite == nil:
		h.dir = dom.DirForward
		h.log.Debug("Quoted start forces forward direction")
	case startCite == nil && endCite != nil:
		h.dir = dom.DirBackward
		h.log.Debug("Quoted end forces backward direction")
	}
}

// mergeableAdjacent reports whether nothing but invisible text or data nodes
// separates the two blocks: formatting whitespace between siblings must not
// disable the merge, it sits inside the selection and the range delete
// removes it before the join runs. A real element between the blocks (a
// table skeleton, say) forces the cross-block path instead.
func (h *handler) mergeableAdjacent(left, right *html.Node) bool {
	for c := left.NextSibling; c != nil; c = c.NextSibling {
		if c == right {
			return true
		}
		switch {
		case dom.IsText(c) && h.e.scanner.IsInvisibleText(c):
		case dom.IsOtherData(c):
		default:
			return false
		}
	}
	return false
}

// closestEditableBlock is the nearest editable block ancestor, nil for
// non-editable content or when only the host itself qualifies.
func closestEditableBlock(n *html.Node) *html.Node {
	block := dom.ClosestBlock(n)
	if block == nil || block == dom.EditingHost(n) {
		return nil
	}
	return block
}

// deleteWithinContainer removes range content held by a single node: bytes
// of one text node or a run of children of one element.
func (h *handler) deleteWithinContainer(sel *dom.Selection, r *dom.Range) (Result, error) {
	caret := r.Start
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if r.Start.IsInText() {
		if err := h.e.tree.DeleteTextRange(r.Start.Container, r.Start.Offset, r.End.Offset); err != nil {
			return Result{}, fmt.Errorf("delete in text: %w", err)
		}
	} else {
		for i := r.End.Offset - 1; i >= r.Start.Offset; i-- {
			child := dom.ChildAt(r.Start.Container, i)
			if child == nil {
				return Result{}, fmt.Errorf("range child %d vanished: %w", i, ErrUnexpectedTreeState)
			}
			if err := h.e.tree.DeleteNode(child); err != nil {
				return Result{}, fmt.Errorf("delete selected child: %w", err)
			}
			if err := h.checkAlive(); err != nil {
				return Result{}, err
			}
		}
	}
	if err := h.checkAlive(); err != nil {
		return Result{}, err
	}
	if err := h.settle(sel, caret); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// deleteContentInRanges removes everything inside each range while leaving
// the block structure (and any table skeleton) alone. No join follows.
func (h *handler) deleteContentInRanges(sel *dom.Selection) (Result, error) {
	h.log.Debug("Deleting range content without join", zap.Int("ranges", len(sel.Ranges)))
	caret := sel.Ranges[0].Start
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	for _, r := range sel.Ranges {
		if _, err := h.deleteKeepingTables(r); err != nil {
			return Result{}, err
		}
	}
	if err := h.settle(sel, caret); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// mergeSiblingBlocks deletes the selected content, then deep-joins the two
// sibling blocks the selection bridged.
func (h *handler) mergeSiblingBlocks(sel *dom.Selection, left, right *html.Node) (Result, error) {
	j := newBlockJoiner(h, joinBlocksInSameParent)
	j.prepareToJoinBlocks(left, right)
	if !j.canJoin() {
		return h.deleteContentInRanges(sel)
	}
	h.log.Debug("Joining sibling blocks",
		zap.String("left", dom.NodeName(left)), zap.String("right", dom.NodeName(right)))

	for _, r := range sel.Ranges {
		if _, err := h.deleteKeepingTables(r); err != nil {
			return Result{}, err
		}
	}
	caret, err := j.execute()
	if err != nil {
		return Result{}, err
	}
	if err := h.settle(sel, caret); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// deleteNonCollapsedRanges is the cross-block path: verify up front that a
// required join is possible (the whole delete is abandoned otherwise),
// delete per-range content keeping table skeletons, then join the edge
// blocks when anything visible went away.
func (h *handler) deleteNonCollapsedRanges(sel *dom.Selection, leftBlock, rightBlock *html.Node) (Result, error) {
	j := newBlockJoiner(h, joinDeleteNonCollapsedRanges)
	j.prepareToJoinBlocks(leftBlock, rightBlock)
	j.rightContent = sel.Ranges[len(sel.Ranges)-1].End.Container

	mayNeedJoin := h.wasCollapsed || h.anyVisibleContent(sel)
	if mayNeedJoin && !j.canJoin() {
		h.log.Debug("Cross-block join impossible, canceling whole delete",
			zap.String("left", dom.NodeName(leftBlock)), zap.String("right", dom.NodeName(rightBlock)))
		return Result{Canceled: true}, nil
	}

	caret := sel.Focus().Start
	if h.dir == dom.DirForward {
		caret = sel.Focus().End
	}
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	needsJoin := h.wasCollapsed
	for _, r := range sel.Ranges {
		removedVisible, err := h.deleteKeepingTables(r)
		if err != nil {
			return Result{}, err
		}
		needsJoin = needsJoin || removedVisible
	}

	if needsJoin {
		seam, err := j.execute()
		if err != nil {
			return Result{}, err
		}
		caret = seam
	}
	if err := h.settle(sel, caret); err != nil {
		return Result{}, err
	}
	return Result{Handled: true}, nil
}

// anyVisibleContent reports whether any range holds content that renders:
// a selection of pure invisible whitespace and line breaks does not force a
// block join.
func (h *handler) anyVisibleContent(sel *dom.Selection) bool {
	for _, r := range sel.Ranges {
		if r.Start.IsInText() && r.Start.Container == r.End.Container && !h.e.scanner.IsInvisibleText(r.Start.Container) {
			if r.End.Offset > r.Start.Offset {
				return true
			}
		}
		visible := false
		dom.LeafRange(r.Start, r.End, func(leaf *html.Node) bool {
			switch {
			case dom.IsText(leaf) && h.e.scanner.IsInvisibleText(leaf):
				return true
			case dom.IsBR(leaf) && h.e.scanner.IsInvisibleBR(leaf):
				return true
			}
			visible = true
			return false
		})
		if visible {
			return true
		}
	}
	return false
}

// settle finishes any range deletion: cleanup of empty ancestors from the
// collapse point, invisible text at the gap, padding for an emptied block,
// optional wrapper stripping, and the final caret collapse.
func (h *handler) settle(sel *dom.Selection, caret dom.Point) error {
	h.e.tree.Track(&caret)
	defer h.e.tree.Untrack(&caret)

	if err := h.removeInvisibleTextAt(caret); err != nil {
		return err
	}
	if _, err := h.cleanupEmptyAncestors(&caret); err != nil {
		return err
	}
	if block := dom.ClosestBlock(caret.Container); block != nil {
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
