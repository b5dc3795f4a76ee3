package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
)

// joinMode is the per-invocation decision record of the block joiner: fixed
// once preparation completes, never mutated afterwards.
type joinMode int

const (
	joinNotInitialized joinMode = iota
	// joinCurrentBlock merges the caret's block upward out of itself.
	joinCurrentBlock
	// joinOtherBlock merges content across the boundary of a sibling block.
	joinOtherBlock
	// joinBlocksInSameParent deep-joins two same-tag siblings after a range delete.
	joinBlocksInSameParent
	// joinDeleteBRElement deletes a single intervening line break instead of joining.
	joinDeleteBRElement
	// joinDeleteContentInRanges deletes range content with no block join.
	joinDeleteContentInRanges
	// joinDeleteNonCollapsedRanges deletes range content then joins the edge blocks.
	joinDeleteNonCollapsedRanges
)

func (m joinMode) String() string {
	switch m {
	case joinCurrentBlock:
		return "join-current-block"
	case joinOtherBlock:
		return "join-other-block"
	case joinBlocksInSameParent:
		return "join-blocks-in-same-parent"
	case joinDeleteBRElement:
		return "delete-br"
	case joinDeleteContentInRanges:
		return "delete-content-in-ranges"
	case joinDeleteNonCollapsedRanges:
		return "delete-non-collapsed-ranges"
	default:
		return "not-initialized"
	}
}

// blockJoiner merges two block subtrees once a deletion removes the boundary
// between them. Preparation decides feasibility and picks the mode before
// any mutation; execution then performs the join as one batch.
type blockJoiner struct {
	h    *handler
	mode joinMode

	leftContent  *html.Node
	rightContent *html.Node
	leftBlock    *html.Node
	rightBlock   *html.Node

	// invisible nodes crossed while hunting for content; deleted with the join
	skipped []*html.Node
	// the intervening break when mode is joinDeleteBRElement
	brElement *html.Node

	feasible bool
	// the two sides turned out to be the same block: caller should delete
	// the adjacent leaf instead of joining
	leafDeleteInstead bool
}

func newBlockJoiner(h *handler, mode joinMode) *blockJoiner {
	return &blockJoiner{h: h, mode: mode}
}

func (j *blockJoiner) canJoin() bool {
	return j.feasible && j.mode != joinNotInitialized
}

// prepareAtBoundary sets the joiner up for a caret sitting against a block
// boundary: find the nearest visible content on each side, recording the
// invisible nodes crossed on the way, and refuse joins the structure cannot
// survive.
func (j *blockJoiner) prepareAtBoundary(p dom.Point) error {
	host := dom.EditingHost(p.Container)
	if host == nil {
		return fmt.Errorf("prepare join: caret %s is not editable: %w", p, ErrNoEditableRange)
	}

	j.leftContent = j.huntContent(p, host, false)
	j.rightContent = j.huntContent(p, host, true)
	if j.brElement != nil {
		// an intervening invisible break wins over any join
		j.mode = joinDeleteBRElement
		j.feasible = true
		return nil
	}
	if j.leftContent == nil || j.rightContent == nil {
		return nil
	}

	j.leftBlock = dom.ClosestBlock(j.leftContent)
	j.rightBlock = dom.ClosestBlock(j.rightContent)
	if j.leftBlock == nil || j.rightBlock == nil {
		return nil
	}
	if j.leftBlock == j.rightBlock {
		j.leafDeleteInstead = true
		return nil
	}
	if !j.refusesStructurally() {
		j.feasible = true
	}
	j.h.log.Debug("Join prepared",
		zap.Stringer("mode", j.mode),
		zap.String("left", dom.NodeName(j.leftBlock)),
		zap.String("right", dom.NodeName(j.rightBlock)),
		zap.Bool("feasible", j.feasible),
		zap.Int("skipped", len(j.skipped)))
	return nil
}

// prepareToJoinBlocks sets the joiner up with explicit edge blocks, as the
// range deletion handler does after removing selected content.
func (j *blockJoiner) prepareToJoinBlocks(left, right *html.Node) {
	j.leftBlock = left
	j.rightBlock = right
	if left == nil || right == nil {
		return
	}
	if left == right {
		j.leafDeleteInstead = true
		return
	}
	if j.mode == joinBlocksInSameParent {
		if left.Parent != right.Parent || left.DataAtom != right.DataAtom || !dom.IsMergeableBlock(left) {
			return
		}
	}
	if !j.refusesStructurally() {
		j.feasible = true
	}
}

// refusesStructurally reports join combinations that must never happen:
// table skeleton on either side, or two top-level document elements.
func (j *blockJoiner) refusesStructurally() bool {
	if dom.IsTableStructural(j.leftBlock) || dom.IsTableStructural(j.rightBlock) {
		return true
	}
	if dom.IsDocumentStructure(j.leftBlock) && dom.IsDocumentStructure(j.rightBlock) {
		return true
	}
	return false
}

// huntContent walks from p in the given direction to the nearest visible
// content leaf inside host. Invisible text nodes crossed are recorded for
// deletion; an invisible break stops the hunt and flags break deletion.
// A visible node is never skipped.
func (j *blockJoiner) huntContent(p dom.Point, host *html.Node, forward bool) *html.Node {
	from := p
	for {
		var leaf *html.Node
		if forward {
			leaf = dom.NextContent(from, host)
		} else {
			leaf = dom.PreviousContent(from, host)
		}
		if leaf == nil {
			return nil
		}
		switch {
		case dom.IsText(leaf) && j.h.e.scanner.IsInvisibleText(leaf):
			j.skipped = append(j.skipped, leaf)
		case dom.IsBR(leaf) && j.h.e.scanner.IsInvisibleBR(leaf):
			if j.brElement == nil {
				j.brElement = leaf
			}
			return leaf
		default:
			return leaf
		}
		if forward {
			from = dom.After(leaf)
		} else {
			from = dom.Before(leaf)
		}
	}
}

// execute performs the prepared join and returns the caret point at the
// seam. The recorded invisible nodes are deleted as part of the same batch.
func (j *blockJoiner) execute() (dom.Point, error) {
	if !j.canJoin() {
		return dom.Point{}, fmt.Errorf("join executed without feasible preparation: %w", ErrUnexpectedTreeState)
	}

	if j.mode == joinDeleteBRElement {
		return j.deleteBreak()
	}
	if err := j.deleteSkipped(); err != nil {
		return dom.Point{}, err
	}
	if err := j.h.checkAlive(); err != nil {
		return dom.Point{}, err
	}

	switch j.mode {
	case joinBlocksInSameParent:
		return j.deepJoinSiblings()
	default:
		return j.joinInclusiveAncestors()
	}
}

func (j *blockJoiner) deleteBreak() (dom.Point, error) {
	caret := dom.Before(j.brElement)
	j.h.e.tree.Track(&caret)
	defer j.h.e.tree.Untrack(&caret)

	if err := j.h.e.tree.DeleteNode(j.brElement); err != nil {
		return dom.Point{}, fmt.Errorf("delete intervening break: %w", err)
	}
	if err := j.h.checkAlive(); err != nil {
		return dom.Point{}, err
	}
	if err := j.deleteSkipped(); err != nil {
		return dom.Point{}, err
	}
	return caret, nil
}

func (j *blockJoiner) deleteSkipped() error {
	for _, n := range j.skipped {
		if n.Parent == nil {
			continue // an observer got there first
		}
		if err := j.h.e.tree.DeleteNode(n); err != nil {
			return fmt.Errorf("delete skipped invisible node: %w", err)
		}
		if err := j.h.checkAlive(); err != nil {
			return err
		}
	}
	return nil
}

// joinInclusiveAncestors merges the two prepared blocks: the descendant's
// first line moves into the ancestor when one contains the other, otherwise
// the right block's first line moves into the left and the emptied right
// wrapper is removed.
func (j *blockJoiner) joinInclusiveAncestors() (dom.Point, error) {
	left, right := j.leftBlock, j.rightBlock

	// list items joining across different lists join the lists instead
	if dom.IsListItem(left) && dom.IsListItem(right) && left.Parent != right.Parent {
		return j.joinLists(left.Parent, right.Parent)
	}
	// a list item joining into its own parent list has nothing to do
	if dom.IsList(left) && dom.IsListItem(right) && right.Parent == left {
		return dom.StartOf(right), nil
	}

	var seam dom.Point
	switch {
	case dom.IsInclusiveDescendantOf(right, left):
		// first line of the nested block moves up beside the caret side
		seam = dom.Before(right)
	default:
		seam = dom.EndOf(left)
	}
	j.h.e.tree.Track(&seam)
	defer j.h.e.tree.Untrack(&seam)

	if err := j.moveFirstLine(right, seam); err != nil {
		return dom.Point{}, err
	}
	// the ancestor itself is never removed, an emptied descendant or
	// unrelated wrapper is, along with any wrappers it leaves empty
	if !dom.IsInclusiveDescendantOf(left, right) && right.Parent != nil {
		for n := right; n != nil; {
			if dom.IsTableCellOrCaption(n) || !dom.IsRemovable(n) || !j.h.e.scanner.IsEmptyNode(n, true) {
				break
			}
			parent := n.Parent
			if err := j.h.e.tree.DeleteNode(n); err != nil {
				return dom.Point{}, fmt.Errorf("remove emptied block: %w", err)
			}
			if err := j.h.checkAlive(); err != nil {
				return dom.Point{}, err
			}
			n = parent
		}
	}
	return seam, nil
}

// moveFirstLine moves the right side's first line of children to the
// destination. The break ending the line is deleted rather than moved: at
// the destination it would only park an invisible break mid-content.
func (j *blockJoiner) moveFirstLine(from *html.Node, to dom.Point) error {
	line := j.firstLineOf(from)
	j.h.e.tree.Track(&to)
	defer j.h.e.tree.Untrack(&to)
	for _, n := range line {
		if n.Parent == nil {
			continue
		}
		if dom.IsBR(n) {
			if err := j.h.e.tree.DeleteNode(n); err != nil {
				return fmt.Errorf("drop line-ending break: %w", err)
			}
			if err := j.h.checkAlive(); err != nil {
				return err
			}
			continue
		}
		if err := j.h.e.tree.MoveNode(n, to); err != nil {
			return fmt.Errorf("move first line: %w", err)
		}
		to = dom.After(n)
		if err := j.h.checkAlive(); err != nil {
			return err
		}
	}
	return nil
}

// firstLineOf returns from's children forming the line being joined: it
// starts at the child holding the right-side content (from's first child
// when unknown) and ends at the first child block (excluded) or break
// (included).
func (j *blockJoiner) firstLineOf(from *html.Node) []*html.Node {
	start := from.FirstChild
	if j.rightContent != nil && dom.IsDescendantOf(j.rightContent, from) {
		for c := j.rightContent; c != nil && c != from; c = c.Parent {
			if c.Parent == from {
				start = c
				break
			}
		}
	}
	var line []*html.Node
	for c := start; c != nil; c = c.NextSibling {
		if dom.IsBlock(c) {
			break
		}
		line = append(line, c)
		if dom.IsBR(c) {
			break
		}
	}
	return line
}

// joinLists merges two list elements when their items are being joined
// across the list boundary. Adjacent same-kind lists merge node-to-node;
// anything else moves the right list's items into the left list.
func (j *blockJoiner) joinLists(leftList, rightList *html.Node) (dom.Point, error) {
	if leftList == nil || rightList == nil || leftList == rightList {
		return dom.Point{}, fmt.Errorf("join lists: unexpected list parents: %w", ErrUnexpectedTreeState)
	}
	if leftList.NextSibling == rightList && leftList.DataAtom == rightList.DataAtom {
		seam, err := j.h.e.tree.JoinAdjacentNodes(leftList, rightList)
		if err != nil {
			return dom.Point{}, fmt.Errorf("join lists: %w", err)
		}
		return seam, nil
	}
	seam := dom.EndOf(leftList)
	j.h.e.tree.Track(&seam)
	defer j.h.e.tree.Untrack(&seam)
	if err := j.h.e.tree.MoveChildren(rightList, dom.EndOf(leftList)); err != nil {
		return dom.Point{}, fmt.Errorf("join lists: %w", err)
	}
	if dom.IsRemovable(rightList) {
		if err := j.h.e.tree.DeleteNode(rightList); err != nil {
			return dom.Point{}, fmt.Errorf("join lists: %w", err)
		}
	}
	return seam, nil
}

// deepJoinSiblings merges two same-tag sibling blocks, then keeps merging
// the node pair meeting at each seam until the pair is no longer joinable
// or a text pair has merged, which ends the descent.
func (j *blockJoiner) deepJoinSiblings() (dom.Point, error) {
	left, right := j.leftBlock, j.rightBlock
	var seam dom.Point
	for {
		s, err := j.h.e.tree.JoinAdjacentNodes(left, right)
		if err != nil {
			return dom.Point{}, fmt.Errorf("deep join: %w", err)
		}
		seam = s
		if err := j.h.checkAlive(); err != nil {
			return dom.Point{}, err
		}
		if seam.IsInText() {
			// a text pair merged: recursion bottom
			return seam, nil
		}
		l, r := seam.NodeBefore(), seam.NodeAfter()
		if l == nil || r == nil {
			return seam, nil
		}
		if dom.IsText(l) && dom.IsText(r) {
			s, err := j.h.e.tree.JoinAdjacentNodes(l, r)
			if err != nil {
				return dom.Point{}, fmt.Errorf("deep join text: %w", err)
			}
			return s, nil
		}
		if !dom.IsElement(l) || !dom.IsElement(r) || l.DataAtom != r.DataAtom || dom.IsVoid(l) {
			return seam, nil
		}
		left, right = l, r
	}
}
