package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
)

// deleteKeepingTables removes the content of r while never breaking a table
// skeleton: table, row, cell and caption elements inside the range lose
// their content but stay in the tree. Partial text at the range boundaries
// is trimmed in place. Reports whether anything visible was removed.
func (h *handler) deleteKeepingTables(r *dom.Range) (bool, error) {
	nodes := topLevelNodesInRange(r)
	h.log.Debug("Range delete", zap.String("range", r.String()), zap.Int("nodes", len(nodes)))

	removedVisible := false
	for _, n := range nodes {
		visible, err := h.deleteNodeKeepingTables(n)
		if err != nil {
			return removedVisible, err
		}
		removedVisible = removedVisible || visible
	}

	// boundary byte offsets live inside the boundary text nodes themselves,
	// untouched by the sibling removals above
	if visible, err := h.trimBoundaryText(r); err != nil {
		return removedVisible, err
	} else if visible {
		removedVisible = true
	}
	return removedVisible, nil
}

// deleteNodeKeepingTables deletes n outright unless it is table-structural,
// in which case its children are processed instead and the skeleton node
// survives emptied.
func (h *handler) deleteNodeKeepingTables(n *html.Node) (bool, error) {
	if n.Parent == nil {
		return false, nil // already gone, an observer beat us to it
	}
	if dom.IsTableStructural(n) {
		removedVisible := false
		var children []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			children = append(children, c)
		}
		for _, c := range children {
			visible, err := h.deleteNodeKeepingTables(c)
			if err != nil {
				return removedVisible, err
			}
			removedVisible = removedVisible || visible
		}
		return removedVisible, nil
	}

	visible := h.isVisibleForJoin(n)
	if err := h.e.tree.DeleteNode(n); err != nil {
		return false, fmt.Errorf("delete range node: %w", err)
	}
	if err := h.checkAlive(); err != nil {
		return visible, err
	}
	return visible, nil
}

// isVisibleForJoin reports whether removing n counts as removing visible
// content: invisible whitespace and invisible breaks do not oblige a later
// block join.
func (h *handler) isVisibleForJoin(n *html.Node) bool {
	switch {
	case dom.IsText(n):
		return !h.e.scanner.IsInvisibleText(n)
	case dom.IsBR(n):
		return !h.e.scanner.IsInvisibleBR(n)
	case dom.IsOtherData(n):
		return false
	}
	return h.e.scanner.HasVisibleContent(n)
}

// trimBoundaryText deletes the partially selected bytes of text nodes the
// range boundaries sit in.
func (h *handler) trimBoundaryText(r *dom.Range) (bool, error) {
	removedVisible := false
	if r.Start.IsInText() && r.Start.Container == r.End.Container {
		if r.End.Offset > r.Start.Offset {
			if err := h.e.tree.DeleteTextRange(r.Start.Container, r.Start.Offset, r.End.Offset); err != nil {
				return false, fmt.Errorf("trim selected text: %w", err)
			}
			removedVisible = true
		}
		return removedVisible, nil
	}
	if r.Start.IsInText() && r.Start.Offset < dom.Length(r.Start.Container) {
		n := r.Start.Container
		if err := h.e.tree.DeleteTextRange(n, r.Start.Offset, len(n.Data)); err != nil {
			return removedVisible, fmt.Errorf("trim leading text: %w", err)
		}
		removedVisible = true
		if err := h.checkAlive(); err != nil {
			return removedVisible, err
		}
	}
	if r.End.IsInText() && r.End.Offset > 0 {
		n := r.End.Container
		if err := h.e.tree.DeleteTextRange(n, 0, r.End.Offset); err != nil {
			return removedVisible, fmt.Errorf("trim trailing text: %w", err)
		}
		removedVisible = true
		if err := h.checkAlive(); err != nil {
			return removedVisible, err
		}
	}
	return removedVisible, nil
}

// topLevelNodesInRange collects the shallowest nodes whose entire extent
// lies inside r: a fully contained node is collected whole, a partially
// covered one is descended into.
func topLevelNodesInRange(r *dom.Range) []*html.Node {
	root := dom.CommonAncestor(r.Start.Container, r.End.Container)
	if root == nil {
		return nil
	}
	var nodes []*html.Node
	collectInRange(root, r, &nodes)
	return nodes
}

func collectInRange(parent *html.Node, r *dom.Range, out *[]*html.Node) {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		before, after := dom.Before(c), dom.After(c)
		if dom.Compare(after, r.Start) <= 0 {
			continue // entirely before the range
		}
		if dom.Compare(before, r.End) >= 0 {
			return // entirely after; siblings only get further away
		}
		if dom.Compare(before, r.Start) >= 0 && dom.Compare(after, r.End) <= 0 {
			*out = append(*out, c)
			continue
		}
		// straddles a boundary: look inside
		collectInRange(c, r, out)
	}
}
