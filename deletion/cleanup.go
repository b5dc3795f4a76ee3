package deletion

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
)

// cleanupEmptyAncestors removes blocks a deletion left without visible
// content, walking up one level at a time. The walk stops at the editing
// host and never removes a table cell or caption, however empty. The caret
// pointer is adjusted as blocks disappear. Reports whether anything was
// removed.
func (h *handler) cleanupEmptyAncestors(caret *dom.Point) (bool, error) {
	host := dom.EditingHost(caret.Container)
	if host == nil {
		return false, nil
	}
	deletedAny := false
	for {
		block := dom.ClosestBlock(caret.Container)
		if block == nil || block == host || dom.IsTableCellOrCaption(block) {
			break
		}
		// after a whole-list delete the wrapper keeps one emptied item
		if h.preservedList != nil && (block == h.preservedList || block.Parent == h.preservedList) {
			break
		}
		if !dom.IsRemovable(block) || !h.e.scanner.IsEmptyNode(block, true) {
			break
		}
		h.log.Debug("Removing emptied ancestor block", zap.String("block", dom.NodeName(block)))
		at := dom.Before(block)
		if err := h.e.tree.DeleteNode(block); err != nil {
			return deletedAny, fmt.Errorf("cleanup empty ancestor: %w", err)
		}
		deletedAny = true
		if err := h.checkAlive(); err != nil {
			return deletedAny, err
		}
		*caret = at
		if newHost := dom.EditingHost(caret.Container); newHost == nil {
			return deletedAny, fmt.Errorf("cleanup left editable content: %w", ErrUnexpectedTreeState)
		}
	}
	return deletedAny, nil
}

// removeInvisibleTextAt drops a whitespace-only text node the deletion gap
// landed in once it no longer renders.
func (h *handler) removeInvisibleTextAt(caret dom.Point) error {
	n := caret.Container
	if !dom.IsText(n) || !dom.IsRemovable(n) {
		return nil
	}
	if !h.e.scanner.IsInvisibleText(n) {
		return nil
	}
	if err := h.e.tree.DeleteNode(n); err != nil {
		return fmt.Errorf("remove invisible text: %w", err)
	}
	return h.checkAlive()
}

// stripEmptyWrappers removes the most distant inline ancestor of the caret
// that the deletion emptied: <b><i>|</i></b> loses both wrappers, not just
// the inner one. Block ancestors are left to cleanupEmptyAncestors.
func (h *handler) stripEmptyWrappers(sel *dom.Selection) error {
	focus := sel.Focus()
	if focus == nil {
		return nil
	}
	caret := focus.Start
	host := dom.EditingHost(caret.Container)
	if host == nil {
		return nil
	}

	var distant *html.Node
	for c := caret.Container; c != nil && c != host; c = c.Parent {
		if !dom.IsElement(c) && !dom.IsText(c) {
			break
		}
		if dom.IsBlock(c) || c == host {
			break
		}
		if dom.IsText(c) {
			if !h.e.scanner.IsInvisibleText(c) {
				break
			}
			continue
		}
		if !dom.IsInlineElement(c) || dom.IsVoid(c) || dom.IsBR(c) {
			break
		}
		if !h.e.scanner.IsEmptyNode(c, false) || !dom.IsRemovable(c) {
			break
		}
		distant = c
	}
	if distant == nil {
		return nil
	}

	h.log.Debug("Stripping emptied inline wrapper", zap.String("wrapper", dom.NodeName(distant)))
	at := dom.Before(distant)
	h.e.tree.Track(&at)
	defer h.e.tree.Untrack(&at)
	if err := h.e.tree.DeleteNode(distant); err != nil {
		return fmt.Errorf("strip empty wrapper: %w", err)
	}
	if err := h.checkAlive(); err != nil {
		return err
	}
	if err := h.checkPoint(at); err != nil {
		return err
	}
	sel.CollapseTo(at)
	return nil
}
