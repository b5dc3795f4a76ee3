// Package deletion implements delete/backspace editing over a document tree:
// given a selection it decides what must be removed and how the surrounding
// structure is repaired, preserving visible whitespace, table skeletons and
// caret validity throughout.
package deletion

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"edkit/dom"
	"edkit/whitespace"
)

// Options carries host-editor compatibility knobs fixed at construction.
type Options struct {
	// Delete a single character instead of a whole collapsible whitespace run.
	BlinkCompatibleWhiteSpace bool
	// Backspace at the start of the line after an <hr> deletes the rule
	// instead of first moving the caret to its trailing edge.
	AllowDeleteHRFromFollowingLine bool
}

// Limiter is the frame/selection-limiter collaborator: it vetoes boundary
// points the selection must not reach (for example outside the active table
// cell).
type Limiter interface {
	IsValidSelectionPoint(n *html.Node) bool
}

// permissiveLimiter allows everything; used when the host has no limiter.
type permissiveLimiter struct{}

func (permissiveLimiter) IsValidSelectionPoint(*html.Node) bool { return true }

// Result reports what a Run call did.
type Result struct {
	// Handled means the engine consumed the edit: content was deleted or the
	// caret deliberately moved. False means "nothing to delete".
	Handled bool
	// Canceled means a cross-block delete was abandoned whole because the
	// blocks could not be joined; the document is unchanged.
	Canceled bool
}

// Engine is the deletion engine. It owns no document state; every Run call
// works exclusively on the selection it is handed.
type Engine struct {
	tree    *dom.Tree
	scanner *whitespace.Scanner
	limiter Limiter
	opts    Options
	log     *zap.Logger
}

// New creates an engine over the given collaborators. A nil limiter allows
// every selection point.
func New(tree *dom.Tree, scanner *whitespace.Scanner, limiter Limiter, opts Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if limiter == nil {
		limiter = permissiveLimiter{}
	}
	return &Engine{
		tree:    tree,
		scanner: scanner,
		limiter: limiter,
		opts:    opts,
		log:     log.Named("deletion"),
	}
}

func validDirection(dir dom.Direction) bool {
	switch dir {
	case dom.DirNone, dom.DirForward, dom.DirBackward:
		return true
	}
	return false
}

// ComputeRangesToDelete resolves what Run would remove for the same
// arguments, without mutating the document. The answer can go stale the
// moment an external mutation happens between the two calls.
func (e *Engine) ComputeRangesToDelete(dir dom.Direction, sel *dom.Selection) (*dom.Selection, error) {
	if !validDirection(dir) || sel == nil || len(sel.Ranges) == 0 {
		return nil, fmt.Errorf("compute ranges: %w", ErrInvalidArgument)
	}
	if e.tree.Destroyed() {
		return nil, ErrEditorDestroyed
	}

	resolved, _, err := e.resolve(sel.Clone(), dir)
	if err != nil {
		return nil, err
	}
	if resolved.IsCollapsed() && len(resolved.Ranges) == 1 {
		target := e.computeCollapsedTarget(resolved.Ranges[0].Start, dir)
		if target != nil {
			resolved.Ranges = []*dom.Range{target}
			resolved.Anchor = 0
		}
	}
	return resolved, nil
}

// Run performs the deletion. stripWrappers controls whether ancestor inline
// wrapper elements left empty by the deletion are removed as well.
func (e *Engine) Run(dir dom.Direction, stripWrappers bool, sel *dom.Selection) (Result, error) {
	if !validDirection(dir) || sel == nil || len(sel.Ranges) == 0 {
		return Result{}, fmt.Errorf("run deletion: %w", ErrInvalidArgument)
	}
	if e.tree.Destroyed() {
		return Result{}, ErrEditorDestroyed
	}

	opID := uuid.NewString()
	log := e.log.With(zap.String("op", opID), zap.Stringer("direction", dir))
	log.Debug("Deletion started", zap.Int("ranges", len(sel.Ranges)), zap.Bool("collapsed", sel.IsCollapsed()))

	h := &handler{
		e:             e,
		dir:           dir,
		stripWrappers: stripWrappers,
		wasCollapsed:  sel.IsCollapsed(),
		log:           log,
	}
	orig := sel.Clone()
	res, err := h.run(sel)
	if err != nil {
		// a failed delete must hand the caller's selection back untouched,
		// including in-place boundary clamping done while resolving
		sel.Ranges = orig.Ranges
		sel.Anchor = orig.Anchor
		sel.Interline = orig.Interline
		log.Debug("Deletion failed", zap.Error(err))
		return res, err
	}
	if res.Canceled {
		// nothing was deleted; the resolver's range growth must not leak out
		sel.Ranges = orig.Ranges
		sel.Anchor = orig.Anchor
		sel.Interline = orig.Interline
	}
	log.Debug("Deletion finished", zap.Bool("handled", res.Handled), zap.Bool("canceled", res.Canceled))
	return res, nil
}

// handler is the per-invocation state of one deletion: stack-scoped, never
// shared across operations. Nested retries construct a fresh handler with an
// incremented depth.
type handler struct {
	e             *Engine
	dir           dom.Direction
	stripWrappers bool
	wasCollapsed  bool
	depth         int
	// set when the selection covered a whole list: the wrapper and one
	// emptied item survive the delete
	preservedList *html.Node
	log           *zap.Logger
}

// maxRetryDepth bounds the "reposition caret, then try again" recursion: the
// first pass plus one retry.
const maxRetryDepth = 2

func (h *handler) run(sel *dom.Selection) (Result, error) {
	resolved, preserved, err := h.e.resolve(sel, h.dir)
	if err != nil {
		return Result{}, err
	}
	h.preservedList = preserved

	if resolved.IsCollapsed() && len(resolved.Ranges) == 1 {
		return h.handleCollapsed(resolved, resolved.Ranges[0].Start)
	}
	return h.handleNonCollapsed(resolved)
}

// retry re-enters the collapsed state machine after a pass that only
// repositioned the caret (deleting an invisible break, say). Bounded so a
// mutation observer re-introducing the same content cannot loop the engine.
func (h *handler) retry(sel *dom.Selection) (Result, error) {
	if h.depth+1 >= maxRetryDepth {
		return Result{}, fmt.Errorf("deletion did not settle after retry: %w", ErrUnexpectedTreeState)
	}
	nested := &handler{
		e:             h.e,
		dir:           h.dir,
		stripWrappers: h.stripWrappers,
		wasCollapsed:  h.wasCollapsed,
		depth:         h.depth + 1,
		log:           h.log.With(zap.Int("retry", h.depth+1)),
	}
	return nested.run(sel)
}

// checkAlive fails fast when the editor was torn down by a side effect.
func (h *handler) checkAlive() error {
	if h.e.tree.Destroyed() {
		return ErrEditorDestroyed
	}
	return nil
}

// checkPoint re-validates a point after a mutation window: still set, still
// valid, still inside editable content the limiter accepts.
func (h *handler) checkPoint(p dom.Point) error {
	if !p.IsSet() || !p.IsValid() {
		return fmt.Errorf("stale point %s: %w", p, ErrUnexpectedTreeState)
	}
	if dom.EditingHost(p.Container) == nil {
		return fmt.Errorf("point %s left editable content: %w", p, ErrUnexpectedTreeState)
	}
	if !h.e.limiter.IsValidSelectionPoint(p.Container) {
		return fmt.Errorf("point %s outside selection limiter: %w", p, ErrUnexpectedTreeState)
	}
	return nil
}

// insertPaddingBRIfNeeded keeps a block visually open after its content was
// deleted: an empty block with no line box would collapse to nothing.
func (h *handler) insertPaddingBRIfNeeded(block *html.Node) error {
	if block == nil || !dom.IsElement(block) {
		return nil
	}
	if !h.e.scanner.IsEmptyNode(block, false) {
		return nil
	}
	br := h.e.tree.CreateElement("br")
	dom.SetAttr(br, "data-padding", "true")
	if err := h.e.tree.InsertNode(br, dom.EndOf(block)); err != nil {
		return fmt.Errorf("insert padding break: %w", err)
	}
	return nil
}
