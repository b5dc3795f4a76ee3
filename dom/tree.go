package dom

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// ErrDestroyed is returned by every primitive after Destroy.
	ErrDestroyed = errors.New("document tree destroyed")
	// ErrDetachedNode is returned when an argument node is not in the tree.
	ErrDetachedNode = errors.New("node is not attached to this tree")
	// ErrInvalidPoint is returned when a point argument is unset or out of range.
	ErrInvalidPoint = errors.New("invalid point")
)

// MutationKind tags what a mutation record describes.
type MutationKind int

const (
	MutationDeleteNode MutationKind = iota
	MutationInsertNode
	MutationSplitText
	MutationJoinNodes
	MutationMoveNode
	MutationDeleteText
)

func (k MutationKind) String() string {
	switch k {
	case MutationDeleteNode:
		return "delete-node"
	case MutationInsertNode:
		return "insert-node"
	case MutationSplitText:
		return "split-text"
	case MutationJoinNodes:
		return "join-nodes"
	case MutationMoveNode:
		return "move-node"
	case MutationDeleteText:
		return "delete-text"
	default:
		return "unknown"
	}
}

// Mutation describes a single completed tree change. Observers run
// synchronously after the change and may themselves mutate the tree; the
// engine re-validates its state after every primitive for exactly this
// reason.
type Mutation struct {
	Kind      MutationKind
	Node      *html.Node
	OldParent *html.Node
	At        Point
}

// Tree owns a document subtree and provides the mutation primitives the
// deletion engine uses. All reads go straight to the html.Node structure;
// all writes go through Tree so tracked points stay adjusted and observers
// fire.
type Tree struct {
	root      *html.Node
	log       *zap.Logger
	observers []func(Mutation)
	tracked   map[*Point]bool
	destroyed bool
}

// NewTree wraps root. The root node itself is never mutated.
func NewTree(root *html.Node, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tree{
		root:    root,
		log:     log.Named("tree"),
		tracked: make(map[*Point]bool),
	}
}

// Root returns the wrapped root node.
func (t *Tree) Root() *html.Node {
	return t.root
}

// Destroy marks the tree as torn down; every later primitive fails with
// ErrDestroyed.
func (t *Tree) Destroy() {
	t.destroyed = true
}

// Destroyed reports whether the tree was torn down.
func (t *Tree) Destroyed() bool {
	return t.destroyed
}

// Observe registers a synchronous mutation observer. Observers fire in
// registration order after each primitive completes.
func (t *Tree) Observe(fn func(Mutation)) {
	t.observers = append(t.observers, fn)
}

// Track registers p for automatic adjustment across mutations: after any
// mutation p names the equivalent post-mutation location.
func (t *Tree) Track(p *Point) {
	t.tracked[p] = true
}

// Untrack stops adjusting p.
func (t *Tree) Untrack(p *Point) {
	delete(t.tracked, p)
}

func (t *Tree) notify(m Mutation) {
	for _, fn := range t.observers {
		fn(m)
	}
}

func (t *Tree) contains(n *html.Node) bool {
	for c := n; c != nil; c = c.Parent {
		if c == t.root {
			return true
		}
	}
	return false
}

func (t *Tree) check(n *html.Node) error {
	if t.destroyed {
		return ErrDestroyed
	}
	if n == nil || !t.contains(n) {
		return ErrDetachedNode
	}
	return nil
}

// CreateElement builds a detached element with the given tag name.
func (t *Tree) CreateElement(tag string) *html.Node {
	a := atom.Lookup([]byte(tag))
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
}

// DeleteNode detaches n from the tree. Tracked points inside n collapse to
// the location n occupied.
func (t *Tree) DeleteNode(n *html.Node) error {
	if err := t.check(n); err != nil {
		return fmt.Errorf("delete node: %w", err)
	}
	if n == t.root || n.Parent == nil {
		return fmt.Errorf("delete node: cannot remove tree root")
	}
	oldParent := n.Parent
	at := Before(n)

	for p := range t.tracked {
		t.adjustForRemoval(p, n, at)
	}
	oldParent.RemoveChild(n)

	t.log.Debug("Deleted node", zap.String("node", NodeName(n)), zap.String("at", at.String()))
	t.notify(Mutation{Kind: MutationDeleteNode, Node: n, OldParent: oldParent, At: at})
	return nil
}

func (t *Tree) adjustForRemoval(p *Point, n *html.Node, at Point) {
	if p.Container == n || IsDescendantOf(p.Container, n) {
		*p = at
		return
	}
	if p.Container == at.Container && p.Offset > at.Offset {
		p.Offset--
	}
}

// InsertNode places detached node n at the given element-container point.
func (t *Tree) InsertNode(n *html.Node, at Point) error {
	if t.destroyed {
		return fmt.Errorf("insert node: %w", ErrDestroyed)
	}
	if n == nil || n.Parent != nil {
		return fmt.Errorf("insert node: node must be detached")
	}
	if !at.IsValid() || at.IsInText() {
		return fmt.Errorf("insert node at %s: %w", at, ErrInvalidPoint)
	}
	if err := t.check(at.Container); err != nil {
		return fmt.Errorf("insert node: %w", err)
	}

	before := ChildAt(at.Container, at.Offset)
	at.Container.InsertBefore(n, before) // nil before appends

	for p := range t.tracked {
		if p.Container == at.Container && p.Offset > at.Offset {
			p.Offset++
		}
	}

	t.log.Debug("Inserted node", zap.String("node", NodeName(n)), zap.String("at", at.String()))
	t.notify(Mutation{Kind: MutationInsertNode, Node: n, At: at})
	return nil
}

// SplitTextNode splits text node n at offset, keeping the left half in n and
// returning the new right node inserted after it.
func (t *Tree) SplitTextNode(n *html.Node, offset int) (*html.Node, error) {
	if err := t.check(n); err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	if !IsText(n) {
		return nil, fmt.Errorf("split text: %s is not a text node", NodeName(n))
	}
	if offset < 0 || offset > len(n.Data) {
		return nil, fmt.Errorf("split text at %d of %d: %w", offset, len(n.Data), ErrInvalidPoint)
	}

	right := &html.Node{Type: html.TextNode, Data: n.Data[offset:]}
	n.Data = n.Data[:offset]
	n.Parent.InsertBefore(right, n.NextSibling)

	idx := IndexOf(n)
	for p := range t.tracked {
		switch {
		case p.Container == n && p.Offset > offset:
			*p = Point{Container: right, Offset: p.Offset - offset}
		case p.Container == n.Parent && p.Offset > idx:
			p.Offset++
		}
	}

	t.log.Debug("Split text node", zap.String("node", NodeName(n)), zap.Int("offset", offset))
	t.notify(Mutation{Kind: MutationSplitText, Node: right, At: Point{Container: n, Offset: offset}})
	return right, nil
}

// JoinAdjacentNodes merges right into its previous sibling left: text data is
// appended, element children are moved. Both must be siblings of the same
// kind. Returns the point at the join seam inside left.
func (t *Tree) JoinAdjacentNodes(left, right *html.Node) (Point, error) {
	if err := t.check(left); err != nil {
		return Point{}, fmt.Errorf("join nodes: %w", err)
	}
	if err := t.check(right); err != nil {
		return Point{}, fmt.Errorf("join nodes: %w", err)
	}
	if left.NextSibling != right {
		return Point{}, fmt.Errorf("join nodes: %s and %s are not adjacent siblings", NodeName(left), NodeName(right))
	}
	if left.Type != right.Type || (IsElement(left) && left.DataAtom != right.DataAtom) {
		return Point{}, fmt.Errorf("join nodes: %s and %s differ in kind", NodeName(left), NodeName(right))
	}

	parent := right.Parent
	rightIdx := IndexOf(right)
	var seam Point

	if IsText(left) {
		seam = Point{Container: left, Offset: len(left.Data)}
		oldLen := len(left.Data)
		left.Data += right.Data
		for p := range t.tracked {
			if p.Container == right {
				*p = Point{Container: left, Offset: oldLen + p.Offset}
			}
		}
	} else {
		leftCount := Length(left)
		seam = Point{Container: left, Offset: leftCount}
		for right.FirstChild != nil {
			c := right.FirstChild
			right.RemoveChild(c)
			left.AppendChild(c)
		}
		for p := range t.tracked {
			if p.Container == right {
				*p = Point{Container: left, Offset: leftCount + p.Offset}
			}
		}
	}

	for p := range t.tracked {
		if p.Container == parent && p.Offset > rightIdx {
			p.Offset--
		} else if p.Container == parent && p.Offset == rightIdx {
			*p = seam
		}
	}
	parent.RemoveChild(right)

	t.log.Debug("Joined nodes", zap.String("left", NodeName(left)), zap.String("right", NodeName(right)), zap.String("seam", seam.String()))
	t.notify(Mutation{Kind: MutationJoinNodes, Node: left, OldParent: parent, At: seam})
	return seam, nil
}

// MoveNode detaches n and reinserts it at the destination point.
func (t *Tree) MoveNode(n *html.Node, to Point) error {
	if err := t.check(n); err != nil {
		return fmt.Errorf("move node: %w", err)
	}
	if !to.IsValid() || to.IsInText() {
		return fmt.Errorf("move node to %s: %w", to, ErrInvalidPoint)
	}
	if n == to.Container || IsDescendantOf(to.Container, n) {
		return fmt.Errorf("move node: destination inside moved subtree")
	}

	oldParent := n.Parent
	from := Before(n)
	for p := range t.tracked {
		// points inside the subtree travel with it, others adjust around
		if p.Container != n && !IsDescendantOf(p.Container, n) {
			t.adjustForRemoval(p, n, from)
		}
	}
	oldParent.RemoveChild(n)

	// removal may have shifted the destination offset in the same parent
	if to.Container == from.Container && to.Offset > from.Offset {
		to.Offset--
	}
	before := ChildAt(to.Container, to.Offset)
	to.Container.InsertBefore(n, before)
	for p := range t.tracked {
		if p.Container == to.Container && p.Offset > to.Offset && !IsInclusiveDescendantOf(p.Container, n) {
			p.Offset++
		}
	}

	t.log.Debug("Moved node", zap.String("node", NodeName(n)), zap.String("from", from.String()), zap.String("to", to.String()))
	t.notify(Mutation{Kind: MutationMoveNode, Node: n, OldParent: oldParent, At: to})
	return nil
}

// MoveChildren moves every child of from to the destination point, keeping
// their order.
func (t *Tree) MoveChildren(from *html.Node, to Point) error {
	if err := t.check(from); err != nil {
		return fmt.Errorf("move children: %w", err)
	}
	for from.FirstChild != nil {
		c := from.FirstChild
		if err := t.MoveNode(c, to); err != nil {
			return fmt.Errorf("move children: %w", err)
		}
		// the observers may have rearranged things; recompute destination
		to = After(c)
		if !to.IsSet() {
			return fmt.Errorf("move children: destination lost after observer callback")
		}
	}
	return nil
}

// DeleteTextRange removes bytes [start, end) from text node n.
func (t *Tree) DeleteTextRange(n *html.Node, start, end int) error {
	if err := t.check(n); err != nil {
		return fmt.Errorf("delete text: %w", err)
	}
	if !IsText(n) {
		return fmt.Errorf("delete text: %s is not a text node", NodeName(n))
	}
	if start < 0 || end > len(n.Data) || start > end {
		return fmt.Errorf("delete text [%d:%d) of %d: %w", start, end, len(n.Data), ErrInvalidPoint)
	}
	if start == end {
		return nil
	}
	n.Data = n.Data[:start] + n.Data[end:]

	for p := range t.tracked {
		if p.Container != n {
			continue
		}
		switch {
		case p.Offset >= end:
			p.Offset -= end - start
		case p.Offset > start:
			p.Offset = start
		}
	}

	t.log.Debug("Deleted text", zap.String("node", NodeName(n)), zap.Int("start", start), zap.Int("end", end))
	t.notify(Mutation{Kind: MutationDeleteText, Node: n, At: Point{Container: n, Offset: start}})
	return nil
}
