package dom

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func newTestTree(t *testing.T, markup string) (*Tree, *html.Node) {
	t.Helper()
	body := mustBody(t, markup)
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	return NewTree(body, log), body
}

func TestDeleteNodeTracking(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p">ab<b>c</b>d</p>`)
	para := FindByID(body, "p")
	bold := FindElement(para, atom.B)
	inner := FirstText(bold)

	after := At(para, 2)
	inside := At(inner, 1)
	tree.Track(&after)
	tree.Track(&inside)
	defer tree.Untrack(&after)
	defer tree.Untrack(&inside)

	if err := tree.DeleteNode(bold); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if after.Container != para || after.Offset != 1 {
		t.Fatalf("point after the deleted node not shifted down: %s", after)
	}
	if inside.Container != para || inside.Offset != 1 {
		t.Fatalf("point inside the deleted subtree should collapse to its slot: %s", inside)
	}
	if got, _ := RenderChildren(body); got != `<p id="p">abd</p>` {
		t.Fatalf("unexpected markup: %s", got)
	}
}

func TestInsertNodeTracking(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p">ab<b>c</b></p>`)
	para := FindByID(body, "p")

	end := At(para, 2)
	tree.Track(&end)
	defer tree.Untrack(&end)

	span := tree.CreateElement("span")
	if err := tree.InsertNode(span, At(para, 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if end.Offset != 3 {
		t.Fatalf("point after the insertion slot not shifted up: %s", end)
	}
	if err := tree.InsertNode(span, At(para, 0)); err == nil {
		t.Fatal("inserting an attached node must fail")
	}
}

func TestSplitAndJoinText(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p">ab</p>`)
	text := FirstText(FindByID(body, "p"))

	tail := At(text, 2)
	tree.Track(&tail)
	defer tree.Untrack(&tail)

	right, err := tree.SplitTextNode(text, 1)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if text.Data != "a" || right.Data != "b" {
		t.Fatalf("split halves wrong: %q / %q", text.Data, right.Data)
	}
	if tail.Container != right || tail.Offset != 1 {
		t.Fatalf("point in the right half not moved: %s", tail)
	}

	seam, err := tree.JoinAdjacentNodes(text, right)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if text.Data != "ab" || seam.Container != text || seam.Offset != 1 {
		t.Fatalf("join seam wrong: %q at %s", text.Data, seam)
	}
	if tail.Container != text || tail.Offset != 2 {
		t.Fatalf("point in the joined node not mapped back: %s", tail)
	}
}

func TestJoinAdjacentElements(t *testing.T) {
	tree, body := newTestTree(t, `<p id="one">ab</p><p id="two">cd</p>`)
	one := FindByID(body, "one")
	two := FindByID(body, "two")
	second := FirstText(two)

	gap := At(body, 1)
	inText := At(second, 1)
	tree.Track(&gap)
	tree.Track(&inText)
	defer tree.Untrack(&gap)
	defer tree.Untrack(&inText)

	seam, err := tree.JoinAdjacentNodes(one, two)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if seam.Container != one || seam.Offset != 1 {
		t.Fatalf("seam should sit between the merged children: %s", seam)
	}
	if gap != seam {
		t.Fatalf("point at the removed node should land on the seam: %s", gap)
	}
	if inText.Container != second || inText.Offset != 1 {
		t.Fatalf("point inside moved content must travel with it: %s", inText)
	}
	if got, _ := RenderChildren(body); got != `<p id="one">abcd</p>` {
		t.Fatalf("unexpected markup: %s", got)
	}

	if _, err := tree.JoinAdjacentNodes(one, one); err == nil {
		t.Fatal("joining a node with itself must fail")
	}
}

func TestMoveNode(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p"><b>x</b><i>y</i></p>`)
	para := FindByID(body, "p")
	italic := FindElement(para, atom.I)

	if err := tree.MoveNode(italic, At(para, 0)); err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if got, _ := RenderChildren(body); got != `<p id="p"><i>y</i><b>x</b></p>` {
		t.Fatalf("unexpected markup: %s", got)
	}
	if err := tree.MoveNode(para, At(italic, 0)); err == nil {
		t.Fatal("moving a node into its own subtree must fail")
	}
}

func TestDeleteTextRangeTracking(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p">abcdef</p>`)
	text := FirstText(FindByID(body, "p"))

	past := At(text, 5)
	inside := At(text, 2)
	tree.Track(&past)
	tree.Track(&inside)
	defer tree.Untrack(&past)
	defer tree.Untrack(&inside)

	if err := tree.DeleteTextRange(text, 1, 4); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if text.Data != "aef" {
		t.Fatalf("unexpected data: %q", text.Data)
	}
	if past.Offset != 2 {
		t.Fatalf("point past the removed span not shifted: %s", past)
	}
	if inside.Offset != 1 {
		t.Fatalf("point inside the removed span should clamp to its start: %s", inside)
	}
	if err := tree.DeleteTextRange(text, 2, 1); err == nil {
		t.Fatal("inverted byte range must fail")
	}
}

func TestObservers(t *testing.T) {
	tree, body := newTestTree(t, `<p id="p">ab<b>c</b></p>`)
	para := FindByID(body, "p")

	var kinds []MutationKind
	tree.Observe(func(m Mutation) { kinds = append(kinds, m.Kind) })

	if err := tree.DeleteNode(FindElement(para, atom.B)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := tree.InsertNode(tree.CreateElement("span"), At(para, 1)); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(kinds) != 2 || kinds[0] != MutationDeleteNode || kinds[1] != MutationInsertNode {
		t.Fatalf("unexpected mutation record: %v", kinds)
	}
}

func TestTreeErrors(t *testing.T) {
	t.Run("destroyed", func(t *testing.T) {
		tree, body := newTestTree(t, `<p id="p">ab</p>`)
		tree.Destroy()
		if err := tree.DeleteNode(FindByID(body, "p")); !errors.Is(err, ErrDestroyed) {
			t.Fatalf("expected ErrDestroyed, got %v", err)
		}
	})

	t.Run("detached_node", func(t *testing.T) {
		tree, _ := newTestTree(t, `<p id="p">ab</p>`)
		stray := mustBody(t, `<p id="q">cd</p>`)
		if err := tree.DeleteNode(FindByID(stray, "q")); !errors.Is(err, ErrDetachedNode) {
			t.Fatalf("expected ErrDetachedNode, got %v", err)
		}
	})

	t.Run("root_protected", func(t *testing.T) {
		tree, body := newTestTree(t, `<p id="p">ab</p>`)
		if err := tree.DeleteNode(body); err == nil {
			t.Fatal("the root must not be deletable")
		}
	})
}
