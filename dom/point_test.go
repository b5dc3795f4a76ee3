package dom

import (
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func mustBody(t *testing.T, markup string) *html.Node {
	t.Helper()
	body, err := ParseBody(markup)
	if err != nil {
		t.Fatalf("unable to parse %q: %v", markup, err)
	}
	return body
}

func TestPointConstructors(t *testing.T) {
	body := mustBody(t, `<p id="p">ab<b>c</b></p>`)
	para := FindByID(body, "p")
	text := FirstText(para)
	bold := FindElement(para, atom.B)

	t.Run("before_and_after", func(t *testing.T) {
		if got := Before(bold); got.Container != para || got.Offset != 1 {
			t.Fatalf("Before(b) = %s", got)
		}
		if got := After(bold); got.Container != para || got.Offset != 2 {
			t.Fatalf("After(b) = %s", got)
		}
		if got := Before(nil); got.IsSet() {
			t.Fatalf("Before(nil) should be unset, got %s", got)
		}
	})

	t.Run("start_and_end", func(t *testing.T) {
		if got := StartOf(text); got.Offset != 0 || !got.IsInText() {
			t.Fatalf("StartOf(text) = %s", got)
		}
		if got := EndOf(text); got.Offset != 2 {
			t.Fatalf("EndOf(text) = %s", got)
		}
		if got := EndOf(para); got.Offset != 2 {
			t.Fatalf("EndOf(p) = %s", got)
		}
	})

	t.Run("index_and_child", func(t *testing.T) {
		if got := IndexOf(bold); got != 1 {
			t.Fatalf("IndexOf(b) = %d", got)
		}
		if got := ChildAt(para, 0); got != text {
			t.Fatalf("ChildAt(p, 0) = %s", NodeName(got))
		}
		if got := ChildAt(para, 5); got != nil {
			t.Fatalf("out-of-range ChildAt = %s", NodeName(got))
		}
	})
}

func TestPointPredicates(t *testing.T) {
	body := mustBody(t, `<p id="p">ab</p>`)
	para := FindByID(body, "p")
	text := FirstText(para)

	if (Point{}).IsSet() {
		t.Fatal("zero point claims to be set")
	}
	if !At(text, 0).IsStart() || !At(text, 2).IsEnd() {
		t.Fatal("start/end detection broken in text")
	}
	if At(text, 3).IsValid() {
		t.Fatal("offset past the text extent claims validity")
	}
	if At(para, 1).NodeBefore() != text {
		t.Fatal("NodeBefore should be the text node")
	}
	if At(para, 0).NodeAfter() != text {
		t.Fatal("NodeAfter should be the text node")
	}
	if At(text, 1).NodeAfter() != nil {
		t.Fatal("text points have no child nodes")
	}
}

func TestComparePoints(t *testing.T) {
	body := mustBody(t, `<p id="one">ab</p><p id="two"><b>c</b>d</p>`)
	first := FirstText(FindByID(body, "one"))
	second := FindByID(body, "two")
	inner := FirstText(second)

	cases := []struct {
		name string
		a, b Point
		want int
	}{
		{"same_container_ordered", At(first, 0), At(first, 2), -1},
		{"same_point", At(first, 1), At(first, 1), 0},
		{"across_blocks", At(first, 2), At(inner, 0), -1},
		{"parent_before_child_content", At(second, 0), At(inner, 1), -1},
		{"child_content_before_parent_end", At(inner, 1), At(second, 2), -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Fatalf("Compare(%s, %s) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
			if got := Compare(tc.b, tc.a); got != -tc.want {
				t.Fatalf("Compare(%s, %s) = %d, want %d", tc.b, tc.a, got, -tc.want)
			}
		})
	}
}

func TestRange(t *testing.T) {
	body := mustBody(t, `<p id="p">ab<b>c</b>d</p>`)
	para := FindByID(body, "p")
	text := FirstText(para)
	bold := FindElement(para, atom.B)

	t.Run("orders_boundaries", func(t *testing.T) {
		r := NewRange(At(text, 2), At(text, 0))
		if r.Start.Offset != 0 || r.End.Offset != 2 {
			t.Fatalf("boundaries not reordered: %s", r)
		}
	})

	t.Run("select_node", func(t *testing.T) {
		r := SelectNode(bold)
		if r.Start != Before(bold) || r.End != After(bold) {
			t.Fatalf("SelectNode(b) = %s", r)
		}
		if !r.Contains(bold) {
			t.Fatal("selected node not contained in its own range")
		}
		if r.Contains(text) {
			t.Fatal("preceding text wrongly contained")
		}
	})

	t.Run("collapsed", func(t *testing.T) {
		r := CollapsedAt(At(text, 1))
		if !r.Collapsed() || !r.InSameContainer() {
			t.Fatalf("CollapsedAt = %s", r)
		}
		r = NewRange(At(text, 0), At(text, 1))
		r.Collapse(false)
		if !r.Collapsed() || r.Start.Offset != 1 {
			t.Fatalf("Collapse(false) = %s", r)
		}
	})
}

func TestSelection(t *testing.T) {
	body := mustBody(t, `<p id="p">abc</p>`)
	text := FirstText(FindByID(body, "p"))

	t.Run("caret", func(t *testing.T) {
		sel := Caret(At(text, 1))
		if !sel.IsCollapsed() || sel.Focus() == nil {
			t.Fatalf("caret selection ill-formed: %+v", sel)
		}
	})

	t.Run("focus_is_last_range", func(t *testing.T) {
		sel := NewSelection(
			NewRange(At(text, 0), At(text, 1)),
			NewRange(At(text, 2), At(text, 3)),
		)
		if sel.IsCollapsed() {
			t.Fatal("real ranges reported as collapsed")
		}
		if got := sel.Focus(); got.Start.Offset != 2 {
			t.Fatalf("focus should be the last range, got %s", got)
		}
	})

	t.Run("collapse_to", func(t *testing.T) {
		sel := NewSelection(NewRange(At(text, 0), At(text, 3)))
		sel.CollapseTo(At(text, 2))
		if len(sel.Ranges) != 1 || !sel.IsCollapsed() || sel.Focus().Start.Offset != 2 {
			t.Fatalf("CollapseTo left %+v", sel)
		}
	})

	t.Run("clone_is_independent", func(t *testing.T) {
		sel := NewSelection(NewRange(At(text, 0), At(text, 3)))
		cp := sel.Clone()
		cp.Ranges[0].Start.Offset = 1
		if sel.Ranges[0].Start.Offset != 0 {
			t.Fatal("clone shares range storage with the original")
		}
	})
}
