package deletion

import (
	"strings"
	"testing"

	"edkit/dom"
)

func TestJoinAdjacentParagraphs(t *testing.T) {
	t.Run("forward_at_block_end", func(t *testing.T) {
		f := newFixture(t, `<p id="one">abc</p><p id="two">def</p>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "one"), 3))

		res, err := f.engine.Run(dom.DirForward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !res.Handled {
			t.Fatalf("expected handled join")
		}
		got := f.markup(t)
		if got != `<p id="one">abcdef</p>` {
			t.Fatalf("unexpected document: %q", got)
		}
		// caret sits at the seam between the two merged runs
		focus := sel.Focus()
		if !focus.Collapsed() {
			t.Fatalf("selection not collapsed after join")
		}
		para := dom.FindByID(f.host, "one")
		if focus.Start.Container != para || focus.Start.Offset != 1 {
			t.Fatalf("caret %s, want seam inside the merged paragraph", focus.Start)
		}
	})

	t.Run("backward_at_block_start", func(t *testing.T) {
		f := newFixture(t, `<p id="one">abc</p><p id="two">def</p>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "two"), 0))

		res, err := f.engine.Run(dom.DirBackward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !res.Handled {
			t.Fatalf("expected handled join")
		}
		if got := f.markup(t); got != `<p id="one">abcdef</p>` {
			t.Fatalf("unexpected document: %q", got)
		}
	})

	t.Run("only_first_line_moves", func(t *testing.T) {
		f := newFixture(t, `<p id="one">abc</p><p id="two">def<br>ghi</p>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "one"), 3))

		if _, err := f.engine.Run(dom.DirForward, false, sel); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		got := f.markup(t)
		if !strings.Contains(got, "abcdef") {
			t.Fatalf("first line did not move: %q", got)
		}
		if !strings.Contains(got, `<p id="two">ghi</p>`) {
			t.Fatalf("second line did not stay behind: %q", got)
		}
	})

	t.Run("nested_block_merges_upward", func(t *testing.T) {
		f := newFixture(t, `<div id="outer">abc<p id="inner">def</p></div>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "inner"), 0))

		if _, err := f.engine.Run(dom.DirBackward, false, sel); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		got := f.markup(t)
		if !strings.Contains(got, "abcdef") {
			t.Fatalf("line did not merge upward: %q", got)
		}
	})
}

func TestJoinerInvisibleNodes(t *testing.T) {
	t.Run("intervening_invisible_break_goes_first", func(t *testing.T) {
		f := newFixture(t, `<p id="one">abc<br></p><p id="two">def</p>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "two"), 0))

		res, err := f.engine.Run(dom.DirBackward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !res.Handled {
			t.Fatalf("expected handled")
		}
		got := f.markup(t)
		if strings.Contains(got, "<br") {
			t.Fatalf("invisible break survived: %q", got)
		}
		// one backspace only removes the break; paragraphs stay separate
		if !strings.Contains(got, `<p id="one">abc</p>`) || !strings.Contains(got, `<p id="two">def</p>`) {
			t.Fatalf("paragraphs merged prematurely: %q", got)
		}
	})

	t.Run("whitespace_between_blocks_removed_with_join", func(t *testing.T) {
		f := newFixture(t, "<p id=\"one\">abc</p>\n   \n<p id=\"two\">def</p>", Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "two"), 0))

		if _, err := f.engine.Run(dom.DirBackward, false, sel); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		got := f.markup(t)
		if !strings.Contains(got, "abcdef") {
			t.Fatalf("blocks did not join across whitespace: %q", got)
		}
		if strings.Contains(got, "\n   \n") {
			t.Fatalf("skipped invisible whitespace survived: %q", got)
		}
	})
}

func TestJoinLists(t *testing.T) {
	t.Run("items_across_lists_join_the_lists", func(t *testing.T) {
		f := newFixture(t, `<ul id="a"><li id="one">one</li></ul><ul id="b"><li id="two">two</li></ul>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "two"), 0))

		res, err := f.engine.Run(dom.DirBackward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if !res.Handled {
			t.Fatalf("expected handled")
		}
		got := f.markup(t)
		if strings.Count(got, "<ul") != 1 {
			t.Fatalf("expected one list after join, got %q", got)
		}
		if !strings.Contains(got, `<li id="one">one</li>`) || !strings.Contains(got, `<li id="two">two</li>`) {
			t.Fatalf("items damaged by list join: %q", got)
		}
	})

	t.Run("items_within_one_list_merge_items", func(t *testing.T) {
		f := newFixture(t, `<ul><li id="one">one</li><li id="two">two</li></ul>`, Options{})
		sel := dom.Caret(dom.At(f.textIn(t, "two"), 0))

		if _, err := f.engine.Run(dom.DirBackward, false, sel); err != nil {
			t.Fatalf("run failed: %v", err)
		}
		got := f.markup(t)
		if !strings.Contains(got, "onetwo") {
			t.Fatalf("items did not merge: %q", got)
		}
		if strings.Count(got, "<li") != 1 {
			t.Fatalf("expected a single item left: %q", got)
		}
	})
}

func TestJoinRefusals(t *testing.T) {
	t.Run("table_cell_boundary_not_joined", func(t *testing.T) {
		f := newFixture(t, `<table><tbody><tr><td id="a">one</td><td id="b">two</td></tr></tbody></table>`, Options{})
		before := f.markup(t)
		sel := dom.Caret(dom.At(f.textIn(t, "b"), 0))

		res, err := f.engine.Run(dom.DirBackward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if res.Handled {
			t.Fatalf("cell boundary backspace must not be handled")
		}
		if got := f.markup(t); got != before {
			t.Fatalf("table changed:\n  before %q\n  after  %q", before, got)
		}
	})
}
