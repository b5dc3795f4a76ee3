package whitespace

import (
	"testing"

	"edkit/dom"
)

func TestIsInvisibleText(t *testing.T) {
	t.Run("between_blocks", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="one">a</p> <p id="two">b</p>`)
		ws := dom.FindByID(body, "one").NextSibling
		if !dom.IsText(ws) {
			t.Fatalf("fixture broken: %s", dom.NodeName(ws))
		}
		if !s.IsInvisibleText(ws) {
			t.Fatal("whitespace between blocks must be invisible")
		}
	})

	t.Run("whitespace_only_block", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p"> </p>`)
		if !s.IsInvisibleText(textIn(t, body, "p")) {
			t.Fatal("whitespace alone in a block must be invisible")
		}
	})

	t.Run("preformatted_whitespace_renders", func(t *testing.T) {
		s, body := newTestScanner(t, `<pre id="p"> </pre>`)
		if s.IsInvisibleText(textIn(t, body, "p")) {
			t.Fatal("preformatted whitespace must stay visible")
		}
	})

	t.Run("word_separator_renders", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p">a b</p>`)
		tree := dom.NewTree(body, nil)
		text := textIn(t, body, "p")
		rest, err := tree.SplitTextNode(text, 1)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}
		if _, err := tree.SplitTextNode(rest, 1); err != nil {
			t.Fatalf("split failed: %v", err)
		}
		// rest now holds just the separating space between "a" and "b"
		if s.IsInvisibleText(rest) {
			t.Fatal("the only space between words must render")
		}
	})

	t.Run("second_node_of_run_collapses", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p">a  b</p>`)
		tree := dom.NewTree(body, nil)
		text := textIn(t, body, "p")
		// "a " | " " | "b"
		rest, err := tree.SplitTextNode(text, 2)
		if err != nil {
			t.Fatalf("split failed: %v", err)
		}
		if _, err := tree.SplitTextNode(rest, 1); err != nil {
			t.Fatalf("split failed: %v", err)
		}
		if !s.IsInvisibleText(rest) {
			t.Fatal("a run continuation after a space must be invisible")
		}
	})
}

func TestIsInvisibleBR(t *testing.T) {
	t.Run("trailing_break", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p">a<br id="b"/></p>`)
		if !s.IsInvisibleBR(dom.FindByID(body, "b")) {
			t.Fatal("a trailing break after content renders nothing")
		}
	})

	t.Run("break_between_lines", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p">a<br id="b"/>c</p>`)
		if s.IsInvisibleBR(dom.FindByID(body, "b")) {
			t.Fatal("a break with content after it is a real line break")
		}
	})

	t.Run("lone_break_holds_block_open", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p"><br id="b"/></p>`)
		if s.IsInvisibleBR(dom.FindByID(body, "b")) {
			t.Fatal("the only break in an empty block is visible")
		}
	})

	t.Run("padding_break_after_content_returns", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p">a<br id="b" data-padding="true"/></p>`)
		if !s.IsInvisibleBR(dom.FindByID(body, "b")) {
			t.Fatal("a padding break is spent once content precedes it")
		}
	})

	t.Run("padding_break_alone", func(t *testing.T) {
		s, body := newTestScanner(t, `<p id="p"><br id="b" data-padding="true"/></p>`)
		if s.IsInvisibleBR(dom.FindByID(body, "b")) {
			t.Fatal("a padding break alone keeps the block visible")
		}
	})
}

func TestIsEmptyNode(t *testing.T) {
	s, body := newTestScanner(t, `<p id="empty"></p><p id="br"><br/></p><p id="brs"><br/><br/></p><p id="deep"><b><i></i></b></p><p id="img"><img src="x.png"/></p><p id="text">a</p>`)

	cases := []struct {
		id         string
		tolerateBR bool
		want       bool
	}{
		{"empty", false, true},
		{"br", true, true},
		{"br", false, false},
		{"brs", true, false},
		{"deep", false, true},
		{"img", true, false},
		{"text", true, false},
	}
	for _, tc := range cases {
		n := dom.FindByID(body, tc.id)
		if got := s.IsEmptyNode(n, tc.tolerateBR); got != tc.want {
			t.Fatalf("IsEmptyNode(%s, tolerate=%v) = %v, want %v", tc.id, tc.tolerateBR, got, tc.want)
		}
	}
}

func TestSkipInvisibleWhiteSpace(t *testing.T) {
	s, body := newTestScanner(t, `<p id="one">a</p> <p id="two">b</p>`)
	one := dom.FindByID(body, "one")
	two := dom.FindByID(body, "two")

	got := s.SkipInvisibleWhiteSpaceBackward(dom.Before(two))
	if got != dom.After(one) {
		t.Fatalf("backward skip landed at %s", got)
	}
	got = s.SkipInvisibleWhiteSpaceForward(dom.After(one))
	if got != dom.Before(two) {
		t.Fatalf("forward skip landed at %s", got)
	}

	// visible text is never crossed
	text := textIn(t, body, "one")
	if got := s.SkipInvisibleWhiteSpaceBackward(dom.At(text, 1)); got != dom.At(text, 1) {
		t.Fatalf("skip must not cross visible content, landed at %s", got)
	}
}
