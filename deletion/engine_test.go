package deletion

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"edkit/dom"
	"edkit/whitespace"
)

type fixture struct {
	tree    *dom.Tree
	host    *html.Node
	scanner *whitespace.Scanner
	engine  *Engine
}

// newFixture parses markup as editable body content and wires an engine
// over it.
func newFixture(t *testing.T, markup string, opts Options) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))

	body, err := dom.ParseBody(markup)
	if err != nil {
		t.Fatalf("unable to parse fixture markup: %v", err)
	}
	dom.SetAttr(body, "contenteditable", "true")

	tree := dom.NewTree(body, log)
	scanner := whitespace.NewScanner(dom.NewStyleResolver(log), log)
	return &fixture{
		tree:    tree,
		host:    body,
		scanner: scanner,
		engine:  New(tree, scanner, nil, opts, log),
	}
}

func (f *fixture) markup(t *testing.T) string {
	t.Helper()
	s, err := dom.RenderChildren(f.host)
	if err != nil {
		t.Fatalf("unable to render fixture: %v", err)
	}
	return s
}

// textIn returns the first text node under the element with the given id,
// or under the host when id is empty.
func (f *fixture) textIn(t *testing.T, id string) *html.Node {
	t.Helper()
	root := f.host
	if id != "" {
		root = dom.FindByID(f.host, id)
		if root == nil {
			t.Fatalf("fixture has no element with id %q", id)
		}
	}
	text := dom.FirstText(root)
	if text == nil {
		t.Fatalf("fixture has no text under %q", id)
	}
	return text
}

func TestRunArgumentValidation(t *testing.T) {
	f := newFixture(t, "<p>abc</p>", Options{})
	caret := dom.Caret(dom.At(f.textIn(t, ""), 1))

	t.Run("nil_selection", func(t *testing.T) {
		if _, err := f.engine.Run(dom.DirBackward, false, nil); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty_selection", func(t *testing.T) {
		if _, err := f.engine.Run(dom.DirBackward, false, &dom.Selection{}); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("bad_direction", func(t *testing.T) {
		if _, err := f.engine.Run(dom.Direction(42), false, caret); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("compute_validates_too", func(t *testing.T) {
		if _, err := f.engine.ComputeRangesToDelete(dom.Direction(42), caret); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestRunAfterDestroy(t *testing.T) {
	f := newFixture(t, "<p>abc</p>", Options{})
	sel := dom.Caret(dom.At(f.textIn(t, ""), 1))
	f.tree.Destroy()

	if _, err := f.engine.Run(dom.DirBackward, false, sel); !errors.Is(err, ErrEditorDestroyed) {
		t.Fatalf("expected ErrEditorDestroyed, got %v", err)
	}
	if _, err := f.engine.ComputeRangesToDelete(dom.DirBackward, sel); !errors.Is(err, ErrEditorDestroyed) {
		t.Fatalf("expected ErrEditorDestroyed, got %v", err)
	}
}

func TestNoEditableRange(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	body, err := dom.ParseBody("<p>abc</p>")
	if err != nil {
		t.Fatalf("unable to parse: %v", err)
	}
	// no contenteditable anywhere
	tree := dom.NewTree(body, log)
	scanner := whitespace.NewScanner(dom.NewStyleResolver(log), log)
	engine := New(tree, scanner, nil, Options{}, log)

	sel := dom.Caret(dom.At(dom.FirstText(body), 1))
	if _, err := engine.Run(dom.DirBackward, false, sel); !errors.Is(err, ErrNoEditableRange) {
		t.Fatalf("expected ErrNoEditableRange, got %v", err)
	}
}

func TestNoOpDeleteAtDocumentEdge(t *testing.T) {
	t.Run("forward_at_end", func(t *testing.T) {
		f := newFixture(t, "<p>abc</p>", Options{})
		text := f.textIn(t, "")
		before := f.markup(t)
		sel := dom.Caret(dom.At(text, 3))

		res, err := f.engine.Run(dom.DirForward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if res.Handled || res.Canceled {
			t.Fatalf("expected untouched no-op, got %+v", res)
		}
		if got := f.markup(t); got != before {
			t.Fatalf("document changed by no-op delete:\n  before %q\n  after  %q", before, got)
		}
		if focus := sel.Focus(); !focus.Collapsed() || focus.Start != dom.At(text, 3) {
			t.Fatalf("selection moved by no-op delete: %s", focus)
		}
	})

	t.Run("backward_at_start", func(t *testing.T) {
		f := newFixture(t, "<p>abc</p>", Options{})
		before := f.markup(t)
		sel := dom.Caret(dom.At(f.textIn(t, ""), 0))

		res, err := f.engine.Run(dom.DirBackward, false, sel)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if res.Handled {
			t.Fatalf("expected not handled, got %+v", res)
		}
		if got := f.markup(t); got != before {
			t.Fatalf("document changed: %q", got)
		}
	})
}

func TestComputeMatchesRun(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		offset int
		dir    dom.Direction
		want   string
	}{
		{"backward_char", "<p>abc</p>", 3, dom.DirBackward, "<p>ab</p>"},
		{"forward_char", "<p>abc</p>", 0, dom.DirForward, "<p>bc</p>"},
		{"backward_emoji", "<p>a\U0001F642</p>", 5, dom.DirBackward, "<p>a</p>"},
		{"backward_whitespace_run", "<p>a   b</p>", 4, dom.DirBackward, "<p>ab</p>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.markup, Options{})
			text := f.textIn(t, "")
			sel := dom.Caret(dom.At(text, tc.offset))

			computed, err := f.engine.ComputeRangesToDelete(tc.dir, sel)
			if err != nil {
				t.Fatalf("compute failed: %v", err)
			}
			if len(computed.Ranges) != 1 || computed.Ranges[0].Collapsed() {
				t.Fatalf("expected one real range, got %v", computed.Ranges)
			}
			target := *computed.Ranges[0]

			res, err := f.engine.Run(tc.dir, false, sel)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if !res.Handled {
				t.Fatalf("expected handled deletion")
			}
			if got := f.markup(t); got != tc.want {
				t.Fatalf("unexpected document: got %q, want %q", got, tc.want)
			}
			// the mutation must cover exactly the computed region: the caret
			// lands where the computed range started
			if focus := sel.Focus(); focus.Start.Container != target.Start.Container || focus.Start.Offset != target.Start.Offset {
				t.Fatalf("caret %s does not match computed range start %s", focus.Start, target.Start)
			}
		})
	}
}

func TestObserverDetachingContentFailsRun(t *testing.T) {
	f := newFixture(t, "<p id=\"p\">abcdef</p>", Options{})
	para := dom.FindByID(f.host, "p")
	sel := dom.Caret(dom.At(f.textIn(t, "p"), 3))

	// the observer yanks the caret's paragraph out from under the engine the
	// moment the first text edit lands, without going through the tree
	fired := false
	f.tree.Observe(func(m dom.Mutation) {
		if fired || m.Kind != dom.MutationDeleteText {
			return
		}
		fired = true
		para.Parent.RemoveChild(para)
	})

	if _, err := f.engine.Run(dom.DirBackward, false, sel); !errors.Is(err, ErrUnexpectedTreeState) {
		t.Fatalf("expected ErrUnexpectedTreeState, got %v", err)
	}
	if !fired {
		t.Fatalf("observer never ran")
	}
}

type rejectAllLimiter struct{}

func (rejectAllLimiter) IsValidSelectionPoint(*html.Node) bool { return false }

func TestSelectionRestoredWhenRunFails(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	body, err := dom.ParseBody("<p id=\"p\">abc</p><div contenteditable=\"false\" id=\"island\">out</div>")
	if err != nil {
		t.Fatalf("unable to parse: %v", err)
	}
	dom.SetAttr(body, "contenteditable", "true")
	tree := dom.NewTree(body, log)
	scanner := whitespace.NewScanner(dom.NewStyleResolver(log), log)
	engine := New(tree, scanner, rejectAllLimiter{}, Options{}, log)

	island := dom.FirstText(dom.FindByID(body, "island"))
	sel := dom.NewSelection(dom.NewRange(dom.At(dom.FirstText(body), 1), dom.At(island, 2)))

	if _, err := engine.Run(dom.DirBackward, false, sel); !errors.Is(err, ErrNoEditableRange) {
		t.Fatalf("expected ErrNoEditableRange, got %v", err)
	}
	// resolving clamps the end to the host before the limiter rejects the
	// range; the failure must not leak that clamp back to the caller
	if end := sel.Ranges[0].End; end.Container != island || end.Offset != 2 {
		t.Fatalf("selection mutated by failed delete: %s", end)
	}
}

func TestComputeDoesNotMutate(t *testing.T) {
	f := newFixture(t, "<p>abc</p><p>def</p>", Options{})
	before := f.markup(t)
	sel := dom.Caret(dom.At(f.textIn(t, ""), 3))

	if _, err := f.engine.ComputeRangesToDelete(dom.DirForward, sel); err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if got := f.markup(t); got != before {
		t.Fatalf("compute mutated the document:\n  before %q\n  after  %q", before, got)
	}
}
