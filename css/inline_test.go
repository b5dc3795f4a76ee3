package css

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestParseInline(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	p := NewParser(log)

	t.Run("empty", func(t *testing.T) {
		got := p.ParseInline("")
		if got.HasWhiteSpace {
			t.Error("empty style should not declare white-space")
		}
		if got.Display != DisplayUnset {
			t.Errorf("Display = %v, want unset", got.Display)
		}
	})

	t.Run("white_space_pre", func(t *testing.T) {
		got := p.ParseInline("white-space: pre")
		if !got.HasWhiteSpace {
			t.Fatal("expected white-space declaration")
		}
		if got.WhiteSpace != WhiteSpacePre {
			t.Errorf("WhiteSpace = %v, want pre", got.WhiteSpace)
		}
		if got.WhiteSpace.CollapsesSpaces() {
			t.Error("pre should not collapse spaces")
		}
		if !got.WhiteSpace.PreservesNewlines() {
			t.Error("pre should preserve newlines")
		}
	})

	t.Run("display_block", func(t *testing.T) {
		got := p.ParseInline("display:block; color:red")
		if got.Display != DisplayBlock {
			t.Errorf("Display = %v, want block", got.Display)
		}
		if !got.Display.IsBlockLevel() {
			t.Error("block should be block-level")
		}
		if got.Declarations["color"] != "red" {
			t.Errorf("Declarations[color] = %q, want red", got.Declarations["color"])
		}
	})

	t.Run("multiple_declarations", func(t *testing.T) {
		got := p.ParseInline("white-space: pre-wrap; display: inline-block")
		if got.WhiteSpace != WhiteSpacePreWrap {
			t.Errorf("WhiteSpace = %v, want pre-wrap", got.WhiteSpace)
		}
		if got.Display != DisplayInlineBlock {
			t.Errorf("Display = %v, want inline-block", got.Display)
		}
	})

	t.Run("case_insensitive", func(t *testing.T) {
		got := p.ParseInline("WHITE-SPACE: PRE-LINE")
		if got.WhiteSpace != WhiteSpacePreLine {
			t.Errorf("WhiteSpace = %v, want pre-line", got.WhiteSpace)
		}
		if !got.WhiteSpace.CollapsesSpaces() {
			t.Error("pre-line should collapse spaces")
		}
	})

	t.Run("unknown_value_ignored", func(t *testing.T) {
		got := p.ParseInline("white-space: bogus")
		if got.HasWhiteSpace {
			t.Error("unknown white-space value should not register")
		}
	})

	t.Run("garbage_input", func(t *testing.T) {
		got := p.ParseInline("}{;;: ::")
		if got.HasWhiteSpace || got.Display != DisplayUnset {
			t.Error("garbage input should produce zero style")
		}
	})
}

func TestWhiteSpaceSemantics(t *testing.T) {
	cases := []struct {
		ws        WhiteSpace
		collapses bool
		newlines  bool
	}{
		{WhiteSpaceNormal, true, false},
		{WhiteSpaceNowrap, true, false},
		{WhiteSpacePre, false, true},
		{WhiteSpacePreWrap, false, true},
		{WhiteSpacePreLine, true, true},
		{WhiteSpaceBreakSpaces, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.ws.String(), func(t *testing.T) {
			if got := tc.ws.CollapsesSpaces(); got != tc.collapses {
				t.Errorf("CollapsesSpaces() = %v, want %v", got, tc.collapses)
			}
			if got := tc.ws.PreservesNewlines(); got != tc.newlines {
				t.Errorf("PreservesNewlines() = %v, want %v", got, tc.newlines)
			}
		})
	}
}
