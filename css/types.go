package css

import (
	"strings"
)

// WhiteSpace is the computed value of the CSS white-space property for the
// subset of behaviors that matter to editing decisions.
type WhiteSpace int

const (
	WhiteSpaceNormal WhiteSpace = iota
	WhiteSpaceNowrap
	WhiteSpacePre
	WhiteSpacePreWrap
	WhiteSpacePreLine
	WhiteSpaceBreakSpaces
)

func (ws WhiteSpace) String() string {
	switch ws {
	case WhiteSpaceNormal:
		return "normal"
	case WhiteSpaceNowrap:
		return "nowrap"
	case WhiteSpacePre:
		return "pre"
	case WhiteSpacePreWrap:
		return "pre-wrap"
	case WhiteSpacePreLine:
		return "pre-line"
	case WhiteSpaceBreakSpaces:
		return "break-spaces"
	default:
		return "normal"
	}
}

// CollapsesSpaces reports whether runs of spaces and tabs collapse to a
// single rendered space under this value.
func (ws WhiteSpace) CollapsesSpaces() bool {
	switch ws {
	case WhiteSpaceNormal, WhiteSpaceNowrap, WhiteSpacePreLine:
		return true
	default:
		return false
	}
}

// PreservesNewlines reports whether a literal newline produces a line break.
func (ws WhiteSpace) PreservesNewlines() bool {
	switch ws {
	case WhiteSpacePre, WhiteSpacePreWrap, WhiteSpacePreLine, WhiteSpaceBreakSpaces:
		return true
	default:
		return false
	}
}

func parseWhiteSpace(value string) (WhiteSpace, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "normal":
		return WhiteSpaceNormal, true
	case "nowrap":
		return WhiteSpaceNowrap, true
	case "pre":
		return WhiteSpacePre, true
	case "pre-wrap":
		return WhiteSpacePreWrap, true
	case "pre-line":
		return WhiteSpacePreLine, true
	case "break-spaces":
		return WhiteSpaceBreakSpaces, true
	}
	return WhiteSpaceNormal, false
}

// Display is the computed value of the CSS display property reduced to what
// the editor needs to tell blocks from inline content.
type Display int

const (
	DisplayUnset Display = iota
	DisplayInline
	DisplayBlock
	DisplayInlineBlock
	DisplayListItem
	DisplayTable
	DisplayTableRow
	DisplayTableCell
	DisplayNone
)

func (d Display) String() string {
	switch d {
	case DisplayInline:
		return "inline"
	case DisplayBlock:
		return "block"
	case DisplayInlineBlock:
		return "inline-block"
	case DisplayListItem:
		return "list-item"
	case DisplayTable:
		return "table"
	case DisplayTableRow:
		return "table-row"
	case DisplayTableCell:
		return "table-cell"
	case DisplayNone:
		return "none"
	default:
		return ""
	}
}

// IsBlockLevel reports whether the value makes an element start its own line box.
func (d Display) IsBlockLevel() bool {
	switch d {
	case DisplayBlock, DisplayListItem, DisplayTable:
		return true
	default:
		return false
	}
}

func parseDisplay(value string) (Display, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inline":
		return DisplayInline, true
	case "block":
		return DisplayBlock, true
	case "inline-block":
		return DisplayInlineBlock, true
	case "list-item":
		return DisplayListItem, true
	case "table":
		return DisplayTable, true
	case "table-row":
		return DisplayTableRow, true
	case "table-cell":
		return DisplayTableCell, true
	case "none":
		return DisplayNone, true
	}
	return DisplayUnset, false
}

// InlineStyle is the result of parsing a style attribute. Zero value means
// "nothing declared" - lookups fall back to element defaults.
type InlineStyle struct {
	WhiteSpace    WhiteSpace
	HasWhiteSpace bool
	Display       Display

	// All declarations as parsed, for callers that care about more than the
	// properties broken out above.
	Declarations map[string]string
}
