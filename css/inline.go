// Package css parses the small slice of CSS the editing engine cares about:
// inline style attributes carrying white-space and display declarations.
package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses inline style attribute text into structured declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new inline style parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// ParseInline parses the contents of a style="" attribute.
func (p *Parser) ParseInline(style string) InlineStyle {
	result := InlineStyle{}
	if strings.TrimSpace(style) == "" {
		return result
	}

	input := parse.NewInput(bytes.NewReader([]byte(style)))
	parser := css.NewParser(input, true)

	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("Inline style parse error", zap.String("style", style), zap.Error(err))
			}
			return result

		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			value := joinValues(parser.Values())
			if value == "" {
				continue
			}
			if result.Declarations == nil {
				result.Declarations = make(map[string]string)
			}
			result.Declarations[name] = value

			switch name {
			case "white-space":
				if ws, ok := parseWhiteSpace(value); ok {
					result.WhiteSpace = ws
					result.HasWhiteSpace = true
				} else {
					p.log.Debug("Unrecognized white-space value", zap.String("value", value))
				}
			case "display":
				if d, ok := parseDisplay(value); ok {
					result.Display = d
				} else {
					p.log.Debug("Unrecognized display value", zap.String("value", value))
				}
			}

		case css.CustomPropertyGrammar:
			// custom properties cannot affect editing decisions
			continue
		}
	}
}

func joinValues(values []css.Token) string {
	var b strings.Builder
	for _, v := range values {
		b.Write(v.Data)
	}
	return strings.TrimSpace(b.String())
}
