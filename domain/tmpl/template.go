package tmpl

import (
	"fmt"
	"strings"

	"github.com/edgerouter/edgerouter/domain/pattern"
)

type segmentKind int

const (
	segLiteral segmentKind = iota
	segExpr
)

type segment struct {
	kind    segmentKind
	literal string
	varName string
	filters []Filter
}

// Compiled is a parsed template ready for repeated expansion.
type Compiled struct {
	segments []segment
}

// Error reports a malformed template source string.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return "template error: " + e.Msg }

// ValueProvider resolves a template variable name to its current
// value. A missing key expands to the empty string, not an error.
type ValueProvider interface {
	Get(key string) (string, bool)
}

// Compile parses src, scanning for `${...}` expressions with
// brace-depth balancing so a filter argument may itself contain a
// balanced `{...}` pair. Braces are counted even inside quotes, so an
// unmatched `}` in an argument ends the expression early.
func Compile(src string) (*Compiled, error) {
	var segs []segment
	var buf strings.Builder

	runes := []rune(src)
	i := 0
	for i < len(runes) {
		if runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '{' {
			if buf.Len() > 0 {
				segs = append(segs, segment{kind: segLiteral, literal: buf.String()})
				buf.Reset()
			}
			i += 2
			var expr strings.Builder
			depth := 1
			closed := false
			for i < len(runes) {
				c := runes[i]
				if c == '{' {
					depth++
				} else if c == '}' {
					depth--
					if depth == 0 {
						i++
						closed = true
						break
					}
				}
				expr.WriteRune(c)
				i++
			}
			if !closed {
				return nil, &Error{Msg: "unclosed `${`"}
			}
			varName, err := parseVar(expr.String())
			if err != nil {
				return nil, err
			}
			filters, err := parseFilters(expr.String())
			if err != nil {
				return nil, err
			}
			segs = append(segs, segment{kind: segExpr, varName: varName, filters: filters})
			continue
		}
		buf.WriteRune(runes[i])
		i++
	}
	if buf.Len() > 0 {
		segs = append(segs, segment{kind: segLiteral, literal: buf.String()})
	}

	return &Compiled{segments: segs}, nil
}

// Expand renders the compiled template against provider.
func Expand(c *Compiled, provider ValueProvider) (string, error) {
	var out strings.Builder
	for _, seg := range c.segments {
		switch seg.kind {
		case segLiteral:
			out.WriteString(seg.literal)
		case segExpr:
			val, _ := provider.Get(seg.varName)
			for _, f := range seg.filters {
				val = applyFilter(f, val)
			}
			out.WriteString(val)
		}
	}
	return out.String(), nil
}

// splitPipes splits expr on top-level `|` characters, ignoring any `|`
// that appears inside a quoted filter argument so a call like
// replace("|", "-") survives intact.
func splitPipes(expr string) []string {
	var parts []string
	var buf strings.Builder
	var inQuote rune
	quoted := false
	esc := false

	for _, ch := range expr {
		if esc {
			buf.WriteRune(ch)
			esc = false
			continue
		}
		if ch == '\\' {
			buf.WriteRune(ch)
			esc = true
			continue
		}
		if quoted {
			buf.WriteRune(ch)
			if ch == inQuote {
				quoted = false
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
			quoted = true
			buf.WriteRune(ch)
		case '|':
			parts = append(parts, buf.String())
			buf.Reset()
		default:
			buf.WriteRune(ch)
		}
	}
	parts = append(parts, buf.String())
	return parts
}

func parseVar(expr string) (string, error) {
	part := expr
	if idx := strings.IndexByte(expr, '|'); idx >= 0 {
		part = expr[:idx]
	}
	part = strings.TrimSpace(part)
	if part == "" {
		return "", &Error{Msg: "empty variable"}
	}
	return part, nil
}

func parseFilters(expr string) ([]Filter, error) {
	parts := splitPipes(expr)
	if len(parts) <= 1 {
		return nil, nil
	}

	var filters []Filter
	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		name, args, err := pattern.ParseCall(raw)
		if err != nil {
			return nil, &Error{Msg: err.Error()}
		}
		arity, known := arityOf(name)
		if !known || len(args) != arity {
			return nil, &Error{Msg: fmt.Sprintf("unknown filter or wrong arg count: %s", raw)}
		}
		f, ok := buildFilter(name, args)
		if !ok {
			return nil, &Error{Msg: fmt.Sprintf("unknown filter or wrong arg count: %s", raw)}
		}
		filters = append(filters, f)
	}
	return filters, nil
}
