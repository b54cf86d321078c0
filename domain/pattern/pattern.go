package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled is a pattern ready to test against real input: an anchored
// regular expression plus the ordered list of named captures it can
// produce.
type Compiled struct {
	re    *regexp.Regexp
	names []string
}

// IsMatch reports whether input matches the pattern in full.
func (c *Compiled) IsMatch(input string) bool {
	return c.re.MatchString(input)
}

// CapturesMap matches input and, on success, returns the named
// captures it produced (placeholders with no name contribute nothing).
func (c *Compiled) CapturesMap(input string) (map[string]string, bool) {
	m := c.re.FindStringSubmatch(input)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(c.names))
	for i, name := range c.re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out, true
}

// CompileHost compiles a dot-separated host pattern.
func CompileHost(raw string) (*Compiled, error) { return compile(raw, HostCtx{}) }

// CompilePath compiles a `/`-separated path pattern.
func CompilePath(raw string) (*Compiled, error) { return compile(raw, PathCtx{}) }

// CompileValue compiles a free-form header/query/cookie value pattern.
func CompileValue(raw string) (*Compiled, error) { return compile(raw, ValueCtx{}) }

func compile(raw string, ctx Context) (*Compiled, error) {
	var body strings.Builder
	body.WriteByte('^')

	seen := map[string]bool{}
	var names []string
	tailSeen := false
	tailText := ""

	i := 0
	for i < len(raw) {
		ch := raw[i]
		if ch != '<' {
			if tailSeen {
				return nil, &BadPlaceholder{Msg: fmt.Sprintf("<%s> must be the last element of the pattern", tailText)}
			}
			lit, next := scanLiteral(raw, i)
			body.WriteString(regexp.QuoteMeta(lit))
			i = next
			continue
		}

		if tailSeen {
			return nil, &BadPlaceholder{Msg: fmt.Sprintf("<%s> must be the last element of the pattern", tailText)}
		}

		end := findClose(raw, i+1)
		if end < 0 {
			return nil, &BadPlaceholder{Msg: "missing closing `>`"}
		}
		inner := raw[i+1 : end]

		ph, err := ParsePlaceholder(inner, ctx)
		if err != nil {
			return nil, err
		}

		if ph.Name != "" {
			if seen[ph.Name] {
				return nil, &Duplicate{Name: ph.Name}
			}
			seen[ph.Name] = true
			names = append(names, ph.Name)
		}

		frag, err := regexFragment(ph.Type)
		if err != nil {
			return nil, err
		}

		if ph.Name != "" {
			body.WriteString("(?P<")
			body.WriteString(ph.Name)
			body.WriteString(">")
			body.WriteString(frag)
			body.WriteString(")")
		} else {
			body.WriteString("(?:")
			body.WriteString(frag)
			body.WriteString(")")
		}

		if ph.Type.tailOnly() {
			tailSeen = true
			tailText = inner
		}

		i = end + 1
	}

	body.WriteByte('$')

	re, err := regexp.Compile(body.String())
	if err != nil {
		return nil, &InvalidRegex{Name: "(pattern)", Msg: err.Error()}
	}
	return &Compiled{re: re, names: names}, nil
}

// scanLiteral reads a run of non-`<` bytes starting at i.
func scanLiteral(raw string, i int) (string, int) {
	start := i
	for i < len(raw) && raw[i] != '<' {
		i++
	}
	return raw[start:i], i
}

// findClose finds the `>` that closes a placeholder opened at some
// earlier `<`, honoring quoted regions so a quoted `>` (inside a
// regex(...) argument) doesn't terminate early.
func findClose(raw string, from int) int {
	inQuote := byte(0)
	esc := false
	for i := from; i < len(raw); i++ {
		ch := raw[i]
		if esc {
			esc = false
			continue
		}
		if ch == '\\' {
			esc = true
			continue
		}
		if inQuote != 0 {
			if ch == inQuote {
				inQuote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			inQuote = ch
		case '>':
			return i
		}
	}
	return -1
}

func regexFragment(t TypeSpec) (string, error) {
	switch t.kind {
	case kindSegment:
		return `[^/]+`, nil
	case kindSlug:
		return `[A-Za-z0-9_-]+`, nil
	case kindUint:
		return `[0-9]+`, nil
	case kindInt:
		return `-?[0-9]+`, nil
	case kindHex:
		return `[0-9a-fA-F]+`, nil
	case kindAlnum:
		return `[A-Za-z0-9]+`, nil
	case kindUUID:
		return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`, nil
	case kindPath:
		return `.+`, nil
	case kindLabel:
		return `[^.]+`, nil
	case kindLabels:
		return `.+`, nil
	case kindAny:
		return `.+`, nil
	case kindRegex, kindRegexPath, kindRegexLabels:
		if _, err := regexp.Compile(t.regex); err != nil {
			return "", &InvalidRegex{Name: "regex", Msg: err.Error()}
		}
		return t.regex, nil
	default:
		return "", &BadPlaceholder{Msg: "unresolved placeholder type"}
	}
}
