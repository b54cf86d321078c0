package pattern

import "fmt"

// Placeholder is one `<name?:type?>` element parsed out of a pattern
// source string. Name and Type are both optional; a bare `<>` or `<*>`
// falls back to the context's default/asterisk type.
type Placeholder struct {
	Name string
	Type TypeSpec
}

// ParsePlaceholder parses the text between `<` and `>` (exclusive) for
// the given context, which supplies the default type (when no `:type`
// is given) and the asterisk type (when the type is literally `*`).
func ParsePlaceholder(inner string, ctx Context) (Placeholder, error) {
	name, typeText, hasType := splitNameType(inner)

	if !hasType {
		if name == "*" {
			return Placeholder{Type: ctx.AsteriskType()}, nil
		}
		return Placeholder{Name: name, Type: ctx.DefaultType()}, nil
	}

	t, err := ParseTypeSpec(typeText, ctx)
	if err != nil {
		return Placeholder{}, err
	}
	return Placeholder{Name: name, Type: t}, nil
}

func splitNameType(inner string) (name, typeText string, hasType bool) {
	idx := indexByte(inner, ':')
	if idx < 0 {
		return trimSpace(inner), "", false
	}
	return trimSpace(inner[:idx]), trimSpace(inner[idx+1:]), true
}

// ParseTypeSpec resolves a type string, either a bareword keyword or a
// call-form regex variant (`regex(...)`, `regex_path(...)`,
// `regex_labels(...)`). An empty string falls back to the context's
// default type; `*` falls back to its asterisk type.
func ParseTypeSpec(text string, ctx Context) (TypeSpec, error) {
	text = trimSpace(text)
	if text == "" {
		return ctx.DefaultType(), nil
	}
	if text == "*" {
		return ctx.AsteriskType(), nil
	}

	name, args, err := ParseCall(text)
	if err != nil {
		return TypeSpec{}, &BadPlaceholder{Msg: err.Error()}
	}

	switch name {
	case "segment":
		return TypeSpec{kind: kindSegment}, nil
	case "slug":
		return TypeSpec{kind: kindSlug}, nil
	case "uint":
		return TypeSpec{kind: kindUint}, nil
	case "int":
		return TypeSpec{kind: kindInt}, nil
	case "hex":
		return TypeSpec{kind: kindHex}, nil
	case "alnum":
		return TypeSpec{kind: kindAlnum}, nil
	case "uuid":
		return TypeSpec{kind: kindUUID}, nil
	case "path":
		return TypeSpec{kind: kindPath}, nil
	case "label":
		return TypeSpec{kind: kindLabel}, nil
	case "labels":
		return TypeSpec{kind: kindLabels}, nil
	case "any":
		return TypeSpec{kind: kindAny}, nil
	case "regex":
		if len(args) != 1 {
			return TypeSpec{}, &BadPlaceholder{Msg: "regex() takes exactly one argument"}
		}
		return TypeSpec{kind: kindRegex, regex: args[0]}, nil
	case "regex_path":
		if len(args) != 1 {
			return TypeSpec{}, &BadPlaceholder{Msg: "regex_path() takes exactly one argument"}
		}
		return TypeSpec{kind: kindRegexPath, regex: args[0]}, nil
	case "regex_labels":
		if len(args) != 1 {
			return TypeSpec{}, &BadPlaceholder{Msg: "regex_labels() takes exactly one argument"}
		}
		return TypeSpec{kind: kindRegexLabels, regex: args[0]}, nil
	default:
		return TypeSpec{}, &BadPlaceholder{Msg: fmt.Sprintf("unknown placeholder type %q", name)}
	}
}
