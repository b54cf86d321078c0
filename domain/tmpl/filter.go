// Package tmpl compiles and expands `${var | filter | filter(arg)}`
// template strings against a caller-supplied ValueProvider.
package tmpl

import "strings"

type filterKind int

const (
	filterLower filterKind = iota
	filterUpper
	filterURLEncode
	filterDefault
	filterTrimPrefix
	filterTrimSuffix
	filterReplace
)

// Filter is one compiled pipeline stage.
type Filter struct {
	kind filterKind
	arg1 string
	arg2 string
}

type filterSpec struct {
	name  string
	arity int
}

var filterSpecs = []filterSpec{
	{"lower", 0},
	{"upper", 0},
	{"url_encode", 0},
	{"default", 1},
	{"trim_prefix", 1},
	{"trim_suffix", 1},
	{"replace", 2},
}

func arityOf(name string) (int, bool) {
	for _, s := range filterSpecs {
		if s.name == name {
			return s.arity, true
		}
	}
	return 0, false
}

// buildFilter constructs a Filter from a parsed call-form name/args
// pair, after the caller has already checked arity against arityOf.
func buildFilter(name string, args []string) (Filter, bool) {
	switch name {
	case "lower":
		return Filter{kind: filterLower}, true
	case "upper":
		return Filter{kind: filterUpper}, true
	case "url_encode":
		return Filter{kind: filterURLEncode}, true
	case "default":
		if len(args) != 1 {
			return Filter{}, false
		}
		return Filter{kind: filterDefault, arg1: args[0]}, true
	case "trim_prefix":
		if len(args) != 1 {
			return Filter{}, false
		}
		return Filter{kind: filterTrimPrefix, arg1: args[0]}, true
	case "trim_suffix":
		if len(args) != 1 {
			return Filter{}, false
		}
		return Filter{kind: filterTrimSuffix, arg1: args[0]}, true
	case "replace":
		if len(args) != 2 {
			return Filter{}, false
		}
		return Filter{kind: filterReplace, arg1: args[0], arg2: args[1]}, true
	default:
		return Filter{}, false
	}
}

func applyFilter(f Filter, val string) string {
	switch f.kind {
	case filterDefault:
		if val == "" {
			return f.arg1
		}
		return val
	case filterLower:
		return strings.ToLower(val)
	case filterUpper:
		return strings.ToUpper(val)
	case filterURLEncode:
		return percentEncodeNonAlnum(val)
	case filterTrimPrefix:
		return strings.TrimPrefix(val, f.arg1)
	case filterTrimSuffix:
		return strings.TrimSuffix(val, f.arg1)
	case filterReplace:
		return strings.ReplaceAll(val, f.arg1, f.arg2)
	default:
		return val
	}
}

// percentEncodeNonAlnum percent-encodes every byte of val's UTF-8
// representation that isn't an ASCII letter or digit, mirroring
// percent_encoding::NON_ALPHANUMERIC.
func percentEncodeNonAlnum(val string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(val); i++ {
		c := val[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0xf])
	}
	return b.String()
}
