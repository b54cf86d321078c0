package router

import (
	"net/http"
	"sort"

	"github.com/edgerouter/edgerouter/domain/tmpl"
)

// sortedKeys returns m's keys in a fixed order so ops that set several
// query/header entries at once expand deterministically regardless of
// Go's randomized map iteration.
func sortedKeys(m map[string]*tmpl.Compiled) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// opOutcome is what running a rule's ops produced.
type opOutcome int

const (
	outcomeContinueNextRule opOutcome = iota
	outcomeRestart
	outcomeRespond
	outcomeUseService
	outcomeFallthrough
)

type execResult struct {
	outcome  opOutcome
	response *RouterResponse
}

// runOps executes ops against ctx/req using an explicit frame stack
// rather than recursion, so a Branch op can push its chosen side
// (then/else) plus a continuation for the remainder of the current
// slice without growing the Go call stack.
func runOps(ops []LoadedOp, ctx *RouterCtx, req *http.Request) execResult {
	type frame struct {
		ops []LoadedOp
		idx int
	}
	stack := []frame{{ops: ops, idx: 0}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx := top.idx
		opsSlice := top.ops

		for idx < len(opsSlice) {
			op := opsSlice[idx]

			switch op.Kind {
			case OpSetScheme:
				ctx.Scheme = op.Scheme

			case OpSetHost:
				val, err := tmpl.Expand(op.Template, ctx)
				if err != nil {
					return respondErr(http.StatusBadRequest, "template error")
				}
				ctx.Host = val

			case OpSetPort:
				ctx.Port = op.Port

			case OpSetPath:
				val, err := tmpl.Expand(op.Template, ctx)
				if err != nil {
					return respondErr(http.StatusBadRequest, "template error")
				}
				if len(val) == 0 || val[0] != '/' {
					return respondErr(http.StatusBadRequest, "path must start with '/'")
				}
				ctx.Path = val

			case OpHeaderSet:
				if r := applyHeaderMap(op.HeaderMap, ctx, req, true); r != nil {
					return *r
				}

			case OpHeaderAdd:
				if r := applyHeaderMap(op.HeaderMap, ctx, req, false); r != nil {
					return *r
				}

			case OpHeaderDelete:
				for _, k := range op.HeaderKeys {
					req.Header.Del(k)
					delete(ctx.Headers, toLowerASCII(k))
				}

			case OpHeaderClear:
				for k := range req.Header {
					delete(req.Header, k)
				}
				ctx.Headers = map[string][]string{}

			case OpQuerySet:
				for _, k := range sortedKeys(op.QueryMap) {
					val, err := tmpl.Expand(op.QueryMap[k], ctx)
					if err != nil {
						return respondErr(http.StatusBadRequest, "template error")
					}
					ctx.Query.Set(k, val)
				}

			case OpQueryAdd:
				for _, k := range sortedKeys(op.QueryMap) {
					val, err := tmpl.Expand(op.QueryMap[k], ctx)
					if err != nil {
						return respondErr(http.StatusBadRequest, "template error")
					}
					ctx.Query.Add(k, val)
				}

			case OpQueryDelete:
				for _, k := range op.QueryKeys {
					ctx.Query.Delete(k)
				}

			case OpQueryClear:
				ctx.Query = NewQueryMultiMap()

			case OpInternalRewrite:
				return execResult{outcome: outcomeRestart}

			case OpRedirect:
				loc, err := tmpl.Expand(op.RedirectLocation, ctx)
				if err != nil {
					return respondErr(http.StatusBadRequest, "template error")
				}
				return execResult{
					outcome: outcomeRespond,
					response: &RouterResponse{
						StatusCode: op.RedirectStatus,
						Header:     http.Header{"Location": []string{loc}},
					},
				}

			case OpRespond:
				hdr := http.Header{}
				for _, k := range sortedKeys(op.RespondHeaders) {
					val, err := tmpl.Expand(op.RespondHeaders[k], ctx)
					if err != nil {
						return respondErr(http.StatusBadRequest, "template error")
					}
					if !validHeaderName(k) || !validHeaderValue(val) {
						continue
					}
					hdr.Set(k, val)
				}
				var body string
				if op.RespondBody != nil {
					var err error
					body, err = tmpl.Expand(op.RespondBody, ctx)
					if err != nil {
						return respondErr(http.StatusBadRequest, "template error")
					}
				}
				return execResult{
					outcome: outcomeRespond,
					response: &RouterResponse{
						StatusCode: op.RespondStatus,
						Header:     hdr,
						Body:       []byte(body),
					},
				}

			case OpUse:
				ApplyToRequest(ctx, req)
				resp := op.Use.ServeHTTPService(ctx, req)
				return execResult{outcome: outcomeUseService, response: resp}

			case OpBranch:
				pass, caps := evalCond(&op.BranchCond, ctx)
				chosen := op.BranchElse
				if pass {
					chosen = op.BranchThen
					for k, v := range caps {
						ctx.Captures[k] = v
					}
				}
				stack = append(stack, frame{ops: opsSlice, idx: idx + 1})
				stack = append(stack, frame{ops: chosen, idx: 0})
				idx = len(opsSlice) // break inner loop, outer loop pops next frame
				continue
			}

			idx++
		}
	}

	return execResult{outcome: outcomeFallthrough}
}

func applyHeaderMap(m map[string]*tmpl.Compiled, ctx *RouterCtx, req *http.Request, replace bool) *execResult {
	for _, k := range sortedKeys(m) {
		val, err := tmpl.Expand(m[k], ctx)
		if err != nil {
			r := respondErr(http.StatusBadRequest, "template error")
			return &r
		}
		if !validHeaderName(k) || !validHeaderValue(val) {
			continue
		}
		if replace {
			req.Header.Set(k, val)
		} else {
			req.Header.Add(k, val)
		}
		key := toLowerASCII(k)
		if replace {
			ctx.Headers[key] = []string{val}
		} else {
			ctx.Headers[key] = append(ctx.Headers[key], val)
		}
	}
	return nil
}

func respondErr(status int, msg string) execResult {
	return execResult{outcome: outcomeRespond, response: errorResponse(status, msg)}
}

func toLowerASCII(s string) string {
	return lower(s)
}

// validHeaderName reports whether s is a legal HTTP header field name
// (RFC 7230 token characters only). Ops that would emit an invalid
// name are silently skipped rather than failing.
func validHeaderName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenByte(s[i]) {
			return false
		}
	}
	return true
}

func isTokenByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// validHeaderValue reports whether s is legal as an HTTP header field
// value: no CR/LF, and only horizontal tab or visible/printable bytes
// (0x20-0x7E plus the 0x80-0xFF extension octet-string range).
func validHeaderValue(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\r' || c == '\n' {
			return false
		}
		if c == '\t' {
			continue
		}
		if c < 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}
