package router

// MatchRule evaluates a rule's `when` clause against ctx in host, path,
// scheme, methods, headers, queries, cookies order. Each successful
// check merges its captures into ctx immediately, before the next
// check runs.
func MatchRule(m *CompiledMatch, ctx *RouterCtx) bool {
	if m.Host != nil {
		if !m.Host.IsMatch(ctx.Host) {
			return false
		}
		if caps, ok := m.Host.CapturesMap(ctx.Host); ok {
			merge(ctx, caps)
		}
	}

	if m.Path != nil {
		if !m.Path.IsMatch(ctx.Path) {
			return false
		}
		if caps, ok := m.Path.CapturesMap(ctx.Path); ok {
			merge(ctx, caps)
		}
	}

	if m.Scheme != "" && ctx.Scheme != m.Scheme {
		return false
	}

	if len(m.Methods) > 0 {
		if ctx.Method == "" || !containsMethod(m.Methods, ctx.Method) {
			return false
		}
	}

	for _, h := range m.Headers {
		vals := ctx.Headers[h.Name]
		first, matched := firstMatch(h.Pattern, vals)
		ok := matched
		if h.Not {
			ok = !matched
		}
		if !ok {
			return false
		}
		if matched && !h.Not {
			if caps, capOK := h.Pattern.CapturesMap(first); capOK {
				merge(ctx, caps)
			}
		}
	}

	for _, q := range m.Queries {
		vals := ctx.Query.Values(q.Key)
		first, matched := firstMatch(q.Pattern, vals)
		ok := matched
		if q.Not {
			ok = !matched
		}
		if !ok {
			return false
		}
		if matched && !q.Not {
			if caps, capOK := q.Pattern.CapturesMap(first); capOK {
				merge(ctx, caps)
			}
		}
	}

	for _, c := range m.Cookies {
		val := ctx.Cookies[c.Name]
		matched := c.Pattern.IsMatch(val)
		ok := matched
		if c.Not {
			ok = !matched
		}
		if !ok {
			return false
		}
		if !c.Not {
			if caps, capOK := c.Pattern.CapturesMap(val); capOK {
				merge(ctx, caps)
			}
		}
	}

	return true
}

// merge copies a successful match's captures into ctx, later writers
// of the same key overwriting earlier ones.
func merge(ctx *RouterCtx, caps map[string]string) {
	for k, v := range caps {
		ctx.Captures[k] = v
	}
}

// firstMatch returns the first value in vals that p matches, and
// whether any did; its captures are what the rule's when-clause
// contributes for this condition.
func firstMatch(p interface{ IsMatch(string) bool }, vals []string) (string, bool) {
	for _, v := range vals {
		if p.IsMatch(v) {
			return v, true
		}
	}
	return "", false
}

func containsMethod(methods []string, m string) bool {
	for _, x := range methods {
		if x == m {
			return true
		}
	}
	return false
}
