package config

import (
	"fmt"

	adapterhttp "github.com/edgerouter/edgerouter/adapters/http"
	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/domain/pattern"
	"github.com/edgerouter/edgerouter/domain/router"
	"github.com/edgerouter/edgerouter/domain/tmpl"
)

const defaultMaxSteps = 16

// Build validates and compiles cfg into the immutable service tree the
// front door dispatches requests against. mc receives the Forward
// adapters' upstream metrics; it may be nil.
func Build(cfg *Config, mc *metrics.Collector) (router.ServiceHandler, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return buildService(&cfg.HTTPServer.Service, mc)
}

func buildService(svc *ServiceConfig, mc *metrics.Collector) (router.ServiceHandler, error) {
	switch svc.Handler {
	case "static":
		return adapterhttp.NewStatic(svc.SourceDir, svc.FileIndex, svc.File404), nil
	case "forward":
		scheme := svc.Target.Scheme
		if scheme == "" {
			scheme = "http"
		}
		return adapterhttp.NewForward(scheme, svc.Target.Host, svc.Target.Port, mc), nil
	case "router":
		return buildRouter(svc, mc)
	default:
		return nil, invalid(fmt.Sprintf("unknown service handler %q", svc.Handler))
	}
}

func buildRouter(svc *ServiceConfig, mc *metrics.Collector) (router.ServiceHandler, error) {
	maxSteps := defaultMaxSteps
	if svc.MaxSteps != nil {
		maxSteps = *svc.MaxSteps
	}

	var next router.ServiceHandler
	if svc.Next != nil {
		built, err := buildService(svc.Next, mc)
		if err != nil {
			return nil, err
		}
		next = built
	}

	rules, err := compileRules(svc.Rules, mc)
	if err != nil {
		return nil, err
	}

	return &router.LoadedRouter{Rules: rules, Next: next, MaxSteps: maxSteps}, nil
}

func compileRules(rules []RouterRuleConfig, mc *metrics.Collector) ([]router.LoadedRule, error) {
	out := make([]router.LoadedRule, 0, len(rules))
	for _, r := range rules {
		when, err := compileMatch(&r.When)
		if err != nil {
			return nil, err
		}
		ops, err := compileOps(r.Ops, mc)
		if err != nil {
			return nil, err
		}
		onMatch, err := parseOnMatch(r.OnMatch)
		if err != nil {
			return nil, err
		}
		out = append(out, router.LoadedRule{When: *when, Ops: ops, OnMatch: onMatch})
	}
	return out, nil
}

func parseOnMatch(s string) (router.OnMatch, error) {
	switch s {
	case "", "stop":
		return router.OnMatchStop, nil
	case "continue":
		return router.OnMatchContinue, nil
	case "restart":
		return router.OnMatchRestart, nil
	default:
		return 0, invalid(fmt.Sprintf("unknown on_match %q", s))
	}
}

func compileMatch(w *WhenConfig) (*router.CompiledMatch, error) {
	m := &router.CompiledMatch{Methods: w.Methods, Scheme: w.Scheme}

	if w.Host != "" {
		p, err := pattern.CompileHost(w.Host)
		if err != nil {
			return nil, invalid(fmt.Sprintf("when.host: %s", err))
		}
		m.Host = p
	}
	if w.Path != "" {
		p, err := pattern.CompilePath(w.Path)
		if err != nil {
			return nil, invalid(fmt.Sprintf("when.path: %s", err))
		}
		m.Path = p
	}

	for _, h := range w.Headers {
		p, err := pattern.CompileValue(h.Pattern)
		if err != nil {
			return nil, invalid(fmt.Sprintf("when.headers[%s]: %s", h.Name, err))
		}
		m.Headers = append(m.Headers, router.CompiledHeaderCond{Name: lowerASCII(h.Name), Pattern: p, Not: h.Not})
	}
	for _, q := range w.Queries {
		p, err := pattern.CompileValue(q.Pattern)
		if err != nil {
			return nil, invalid(fmt.Sprintf("when.queries[%s]: %s", q.Key, err))
		}
		m.Queries = append(m.Queries, router.CompiledQueryCond{Key: q.Key, Pattern: p, Not: q.Not})
	}
	for _, c := range w.Cookies {
		p, err := pattern.CompileValue(c.Pattern)
		if err != nil {
			return nil, invalid(fmt.Sprintf("when.cookies[%s]: %s", c.Name, err))
		}
		m.Cookies = append(m.Cookies, router.CompiledCookieCond{Name: c.Name, Pattern: p, Not: c.Not})
	}

	return m, nil
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func compileOps(ops []OpConfig, mc *metrics.Collector) ([]router.LoadedOp, error) {
	out := make([]router.LoadedOp, 0, len(ops))
	for _, o := range ops {
		op, err := compileOp(&o, mc)
		if err != nil {
			return nil, err
		}
		out = append(out, *op)
	}
	return out, nil
}

func compileTemplate(src, field string) (*tmpl.Compiled, error) {
	t, err := tmpl.Compile(src)
	if err != nil {
		return nil, invalid(fmt.Sprintf("%s: %s", field, err))
	}
	return t, nil
}

func compileTemplateMap(m map[string]string, field string) (map[string]*tmpl.Compiled, error) {
	out := make(map[string]*tmpl.Compiled, len(m))
	for k, v := range m {
		t, err := compileTemplate(v, field)
		if err != nil {
			return nil, err
		}
		out[k] = t
	}
	return out, nil
}

func compileOp(o *OpConfig, mc *metrics.Collector) (*router.LoadedOp, error) {
	switch o.Op {
	case "set_scheme":
		return &router.LoadedOp{Kind: router.OpSetScheme, Scheme: o.Scheme}, nil
	case "set_host":
		t, err := compileTemplate(o.Value, "set_host.value")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpSetHost, Template: t}, nil
	case "set_port":
		return &router.LoadedOp{Kind: router.OpSetPort, Port: itoaPort(o.Port)}, nil
	case "set_path":
		t, err := compileTemplate(o.Value, "set_path.value")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpSetPath, Template: t}, nil
	case "header_set":
		m, err := compileTemplateMap(o.Headers, "header_set.headers")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpHeaderSet, HeaderMap: m}, nil
	case "header_add":
		m, err := compileTemplateMap(o.Headers, "header_add.headers")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpHeaderAdd, HeaderMap: m}, nil
	case "header_delete":
		return &router.LoadedOp{Kind: router.OpHeaderDelete, HeaderKeys: o.Keys}, nil
	case "header_clear":
		return &router.LoadedOp{Kind: router.OpHeaderClear}, nil
	case "query_set":
		m, err := compileTemplateMap(o.Query, "query_set.query")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpQuerySet, QueryMap: m}, nil
	case "query_add":
		m, err := compileTemplateMap(o.Query, "query_add.query")
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpQueryAdd, QueryMap: m}, nil
	case "query_delete":
		return &router.LoadedOp{Kind: router.OpQueryDelete, QueryKeys: o.Keys}, nil
	case "query_clear":
		return &router.LoadedOp{Kind: router.OpQueryClear}, nil
	case "internal_rewrite":
		return &router.LoadedOp{Kind: router.OpInternalRewrite}, nil
	case "redirect":
		t, err := compileTemplate(o.Location, "redirect.location")
		if err != nil {
			return nil, err
		}
		status := o.Status
		if status == 0 {
			status = 302
		}
		if status != 301 && status != 302 && status != 307 && status != 308 {
			return nil, invalid(fmt.Sprintf("redirect.status must be 301/302/307/308, got %d", status))
		}
		return &router.LoadedOp{Kind: router.OpRedirect, RedirectStatus: status, RedirectLocation: t}, nil
	case "respond":
		hdrs, err := compileTemplateMap(o.Headers, "respond.headers")
		if err != nil {
			return nil, err
		}
		var body *tmpl.Compiled
		if o.Body != "" {
			body, err = compileTemplate(o.Body, "respond.body")
			if err != nil {
				return nil, err
			}
		}
		status := o.Status
		if status == 0 {
			status = 200
		}
		return &router.LoadedOp{Kind: router.OpRespond, RespondStatus: status, RespondHeaders: hdrs, RespondBody: body}, nil
	case "use":
		if o.Use == nil {
			return nil, invalid("use op requires a nested service")
		}
		svc, err := buildService(o.Use, mc)
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpUse, Use: svc}, nil
	case "branch":
		if o.When == nil {
			return nil, invalid("branch op requires `when`")
		}
		cond, err := compileCond(o.When)
		if err != nil {
			return nil, err
		}
		then, err := compileOps(o.Then, mc)
		if err != nil {
			return nil, err
		}
		els, err := compileOps(o.Else, mc)
		if err != nil {
			return nil, err
		}
		return &router.LoadedOp{Kind: router.OpBranch, BranchCond: *cond, BranchThen: then, BranchElse: els}, nil
	default:
		return nil, invalid(fmt.Sprintf("unknown op %q", o.Op))
	}
}

func itoaPort(p int) string {
	if p == 0 {
		return ""
	}
	return fmt.Sprintf("%d", p)
}

func compileCond(c *CondConfig) (*router.CompiledCondNode, error) {
	switch {
	case c.All != nil:
		children, err := compileCondList(c.All)
		if err != nil {
			return nil, err
		}
		return &router.CompiledCondNode{Kind: router.CondAll, Children: children}, nil
	case c.Any != nil:
		children, err := compileCondList(c.Any)
		if err != nil {
			return nil, err
		}
		return &router.CompiledCondNode{Kind: router.CondAny, Children: children}, nil
	case c.Not != nil:
		child, err := compileCond(c.Not)
		if err != nil {
			return nil, err
		}
		return &router.CompiledCondNode{Kind: router.CondNot, Child: child}, nil
	case c.Test != nil:
		return compileTest(c.Test)
	default:
		return nil, invalid("branch condition must set one of all/any/not/test")
	}
}

func compileCondList(list []CondConfig) ([]router.CompiledCondNode, error) {
	out := make([]router.CompiledCondNode, 0, len(list))
	for i := range list {
		c, err := compileCond(&list[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func compileTest(t *TestConfig) (*router.CompiledCondNode, error) {
	n := &router.CompiledCondNode{Kind: router.CondTest, TestVar: t.Var}
	switch {
	case t.Equals != nil:
		n.TestKind = router.TestEquals
		n.TestEquals = *t.Equals
	case t.In != nil:
		n.TestKind = router.TestIn
		n.TestIn = t.In
	case t.Present != nil:
		n.TestKind = router.TestPresent
		n.TestPresent = *t.Present
	case t.Pattern != nil:
		p, err := pattern.CompileValue(*t.Pattern)
		if err != nil {
			return nil, invalid(fmt.Sprintf("test.pattern: %s", err))
		}
		n.TestKind = router.TestPattern
		n.TestPattern = p
	default:
		return nil, invalid("test must set one of equals/in/present/pattern")
	}
	return n, nil
}
