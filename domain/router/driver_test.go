package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgerouter/edgerouter/domain/pattern"
	"github.com/edgerouter/edgerouter/domain/tmpl"
)

type stubService struct {
	resp *RouterResponse
}

func (s *stubService) ServeHTTPService(ctx *RouterCtx, req *http.Request) *RouterResponse {
	return s.resp
}

func mustTemplate(t *testing.T, src string) *tmpl.Compiled {
	t.Helper()
	c, err := tmpl.Compile(src)
	if err != nil {
		t.Fatalf("compile template %q: %v", src, err)
	}
	return c
}

func newReq(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	return req
}

func TestServeHTTPServiceNoRulesNoNextIs404(t *testing.T) {
	r := &LoadedRouter{MaxSteps: 16}
	resp := Route(r, newReq(t, "GET", "/anything"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServeHTTPServiceRespondOp(t *testing.T) {
	pathPat := compilePathOrFail(t, "/hello")
	r := &LoadedRouter{
		MaxSteps: 16,
		Rules: []LoadedRule{
			{
				When: CompiledMatch{Path: pathPat},
				Ops: []LoadedOp{
					{Kind: OpRespond, RespondStatus: 200, RespondBody: mustTemplate(t, "hi there")},
				},
			},
		},
	}
	resp := Route(r, newReq(t, "GET", "/hello"))
	if resp.StatusCode != 200 || string(resp.Body) != "hi there" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestServeHTTPServiceOnMatchStopDelegatesToNext(t *testing.T) {
	pathPat := compilePathOrFail(t, "/stop-here")
	next := &stubService{resp: &RouterResponse{StatusCode: 201, Body: []byte("from next")}}
	r := &LoadedRouter{
		MaxSteps: 16,
		Next:     next,
		Rules: []LoadedRule{
			{
				When:    CompiledMatch{Path: pathPat},
				Ops:     []LoadedOp{{Kind: OpSetScheme, Scheme: "https"}},
				OnMatch: OnMatchStop,
			},
		},
	}
	resp := Route(r, newReq(t, "GET", "/stop-here"))
	if resp.StatusCode != 201 || string(resp.Body) != "from next" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestServeHTTPServiceOnMatchContinueFallsThroughToNextRule(t *testing.T) {
	pathPat := compilePathOrFail(t, "/multi")
	r := &LoadedRouter{
		MaxSteps: 16,
		Rules: []LoadedRule{
			{
				When:    CompiledMatch{Path: pathPat},
				Ops:     []LoadedOp{{Kind: OpSetScheme, Scheme: "https"}},
				OnMatch: OnMatchContinue,
			},
			{
				When: CompiledMatch{Path: pathPat},
				Ops:  []LoadedOp{{Kind: OpRespond, RespondStatus: 200, RespondBody: mustTemplate(t, "${scheme}")}},
			},
		},
	}
	resp := Route(r, newReq(t, "GET", "/multi"))
	if resp.StatusCode != 200 || string(resp.Body) != "https" {
		t.Fatalf("resp = %+v, expected scheme set by first rule to be visible to the second", resp)
	}
}

func TestServeHTTPServiceInternalRewriteRestartsWithLoopDetection(t *testing.T) {
	pathPat := compilePathOrFail(t, "/loop")
	r := &LoadedRouter{
		MaxSteps: 3,
		Rules: []LoadedRule{
			{
				When: CompiledMatch{Path: pathPat},
				Ops:  []LoadedOp{{Kind: OpInternalRewrite}},
			},
		},
	}
	resp := Route(r, newReq(t, "GET", "/loop"))
	if resp.StatusCode != http.StatusLoopDetected {
		t.Fatalf("status = %d, want 508", resp.StatusCode)
	}
}

func TestServeHTTPServiceBranchOpChoosesThenOrElse(t *testing.T) {
	pathPat := compilePathOrFail(t, "/branch/<id:uint>")
	cond := CompiledCondNode{
		Kind:     CondTest,
		TestVar:  "id",
		TestKind:   TestEquals,
		TestEquals: "9",
	}
	r := &LoadedRouter{
		MaxSteps: 16,
		Rules: []LoadedRule{
			{
				When: CompiledMatch{Path: pathPat},
				Ops: []LoadedOp{
					{
						Kind:       OpBranch,
						BranchCond: cond,
						BranchThen: []LoadedOp{{Kind: OpRespond, RespondStatus: 200, RespondBody: mustTemplate(t, "then:${id}")}},
						BranchElse: []LoadedOp{{Kind: OpRespond, RespondStatus: 200, RespondBody: mustTemplate(t, "else")}},
					},
				},
			},
		},
	}
	resp := Route(r, newReq(t, "GET", "/branch/9"))
	if string(resp.Body) != "then:9" {
		t.Fatalf("body = %q, want then:9", resp.Body)
	}
	resp = Route(r, newReq(t, "GET", "/branch/8"))
	if string(resp.Body) != "else" {
		t.Fatalf("body = %q, want else", resp.Body)
	}
}

func compilePathOrFail(t *testing.T, raw string) *pattern.Compiled {
	t.Helper()
	p, err := pattern.CompilePath(raw)
	if err != nil {
		t.Fatalf("compile path %q: %v", raw, err)
	}
	return p
}
