package router

import (
	"testing"

	"github.com/edgerouter/edgerouter/domain/pattern"
)

func TestMatchRuleHostAndPathCaptures(t *testing.T) {
	host, err := pattern.CompileHost("<sub:label>.example.com")
	if err != nil {
		t.Fatalf("compile host: %v", err)
	}
	path, err := pattern.CompilePath("/users/<id:uint>")
	if err != nil {
		t.Fatalf("compile path: %v", err)
	}
	m := &CompiledMatch{Host: host, Path: path}

	ctx := ctxWithHost("api.example.com")
	ctx.Path = "/users/42"

	if !MatchRule(m, ctx) {
		t.Fatal("expected match")
	}
	if ctx.Captures["sub"] != "api" || ctx.Captures["id"] != "42" {
		t.Errorf("captures = %v", ctx.Captures)
	}
}

func TestMatchRuleHeaderCaptureComesFromFirstMatchingValue(t *testing.T) {
	p, err := pattern.CompileValue("v<n:uint>")
	if err != nil {
		t.Fatalf("compile value: %v", err)
	}
	m := &CompiledMatch{Headers: []CompiledHeaderCond{{Name: "x-ver", Pattern: p}}}

	ctx := ctxWithPath("/")
	ctx.Headers["x-ver"] = []string{"plain", "v7"}

	if !MatchRule(m, ctx) {
		t.Fatal("expected match: second header value satisfies the pattern")
	}
	if ctx.Captures["n"] != "7" {
		t.Errorf("capture must come from the first matching value, got %v", ctx.Captures)
	}
}

func TestMatchRuleNotInvertsHeaderCheck(t *testing.T) {
	p, err := pattern.CompileValue("bot")
	if err != nil {
		t.Fatalf("compile value: %v", err)
	}
	m := &CompiledMatch{Headers: []CompiledHeaderCond{{Name: "x-agent", Pattern: p, Not: true}}}

	ctx := ctxWithPath("/")
	ctx.Headers["x-agent"] = []string{"human"}
	if !MatchRule(m, ctx) {
		t.Fatal("expected match: not-bot header inverted")
	}

	ctx2 := ctxWithPath("/")
	ctx2.Headers["x-agent"] = []string{"bot"}
	if MatchRule(m, ctx2) {
		t.Fatal("expected no match: header is bot")
	}
}

func TestMatchRuleMethodsAndScheme(t *testing.T) {
	m := &CompiledMatch{Scheme: "https", Methods: []string{"GET", "HEAD"}}

	ctx := ctxWithPath("/")
	ctx.Scheme = "https"
	ctx.Method = "GET"
	if !MatchRule(m, ctx) {
		t.Fatal("expected match")
	}

	ctx.Method = "POST"
	if MatchRule(m, ctx) {
		t.Fatal("expected no match: method not in list")
	}
}

func TestMatchRuleCookieAbsentIsTreatedAsEmptyString(t *testing.T) {
	p, err := pattern.CompileValue("<v:any>")
	if err != nil {
		t.Fatalf("compile value: %v", err)
	}
	m := &CompiledMatch{Cookies: []CompiledCookieCond{{Name: "session", Pattern: p}}}

	ctx := ctxWithPath("/")
	if MatchRule(m, ctx) {
		t.Fatal("expected no match: any requires a non-empty string, and an absent cookie is empty")
	}

	ctx.Cookies["session"] = "abc"
	if !MatchRule(m, ctx) {
		t.Fatal("expected match: cookie present with a non-empty value")
	}
}
