package pattern

import "testing"

func TestCompilePathSegmentCapture(t *testing.T) {
	c, err := CompilePath("/users/<id:uint>/posts/<slug>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !c.IsMatch("/users/42/posts/hello-world") {
		t.Fatalf("expected match")
	}
	caps, ok := c.CapturesMap("/users/42/posts/hello-world")
	if !ok {
		t.Fatalf("expected captures")
	}
	if caps["id"] != "42" || caps["slug"] != "hello-world" {
		t.Fatalf("unexpected captures: %#v", caps)
	}
	if c.IsMatch("/users/not-a-number/posts/x") {
		t.Fatalf("uint type should reject non-digits")
	}
}

func TestCompilePathTailOnly(t *testing.T) {
	c, err := CompilePath("/static/<rest:path>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	caps, ok := c.CapturesMap("/static/css/app.css")
	if !ok {
		t.Fatalf("expected match")
	}
	if caps["rest"] != "css/app.css" {
		t.Fatalf("unexpected capture: %q", caps["rest"])
	}
}

func TestCompilePathTailOnlyMustBeLast(t *testing.T) {
	_, err := CompilePath("/static/<rest:path>/extra")
	if err == nil {
		t.Fatalf("expected error for trailing literal after tail-only placeholder")
	}
}

func TestCompilePathDuplicateCapture(t *testing.T) {
	_, err := CompilePath("/a/<id>/b/<id>")
	if err == nil {
		t.Fatalf("expected duplicate capture error")
	}
}

func TestCompileHostLabelsAsterisk(t *testing.T) {
	c, err := CompileHost("api.<rest:*>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	caps, ok := c.CapturesMap("api.a.b.example.com")
	if !ok {
		t.Fatalf("expected match")
	}
	if caps["rest"] != "a.b.example.com" {
		t.Fatalf("unexpected capture: %q", caps["rest"])
	}
}

func TestCompileValueRegex(t *testing.T) {
	c, err := CompileValue(`Bearer <token:regex([A-Za-z0-9._-]+)>`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	caps, ok := c.CapturesMap("Bearer abc.123-xyz")
	if !ok {
		t.Fatalf("expected match")
	}
	if caps["token"] != "abc.123-xyz" {
		t.Fatalf("unexpected capture: %q", caps["token"])
	}
}

func TestCompileAnonymousPlaceholderNotCaptured(t *testing.T) {
	c, err := CompilePath("/users/<:uint>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	caps, ok := c.CapturesMap("/users/42")
	if !ok {
		t.Fatalf("expected match")
	}
	if len(caps) != 0 {
		t.Fatalf("expected no captures, got %#v", caps)
	}
}

func TestCompileValueSlugAllowsUnderscoreAndUppercase(t *testing.T) {
	c, err := CompileValue("<s:slug>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	caps, ok := c.CapturesMap("My_Slug-123")
	if !ok {
		t.Fatalf("expected slug to accept letters, digits, underscore and hyphen")
	}
	if caps["s"] != "My_Slug-123" {
		t.Fatalf("unexpected capture: %q", caps["s"])
	}
}

func TestCompileValueAnyRejectsEmptyString(t *testing.T) {
	c, err := CompileValue("<v:any>")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if c.IsMatch("") {
		t.Fatalf("any must require a non-empty string")
	}
	if !c.IsMatch("x") {
		t.Fatalf("any should match any non-empty string")
	}
}

func TestParseCallBasics(t *testing.T) {
	name, args, err := ParseCall(`regex("a,b", 'c\'d')`)
	if err != nil {
		t.Fatalf("parse call: %v", err)
	}
	if name != "regex" {
		t.Fatalf("unexpected name: %q", name)
	}
	if len(args) != 2 || args[0] != "a,b" || args[1] != "c'd" {
		t.Fatalf("unexpected args: %#v", args)
	}
}
