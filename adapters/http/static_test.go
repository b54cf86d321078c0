package http_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	adapterhttp "github.com/edgerouter/edgerouter/adapters/http"
	"github.com/edgerouter/edgerouter/domain/router"
)

func mustWriteFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestStaticServesExistingFile(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, dir, "hello.txt", "hi")

	s := adapterhttp.NewStatic(dir, "", "")
	ctx := &router.RouterCtx{Path: "/hello.txt"}
	resp := s.ServeHTTPService(ctx, httptest.NewRequest("GET", "/hello.txt", nil))

	if resp.StatusCode != 200 || string(resp.Body) != "hi" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestStaticAppendsIndexOnTrailingSlash(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, dir, "index.html", "welcome")

	s := adapterhttp.NewStatic(dir, "", "")
	ctx := &router.RouterCtx{Path: "/"}
	resp := s.ServeHTTPService(ctx, httptest.NewRequest("GET", "/", nil))

	if resp.StatusCode != 200 || string(resp.Body) != "welcome" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestStaticFallsBackTo404File(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, dir, "404.html", "not here")

	s := adapterhttp.NewStatic(dir, "", "")
	ctx := &router.RouterCtx{Path: "/missing.txt"}
	resp := s.ServeHTTPService(ctx, httptest.NewRequest("GET", "/missing.txt", nil))

	if resp.StatusCode != 404 || string(resp.Body) != "not here" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestStaticRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	mustWriteFile(t, dir, "404.html", "not here")
	outside := filepath.Join(filepath.Dir(dir), "secret.txt")
	if err := os.WriteFile(outside, []byte("top secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}
	defer os.Remove(outside)

	s := adapterhttp.NewStatic(dir, "", "")
	ctx := &router.RouterCtx{Path: "/../secret.txt"}
	resp := s.ServeHTTPService(ctx, httptest.NewRequest("GET", "/../secret.txt", nil))

	if resp.StatusCode != 404 {
		t.Fatalf("resp = %+v, want 404 (traversal must not escape source_dir)", resp)
	}
	if string(resp.Body) == "top secret" {
		t.Fatal("path traversal leaked a file outside source_dir")
	}
}

func TestStaticFallsBackToLiteralWhen404FileMissingToo(t *testing.T) {
	dir := t.TempDir()

	s := adapterhttp.NewStatic(dir, "", "")
	ctx := &router.RouterCtx{Path: "/missing.txt"}
	resp := s.ServeHTTPService(ctx, httptest.NewRequest("GET", "/missing.txt", nil))

	if resp.StatusCode != 404 || string(resp.Body) != "404 Not Found" {
		t.Fatalf("resp = %+v", resp)
	}
}
