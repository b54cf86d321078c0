package app

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/config"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "edgerouter.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newTestHandler(t *testing.T, cfgBody string) *routerHandler {
	t.Helper()
	path := writeTempConfig(t, cfgBody)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	holder, err := config.NewHolder(path, zerolog.Nop(), m)
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	return &routerHandler{
		holder:  holder,
		metrics: m,
		logger:  zerolog.Nop(),
	}
}

func TestRouterHandlerServesRespondOp(t *testing.T) {
	h := newTestHandler(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/hello"
        ops:
          - op: respond
            status: 200
            body: "hi there"
    next:
      handler: static
      source_dir: /var/www
`)

	req := httptest.NewRequest("GET", "/hello", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "hi there" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected a generated X-Request-Id header")
	}
}

func TestRouterHandlerPreservesIncomingRequestID(t *testing.T) {
	h := newTestHandler(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/hello"
        ops:
          - op: respond
            status: 200
            body: "hi"
    next:
      handler: static
      source_dir: /var/www
`)

	req := httptest.NewRequest("GET", "/hello", nil)
	req.Header.Set("X-Request-Id", "caller-supplied-id")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "caller-supplied-id" {
		t.Fatalf("X-Request-Id = %q, want the caller-supplied value to be preserved", got)
	}
}
