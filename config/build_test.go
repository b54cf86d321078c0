package config_test

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/config"
	"github.com/edgerouter/edgerouter/domain/router"
)

func testMetrics() *metrics.Collector {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func TestBuildRouterRespondsByPath(t *testing.T) {
	path := writeTemp(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/users/<id:uint>"
        ops:
          - op: respond
            status: 200
            body: "user-${id}"
    next:
      handler: static
      source_dir: /var/www
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	root, err := config.Build(cfg, testMetrics())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req := httptest.NewRequest("GET", "/users/42", nil)
	resp := router.Route(root, req)
	if resp.StatusCode != 200 || string(resp.Body) != "user-42" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestBuildRouterNoMatchFallsThroughToNext(t *testing.T) {
	path := writeTemp(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/admin"
        ops:
          - op: respond
            status: 200
            body: "admin"
    next:
      handler: static
      source_dir: /var/www
      file_404: missing-404.html
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	root, err := config.Build(cfg, testMetrics())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	req := httptest.NewRequest("GET", "/other", nil)
	resp := router.Route(root, req)
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404 (no such file under the static next)", resp.StatusCode)
	}
}

func TestBuildRejectsBadRedirectStatus(t *testing.T) {
	path := writeTemp(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/go"
        ops:
          - op: redirect
            status: 200
            location: "/elsewhere"
    next:
      handler: static
      source_dir: /var/www
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := config.Build(cfg, testMetrics()); err == nil {
		t.Fatal("expected error: redirect status 200 is not a redirect code")
	}
}

func TestBuildBranchOp(t *testing.T) {
	path := writeTemp(t, `
http_server:
  bind: ":8080"
  service:
    handler: router
    rules:
      - when:
          path: "/items/<id:uint>"
        ops:
          - op: branch
            when:
              test:
                var: id
                equals: "1"
            then:
              - op: respond
                status: 200
                body: "first"
            else:
              - op: respond
                status: 200
                body: "other"
    next:
      handler: static
      source_dir: /var/www
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	root, err := config.Build(cfg, testMetrics())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	resp := router.Route(root, httptest.NewRequest("GET", "/items/1", nil))
	if string(resp.Body) != "first" {
		t.Fatalf("body = %q, want first", resp.Body)
	}
	resp2 := router.Route(root, httptest.NewRequest("GET", "/items/2", nil))
	if string(resp2.Body) != "other" {
		t.Fatalf("body = %q, want other", resp2.Body)
	}
}
