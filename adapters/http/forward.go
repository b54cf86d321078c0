package http

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/domain/router"
)

// Forward proxies requests to a fixed upstream host/port/scheme using
// net/http/httputil.ReverseProxy, with a transport tuned for idle
// connection reuse (bounded per-host pool, bounded idle timeout).
type Forward struct {
	proxy   *httputil.ReverseProxy
	metrics *metrics.Collector
}

// NewForward builds a Forward handler targeting scheme://host:port,
// recording upstream duration/error metrics against m.
func NewForward(scheme, host string, port int, m *metrics.Collector) *Forward {
	target := &url.URL{Scheme: scheme, Host: hostPort(host, port)}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}

	f := &Forward{metrics: m}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.Transport = transport
	proxy.ErrorHandler = f.handleProxyError

	f.proxy = proxy
	return f
}

func hostPort(host string, port int) string {
	if port == 0 {
		return host
	}
	return host + ":" + strconv.Itoa(port)
}

func (f *Forward) handleProxyError(w http.ResponseWriter, _ *http.Request, err error) {
	if f.metrics != nil {
		f.metrics.UpstreamErrors.WithLabelValues(upstreamErrorType(err)).Inc()
	}
	w.WriteHeader(http.StatusBadGateway)
}

func upstreamErrorType(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "transport"
}

func (f *Forward) ServeHTTPService(ctx *router.RouterCtx, req *http.Request) *router.RouterResponse {
	router.ApplyToRequest(ctx, req)

	start := time.Now()
	rec := httptest.NewRecorder()
	f.proxy.ServeHTTP(rec, req)
	result := rec.Result()
	defer result.Body.Close()

	if f.metrics != nil {
		f.metrics.UpstreamDuration.WithLabelValues(strconv.Itoa(result.StatusCode)).Observe(time.Since(start).Seconds())
	}

	body := rec.Body.Bytes()

	return &router.RouterResponse{
		StatusCode: result.StatusCode,
		Header:     result.Header,
		Body:       body,
	}
}
