package app

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgerouter/edgerouter/adapters/metrics"
	"github.com/edgerouter/edgerouter/config"
	"github.com/edgerouter/edgerouter/domain/router"
)

// routerHandler bridges a real *http.Request into the router core,
// instrumenting it with request metrics and an access log line.
type routerHandler struct {
	holder  *config.Holder
	metrics *metrics.Collector
	logger  zerolog.Logger
}

func (h *routerHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	h.metrics.RequestsInFlight.Inc()
	defer h.metrics.RequestsInFlight.Dec()

	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.New().String()
	}

	resp := router.Route(h.holder.Root(), req)

	for k, vals := range resp.Header {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Request-Id", requestID)
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(resp.Body)

	duration := time.Since(start)
	statusLabel := strconv.Itoa(status)
	normPath := metrics.NormalizePath(req.URL.Path)
	h.metrics.RequestsTotal.WithLabelValues(req.Method, normPath, statusLabel).Inc()
	h.metrics.RequestDuration.WithLabelValues(req.Method, normPath, statusLabel).Observe(duration.Seconds())

	h.logger.Info().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", status).
		Dur("duration", duration).
		Msg("request handled")
}
