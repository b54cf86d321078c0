package router

import (
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// FromRequest builds a fresh RouterCtx from an inbound request. Header
// names are folded to lowercase; cookie values are percent-decoded on
// ingest (and never re-encoded on emission, see ApplyToRequest).
func FromRequest(req *http.Request) *RouterCtx {
	host, port := hostAndPort(req)
	headers := collectHeaders(req)

	return &RouterCtx{
		Method:   strings.ToUpper(req.Method),
		Scheme:   schemeOf(req),
		Host:     host,
		Port:     port,
		Path:     req.URL.Path,
		Query:    parseQuery(req.URL.RawQuery),
		Headers:  headers,
		Cookies:  parseCookies(headers["cookie"]),
		Captures: map[string]string{},
	}
}

func schemeOf(req *http.Request) string {
	if req.URL.Scheme != "" {
		return strings.ToLower(req.URL.Scheme)
	}
	if req.TLS != nil {
		return "https"
	}
	return "http"
}

func hostAndPort(req *http.Request) (string, string) {
	h := req.URL.Host
	if h == "" {
		h = req.Host
	}
	if h == "" {
		return "", ""
	}
	if idx := strings.LastIndexByte(h, ':'); idx >= 0 && !strings.Contains(h[idx+1:], "]") {
		return h[:idx], h[idx+1:]
	}
	return h, ""
}

func parseQuery(raw string) *QueryMultiMap {
	out := NewQueryMultiMap()
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, val, _ := strings.Cut(pair, "=")
		out.Add(key, val)
	}
	return out
}

func collectHeaders(req *http.Request) map[string][]string {
	out := map[string][]string{}
	for name, vals := range req.Header {
		key := strings.ToLower(name)
		for _, v := range vals {
			if !utf8.ValidString(v) {
				continue
			}
			out[key] = append(out[key], v)
		}
	}
	if req.Host != "" {
		// net/http strips Host into req.Host rather than req.Header.
		if _, ok := out["host"]; !ok {
			out["host"] = []string{req.Host}
		}
	}
	return out
}

func parseCookies(raws []string) map[string]string {
	out := map[string]string{}
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ";") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, v, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			decoded, err := url.QueryUnescape(strings.TrimSpace(v))
			if err != nil {
				decoded = strings.TrimSpace(v)
			}
			out[strings.TrimSpace(k)] = decoded
		}
	}
	return out
}

// ApplyToRequest writes ctx's host/path/query back onto req before
// handing off to a downstream service, mirroring apply_ctx_to_request:
// the Host header is written only when non-empty, and the query
// string is rebuilt WITHOUT url-encoding, since op values are assumed
// already encoded by whoever produced them.
func ApplyToRequest(ctx *RouterCtx, req *http.Request) {
	if ctx.Host != "" {
		req.Host = ctx.Host
		req.URL.Host = ctx.Host
	}

	req.URL.Path = ctx.Path

	if ctx.Query.Len() == 0 {
		req.URL.RawQuery = ""
		return
	}
	var b strings.Builder
	first := true
	ctx.Query.Each(func(k string, vals []string) {
		for _, v := range vals {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	})
	req.URL.RawQuery = b.String()
}
