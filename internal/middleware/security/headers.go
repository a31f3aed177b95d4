// Package security sets response hardening headers and flags probe traffic.
package security

import (
	"net/http"
	"strconv"
)

// HeadersConfig lists the hardening headers sent on every response.
// Empty values are skipped.
type HeadersConfig struct {
	CSP                 string
	FrameOptions        string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
	CacheControl        string

	// HSTSMaxAge in seconds. Zero disables Strict-Transport-Security.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// DefaultHeadersConfig suits a JSON API that serves no documents of its
// own. Responses carry money figures, so nothing is cached.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		FrameOptions:          "DENY",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

type HeadersMiddleware struct {
	static  [][2]string
	hsts    string
	isHTTPS func(*http.Request) bool
}

// NewHeadersMiddleware precomputes the header set. isHTTPS decides when
// HSTS is sent; nil checks r.TLS only.
func NewHeadersMiddleware(cfg HeadersConfig, isHTTPS func(*http.Request) bool) *HeadersMiddleware {
	h := &HeadersMiddleware{isHTTPS: isHTTPS}
	if h.isHTTPS == nil {
		h.isHTTPS = func(r *http.Request) bool { return r.TLS != nil }
	}

	add := func(name, value string) {
		if value != "" {
			h.static = append(h.static, [2]string{name, value})
		}
	}
	add("X-Content-Type-Options", "nosniff")
	add("X-Frame-Options", cfg.FrameOptions)
	add("Content-Security-Policy", cfg.CSP)
	add("Referrer-Policy", cfg.ReferrerPolicy)
	add("Permissions-Policy", cfg.PermissionsPolicy)
	add("Cross-Origin-Opener-Policy", cfg.CrossOriginOpener)
	add("Cross-Origin-Resource-Policy", cfg.CrossOriginResource)
	add("Cache-Control", cfg.CacheControl)

	if cfg.HSTSMaxAge > 0 {
		h.hsts = "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		for _, kv := range h.static {
			headers.Set(kv[0], kv[1])
		}
		if h.hsts != "" && h.isHTTPS(r) {
			headers.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}
