package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware sets Cross-Origin Resource Sharing headers. The status
// page is meant to be read and embedded from anywhere, so with no
// configured origins every origin may read, without credentials. When
// CORS_ALLOWED_ORIGINS narrows the audience, matching origins are echoed
// back and credentialed requests are permitted.
type CORSMiddleware struct {
	allowed map[string]bool // nil means allow all
}

// NewCORSMiddleware builds the middleware from a list of allowed origins.
// An empty list, or a "*" entry, allows all origins.
func NewCORSMiddleware(allowedOrigins []string) *CORSMiddleware {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if origin == "*" {
			return &CORSMiddleware{}
		}
		allowed[origin] = true
	}
	if len(allowed) == 0 {
		return &CORSMiddleware{}
	}
	return &CORSMiddleware{allowed: allowed}
}

// Wrap adds CORS headers to cross-origin requests and answers preflights
func (c *CORSMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			c.setHeaders(w, origin)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (c *CORSMiddleware) setHeaders(w http.ResponseWriter, origin string) {
	h := w.Header()
	switch {
	case c.allowed == nil:
		h.Set("Access-Control-Allow-Origin", "*")
	case c.allowed[strings.TrimSuffix(origin, "/")]:
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Add("Vary", "Origin")
	default:
		return
	}
	h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
	h.Set("Access-Control-Max-Age", "86400")
}
