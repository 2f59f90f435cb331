package server

import (
	"net/http"
	"slices"
	"strings"
)

// SecurityConfig controls response headers and input limits.
type SecurityConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	AllowedMethods []string
	// MaxNValue caps N on /factor and /periods. The transform cost grows
	// with N², so the cap is far below what the simulator accepts.
	MaxNValue int
	// MaxExploreLimit caps the limit parameter of /periods.
	MaxExploreLimit int
}

// DefaultSecurityConfig allows N up to 511, a 2^18 amplitude register.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:      true,
		AllowedOrigins:  []string{"*"},
		AllowedMethods:  []string{"GET", "OPTIONS"},
		MaxNValue:       511,
		MaxExploreLimit: 20,
	}
}

// SecurityMiddleware sets hardening headers, answers CORS preflights and
// tags allowed origins.
//
// Parameters:
//   - config: The security headers to set.
//   - next: The handler to protect.
//
// Returns:
//   - http.HandlerFunc: The wrapped handler.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			origin := r.Header.Get("Origin")
			allowed := ""
			switch {
			case slices.Contains(config.AllowedOrigins, "*"):
				allowed = "*"
			case origin != "" && slices.Contains(config.AllowedOrigins, origin):
				allowed = origin
				h.Add("Vary", "Origin")
			}
			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type, Accept")
				h.Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next(w, r)
	}
}
