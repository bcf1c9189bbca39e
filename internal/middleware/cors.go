package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// CORSConfig configures cross-origin access for browser clients.
type CORSConfig struct {
	// AllowedOrigins lists permitted origins. An entry may hold one "*",
	// e.g. "https://*.pictora.app". An empty list denies every origin.
	AllowedOrigins []string

	// AllowLocalhost additionally permits http(s)://localhost and 127.0.0.1
	// on any port. Enabled in development.
	AllowLocalhost bool

	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string

	// AllowCredentials lets browsers send the session cookie cross-origin.
	AllowCredentials bool

	// MaxAge is Access-Control-Max-Age in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the defaults used by the API: no origins,
// credentials on, the rate-limit and request-id headers exposed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Accept-Language",
			"Authorization",
			"Content-Type",
			RequestIDHeader,
			TraceIDHeader,
		},
		ExposedHeaders: []string{
			RequestIDHeader,
			"Retry-After",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		AllowCredentials: true,
		MaxAge:           86400,
	}
}

// CORS answers preflight requests and decorates allowed cross-origin
// responses. Preflights never reach the router.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	match := originMatcher(cfg.AllowedOrigins, cfg.AllowLocalhost)
	c := cors.New(cors.Options{
		AllowOriginFunc:  match,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
	return c.Handler
}

// originMatcher compiles the allow list into a predicate. Matching is
// case-insensitive; a "*" entry alone allows every origin.
func originMatcher(allowed []string, allowLocalhost bool) func(string) bool {
	type pattern struct{ prefix, suffix string }

	exact := make(map[string]struct{}, len(allowed))
	var wildcards []pattern
	allowAll := false

	for _, o := range allowed {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "":
		case o == "*":
			allowAll = true
		case strings.Count(o, "*") == 1:
			prefix, suffix, _ := strings.Cut(o, "*")
			wildcards = append(wildcards, pattern{prefix, suffix})
		default:
			exact[o] = struct{}{}
		}
	}

	return func(origin string) bool {
		if allowAll {
			return true
		}
		origin = strings.ToLower(origin)
		if _, ok := exact[origin]; ok {
			return true
		}
		for _, w := range wildcards {
			if len(origin) > len(w.prefix)+len(w.suffix) &&
				strings.HasPrefix(origin, w.prefix) && strings.HasSuffix(origin, w.suffix) {
				return true
			}
		}
		return allowLocalhost && isLocalOrigin(origin)
	}
}

func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
