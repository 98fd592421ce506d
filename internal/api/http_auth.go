package api

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"innkeeper/internal/config"
)

// HTTPAuth provides API-key auth and per-key rate limiting for HTTP endpoints.
type HTTPAuth struct {
	cfg     config.APIConfig
	keys    *keyring
	limiter *RateLimiter
}

func NewHTTPAuth(cfg config.APIConfig, limiter *RateLimiter) *HTTPAuth {
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateLimit)
	}
	return &HTTPAuth{cfg: cfg, keys: newKeyring(cfg.Auth), limiter: limiter}
}

// Require guards next with the key check for permission and the rate limit.
func (a *HTTPAuth) Require(permission string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.Auth.Enabled {
			_, err := a.keys.authenticate(r.Header.Get(a.keys.headerAPIKey), r.Header.Get(a.keys.headerExtra), permission)
			if err != nil {
				statusCode := http.StatusUnauthorized
				if errors.Is(err, errPermissionDenied) {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if !a.limiter.Allow(a.clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.keys.headerAPIKey)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return clientKeyUnknown
}
