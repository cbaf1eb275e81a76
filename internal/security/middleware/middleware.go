package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/yourorg/projectflow/internal/featureflags"
	"github.com/yourorg/projectflow/internal/guard"
	"github.com/yourorg/projectflow/internal/observability/metrics"
	"github.com/yourorg/projectflow/internal/security/audit"
	"github.com/yourorg/projectflow/internal/security/ratelimit"
	"github.com/yourorg/projectflow/internal/session"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID assigns a request id to every request and echoes it in the
// X-Request-Id header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFrom returns the request id stored by RequestID, or empty.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// CORS applies the gateway's allowed-origin policy. A "*" entry allows
// any origin.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, allowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return false
}

// RateLimit rejects callers that exceed the limiter's budget with 429.
func RateLimit(limiter *ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ratelimit.ClientKey(r)
			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Maintenance short-circuits the authenticated surface while the
// maintenance flag is set. Public routes keep serving from cache.
func Maintenance(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if featureflags.Enabled(featureflags.Maintenance) {
			if route, ok := guard.Match(r.URL.Path); !ok || !route.Public {
				w.Header().Set("Retry-After", "300")
				http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionSource exposes the current operator session to the guard.
type SessionSource interface {
	Snapshot() session.AuthState
}

// Guard enforces the navigation rules on every request. Public routes pass
// through; a restore still in flight answers 503 so the caller retries;
// unauthenticated and wrong-role requests are redirected, carrying the
// attempted path so login can send the user back.
func Guard(sessions SessionSource, auditor *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := guard.Match(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			state := sessions.Snapshot()
			decision := guard.Decide(state, route)
			metrics.ObserveGuardDecision(decision.Kind.String())

			switch decision.Kind {
			case guard.Allow:
				next.ServeHTTP(w, r)
			case guard.Wait:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session restore in progress", http.StatusServiceUnavailable)
			case guard.RedirectLogin:
				redirect(w, r, decision)
			case guard.RedirectDefault:
				actor := ""
				if state.User != nil {
					actor = state.User.Email
				}
				auditor.Denied(actor, decision.AttemptedPath, "role not permitted")
				redirect(w, r, decision)
			}
		})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, d guard.Decision) {
	target := d.RedirectTo
	if d.AttemptedPath != "" {
		target += "?from=" + url.QueryEscape(d.AttemptedPath)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
