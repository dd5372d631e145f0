package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"dealdesk/internal/auth"
	"dealdesk/internal/httputil"
	"dealdesk/internal/service/access"
)

// Auth validates the Bearer token on every request and stores the
// authenticated user ID in the request context. It also installs the
// per-request permission decision cache so repeated evaluations within
// one request hit memoized results.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health check stays open for load balancer probes
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("token verification failed",
					"path", r.URL.Path,
					"method", r.Method,
				)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			r = httputil.WithUserID(r, claims.GetUserID())
			r = r.WithContext(access.WithDecisionCache(r.Context()))

			next.ServeHTTP(w, r)
		})
	}
}
