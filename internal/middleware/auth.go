package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"loom/internal/auth"
	"loom/internal/httputil"
)

// AuthMiddleware validates bearer tokens on /api routes and stores the user
// ID in the request context. EventSource clients cannot set headers, so a
// GET may carry the token in the access_token query parameter instead.
// Routes outside /api pass through untouched.
func AuthMiddleware(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				logger.Debug("request rejected", "path", r.URL.Path, "error", err)
				httputil.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, httputil.WithUserID(r, claims.GetUserID()))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
