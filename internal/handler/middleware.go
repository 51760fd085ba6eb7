package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/boddenberg/br-lookup-go/internal/service"
	"go.uber.org/zap"
)

type contextKey string

const adminSubjectKey contextKey = "adminSubject"

// AdminAuthMiddleware validates Bearer tokens carrying the admin role and
// injects the token subject into context.
func AdminAuthMiddleware(auth *service.AdminAuth, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Enabled() {
				writeError(w, http.StatusServiceUnavailable, "admin routes disabled: ADMIN_JWT_SECRET not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("admin: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("admin: invalid token format",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := auth.Validate(parts[1])
			if err != nil {
				logger.Warn("admin: token rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), adminSubjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminSubjectFromContext extracts the authenticated admin subject.
func AdminSubjectFromContext(ctx context.Context) string {
	v, _ := ctx.Value(adminSubjectKey).(string)
	return v
}
