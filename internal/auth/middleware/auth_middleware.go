// Package middleware authenticates API requests with the bearer tokens issued
// at login and gates routes by role.
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"stockroom/internal/auth/token"
	apperrors "stockroom/internal/errors"
	"stockroom/internal/httpx"
)

type TokenParser interface {
	Parse(tokenString string) (*token.Claims, error)
}

type Authenticator struct {
	parser TokenParser
	logger *zap.Logger
}

func NewAuthenticator(parser TokenParser, logger *zap.Logger) *Authenticator {
	return &Authenticator{parser: parser, logger: logger}
}

// Authenticate rejects requests without a valid "Bearer <token>" header and
// stores the claims in the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID, logger := httpx.Trace(r, a.logger)

		header := r.Header.Get("Authorization")
		if header == "" {
			httpx.WriteError(w, traceID, apperrors.NewUnauthorizedError("Authorization header required"), logger)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httpx.WriteError(w, traceID, apperrors.NewUnauthorizedError("format: Bearer <token>"), logger)
			return
		}

		claims, err := a.parser.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			httpx.WriteError(w, traceID, apperrors.NewUnauthorizedError("Invalid or expired token"), logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(token.WithClaims(r.Context(), claims)))
	})
}

// RequireRole lets the request through when the authenticated role is one of roles.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasRole(r, roles) {
				traceID, l := httpx.Trace(r, logger)
				httpx.WriteError(w, traceID, apperrors.NewForbiddenError("Insufficient permissions"), l)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRoleForWrites applies RequireRole to every method except GET, HEAD and OPTIONS.
func RequireRoleForWrites(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	guard := RequireRole(logger, roles...)
	return func(next http.Handler) http.Handler {
		guarded := guard(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}

func hasRole(r *http.Request, roles []string) bool {
	claims, ok := token.FromContext(r.Context())
	if !ok {
		return false
	}
	for _, role := range roles {
		if claims.Role == role {
			return true
		}
	}
	return false
}
