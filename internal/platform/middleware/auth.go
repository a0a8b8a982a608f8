package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	dErrors "brokerage/pkg/domainerrors"
	"brokerage/pkg/platform/httputil"
	"brokerage/pkg/requestcontext"
)

// TokenValidator verifies a bearer token and returns the embedded claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims is the subset of JWT claims the gate cares about.
type TokenClaims struct {
	UserID string
	Role   string
}

// SubjectLoader resolves the token subject against the user store. The role
// attached to the request context is the stored one, not the token's, so a
// role change takes effect without waiting for token expiry.
type SubjectLoader interface {
	LoadSubject(ctx context.Context, userID string) (role string, err error)
}

// RequireAuth authenticates the bearer credential and attaches the subject to
// the request context. Any failure (missing, malformed, expired, unknown
// subject) rejects with 401 and stops handler execution.
func RequireAuth(validator TokenValidator, subjects SubjectLoader, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized - missing bearer token",
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authorized to access this route"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authorized to access this route"))
				return
			}

			role, err := subjects.LoadSubject(ctx, claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized - unknown subject",
					"user_id", claims.UserID,
					"request_id", requestcontext.RequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authorized to access this route"))
				return
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithUserRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles authorizes the authenticated subject against a route's allowed
// role set. Must run after RequireAuth.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := requestcontext.UserRole(r.Context())
			if _, ok := allowed[role]; !ok {
				httputil.WriteError(w, dErrors.Newf(dErrors.CodeForbidden,
					"user role %s is not authorized to access this route", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
