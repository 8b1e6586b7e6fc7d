package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/marque-api/internal/application/session"
	"github.com/marque-api/internal/domain"
	jwtinfra "github.com/marque-api/internal/infrastructure/jwt"
	"github.com/marque-api/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type contextKey string

const (
	IdentityKey  contextKey = "identity"
	PrincipalKey contextKey = "principal"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Identity, error)
}

// SessionAuthenticator resolves operator sessions.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Principal, error)
}

// Auth returns middleware that validates the Bearer JWT and injects the identity into
// context. The token's market is authoritative; X-Market is not consulted here.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				WriteError(w, r, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthenticated))
				return
			}
			id, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				WriteError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, id)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(
				zap.String("market", id.Market.String()),
				zap.Int64("user_id", id.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the verified bearer identity from the request context.
func IdentityFromContext(ctx context.Context) (*jwtinfra.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(*jwtinfra.Identity)
	return id, ok
}

// AdminSession re-authenticates the operator session cookie on every request.
func AdminSession(authn SessionAuthenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				WriteError(w, r, fmt.Errorf("missing session cookie: %w", domain.ErrUnauthenticated))
				return
			}
			p, err := authn.Authenticate(r.Context(), c.Value)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalKey, p)
			ctx = logger.WithContext(ctx, logger.FromContext(ctx).With(
				zap.String("market", p.Session.Market.String()),
				zap.Int64("admin_id", p.Admin.ID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext extracts the authenticated operator from the request context.
func PrincipalFromContext(ctx context.Context) (*session.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*session.Principal)
	return p, ok
}

// RequireSuperAdmin allows only operators flagged as super admins. It must run after AdminSession.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			WriteError(w, r, domain.ErrUnauthenticated)
			return
		}
		if !p.Admin.IsSuperAdmin {
			WriteError(w, r, fmt.Errorf("super admin only: %w", domain.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}
