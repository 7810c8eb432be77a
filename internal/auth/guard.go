package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
	"github.com/tiendatttt234/GoGo-Be/pkg/logger"
)

type contextKey struct{}

// Messages returned to clients by the guards.
const (
	MsgNotAuthenticated = "not authenticated"
	MsgAdminRequired    = "admin privileges required"
)

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// PrincipalFromContext returns the principal placed on the context by a guard.
func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(domain.Principal)
	return p, ok
}

// Guard provides the authenticated and elevated access policies as chi
// middleware. Both run the extractor first and short-circuit on failure.
type Guard struct {
	extractor *Extractor
	logger    *slog.Logger
}

// NewGuard creates a guard backed by extractor.
func NewGuard(extractor *Extractor, logger *slog.Logger) *Guard {
	return &Guard{extractor: extractor, logger: logger}
}

// RequireAuthenticated admits any request carrying a valid token.
func (g *Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireElevated admits only principals with the admin role. A missing or
// invalid token is 401; a valid non-admin token is 403.
func (g *Guard) RequireElevated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, p, ok := g.authenticate(w, r)
		if !ok {
			return
		}
		if !p.IsAdmin() {
			g.log(r.Context()).WarnContext(r.Context(), "access denied",
				slog.String("kind", apperrors.CodeForbidden),
				slog.String("path", r.URL.Path),
			)
			httputil.WriteError(w, r, apperrors.Forbidden(MsgAdminRequired), g.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Guard) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, domain.Principal, bool) {
	p, err := g.extractor.Extract(r)
	if err != nil {
		g.log(r.Context()).WarnContext(r.Context(), "authentication failed",
			slog.String("kind", string(KindOf(err))),
			slog.String("path", r.URL.Path),
		)
		httputil.WriteError(w, r, apperrors.Unauthenticated(MsgNotAuthenticated), g.logger)
		return r, domain.Principal{}, false
	}

	ctx := WithPrincipal(r.Context(), p)
	ctx = logger.WithUserID(ctx, p.ID)
	ctx = logger.WithRole(ctx, string(p.Role))
	if l := logger.FromContext(ctx); l != slog.Default() {
		ctx = logger.NewContext(ctx, l.With(
			slog.String("user_id", p.ID),
			slog.String("role", string(p.Role)),
		))
	}
	return r.WithContext(ctx), p, true
}

// log prefers the request-scoped logger over the guard's own.
func (g *Guard) log(ctx context.Context) *slog.Logger {
	if l := logger.FromContext(ctx); l != slog.Default() {
		return l
	}
	return g.logger
}
