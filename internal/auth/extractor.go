package auth

import (
	"net/http"
	"strings"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
)

// CookieName is the cookie that carries the access token for browser clients.
const CookieName = "accessToken"

// Verifier turns a raw token into a principal.
type Verifier interface {
	Verify(token string) (domain.Principal, error)
}

// Extractor locates the access token on a request and verifies it. The
// accessToken cookie takes precedence over the Authorization header.
type Extractor struct {
	verifier Verifier
}

// NewExtractor creates an extractor that delegates verification to v.
func NewExtractor(v Verifier) *Extractor {
	return &Extractor{verifier: v}
}

// Extract returns the verified principal for r, or a *TokenError.
func (e *Extractor) Extract(r *http.Request) (domain.Principal, error) {
	token, ok := TokenFromRequest(r)
	if !ok {
		return domain.Principal{}, ErrMissingToken
	}
	return e.verifier.Verify(token)
}

// TokenFromRequest returns the raw token and whether one was present. An
// empty cookie or a non-Bearer Authorization value counts as absent.
func TokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
