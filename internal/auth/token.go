package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
)

// DefaultTokenTTL is the lifetime of an access token when none is configured.
const DefaultTokenTTL = 15 * 24 * time.Hour

const issuer = "gogo-api"

// TokenErrorKind classifies why a token was rejected.
type TokenErrorKind string

// Token failure kinds.
const (
	KindMissingToken     TokenErrorKind = "missing_token"
	KindExpired          TokenErrorKind = "expired"
	KindMalformed        TokenErrorKind = "malformed"
	KindSignatureInvalid TokenErrorKind = "signature_invalid"
)

// TokenError is returned for every token that is absent or fails verification.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
	}
	return "token " + string(e.Kind)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is matches any TokenError with the same Kind.
func (e *TokenError) Is(target error) bool {
	var t *TokenError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel token errors, comparable with errors.Is.
var (
	ErrMissingToken     = &TokenError{Kind: KindMissingToken}
	ErrTokenExpired     = &TokenError{Kind: KindExpired}
	ErrTokenMalformed   = &TokenError{Kind: KindMalformed}
	ErrSignatureInvalid = &TokenError{Kind: KindSignatureInvalid}
)

// KindOf returns the failure kind of err, or "" when err is not a TokenError.
func KindOf(err error) TokenErrorKind {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// Claims represents the JWT claims for an access token.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec issues and verifies HS256 access tokens. It never consults a
// store: verification is a function of the token, the secret and the clock.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec creates a codec signing with secret. The secret is copied and
// never changes after construction.
func NewTokenCodec(secret string, opts ...CodecOption) *TokenCodec {
	c := &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs a token for p that expires ttl from now.
func (c *TokenCodec) Issue(p domain.Principal, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("issue token: ttl must be positive, got %s", ttl)
	}
	if !p.Role.IsValid() {
		return "", time.Time{}, fmt.Errorf("issue token: invalid role %q", p.Role)
	}

	now := c.now().UTC()
	expiresAt := ceilSecond(now.Add(ttl))
	claims := &Claims{
		ID:       p.ID,
		Username: p.Username,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the token's signature and expiry and returns the principal
// it carries. A token is expired at and after its exp instant.
func (c *TokenCodec) Verify(tokenString string) (domain.Principal, error) {
	if tokenString == "" {
		return domain.Principal{}, ErrMissingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return domain.Principal{}, classify(err)
	}

	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Principal{}, &TokenError{Kind: KindMalformed, Err: err}
	}
	if claims.ID == "" {
		return domain.Principal{}, &TokenError{Kind: KindMalformed, Err: errors.New("missing id claim")}
	}

	return domain.Principal{ID: claims.ID, Username: claims.Username, Role: role}, nil
}

// ceilSecond rounds t up to the next whole second. exp is encoded in whole
// seconds, so rounding down would expire a token before its ttl ran out.
func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return &TokenError{Kind: KindSignatureInvalid, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: KindExpired, Err: err}
	default:
		return &TokenError{Kind: KindMalformed, Err: err}
	}
}
