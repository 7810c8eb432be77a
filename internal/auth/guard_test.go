package auth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
)

func issue(t *testing.T, codec *TokenCodec, p domain.Principal) string {
	t.Helper()
	token, _, err := codec.Issue(p, time.Hour)
	require.NoError(t, err)
	return token
}

// --- Extractor ---

func TestExtractor_CookieWinsOverHeader(t *testing.T) {
	codec, _ := newTestCodec()
	cookieUser := domain.Principal{ID: "cookie-user", Username: "c", Role: domain.RoleUser}
	headerUser := domain.Principal{ID: "header-user", Username: "h", Role: domain.RoleAdmin}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, codec, cookieUser)})
	req.Header.Set("Authorization", "Bearer "+issue(t, codec, headerUser))

	got, err := NewExtractor(codec).Extract(req)

	require.NoError(t, err)
	assert.Equal(t, cookieUser, got)
}

func TestExtractor_InvalidCookieDoesNotFallBack(t *testing.T) {
	codec, _ := newTestCodec()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	req.Header.Set("Authorization", "Bearer "+issue(t, codec, samplePrincipal()))

	_, err := NewExtractor(codec).Extract(req)

	assert.Equal(t, KindMalformed, KindOf(err))
}

func TestExtractor_HeaderFallback(t *testing.T) {
	codec, _ := newTestCodec()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, codec, samplePrincipal()))

	got, err := NewExtractor(codec).Extract(req)

	require.NoError(t, err)
	assert.Equal(t, samplePrincipal(), got)
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		setCookie bool
		cookie    string
		header    string
		want      string
		found     bool
	}{
		{"nothing", false, "", "", "", false},
		{"empty cookie counts as absent", true, "", "Bearer abc", "abc", true},
		{"basic scheme ignored", false, "", "Basic dXNlcjpwYXNz", "", false},
		{"lowercase bearer", false, "", "bearer abc", "abc", true},
		{"bearer without token", false, "", "Bearer ", "", false},
		{"scheme only", false, "", "Bearer", "", false},
		{"cookie only", true, "tok", "", "tok", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.setCookie {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			got, found := TokenFromRequest(req)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- Guard ---

func newTestGuard(codec *TokenCodec) (*Guard, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewGuard(NewExtractor(codec), l), &buf
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		httputil.WriteData(w, http.StatusOK, p)
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	assert.False(t, resp.Success)
	return resp.Error
}

func TestGuard_RequireAuthenticated(t *testing.T) {
	codec, clock := newTestCodec()
	expired := issue(t, codec, samplePrincipal())
	clock.Advance(2 * time.Hour)
	valid := issue(t, codec, samplePrincipal())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing token", "", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, _ := newTestGuard(codec)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reviews/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			guard.RequireAuthenticated(principalEcho()).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				errResp := decodeError(t, rec)
				assert.Equal(t, "UNAUTHENTICATED", errResp.Code)
				assert.Equal(t, MsgNotAuthenticated, errResp.Message)
			}
		})
	}
}

func TestGuard_RequireElevated(t *testing.T) {
	codec, _ := newTestCodec()
	admin := domain.Principal{ID: "a-1", Username: "admin", Role: domain.RoleAdmin}

	t.Run("admin passes", func(t *testing.T) {
		guard, _ := newTestGuard(codec)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tours", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, codec, admin)})
		rec := httptest.NewRecorder()

		guard.RequireElevated(principalEcho()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user is forbidden", func(t *testing.T) {
		guard, logs := newTestGuard(codec)
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tours", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: issue(t, codec, samplePrincipal())})
		rec := httptest.NewRecorder()

		guard.RequireElevated(next).ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		errResp := decodeError(t, rec)
		assert.Equal(t, "FORBIDDEN", errResp.Code)
		assert.Equal(t, MsgAdminRequired, errResp.Message)
		assert.Contains(t, logs.String(), "access denied")
	})

	t.Run("missing token is unauthenticated, not forbidden", func(t *testing.T) {
		guard, logs := newTestGuard(codec)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tours", nil)
		rec := httptest.NewRecorder()

		guard.RequireElevated(principalEcho()).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Code)
		assert.Contains(t, logs.String(), string(KindMissingToken))
	})
}

func TestGuard_NeverLogsToken(t *testing.T) {
	codec, _ := newTestCodec()
	guard, logs := newTestGuard(codec)
	other := NewTokenCodec("some-other-secret-value-for-signing")
	token := issue(t, other, samplePrincipal())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	guard.RequireAuthenticated(principalEcho()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, logs.String(), string(KindSignatureInvalid))
	assert.NotContains(t, logs.String(), token)
}

func TestGuard_HeadersCannotForgeIdentity(t *testing.T) {
	codec, _ := newTestCodec()
	guard, _ := newTestGuard(codec)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-User-ID", "a-1")
	req.Header.Set("X-User-Role", "admin")
	rec := httptest.NewRecorder()

	guard.RequireElevated(principalEcho()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
