package http

import (
	"net/http"
	"strings"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
	"github.com/tiendatttt234/GoGo-Be/pkg/validator"
)

const maxBodyBytes = 1 << 20

// ContentTypeJSON rejects request bodies that are not JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    apperrors.CodeUnsupportedMedia,
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// decode reads and validates a JSON body into dst. On failure it writes the
// 400 response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	return true
}

// principal returns the guard-attached principal, writing a 401 when the
// route was mounted without a guard.
func principal(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.Unauthenticated(auth.MsgNotAuthenticated), nil)
		return domain.Principal{}, false
	}
	return p, true
}
