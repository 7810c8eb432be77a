package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/service"
	"github.com/tiendatttt234/GoGo-Be/pkg/httputil"
	"github.com/tiendatttt234/GoGo-Be/pkg/middleware"
)

// CookieConfig controls the access token cookie.
type CookieConfig struct {
	Secure bool
}

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service    *service.AuthService
	cookie     CookieConfig
	trustProxy bool
	logger     *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, cookie CookieConfig, trustProxy bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:    svc,
		cookie:     cookie,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for registration.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Photo    string `json:"photo" validate:"omitempty,httpurl"`
}

// LoginRequest is the JSON request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the login success body. The token is also set as the
// accessToken cookie.
type LoginResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Data    *domain.User `json:"data"`
	Role    domain.Role  `json:"role"`
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), middleware.ClientIP(r, h.trustProxy), &service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Photo:    req.Photo,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{
		Success: true,
		Message: "successfully created",
		Data:    user,
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), middleware.ClientIP(r, h.trustProxy), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	http.SetCookie(w, h.tokenCookie(res.Token, res.ExpiresAt))
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "successfully logged in",
		Token:   res.Token,
		Data:    res.User,
		Role:    res.User.Role,
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	c := h.tokenCookie("", time.Unix(0, 0))
	c.MaxAge = -1
	http.SetCookie(w, c)
	httputil.WriteMessage(w, http.StatusOK, "successfully logged out")
}

func (h *AuthHandler) tokenCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
