package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tiendatttt234/GoGo-Be/internal/auth"
	"github.com/tiendatttt234/GoGo-Be/internal/domain"
	"github.com/tiendatttt234/GoGo-Be/internal/event"
	"github.com/tiendatttt234/GoGo-Be/internal/repository"
	apperrors "github.com/tiendatttt234/GoGo-Be/pkg/errors"
	"github.com/tiendatttt234/GoGo-Be/pkg/ratelimit"
)

// MsgBadCredentials is returned for an unknown email and a wrong password
// alike.
const MsgBadCredentials = "incorrect email or password"

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(p domain.Principal, ttl time.Duration) (string, time.Time, error)
}

// AuthConfig holds the token and throttle settings of the auth service.
type AuthConfig struct {
	TokenTTL time.Duration
	// AttemptLimit is the number of login or register attempts allowed per
	// client in one limiter window. Zero disables throttling.
	AttemptLimit int
}

// RegisterInput holds the parameters for self-registration.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Photo    string
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is a signed token together with the user it was issued for.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService handles registration and login.
type AuthService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	limiter  ratelimit.Limiter
	producer *event.Producer
	cfg      AuthConfig
	logger   *slog.Logger
}

// NewAuthService creates a new auth service. limiter may be nil.
func NewAuthService(
	users repository.UserRepository,
	tokens TokenIssuer,
	limiter ratelimit.Limiter,
	producer *event.Producer,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		limiter:  limiter,
		producer: producer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register creates an account with the user role.
func (s *AuthService) Register(ctx context.Context, clientKey string, input *RegisterInput) (*domain.User, error) {
	if err := s.throttle(ctx, "register:"+clientKey); err != nil {
		return nil, err
	}

	user, err := newUser(input.Username, input.Email, input.Password, input.Photo, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	return user, nil
}

// Login checks credentials and issues an access token.
func (s *AuthService) Login(ctx context.Context, clientKey string, input *LoginInput) (*LoginResult, error) {
	key := "login:" + clientKey
	if err := s.throttle(ctx, key); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthenticated(MsgBadCredentials)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := auth.CheckPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "login failed", slog.String("user_id", user.ID))
		return nil, apperrors.Unauthenticated(MsgBadCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user.Principal(), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "failed to reset login throttle", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) throttle(ctx context.Context, key string) error {
	if s.limiter == nil || s.cfg.AttemptLimit <= 0 {
		return nil
	}

	d := s.limiter.Allow(ctx, key, s.cfg.AttemptLimit)
	if d.Allowed {
		return nil
	}

	retry := d.RetryAfter(time.Now())
	s.logger.WarnContext(ctx, "auth attempt throttled",
		slog.String("key", key),
		slog.Duration("retry_after", retry),
	)
	return apperrors.RateLimited("too many attempts, please try again later").
		WithDetail("retry_after_seconds", strconv.Itoa(int(retry.Round(time.Second).Seconds())))
}
