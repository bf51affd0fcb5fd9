package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/mirro-social/mirro-auth/app/observability/metrics"
	"github.com/mirro-social/mirro-auth/config"
	"github.com/mirro-social/mirro-auth/internal/types"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for credential operations.
type AuthService interface {
	// Register hashes the password and creates a new user record.
	Register(ctx context.Context, params RegisterParams) error

	// Login verifies credentials and mints a signed session token.
	// Unknown username and wrong password are indistinguishable in the
	// returned error.
	Login(ctx context.Context, username, password string) (string, *types.PublicUser, error)
}

// RegisterParams carries the signup form fields. Password is plaintext
// here and nowhere below this layer.
type RegisterParams struct {
	FullName    string
	Birthday    string
	Username    string
	Password    string
	PhoneNumber string
}

// dummyPasswordHash is compared against when the username is unknown so
// that both login failure paths cost one bcrypt comparison.
var dummyPasswordHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger   *slog.Logger
	repo     AuthRepo
	cfg      *config.Config
	throttle *loginThrottle
}

// NewAuthService creates a new auth service instance.
func NewAuthService(repo AuthRepo, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		repo:     repo,
		cfg:      cfg,
		throttle: newLoginThrottle(cfg.Auth.MaxLoginAttempts, throttleWindow(cfg)),
	}
}

func throttleWindow(cfg *config.Config) time.Duration {
	if cfg.Auth.ThrottleWindow <= 0 {
		return 15 * time.Minute
	}
	return cfg.Auth.ThrottleWindow
}

func (s *AuthServiceImpl) bcryptCost() int {
	if s.cfg.Auth.BcryptCost < bcrypt.MinCost {
		return 10
	}
	return s.cfg.Auth.BcryptCost
}

func (s *AuthServiceImpl) tokenTTL() time.Duration {
	if s.cfg.JWT.TokenTTL == 0 {
		return 7 * 24 * time.Hour
	}
	return s.cfg.JWT.TokenTTL
}

// Register hashes the password and creates a new user record.
func (s *AuthServiceImpl) Register(ctx context.Context, params RegisterParams) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.username", params.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"), slog.String("username", params.Username))
	start := time.Now()
	m := metrics.Get()
	defer func() {
		m.RegisterDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if params.Username == "" {
		m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("invalid"))
		return fmt.Errorf("%w: username must not be empty", types.ErrValidation)
	}
	if params.Password == "" {
		m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("invalid"))
		return fmt.Errorf("%w: password must not be empty", types.ErrValidation)
	}

	// Fresh random salt per password; bcrypt embeds it in the hash.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost())
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to hash password")
		m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("error"))
		return fmt.Errorf("%w: failed to hash password", types.ErrInternal)
	}

	_, err = s.repo.CreateUser(ctx, CreateUserParams{
		Username:     params.Username,
		PasswordHash: string(hashedPassword),
		FullName:     params.FullName,
		Birthday:     params.Birthday,
		PhoneNumber:  params.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, types.ErrDuplicateUsername) {
			l.WarnContext(ctx, "Registration rejected, username already taken")
			span.SetStatus(codes.Error, "Duplicate username")
			m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("duplicate"))
			return types.ErrDuplicateUsername
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user")
		m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("error"))
		return fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered successfully")
	span.SetStatus(codes.Ok, "User registered")
	m.RegisterRequestsTotal.Add(ctx, 1, resultAttr("success"))
	return nil
}

// Login verifies credentials and mints a signed session token.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, *types.PublicUser, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("username", username))
	start := time.Now()
	m := metrics.Get()
	defer func() {
		m.LoginDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	if s.throttle.blocked(username) {
		l.WarnContext(ctx, "Login throttled, too many failed attempts")
		span.SetStatus(codes.Error, "Throttled")
		m.LoginRequestsTotal.Add(ctx, 1, resultAttr("throttled"))
		return "", nil, types.ErrTooManyAttempts
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			// Burn a comparison so the unknown-user path costs the same
			// as a wrong password. Result is discarded on purpose.
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			s.throttle.recordFailure(username)
			l.WarnContext(ctx, "Login failed, unknown username")
			span.SetStatus(codes.Error, "Invalid credentials")
			m.LoginRequestsTotal.Add(ctx, 1, resultAttr("invalid"))
			return "", nil, types.ErrUnauthenticated
		}
		l.ErrorContext(ctx, "Failed to look up user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Store lookup failed")
		m.LoginRequestsTotal.Add(ctx, 1, resultAttr("error"))
		return "", nil, fmt.Errorf("error fetching user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.throttle.recordFailure(username)
		l.WarnContext(ctx, "Login failed, password mismatch")
		span.SetStatus(codes.Error, "Invalid credentials")
		m.LoginRequestsTotal.Add(ctx, 1, resultAttr("invalid"))
		return "", nil, types.ErrUnauthenticated
	}

	token, err := s.generateSessionToken(user)
	if err != nil {
		l.ErrorContext(ctx, "Failed to sign session token", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Token signing failed")
		m.LoginRequestsTotal.Add(ctx, 1, resultAttr("error"))
		return "", nil, fmt.Errorf("%w: failed to sign session token", types.ErrInternal)
	}

	s.throttle.reset(username)
	l.InfoContext(ctx, "Login successful")
	span.SetStatus(codes.Ok, "Login successful")
	m.LoginRequestsTotal.Add(ctx, 1, resultAttr("success"))

	return token, &types.PublicUser{ID: user.ID, Username: user.Username}, nil
}

// generateSessionToken mints an HS256 JWT carrying the user's identity
// claims, expiring tokenTTL after issuance.
func (s *AuthServiceImpl) generateSessionToken(user *types.UserRecord) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		UserID:   user.ID.String(),
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.cfg.JWT.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.JWT.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// resultAttr labels a counter increment with the request outcome.
func resultAttr(result string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("result", result))
}
