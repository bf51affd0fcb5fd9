package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mirro-social/mirro-auth/internal/api"
	"github.com/mirro-social/mirro-auth/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	authService AuthService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new auth HandlerImpl instance.
func NewHandlerImpl(authService AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		authService: authService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register User
// @Description  Creates a new user account from the signup form fields.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body RegisterRequest true "Registration Parameters"
// @Success      201 {object} MessageResponse "User Registered"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      409 {object} types.Response "Username Taken"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Register"))

	var req RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	err := h.authService.Register(ctx, RegisterParams{
		FullName:    req.FullName,
		Birthday:    req.Birthday,
		Username:    req.Username,
		Password:    req.Password,
		PhoneNumber: req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			l.WarnContext(ctx, "Registration input rejected", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusBadRequest, "Username and password are required")
		case errors.Is(err, types.ErrDuplicateUsername):
			l.WarnContext(ctx, "Registration rejected, duplicate username")
			api.ErrorResponse(w, r, http.StatusConflict, "Username already taken")
		default:
			l.ErrorContext(ctx, "Registration failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, MessageResponse{
		Message: "User registered successfully",
	})
}

// Login godoc
// @Summary      Login
// @Description  Verifies credentials and returns a signed session token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body body LoginRequest true "Login Parameters"
// @Success      200 {object} LoginResponse "Session Token"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Invalid Credentials"
// @Failure      429 {object} types.Response "Too Many Attempts"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	token, user, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUnauthenticated):
			api.ErrorResponse(w, r, http.StatusUnauthorized, InvalidCredentialsMessage)
		case errors.Is(err, types.ErrTooManyAttempts):
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "Too many failed attempts, try again later")
		default:
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, LoginResponse{
		Token: token,
		User:  *user,
	})
}
