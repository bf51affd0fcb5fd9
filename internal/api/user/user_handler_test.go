package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mirro-social/mirro-auth/internal/api/auth"
	"github.com/mirro-social/mirro-auth/internal/types"
)

// MockUserService is a mock implementation of the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserRecord), args.Error(1)
}

func getMe(handler *HandlerImpl, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if userID != "" {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
		req = req.WithContext(ctx)
	}
	w := httptest.NewRecorder()
	handler.GetMe(w, req)
	return w
}

func TestGetMeHandler(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, logger)

		userID := uuid.New()
		mockService.On("GetUserProfile", mock.Anything, userID).
			Return(&types.UserRecord{
				ID:           userID,
				Username:     "ada",
				PasswordHash: "$2a$10$hash",
				FullName:     "Ada Lovelace",
			}, nil).Once()

		w := getMe(handler, userID.String())

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ada", body["username"])
		assert.Equal(t, "Ada Lovelace", body["fullName"])
		// The hash must never be serialized.
		assert.NotContains(t, w.Body.String(), "$2a$10$hash")
		mockService.AssertExpectations(t)
	})

	t.Run("MissingContext", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, logger)

		w := getMe(handler, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		mockService.AssertNotCalled(t, "GetUserProfile")
	})

	t.Run("InvalidUserID", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, logger)

		w := getMe(handler, "not-a-uuid")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "GetUserProfile")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, logger)

		userID := uuid.New()
		mockService.On("GetUserProfile", mock.Anything, userID).
			Return(nil, types.ErrNotFound).Once()

		w := getMe(handler, userID.String())

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})
}
