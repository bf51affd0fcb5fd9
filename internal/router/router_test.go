package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirro-social/mirro-auth/config"
	"github.com/mirro-social/mirro-auth/internal/api/auth"
	"github.com/mirro-social/mirro-auth/internal/api/user"
	"github.com/mirro-social/mirro-auth/internal/types"
)

// memStore is an in-memory stand-in for the Postgres repos so the full
// register -> login -> me flow can run through the real router, handlers,
// services and JWT middleware without a database.
type memStore struct {
	mu    sync.Mutex
	users map[string]*types.UserRecord
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*types.UserRecord)}
}

func (s *memStore) GetUserByUsername(_ context.Context, username string) (*types.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, types.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *memStore) CreateUser(_ context.Context, params auth.CreateUserParams) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[params.Username]; exists {
		return uuid.Nil, types.ErrDuplicateUsername
	}
	now := time.Now()
	u := &types.UserRecord{
		ID:           uuid.New(),
		Username:     params.Username,
		PasswordHash: params.PasswordHash,
		FullName:     params.FullName,
		Birthday:     params.Birthday,
		PhoneNumber:  params.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[params.Username] = u
	return u.ID, nil
}

func (s *memStore) GetUserByID(_ context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == userID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, types.ErrNotFound
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.Default()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SecretKey: "router-test-secret",
			TokenTTL:  time.Hour,
			Issuer:    "mirro-auth",
			Audience:  "mirro-app",
		},
		Auth: config.AuthConfig{
			BcryptCost:       4,
			MaxLoginAttempts: 10,
			ThrottleWindow:   time.Minute,
		},
	}

	store := newMemStore()
	authService := auth.NewAuthService(store, cfg, logger)
	userService := user.NewUserService(store, logger)

	router := SetupRouter(&Config{
		AuthHandler:            auth.NewHandlerImpl(authService, logger),
		UserHandler:            user.NewHandlerImpl(userService, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, cfg.JWT),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func getWithToken(t *testing.T, server *httptest.Server, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestAuthFlow(t *testing.T) {
	server := newTestServer(t)

	registerPayload := auth.RegisterRequest{
		FullName: "Ada Lovelace",
		Birthday: "1815-12-10",
		Username: "ada",
		Password: "Secr3t!pass",
		Phone:    "+44123456789",
	}

	t.Run("RegisterNewUser", func(t *testing.T) {
		resp := postJSON(t, server, "/api/register", registerPayload)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "User registered successfully", body["message"])
	})

	t.Run("RegisterDuplicateUsername", func(t *testing.T) {
		resp := postJSON(t, server, "/api/register", registerPayload)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	var token string

	t.Run("LoginWithValidCredentials", func(t *testing.T) {
		resp := postJSON(t, server, "/api/login", auth.LoginRequest{
			Username: "ada",
			Password: "Secr3t!pass",
		})
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		tok, ok := body["token"].(string)
		require.True(t, ok)
		require.NotEmpty(t, tok)
		token = tok

		userObj, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ada", userObj["username"])
	})

	t.Run("FailedLoginsAreIndistinguishable", func(t *testing.T) {
		wrongPassword := postJSON(t, server, "/api/login", auth.LoginRequest{
			Username: "ada",
			Password: "not-the-password",
		})
		unknownUser := postJSON(t, server, "/api/login", auth.LoginRequest{
			Username: "nobody",
			Password: "Secr3t!pass",
		})

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
		assert.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
		assert.Equal(t, readBody(t, wrongPassword), readBody(t, unknownUser))
	})

	t.Run("MeWithValidToken", func(t *testing.T) {
		require.NotEmpty(t, token)

		resp := getWithToken(t, server, "/api/me", token)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "ada", body["username"])
		assert.Equal(t, "Ada Lovelace", body["fullName"])
		assert.NotContains(t, body, "password_hash")
	})

	t.Run("MeWithoutToken", func(t *testing.T) {
		resp := getWithToken(t, server, "/api/me", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("MeWithGarbageToken", func(t *testing.T) {
		resp := getWithToken(t, server, "/api/me", "not.a.jwt")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Ping", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ping")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", string(readBody(t, resp)))
	})
}
