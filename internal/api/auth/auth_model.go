package auth

import "github.com/mirro-social/mirro-auth/internal/types"

// InvalidCredentialsMessage is the single message returned for every failed
// credential check. Unknown username and wrong password must be
// indistinguishable to the caller.
const InvalidCredentialsMessage = "Invalid username or password"

// RegisterRequest represents the register request body.
type RegisterRequest struct {
	FullName string `json:"fullName"`
	Birthday string `json:"birthday"`
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response body.
type LoginResponse struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

// MessageResponse is the generic body for simple success messages.
type MessageResponse struct {
	Message string `json:"message"`
}
