package dto

import (
	"time"

	"github.com/goalfund/goalfund/internal/model"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse returns the user and the bearer token for non-cookie clients.
type AuthResponse struct {
	User      *model.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
