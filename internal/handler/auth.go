package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/handler/dto"
	"github.com/goalfund/goalfund/internal/middleware"
	"github.com/goalfund/goalfund/internal/service"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	errorResponder
	svc    *service.AuthService
	cookie CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = middleware.DefaultSessionCookie
	}
	return &AuthHandler{
		errorResponder: errorResponder{logger: logger},
		svc:            svc,
		cookie:         cookie,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username:     req.Username,
		Password:     req.Password,
		FullName:     req.FullName,
		Email:        req.Email,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusCreated, toAuthResponse(res))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "username and password are required")
		return
	}

	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, res.Token, res.ExpiresAt)
	writeJSON(w, http.StatusOK, toAuthResponse(res))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r, h.cookie.Name)
	if err := h.svc.Logout(r.Context(), token); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.setSessionCookie(w, "", time.Unix(0, 0))
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	c := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if token == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

func toAuthResponse(res *service.AuthResult) *dto.AuthResponse {
	return &dto.AuthResponse{User: res.User, Token: res.Token, ExpiresAt: res.ExpiresAt}
}
