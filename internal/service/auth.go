package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/goalfund/goalfund/internal/auth"
	"github.com/goalfund/goalfund/internal/metrics"
	"github.com/goalfund/goalfund/internal/model"
	"github.com/goalfund/goalfund/internal/session"
	"github.com/goalfund/goalfund/internal/store"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause.
var ErrInvalidCredentials = fmt.Errorf("invalid username or password: %w", model.ErrUnauthenticated)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxFullNameLength = 100
	maxImageURLLength = 2048
)

// RegisterInput is the data needed to open an account.
type RegisterInput struct {
	Username     string
	Password     string
	FullName     string
	Email        string
	ProfileImage string
}

// AuthResult is a user with a freshly issued session token.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// AuthService registers users and manages their sessions.
type AuthService struct {
	users    store.Users
	sessions *session.Manager
	hasher   *auth.PasswordHasher
	metrics  metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates an AuthService.
func NewAuthService(users store.Users, sessions *session.Manager, hasher *auth.PasswordHasher, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		metrics:  recorder,
		logger:   logger.With("component", "auth"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.ProfileImage = strings.TrimSpace(in.ProfileImage)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		ProfileImage: in.ProfileImage,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user_registered", "user_id", user.ID)
	return s.startSession(ctx, user)
}

// Login checks credentials and issues a session. Unknown users and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("get user: %w", err)
		}
		// Spend the same hashing cost as a real check.
		_, _ = s.hasher.Verify(password, s.dummy())
		s.metrics.IncAuthFailure("unknown_user")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash unreadable", "user_id", user.ID, "error", err)
		s.metrics.IncAuthFailure("bad_hash")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.metrics.IncAuthFailure("bad_password")
		return nil, ErrInvalidCredentials
	}

	return s.startSession(ctx, user)
}

// Logout revokes the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, store.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: account no longer exists", model.ErrUnauthenticated)
	}
	return user, err
}

func (s *AuthService) startSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: sess.ExpiresAt}, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equalizer")
	})
	return s.dummyHash
}

func validateRegistration(in RegisterInput) error {
	switch {
	case !usernameRegex.MatchString(in.Username):
		return model.NewValidationError("username", "must be 3-50 letters, digits, dots, dashes or underscores")
	case len(in.Password) < minPasswordLength:
		return model.NewValidationError("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	case len(in.Password) > maxPasswordLength:
		return model.NewValidationError("password", "is too long")
	case in.FullName == "":
		return model.NewValidationError("fullName", "is required")
	case len(in.FullName) > maxFullNameLength:
		return model.NewValidationError("fullName", "is too long")
	case len(in.ProfileImage) > maxImageURLLength:
		return model.NewValidationError("profileImage", "is too long")
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil || addr.Address != in.Email {
		return model.NewValidationError("email", "must be a valid email address")
	}
	return nil
}
