package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/centsai/internal/apperror"
	"github.com/mmynk/centsai/internal/auth"
	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	UserID   int64
	Token    string
	Username string
}

// AuthService handles account registration and login.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account and issues a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	s.logger.InfoContext(ctx, "Register request", "email", email)

	if err := s.authenticator.ValidateCredential(password); err != nil {
		return nil, apperror.NewBadRequest(err.Error(), err)
	}

	user, err := s.authenticator.Register(ctx, email, username, password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			s.logger.WarnContext(ctx, "Registration rejected", "email", email, "error", err)
			return nil, apperror.NewConflict(err.Error(), err)
		case errors.Is(err, auth.ErrWeakPassword):
			return nil, apperror.NewBadRequest(err.Error(), err)
		}
		s.logger.ErrorContext(ctx, "Registration failed", "email", email, "error", err)
		return nil, apperror.NewInternal("registration failed", err)
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User registered successfully", "user_id", user.ID, "email", user.Email)
	return result, nil
}

// Login verifies credentials and issues a token.
// An unknown email and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.logger.InfoContext(ctx, "Login request", "email", email)

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.WarnContext(ctx, "Login failed", "email", email)
			return nil, apperror.NewUnauthorized(auth.ErrInvalidCredentials.Error(), err)
		}
		s.logger.ErrorContext(ctx, "Login failed", "email", email, "error", err)
		return nil, apperror.NewInternal("login failed", err)
	}

	result, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "User logged in successfully", "user_id", user.ID)
	return result, nil
}

// CurrentUser returns the account of the authenticated caller.
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	userID, err := RequireCaller(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NewNotFound("user not found", err)
	}
	if err != nil {
		return nil, apperror.NewInternal("failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperror.NewInternal("failed to issue token", err)
	}
	return &AuthResult{UserID: user.ID, Token: token, Username: user.Username}, nil
}
