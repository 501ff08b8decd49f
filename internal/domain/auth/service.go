package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"ritel/internal/core/apperror"
	"ritel/pkg/logger"
)

// Service implements login and user management.
type Service struct {
	repo   Repository
	tokens *TokenService
}

// NewService creates an auth service.
func NewService(repo Repository, tokens *TokenService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login verifies credentials and returns a signed token.
// The same UNAUTHORIZED error covers unknown users, wrong passwords and
// deactivated accounts, so responses don't leak which one it was.
func (s *Service) Login(ctx context.Context, username, password string) (string, *User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewUnauthorized("invalid credentials")
		}
		return "", nil, err
	}
	if !u.Active {
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, apperror.NewInternal(err)
	}

	logger.Info(ctx, "user logged in", "username", username, "role", u.Role)
	return token, u, nil
}

// CreateUser registers a new user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, role string) (*User, error) {
	u := NewUser(username, role)
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	if existing, err := s.repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperror.NewDuplicate("user", "username", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	u.PasswordHash = string(hash)

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword sets a new password for a user.
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	if len(newPassword) < 8 {
		return apperror.NewValidation("password must be at least 8 characters").
			WithDetail("field", "password")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternal(err)
	}
	return s.repo.UpdatePassword(ctx, username, string(hash))
}

// VerifyToken validates a token string and returns its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}
