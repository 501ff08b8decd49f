// Package auth is the identity gate: user credentials, JWT issue/verify and
// the login operation. It is a thin adapter in front of the core, not an IAM.
package auth

import (
	"context"

	"ritel/internal/core/apperror"
	corectx "ritel/internal/core/context"
	"ritel/internal/core/entity"
)

// User is a staff account able to sign in.
type User struct {
	entity.BaseEntity

	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password_hash" json:"-"`
	Role         string `db:"role" json:"role"`
	Active       bool   `db:"active" json:"active"`
}

// NewUser creates an active user; the password hash is set separately.
func NewUser(username, role string) *User {
	return &User{
		BaseEntity: entity.NewBaseEntity(),
		Username:   username,
		Role:       role,
		Active:     true,
	}
}

// Validate implements entity.Validatable.
func (u *User) Validate(ctx context.Context) error {
	if u.Username == "" {
		return apperror.NewValidation("username is required").
			WithDetail("field", "username")
	}
	if u.Role != corectx.RoleAdmin && u.Role != corectx.RoleStaff {
		return apperror.NewValidation("unknown role").
			WithDetail("role", u.Role)
	}
	return nil
}

// Repository defines user persistence.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
