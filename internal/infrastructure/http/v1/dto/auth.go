package dto

import "ritel/internal/domain/auth"

// LoginRequest carries credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoginResponse carries the issued token and the authenticated user.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// NewLoginResponse builds the login payload.
func NewLoginResponse(token string, u *auth.User) LoginResponse {
	return LoginResponse{
		Token: token,
		User: UserResponse{
			ID:       u.ID.String(),
			Username: u.Username,
			Role:     u.Role,
		},
	}
}
