package users

import "github.com/mvalenz/bazario-backend/pkg/enums"

// RegisterInput captures a new account request.
type RegisterInput struct {
	Name     string         `json:"name" validate:"required,min=2,max=100"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     enums.UserRole `json:"role" validate:"required"`
}

// LoginInput captures a credential check.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
