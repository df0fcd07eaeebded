package dto

import "time"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents a user registration request.
// Required fields are checked by the service so the caller gets a single summary message.
type RegisterRequest struct {
	Name     string `json:"name" example:"Jane Doe"`
	Email    string `json:"email" binding:"omitempty,email" example:"jane@school.test"`
	Password string `json:"password" example:"s3cret!"`
	Role     string `json:"role" binding:"omitempty,oneof=student teacher" example:"student"`
	Age      *int   `json:"age,omitempty" binding:"omitempty,min=1" example:"17"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token     string        `json:"token"`
	TokenType string        `json:"tokenType" example:"Bearer"`
	ExpiresAt time.Time     `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// ForgotPasswordRequest starts the password reset flow
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest completes the password reset flow
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}
