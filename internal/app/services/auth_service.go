package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/auth"
	"github.com/yigit/schoolhub/internal/pkg/email"
	"github.com/yigit/schoolhub/internal/pkg/metrics"
)

// Auth reasons
const (
	MsgRegisterFieldsRequired = "Name, email, password, and role are required"
	MsgEmailRegistered        = "Email already registered"
	MsgInvalidLogin           = "Invalid email or password"
	MsgNoUserWithEmail        = "No user with that email"
	MsgResetFieldsRequired    = "Token and new password are required"
	MsgInvalidResetToken      = "Invalid or expired token"
)

// AuthService handles registration, login and password reset
type AuthService struct {
	userRepo   repositories.IUserRepository
	rules      *integrity.Rules
	jwtService *auth.JWTService
	mailer     email.Sender
	baseURL    string
	resetTTL   time.Duration
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService. baseURL is the frontend origin used in reset links.
func NewAuthService(
	userRepo repositories.IUserRepository,
	rules *integrity.Rules,
	jwtService *auth.JWTService,
	mailer email.Sender,
	baseURL string,
	resetTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		rules:      rules,
		jwtService: jwtService,
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		resetTTL:   resetTTL,
		logger:     logger,
	}
}

// Register creates a user from a self service sign up
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	user, err := newUser(req, MsgRegisterFieldsRequired)
	if err != nil {
		return nil, err
	}

	if err := s.rules.RequireUniqueEmail(ctx, user.Email, ""); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.NewConflictError(MsgEmailRegistered)
		}
		return nil, err
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(MsgEmailRegistered)
		}
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Str("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, string, time.Time, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			metrics.ObserveAuth("login", "failure")
			return nil, "", time.Time{}, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, MsgInvalidLogin)
		}
		return nil, "", time.Time{}, fmt.Errorf("error finding user: %w", err)
	}

	if user.Password == "" || !auth.CheckPassword(user.Password, req.Password) {
		metrics.ObserveAuth("login", "failure")
		return nil, "", time.Time{}, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, MsgInvalidLogin)
	}

	token, expiresAt, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	metrics.ObserveAuth("login", "success")
	return user, token, expiresAt, nil
}

// Me returns the user behind the current identity
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, MsgUserNotFound)
	}
	return user, nil
}

// ForgotPassword stores a single use reset token on the user and mails the link
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	user, err := s.userRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NewBadRequestError(MsgNoUserWithEmail)
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateResetToken(user)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, url.QueryEscape(token))
	if err := s.mailer.Send(ctx, user.Email, "Password Reset", email.PasswordResetBody(user.Name, link, s.resetTTL)); err != nil {
		s.logger.Error().Err(err).Str("userID", user.ID).Msg("Failed to send password reset email")
		return fmt.Errorf("error sending reset email: %w", err)
	}

	metrics.ObserveAuth("reset_request", "success")
	return nil
}

// ResetPassword consumes a reset token and replaces the password
func (s *AuthService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	if req.Token == "" || req.NewPassword == "" {
		return apperrors.NewValidationError(MsgResetFieldsRequired)
	}

	invalid := func() error {
		metrics.ObserveAuth("reset", "failure")
		return apperrors.NewBadRequestError(MsgInvalidResetToken)
	}

	claims, err := s.jwtService.ValidateResetToken(req.Token)
	if err != nil {
		return invalid()
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return invalid()
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	if user.ResetPasswordToken == nil || *user.ResetPasswordToken != req.Token ||
		user.ResetPasswordExpires == nil || !user.ResetPasswordExpires.After(time.Now()) {
		return invalid()
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	user.Password = hashed
	user.UpdatedAt = now()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if err := s.userRepo.ClearResetToken(ctx, user.ID); err != nil {
		return fmt.Errorf("error clearing reset token: %w", err)
	}

	metrics.ObserveAuth("reset", "success")
	s.logger.Info().Str("userID", user.ID).Msg("Password reset")
	return nil
}

// newUser validates the sign up fields and builds a user with a hashed password
func newUser(req *dto.RegisterRequest, missingMsg string) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return nil, apperrors.NewValidationError(missingMsg)
	}
	role := models.Role(req.Role)
	if !role.IsValid() {
		return nil, apperrors.NewValidationError(integrity.MsgInvalidRole)
	}
	if req.Age != nil && *req.Age <= 0 {
		return nil, apperrors.NewValidationError("Age must be a positive number")
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	ts := now()
	return &models.User{
		ID:        newID(),
		Name:      name,
		Email:     req.Email,
		Password:  hashed,
		Age:       req.Age,
		Role:      role,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}
