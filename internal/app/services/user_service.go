package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/auth"
)

// UserService handles user CRUD
type UserService struct {
	repos  *repositories.Repositories
	rules  *integrity.Rules
	logger zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repos *repositories.Repositories, rules *integrity.Rules, logger zerolog.Logger) *UserService {
	return &UserService{
		repos:  repos,
		rules:  rules,
		logger: logger,
	}
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.repos.UserRepository.List(ctx)
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repos.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgUserNotFound)
	}
	return user, nil
}

// Create adds a user directly, bypassing sign up
func (s *UserService) Create(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	user, err := newUser(req, MsgRegisterFieldsRequired)
	if err != nil {
		return nil, err
	}
	if err := s.rules.RequireUniqueEmail(ctx, user.Email, ""); err != nil {
		return nil, err
	}
	if err := s.repos.UserRepository.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(integrity.MsgEmailTaken)
		}
		return nil, fmt.Errorf("user creation error: %w", err)
	}
	return user, nil
}

// Update applies the non nil fields of req
func (s *UserService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Name cannot be empty")
		}
		user.Name = name
	}
	if req.Email != nil && *req.Email != user.Email {
		if *req.Email == "" {
			return nil, apperrors.NewValidationError("Email cannot be empty")
		}
		if err := s.rules.RequireUniqueEmail(ctx, *req.Email, user.ID); err != nil {
			return nil, err
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		if *req.Password == "" {
			return nil, apperrors.NewValidationError("Password cannot be empty")
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("error hashing password: %w", err)
		}
		user.Password = hashed
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		if err := s.rules.RequireRoleChangeAllowed(ctx, user, role); err != nil {
			return nil, err
		}
		user.Role = role
	}
	if req.Age != nil {
		if *req.Age <= 0 {
			return nil, apperrors.NewValidationError("Age must be a positive number")
		}
		user.Age = req.Age
	}
	user.UpdatedAt = now()

	if err := s.repos.UserRepository.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(integrity.MsgEmailTaken)
		}
		return nil, notFound(err, MsgUserNotFound)
	}
	return user, nil
}

// Delete removes a user. Teachers who own courses are refused; a student's
// enrollments and requests go with them.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.RequireUserDeletable(ctx, user); err != nil {
		return err
	}

	if user.IsStudent() {
		if err := s.repos.EnrollmentRepository.DeleteByStudent(ctx, id); err != nil {
			return fmt.Errorf("error removing enrollments: %w", err)
		}
		if err := s.repos.EnrollmentRequestRepository.DeleteByStudent(ctx, id); err != nil {
			return fmt.Errorf("error removing enrollment requests: %w", err)
		}
	}

	if err := s.repos.UserRepository.Delete(ctx, id); err != nil {
		return notFound(err, MsgUserNotFound)
	}
	s.logger.Info().Str("userID", id).Msg("User deleted")
	return nil
}
