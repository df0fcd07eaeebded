package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/logger"
)

// Denial reasons
const (
	MsgForbidden    = "Access denied"
	MsgNotOwner     = "Only the course teacher can perform this action"
	MsgNotSelf      = "You can only modify your own account"
	MsgNotSelfQuery = "You can only view your own data"
)

// Authorize is nil when identity holds one of roles. An empty roles list
// admits any authenticated identity.
func Authorize(identity *Identity, roles ...models.Role) error {
	if identity == nil {
		return apperrors.NewForbiddenError(MsgForbidden)
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if identity.Role == role {
			return nil
		}
	}
	return apperrors.NewForbiddenError(MsgForbidden)
}

// RequireSelf allows an identity to act only on its own user record
func RequireSelf(identity *Identity, userID string) error {
	if identity == nil || identity.UserID != userID {
		return apperrors.NewForbiddenError(MsgNotSelf)
	}
	return nil
}

// RequireSelfQuery is RequireSelf for per-user read views
func RequireSelfQuery(identity *Identity, userID string) error {
	if identity == nil || identity.UserID != userID {
		return apperrors.NewForbiddenError(MsgNotSelfQuery)
	}
	return nil
}

// AuthorizationService handles ownership checks that need the stores
type AuthorizationService struct {
	courseRepo repositories.ICourseRepository
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(courseRepo repositories.ICourseRepository) *AuthorizationService {
	return &AuthorizationService{
		courseRepo: courseRepo,
	}
}

// CanModifyCourse reports whether userID teaches the course
func (s *AuthorizationService) CanModifyCourse(ctx context.Context, courseID, userID string) (bool, error) {
	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return false, apperrors.NewResourceNotFoundError("Course not found")
		}
		logger.Error().Err(err).Str("courseID", courseID).Msg("Error getting course in CanModifyCourse")
		return false, fmt.Errorf("error loading course: %w", err)
	}
	return course.TeacherID == userID, nil
}

// ValidateCourseOwnership returns Forbidden unless userID teaches the course
func (s *AuthorizationService) ValidateCourseOwnership(ctx context.Context, courseID, userID string) error {
	ok, err := s.CanModifyCourse(ctx, courseID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbiddenError(MsgNotOwner)
	}
	return nil
}
