package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/metrics"
)

// MsgEnrollmentFieldsRequired is returned when a create names no course or no student
const MsgEnrollmentFieldsRequired = "Course and student are required"

// EnrollmentService handles the enrollment ledger
type EnrollmentService struct {
	repo   repositories.IEnrollmentRepository
	rules  *integrity.Rules
	logger zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService
func NewEnrollmentService(repo repositories.IEnrollmentRepository, rules *integrity.Rules, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		repo:   repo,
		rules:  rules,
		logger: logger,
	}
}

// List returns the whole ledger
func (s *EnrollmentService) List(ctx context.Context) ([]*models.Enrollment, error) {
	return s.repo.List(ctx)
}

// Get returns one ledger row
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgEnrollmentNotFound)
	}
	return enrollment, nil
}

// Create enrolls a student in a course
func (s *EnrollmentService) Create(ctx context.Context, req *dto.CreateEnrollmentRequest) (*models.Enrollment, error) {
	if req.Course == "" || req.Student == "" {
		return nil, apperrors.NewValidationError(MsgEnrollmentFieldsRequired)
	}
	return s.enroll(ctx, req.Course, req.Student)
}

// enroll runs the ledger integrity rules and writes the row
func (s *EnrollmentService) enroll(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	if _, err := s.rules.RequireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if _, err := s.rules.RequireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if err := s.rules.RequireNotEnrolled(ctx, courseID, studentID, ""); err != nil {
		return nil, err
	}

	ts := now()
	enrollment := &models.Enrollment{
		ID:        newID(),
		CourseID:  courseID,
		StudentID: studentID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(integrity.MsgAlreadyEnrolled)
		}
		return nil, fmt.Errorf("enrollment creation error: %w", err)
	}

	metrics.ObserveEnrollment("create")
	s.logger.Info().Str("courseID", courseID).Str("studentID", studentID).Msg("Student enrolled")
	return enrollment, nil
}

// Update moves an enrollment to another course and/or student
func (s *EnrollmentService) Update(ctx context.Context, id string, req *dto.UpdateEnrollmentRequest) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Course != nil {
		if _, err := s.rules.RequireCourse(ctx, *req.Course); err != nil {
			return nil, err
		}
		enrollment.CourseID = *req.Course
	}
	if req.Student != nil {
		if _, err := s.rules.RequireStudent(ctx, *req.Student); err != nil {
			return nil, err
		}
		enrollment.StudentID = *req.Student
	}
	if err := s.rules.RequireNotEnrolled(ctx, enrollment.CourseID, enrollment.StudentID, enrollment.ID); err != nil {
		return nil, err
	}
	enrollment.UpdatedAt = now()

	if err := s.repo.Update(ctx, enrollment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(integrity.MsgAlreadyEnrolled)
		}
		return nil, notFound(err, MsgEnrollmentNotFound)
	}
	metrics.ObserveEnrollment("update")
	return enrollment, nil
}

// Delete removes a ledger row
func (s *EnrollmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err, MsgEnrollmentNotFound)
	}
	metrics.ObserveEnrollment("delete")
	return nil
}
