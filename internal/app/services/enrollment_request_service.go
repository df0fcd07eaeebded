package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
)

// Enrollment request reasons
const (
	MsgRequestPending  = "Enrollment request already pending"
	MsgRequestDecided  = "Request already decided"
	MsgInvalidDecision = "Decision must be approved or rejected"
)

// EnrollmentRequestService lets students apply for courses and teachers decide
type EnrollmentRequestService struct {
	repos       *repositories.Repositories
	rules       *integrity.Rules
	authz       *auth.AuthorizationService
	enrollments *EnrollmentService
	logger      zerolog.Logger
}

// NewEnrollmentRequestService creates a new EnrollmentRequestService
func NewEnrollmentRequestService(
	repos *repositories.Repositories,
	rules *integrity.Rules,
	authz *auth.AuthorizationService,
	enrollments *EnrollmentService,
	logger zerolog.Logger,
) *EnrollmentRequestService {
	return &EnrollmentRequestService{
		repos:       repos,
		rules:       rules,
		authz:       authz,
		enrollments: enrollments,
		logger:      logger,
	}
}

// Submit files a pending request for studentID to join courseID
func (s *EnrollmentRequestService) Submit(ctx context.Context, studentID, courseID string) (*models.EnrollmentRequest, error) {
	if _, err := s.rules.RequireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if _, err := s.rules.RequireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if err := s.rules.RequireNotEnrolled(ctx, courseID, studentID, ""); err != nil {
		return nil, err
	}

	if _, err := s.repos.EnrollmentRequestRepository.FindPending(ctx, courseID, studentID); err == nil {
		return nil, apperrors.NewConflictError(MsgRequestPending)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("error checking pending requests: %w", err)
	}

	ts := now()
	request := &models.EnrollmentRequest{
		ID:        newID(),
		CourseID:  courseID,
		StudentID: studentID,
		Status:    models.RequestPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.repos.EnrollmentRequestRepository.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.NewConflictError(MsgRequestPending)
		}
		return nil, fmt.Errorf("enrollment request creation error: %w", err)
	}
	return request, nil
}

// List returns requests, optionally only those of studentID
func (s *EnrollmentRequestService) List(ctx context.Context, studentID string) ([]*models.EnrollmentRequest, error) {
	return s.repos.EnrollmentRequestRepository.List(ctx, repositories.RequestFilter{StudentID: studentID})
}

// PendingForTeacher returns the pending requests for courses taught by teacherID
func (s *EnrollmentRequestService) PendingForTeacher(ctx context.Context, teacherID string) ([]*models.EnrollmentRequest, error) {
	courses, err := s.repos.CourseRepository.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return s.repos.EnrollmentRequestRepository.List(ctx, repositories.RequestFilter{
		CourseIDs: ids,
		Status:    models.RequestPending,
	})
}

// Decide approves or rejects a pending request. Only the course teacher may
// decide; approval writes the ledger under the same rules as a direct enrollment.
func (s *EnrollmentRequestService) Decide(ctx context.Context, requestID, callerID string, decision models.RequestStatus) (*models.EnrollmentRequest, error) {
	if !decision.IsDecision() {
		return nil, apperrors.NewValidationError(MsgInvalidDecision)
	}

	request, err := s.repos.EnrollmentRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return nil, notFound(err, MsgRequestNotFound)
	}
	if err := s.authz.ValidateCourseOwnership(ctx, request.CourseID, callerID); err != nil {
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, apperrors.NewConflictError(MsgRequestDecided)
	}

	if decision == models.RequestApproved {
		if _, err := s.enrollments.enroll(ctx, request.CourseID, request.StudentID); err != nil {
			return nil, err
		}
	}

	if err := s.repos.EnrollmentRequestRepository.UpdateStatus(ctx, request.ID, decision); err != nil {
		return nil, notFound(err, MsgRequestNotFound)
	}
	request.Status = decision
	request.UpdatedAt = now()

	s.logger.Info().
		Str("requestID", request.ID).
		Str("status", string(decision)).
		Msg("Enrollment request decided")
	return request, nil
}
