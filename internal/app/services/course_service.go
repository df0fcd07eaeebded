package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolhub/internal/app/auth"
	"github.com/yigit/schoolhub/internal/app/integrity"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/models/dto"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
	"github.com/yigit/schoolhub/internal/pkg/metrics"
)

// CourseService handles the catalog and the course centric views of the ledger
type CourseService struct {
	repos  *repositories.Repositories
	rules  *integrity.Rules
	authz  *auth.AuthorizationService
	logger zerolog.Logger
}

// NewCourseService creates a new CourseService
func NewCourseService(repos *repositories.Repositories, rules *integrity.Rules, authz *auth.AuthorizationService, logger zerolog.Logger) *CourseService {
	return &CourseService{
		repos:  repos,
		rules:  rules,
		authz:  authz,
		logger: logger,
	}
}

// List returns every course
func (s *CourseService) List(ctx context.Context) ([]*models.Course, error) {
	return s.repos.CourseRepository.List(ctx)
}

// Get returns a course by id
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repos.CourseRepository.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, MsgCourseNotFound)
	}
	return course, nil
}

// Details returns the course with its teacher and roster resolved
func (s *CourseService) Details(ctx context.Context, id string) (*dto.CourseDetailsResponse, error) {
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	teacher, err := s.repos.UserRepository.GetByID(ctx, course.TeacherID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("error loading teacher: %w", err)
	}

	students, err := s.Roster(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.CourseDetailsResponse{
		Course:   course,
		Teacher:  dto.NewUserResponse(teacher),
		Students: dto.NewUserResponses(students),
	}, nil
}

// Roster returns the students enrolled in the course
func (s *CourseService) Roster(ctx context.Context, courseID string) ([]*models.User, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	enrollments, err := s.repos.EnrollmentRepository.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("error loading roster: %w", err)
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	return s.repos.UserRepository.GetByIDs(ctx, ids)
}

// Create adds a course. A non empty students list becomes the initial roster.
func (s *CourseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*models.Course, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("Course name is required")
	}
	if _, err := s.rules.RequireTeacher(ctx, req.Teacher); err != nil {
		return nil, err
	}
	students, err := s.rules.RequireStudents(ctx, req.Students)
	if err != nil {
		return nil, err
	}

	ts := now()
	course := &models.Course{
		ID:          newID(),
		Name:        name,
		Description: req.Description,
		TeacherID:   req.Teacher,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	if err := s.repos.CourseRepository.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("course creation error: %w", err)
	}

	if len(students) > 0 {
		if err := s.repos.EnrollmentRepository.ReplaceRoster(ctx, course.ID, students); err != nil {
			return nil, fmt.Errorf("error writing roster: %w", err)
		}
		metrics.ObserveEnrollment("roster_replace")
	}

	s.logger.Info().Str("courseID", course.ID).Str("teacherID", course.TeacherID).Msg("Course created")
	return course, nil
}

// Update applies the non nil fields of req to a course taught by callerID.
// Students replaces the whole roster.
func (s *CourseService) Update(ctx context.Context, id, callerID string, req *dto.UpdateCourseRequest) (*models.Course, error) {
	if err := s.authz.ValidateCourseOwnership(ctx, id, callerID); err != nil {
		return nil, err
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("Course name is required")
		}
		course.Name = name
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Teacher != nil {
		if _, err := s.rules.RequireTeacher(ctx, *req.Teacher); err != nil {
			return nil, err
		}
		course.TeacherID = *req.Teacher
	}
	var students []string
	if req.Students != nil {
		if students, err = s.rules.RequireStudents(ctx, *req.Students); err != nil {
			return nil, err
		}
	}
	course.UpdatedAt = now()

	if err := s.repos.CourseRepository.Update(ctx, course); err != nil {
		return nil, notFound(err, MsgCourseNotFound)
	}
	if req.Students != nil {
		if err := s.repos.EnrollmentRepository.ReplaceRoster(ctx, course.ID, students); err != nil {
			return nil, fmt.Errorf("error writing roster: %w", err)
		}
		metrics.ObserveEnrollment("roster_replace")
	}
	return course, nil
}

// Delete removes a course taught by callerID with its enrollments and enrollment requests
func (s *CourseService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.authz.ValidateCourseOwnership(ctx, id, callerID); err != nil {
		return err
	}
	if err := s.repos.EnrollmentRepository.DeleteByCourse(ctx, id); err != nil {
		return fmt.Errorf("error removing enrollments: %w", err)
	}
	if err := s.repos.EnrollmentRequestRepository.DeleteByCourse(ctx, id); err != nil {
		return fmt.Errorf("error removing enrollment requests: %w", err)
	}
	if err := s.repos.CourseRepository.Delete(ctx, id); err != nil {
		return notFound(err, MsgCourseNotFound)
	}
	s.logger.Info().Str("courseID", id).Msg("Course deleted")
	return nil
}

// RemoveStudent drops one student from a course taught by callerID
func (s *CourseService) RemoveStudent(ctx context.Context, courseID, studentID, callerID string) error {
	if err := s.authz.ValidateCourseOwnership(ctx, courseID, callerID); err != nil {
		return err
	}
	enrollment, err := s.repos.EnrollmentRepository.GetByPair(ctx, courseID, studentID)
	if err != nil {
		return notFound(err, MsgEnrollmentNotFound)
	}
	if err := s.repos.EnrollmentRepository.Delete(ctx, enrollment.ID); err != nil {
		return notFound(err, MsgEnrollmentNotFound)
	}
	metrics.ObserveEnrollment("delete")
	return nil
}

// StudentCourses returns the courses a student is enrolled in
func (s *CourseService) StudentCourses(ctx context.Context, studentID string) (*dto.StudentCoursesResponse, error) {
	student, err := s.loadRole(ctx, studentID, models.RoleStudent, MsgStudentNotFound)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	courses, err := s.repos.CourseRepository.GetByIDs(ctx, enrolled)
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}
	return &dto.StudentCoursesResponse{Student: dto.NewUserResponse(student), Courses: courses}, nil
}

// AvailableCourses returns the courses a student is not enrolled in yet
func (s *CourseService) AvailableCourses(ctx context.Context, studentID string) ([]*models.Course, error) {
	if _, err := s.loadRole(ctx, studentID, models.RoleStudent, MsgStudentNotFound); err != nil {
		return nil, err
	}
	enrolled, err := s.enrolledCourseIDs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]struct{}, len(enrolled))
	for _, id := range enrolled {
		skip[id] = struct{}{}
	}

	all, err := s.repos.CourseRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]*models.Course, 0, len(all))
	for _, c := range all {
		if _, ok := skip[c.ID]; !ok {
			available = append(available, c)
		}
	}
	return available, nil
}

// TeacherCourses returns the courses taught by a teacher
func (s *CourseService) TeacherCourses(ctx context.Context, teacherID string) (*dto.TeacherCoursesResponse, error) {
	teacher, err := s.loadRole(ctx, teacherID, models.RoleTeacher, MsgTeacherNotFound)
	if err != nil {
		return nil, err
	}
	courses, err := s.repos.CourseRepository.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error loading courses: %w", err)
	}
	return &dto.TeacherCoursesResponse{Teacher: dto.NewUserResponse(teacher), Courses: courses}, nil
}

func (s *CourseService) loadRole(ctx context.Context, id string, role models.Role, missing string) (*models.User, error) {
	user, err := s.repos.UserRepository.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, missing)
	}
	if user.Role != role {
		return nil, apperrors.NewResourceNotFoundError(missing)
	}
	return user, nil
}

func (s *CourseService) enrolledCourseIDs(ctx context.Context, studentID string) ([]string, error) {
	enrollments, err := s.repos.EnrollmentRepository.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error loading enrollments: %w", err)
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	return ids, nil
}
