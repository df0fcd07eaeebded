// Package integrity holds the cross-entity checks run before any write that
// references another record.
package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/apperrors"
)

// Reasons surfaced to the caller
const (
	MsgTeacherInvalid       = "Teacher not found or invalid role"
	MsgStudentsInvalid      = "One or more students not found or invalid role"
	MsgEmailTaken           = "Email must be unique"
	MsgAlreadyEnrolled      = "Student already enrolled in this course"
	MsgCourseMissing        = "Course does not exist"
	MsgStudentMissing       = "Student does not exist or is not a student"
	MsgTeacherOwnsCourses   = "User is assigned as teacher to existing courses"
	MsgStudentHasEnrollment = "User is enrolled in existing courses"
	MsgInvalidRole          = "Role must be student or teacher"
)

// Rules evaluates integrity checks against the stores
type Rules struct {
	users       repositories.IUserRepository
	courses     repositories.ICourseRepository
	enrollments repositories.IEnrollmentRepository
}

// NewRules creates the rule set over the given repositories
func NewRules(repos *repositories.Repositories) *Rules {
	return &Rules{
		users:       repos.UserRepository,
		courses:     repos.CourseRepository,
		enrollments: repos.EnrollmentRepository,
	}
}

// RequireTeacher returns the user behind id when it exists and holds the teacher role
func (r *Rules) RequireTeacher(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, apperrors.NewInvalidReferenceError(MsgTeacherInvalid)
	}
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewInvalidReferenceError(MsgTeacherInvalid)
		}
		return nil, fmt.Errorf("error loading teacher %s: %w", id, err)
	}
	if !user.IsTeacher() {
		return nil, apperrors.NewInvalidReferenceError(MsgTeacherInvalid)
	}
	return user, nil
}

// RequireStudents checks that every id is an existing student. Duplicates are
// collapsed and the deduplicated ids are returned in input order.
func (r *Rules) RequireStudents(ctx context.Context, ids []string) ([]string, error) {
	unique := Dedup(ids)
	if len(unique) == 0 {
		return unique, nil
	}

	users, err := r.users.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("error loading students: %w", err)
	}

	students := 0
	for _, u := range users {
		if u.IsStudent() {
			students++
		}
	}
	if students != len(unique) {
		return nil, apperrors.NewInvalidReferenceError(MsgStudentsInvalid)
	}
	return unique, nil
}

// RequireUniqueEmail fails with a conflict when another user already has email
func (r *Rules) RequireUniqueEmail(ctx context.Context, email, excludeID string) error {
	existing, err := r.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error checking email: %w", err)
	}
	if existing.ID == excludeID {
		return nil
	}
	return apperrors.NewConflictError(MsgEmailTaken)
}

// RequireNotEnrolled fails when a ledger row other than excludeID already links the pair
func (r *Rules) RequireNotEnrolled(ctx context.Context, courseID, studentID, excludeID string) error {
	existing, err := r.enrollments.GetByPair(ctx, courseID, studentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("error checking enrollment: %w", err)
	}
	if existing.ID == excludeID {
		return nil
	}
	return apperrors.NewConflictError(MsgAlreadyEnrolled)
}

// RequireCourse returns the course behind id
func (r *Rules) RequireCourse(ctx context.Context, id string) (*models.Course, error) {
	if id == "" {
		return nil, apperrors.NewInvalidReferenceError(MsgCourseMissing)
	}
	course, err := r.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewInvalidReferenceError(MsgCourseMissing)
		}
		return nil, fmt.Errorf("error loading course %s: %w", id, err)
	}
	return course, nil
}

// RequireStudent returns the user behind id when it exists and holds the student role
func (r *Rules) RequireStudent(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, apperrors.NewInvalidReferenceError(MsgStudentMissing)
	}
	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NewInvalidReferenceError(MsgStudentMissing)
		}
		return nil, fmt.Errorf("error loading student %s: %w", id, err)
	}
	if !user.IsStudent() {
		return nil, apperrors.NewInvalidReferenceError(MsgStudentMissing)
	}
	return user, nil
}

// RequireUserDeletable refuses to delete a teacher who still owns courses.
// A student's ledger rows are removed by the caller instead.
func (r *Rules) RequireUserDeletable(ctx context.Context, user *models.User) error {
	if !user.IsTeacher() {
		return nil
	}
	return r.requireNoOwnedCourses(ctx, user.ID)
}

// RequireRoleChangeAllowed refuses a role change while the user is still referenced
func (r *Rules) RequireRoleChangeAllowed(ctx context.Context, user *models.User, role models.Role) error {
	if !role.IsValid() {
		return apperrors.NewValidationError(MsgInvalidRole)
	}
	if role == user.Role {
		return nil
	}

	switch user.Role {
	case models.RoleTeacher:
		return r.requireNoOwnedCourses(ctx, user.ID)
	case models.RoleStudent:
		enrollments, err := r.enrollments.ListByStudent(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("error loading enrollments: %w", err)
		}
		if len(enrollments) > 0 {
			return apperrors.NewConflictError(MsgStudentHasEnrollment)
		}
	}
	return nil
}

func (r *Rules) requireNoOwnedCourses(ctx context.Context, teacherID string) error {
	courses, err := r.courses.ListByTeacher(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("error loading courses: %w", err)
	}
	if len(courses) > 0 {
		return apperrors.NewConflictError(MsgTeacherOwnsCourses)
	}
	return nil
}

// Dedup drops repeated ids, keeping first occurrences in order
func Dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
