package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
)

// Shared repository errors. Every backend maps its driver errors onto these.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// IUserRepository is the credential store
type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// Password reset
	SetResetToken(ctx context.Context, userID, token string, expires time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
}

// ICourseRepository is the catalog store
type ICourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error)
	List(ctx context.Context) ([]*models.Course, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// IEnrollmentRepository is the enrollment ledger
type IEnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	GetByPair(ctx context.Context, courseID, studentID string) (*models.Enrollment, error)
	List(ctx context.Context) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error)
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
	DeleteByCourse(ctx context.Context, courseID string) error
	DeleteByStudent(ctx context.Context, studentID string) error

	// ReplaceRoster makes studentIDs the exact set of students enrolled in courseID
	ReplaceRoster(ctx context.Context, courseID string, studentIDs []string) error
}

// RequestFilter narrows an enrollment request listing. Zero fields match everything.
type RequestFilter struct {
	StudentID string
	CourseIDs []string
	Status    models.RequestStatus
}

// IEnrollmentRequestRepository stores student applications to courses
type IEnrollmentRequestRepository interface {
	Create(ctx context.Context, request *models.EnrollmentRequest) error
	GetByID(ctx context.Context, id string) (*models.EnrollmentRequest, error)
	FindPending(ctx context.Context, courseID, studentID string) (*models.EnrollmentRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.EnrollmentRequest, error)
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error
	DeleteByCourse(ctx context.Context, courseID string) error
	DeleteByStudent(ctx context.Context, studentID string) error
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository              IUserRepository
	CourseRepository            ICourseRepository
	EnrollmentRepository        IEnrollmentRepository
	EnrollmentRequestRepository IEnrollmentRequestRepository
}

// Matches reports whether r passes f
func (f RequestFilter) Matches(r *models.EnrollmentRequest) bool {
	if f.StudentID != "" && r.StudentID != f.StudentID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.CourseIDs != nil {
		for _, id := range f.CourseIDs {
			if id == r.CourseID {
				return true
			}
		}
		return false
	}
	return true
}
