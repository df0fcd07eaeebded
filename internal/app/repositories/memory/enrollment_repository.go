package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
)

// EnrollmentRepository is the in-memory enrollment ledger
type EnrollmentRepository struct {
	s *state
}

func copyEnrollment(e *models.Enrollment) *models.Enrollment {
	cp := *e
	return &cp
}

func (r *EnrollmentRepository) pairTaken(courseID, studentID, excludeID string) bool {
	for _, e := range r.s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID && e.ID != excludeID {
			return true
		}
	}
	return false
}

func (r *EnrollmentRepository) Create(_ context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[enrollment.ID]; ok || r.pairTaken(enrollment.CourseID, enrollment.StudentID, "") {
		return repositories.ErrDuplicate
	}
	r.s.enrollments[enrollment.ID] = copyEnrollment(enrollment)
	return nil
}

func (r *EnrollmentRepository) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	e, ok := r.s.enrollments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyEnrollment(e), nil
}

func (r *EnrollmentRepository) GetByPair(_ context.Context, courseID, studentID string) (*models.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.enrollments {
		if e.CourseID == courseID && e.StudentID == studentID {
			return copyEnrollment(e), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *EnrollmentRepository) List(_ context.Context) ([]*models.Enrollment, error) {
	return r.filter(func(*models.Enrollment) bool { return true }), nil
}

func (r *EnrollmentRepository) ListByCourse(_ context.Context, courseID string) ([]*models.Enrollment, error) {
	return r.filter(func(e *models.Enrollment) bool { return e.CourseID == courseID }), nil
}

func (r *EnrollmentRepository) ListByStudent(_ context.Context, studentID string) ([]*models.Enrollment, error) {
	return r.filter(func(e *models.Enrollment) bool { return e.StudentID == studentID }), nil
}

func (r *EnrollmentRepository) filter(keep func(*models.Enrollment) bool) []*models.Enrollment {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Enrollment{}
	for _, e := range r.s.enrollments {
		if keep(e) {
			out = append(out, copyEnrollment(e))
		}
	}
	sortEnrollments(out)
	return out
}

func (r *EnrollmentRepository) Update(_ context.Context, enrollment *models.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[enrollment.ID]; !ok {
		return repositories.ErrNotFound
	}
	if r.pairTaken(enrollment.CourseID, enrollment.StudentID, enrollment.ID) {
		return repositories.ErrDuplicate
	}
	r.s.enrollments[enrollment.ID] = copyEnrollment(enrollment)
	return nil
}

func (r *EnrollmentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.enrollments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.enrollments, id)
	return nil
}

func (r *EnrollmentRepository) DeleteByCourse(_ context.Context, courseID string) error {
	r.deleteWhere(func(e *models.Enrollment) bool { return e.CourseID == courseID })
	return nil
}

func (r *EnrollmentRepository) DeleteByStudent(_ context.Context, studentID string) error {
	r.deleteWhere(func(e *models.Enrollment) bool { return e.StudentID == studentID })
	return nil
}

func (r *EnrollmentRepository) deleteWhere(match func(*models.Enrollment) bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.enrollments {
		if match(e) {
			delete(r.s.enrollments, id)
		}
	}
}

// ReplaceRoster swaps the roster under a single lock so readers never see a partial roster
func (r *EnrollmentRepository) ReplaceRoster(_ context.Context, courseID string, studentIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := idSet(studentIDs)
	for id, e := range r.s.enrollments {
		if e.CourseID != courseID {
			continue
		}
		if _, keep := wanted[e.StudentID]; keep {
			delete(wanted, e.StudentID)
			continue
		}
		delete(r.s.enrollments, id)
	}

	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		if _, pending := wanted[studentID]; !pending {
			continue
		}
		delete(wanted, studentID)
		id := uuid.NewString()
		r.s.enrollments[id] = &models.Enrollment{ID: id, CourseID: courseID, StudentID: studentID, CreatedAt: now, UpdatedAt: now}
	}
	return nil
}
