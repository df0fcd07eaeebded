package memory

import (
	"context"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
)

// CourseRepository is the in-memory catalog store
type CourseRepository struct {
	s *state
}

func copyCourse(c *models.Course) *models.Course {
	cp := *c
	return &cp
}

func (r *CourseRepository) Create(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[course.ID]; ok {
		return repositories.ErrDuplicate
	}
	r.s.courses[course.ID] = copyCourse(course)
	return nil
}

func (r *CourseRepository) GetByID(_ context.Context, id string) (*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyCourse(c), nil
}

func (r *CourseRepository) GetByIDs(_ context.Context, ids []string) ([]*models.Course, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Course{}
	for id := range idSet(ids) {
		if c, ok := r.s.courses[id]; ok {
			out = append(out, copyCourse(c))
		}
	}
	sortCourses(out)
	return out, nil
}

func (r *CourseRepository) List(_ context.Context) ([]*models.Course, error) {
	return r.filter(func(*models.Course) bool { return true }), nil
}

func (r *CourseRepository) ListByTeacher(_ context.Context, teacherID string) ([]*models.Course, error) {
	return r.filter(func(c *models.Course) bool { return c.TeacherID == teacherID }), nil
}

func (r *CourseRepository) filter(keep func(*models.Course) bool) []*models.Course {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Course{}
	for _, c := range r.s.courses {
		if keep(c) {
			out = append(out, copyCourse(c))
		}
	}
	sortCourses(out)
	return out
}

func (r *CourseRepository) Update(_ context.Context, course *models.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[course.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.courses[course.ID] = copyCourse(course)
	return nil
}

// Delete removes the course together with its ledger rows and requests
func (r *CourseRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.courses[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.courses, id)
	for eid, e := range r.s.enrollments {
		if e.CourseID == id {
			delete(r.s.enrollments, eid)
		}
	}
	for rid, req := range r.s.requests {
		if req.CourseID == id {
			delete(r.s.requests, rid)
		}
	}
	return nil
}
