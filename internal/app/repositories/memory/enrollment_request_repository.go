package memory

import (
	"context"
	"sort"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
)

// EnrollmentRequestRepository is the in-memory request store
type EnrollmentRequestRepository struct {
	s *state
}

func copyRequest(req *models.EnrollmentRequest) *models.EnrollmentRequest {
	cp := *req
	return &cp
}

func (r *EnrollmentRequestRepository) findPending(courseID, studentID string) *models.EnrollmentRequest {
	for _, req := range r.s.requests {
		if req.CourseID == courseID && req.StudentID == studentID && req.Status == models.RequestPending {
			return req
		}
	}
	return nil
}

func (r *EnrollmentRequestRepository) Create(_ context.Context, request *models.EnrollmentRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[request.ID]; ok {
		return repositories.ErrDuplicate
	}
	if request.Status == models.RequestPending && r.findPending(request.CourseID, request.StudentID) != nil {
		return repositories.ErrDuplicate
	}
	r.s.requests[request.ID] = copyRequest(request)
	return nil
}

func (r *EnrollmentRequestRepository) GetByID(_ context.Context, id string) (*models.EnrollmentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyRequest(req), nil
}

func (r *EnrollmentRequestRepository) FindPending(_ context.Context, courseID, studentID string) (*models.EnrollmentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if req := r.findPending(courseID, studentID); req != nil {
		return copyRequest(req), nil
	}
	return nil, repositories.ErrNotFound
}

func (r *EnrollmentRequestRepository) List(_ context.Context, filter repositories.RequestFilter) ([]*models.EnrollmentRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.EnrollmentRequest{}
	for _, req := range r.s.requests {
		if filter.Matches(req) {
			out = append(out, copyRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *EnrollmentRequestRepository) UpdateStatus(_ context.Context, id string, status models.RequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	if !ok {
		return repositories.ErrNotFound
	}
	req.Status = status
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *EnrollmentRequestRepository) DeleteByCourse(_ context.Context, courseID string) error {
	r.deleteWhere(func(req *models.EnrollmentRequest) bool { return req.CourseID == courseID })
	return nil
}

func (r *EnrollmentRequestRepository) DeleteByStudent(_ context.Context, studentID string) error {
	r.deleteWhere(func(req *models.EnrollmentRequest) bool { return req.StudentID == studentID })
	return nil
}

func (r *EnrollmentRequestRepository) deleteWhere(match func(*models.EnrollmentRequest) bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, req := range r.s.requests {
		if match(req) {
			delete(r.s.requests, id)
		}
	}
}
