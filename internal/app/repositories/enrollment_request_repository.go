package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/db"
	"github.com/yigit/schoolhub/internal/pkg/dberrors"
	"github.com/yigit/schoolhub/internal/pkg/logger"
)

var requestColumns = []string{"id", "course_id", "student_id", "status", "created_at", "updated_at"}

// EnrollmentRequestRepository handles enrollment request database operations
type EnrollmentRequestRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRequestRepository creates a new EnrollmentRequestRepository
func NewEnrollmentRequestRepository(database *db.PostgresDB) *EnrollmentRequestRepository {
	return &EnrollmentRequestRepository{
		db: database,
		sb: statementBuilder(),
	}
}

func scanRequest(row pgx.Row) (*models.EnrollmentRequest, error) {
	req := &models.EnrollmentRequest{}
	var status string
	if err := row.Scan(&req.ID, &req.CourseID, &req.StudentID, &status, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	return req, nil
}

// Create inserts a request; a second pending request for the same pair yields ErrDuplicate
func (r *EnrollmentRequestRepository) Create(ctx context.Context, request *models.EnrollmentRequest) error {
	sql, args, err := r.sb.Insert("enrollment_requests").
		Columns(requestColumns...).
		Values(request.ID, request.CourseID, request.StudentID, string(request.Status), request.CreatedAt, request.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment request query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		logger.Error().Err(err).Msg("Error executing create enrollment request query")
		return fmt.Errorf("error creating enrollment request: %w", err)
	}
	return nil
}

func (r *EnrollmentRequestRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.EnrollmentRequest, error) {
	sql, args, err := r.sb.Select(requestColumns...).From("enrollment_requests").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment request query: %w", err)
	}
	req, err := scanRequest(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting enrollment request: %w", err)
	}
	return req, nil
}

// GetByID retrieves a request by ID
func (r *EnrollmentRequestRepository) GetByID(ctx context.Context, id string) (*models.EnrollmentRequest, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// FindPending retrieves the pending request for a course and student
func (r *EnrollmentRequestRepository) FindPending(ctx context.Context, courseID, studentID string) (*models.EnrollmentRequest, error) {
	return r.getOne(ctx, squirrel.Eq{
		"course_id":  courseID,
		"student_id": studentID,
		"status":     string(models.RequestPending),
	})
}

// List retrieves the requests matching filter, newest first
func (r *EnrollmentRequestRepository) List(ctx context.Context, filter RequestFilter) ([]*models.EnrollmentRequest, error) {
	where := squirrel.And{}
	if filter.StudentID != "" {
		where = append(where, squirrel.Eq{"student_id": filter.StudentID})
	}
	if filter.Status != "" {
		where = append(where, squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.CourseIDs != nil {
		where = append(where, squirrel.Eq{"course_id": filter.CourseIDs})
	}

	sql, args, err := r.sb.Select(requestColumns...).
		From("enrollment_requests").
		Where(where).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollment requests query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollment requests query")
		return nil, fmt.Errorf("error querying enrollment requests: %w", err)
	}
	defer rows.Close()

	requests := []*models.EnrollmentRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment request row: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment request rows: %w", err)
	}
	return requests, nil
}

// UpdateStatus records a decision
func (r *EnrollmentRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return execAffectingOne(ctx, r.db, r.sb.Update("enrollment_requests").
		Set("status", string(status)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}))
}

// DeleteByCourse removes every request for a course
func (r *EnrollmentRequestRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.deleteWhere(ctx, squirrel.Eq{"course_id": courseID})
}

// DeleteByStudent removes every request made by a student
func (r *EnrollmentRequestRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.deleteWhere(ctx, squirrel.Eq{"student_id": studentID})
}

func (r *EnrollmentRequestRepository) deleteWhere(ctx context.Context, where squirrel.Sqlizer) error {
	sql, args, err := r.sb.Delete("enrollment_requests").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete enrollment requests query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting enrollment requests: %w", err)
	}
	return nil
}
