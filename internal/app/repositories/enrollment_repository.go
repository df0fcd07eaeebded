package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/db"
	"github.com/yigit/schoolhub/internal/pkg/dberrors"
	"github.com/yigit/schoolhub/internal/pkg/logger"
)

var enrollmentColumns = []string{"id", "course_id", "student_id", "created_at", "updated_at"}

// EnrollmentRepository handles enrollment ledger operations
type EnrollmentRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(database *db.PostgresDB) *EnrollmentRepository {
	return &EnrollmentRepository{
		db: database,
		sb: statementBuilder(),
	}
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	e := &models.Enrollment{}
	if err := row.Scan(&e.ID, &e.CourseID, &e.StudentID, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a ledger row; a repeated (course, student) pair yields ErrDuplicate
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	sql, args, err := r.sb.Insert("enrollments").
		Columns(enrollmentColumns...).
		Values(enrollment.ID, enrollment.CourseID, enrollment.StudentID, enrollment.CreatedAt, enrollment.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create enrollment query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		logger.Error().Err(err).Msg("Error executing create enrollment query")
		return fmt.Errorf("error creating enrollment: %w", err)
	}
	return nil
}

func (r *EnrollmentRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Enrollment, error) {
	sql, args, err := r.sb.Select(enrollmentColumns...).From("enrollments").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get enrollment query: %w", err)
	}
	e, err := scanEnrollment(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting enrollment: %w", err)
	}
	return e, nil
}

// GetByID retrieves an enrollment by ID
func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByPair retrieves the ledger row for a course and student
func (r *EnrollmentRepository) GetByPair(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	return r.getOne(ctx, squirrel.Eq{"course_id": courseID, "student_id": studentID})
}

// List retrieves the whole ledger
func (r *EnrollmentRepository) List(ctx context.Context) ([]*models.Enrollment, error) {
	return r.list(ctx, nil)
}

// ListByCourse retrieves the ledger rows for a course
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	return r.list(ctx, squirrel.Eq{"course_id": courseID})
}

// ListByStudent retrieves the ledger rows for a student
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return r.list(ctx, squirrel.Eq{"student_id": studentID})
}

func (r *EnrollmentRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.Enrollment, error) {
	q := r.sb.Select(enrollmentColumns...).From("enrollments").OrderBy("created_at ASC")
	if where != nil {
		q = q.Where(where)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list enrollments query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list enrollments query")
		return nil, fmt.Errorf("error querying enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollment rows: %w", err)
	}
	return enrollments, nil
}

// Update moves an enrollment to another course or student
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return execAffectingOne(ctx, r.db, r.sb.Update("enrollments").
		SetMap(map[string]interface{}{
			"course_id":  enrollment.CourseID,
			"student_id": enrollment.StudentID,
			"updated_at": enrollment.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": enrollment.ID}))
}

// Delete removes a ledger row
func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, r.sb.Delete("enrollments").Where(squirrel.Eq{"id": id}))
}

// DeleteByCourse removes every ledger row of a course
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.deleteWhere(ctx, squirrel.Eq{"course_id": courseID})
}

// DeleteByStudent removes every ledger row of a student
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	return r.deleteWhere(ctx, squirrel.Eq{"student_id": studentID})
}

func (r *EnrollmentRepository) deleteWhere(ctx context.Context, where squirrel.Sqlizer) error {
	sql, args, err := r.sb.Delete("enrollments").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete enrollments query: %w", err)
	}
	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error deleting enrollments: %w", err)
	}
	return nil
}

// ReplaceRoster makes studentIDs the exact roster of courseID in one transaction
func (r *EnrollmentRepository) ReplaceRoster(ctx context.Context, courseID string, studentIDs []string) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := r.sb.Delete("enrollments").
			Where(squirrel.Eq{"course_id": courseID}).
			Where(squirrel.NotEq{"student_id": studentIDs}).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build roster delete query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error pruning roster: %w", err)
		}

		if len(studentIDs) == 0 {
			return nil
		}

		now := time.Now().UTC()
		insert := r.sb.Insert("enrollments").Columns(enrollmentColumns...)
		for _, studentID := range studentIDs {
			insert = insert.Values(uuid.NewString(), courseID, studentID, now, now)
		}
		sql, args, err = insert.Suffix("ON CONFLICT (course_id, student_id) DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("failed to build roster insert query: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("error inserting roster: %w", err)
		}
		return nil
	})
}
