package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/db"
	"github.com/yigit/schoolhub/internal/pkg/logger"
)

var courseColumns = []string{"id", "name", "description", "teacher_id", "created_at", "updated_at"}

// CourseRepository handles course database operations
type CourseRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(database *db.PostgresDB) *CourseRepository {
	return &CourseRepository{
		db: database,
		sb: statementBuilder(),
	}
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	c := &models.Course{}
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new course
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	sql, args, err := r.sb.Insert("courses").
		Columns(courseColumns...).
		Values(course.ID, course.Name, course.Description, course.TeacherID, course.CreatedAt, course.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create course query: %w", err)
	}

	if _, err := r.db.Pool.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing create course query")
		return fmt.Errorf("error creating course: %w", err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	sql, args, err := r.sb.Select(courseColumns...).From("courses").Where(squirrel.Eq{"id": id}).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get course query: %w", err)
	}

	course, err := scanCourse(r.db.Pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Str("courseID", id).Msg("Error scanning course row")
		return nil, fmt.Errorf("error getting course by ID: %w", err)
	}
	return course, nil
}

// GetByIDs retrieves every course whose ID is in ids
func (r *CourseRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	return r.list(ctx, squirrel.Eq{"id": ids})
}

// List retrieves all courses
func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	return r.list(ctx, nil)
}

// ListByTeacher retrieves the courses taught by teacherID
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*models.Course, error) {
	return r.list(ctx, squirrel.Eq{"teacher_id": teacherID})
}

func (r *CourseRepository) list(ctx context.Context, where squirrel.Sqlizer) ([]*models.Course, error) {
	q := r.sb.Select(courseColumns...).From("courses").OrderBy("name ASC")
	if where != nil {
		q = q.Where(where)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list courses query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list courses query")
		return nil, fmt.Errorf("error querying courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating course rows: %w", err)
	}
	return courses, nil
}

// Update writes every mutable course field
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	return execAffectingOne(ctx, r.db, r.sb.Update("courses").
		SetMap(map[string]interface{}{
			"name":        course.Name,
			"description": course.Description,
			"teacher_id":  course.TeacherID,
			"updated_at":  course.UpdatedAt,
		}).
		Where(squirrel.Eq{"id": course.ID}))
}

// Delete removes a course; enrollments and requests go with it through ON DELETE CASCADE
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, r.sb.Delete("courses").Where(squirrel.Eq{"id": id}))
}
