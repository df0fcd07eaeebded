package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/schoolhub/internal/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnrollmentRepository stores the ledger in the enrollments collection
type EnrollmentRepository struct {
	col *mongo.Collection
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	_, err := r.col.InsertOne(ctx, enrollment)
	return mapWriteError(err)
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	return findOne[models.Enrollment](ctx, r.col, bson.M{"_id": id})
}

func (r *EnrollmentRepository) GetByPair(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	return findOne[models.Enrollment](ctx, r.col, bson.M{"course_id": courseID, "student_id": studentID})
}

func (r *EnrollmentRepository) List(ctx context.Context) ([]*models.Enrollment, error) {
	return findMany[models.Enrollment](ctx, r.col, bson.M{}, byCreatedAt)
}

func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID string) ([]*models.Enrollment, error) {
	return findMany[models.Enrollment](ctx, r.col, bson.M{"course_id": courseID}, byCreatedAt)
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID string) ([]*models.Enrollment, error) {
	return findMany[models.Enrollment](ctx, r.col, bson.M{"student_id": studentID}, byCreatedAt)
}

func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": enrollment.ID}, bson.M{"$set": bson.M{
		"course_id":  enrollment.CourseID,
		"student_id": enrollment.StudentID,
		"updated_at": enrollment.UpdatedAt,
	}}))
}

func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	return deletedOne(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID})
	return err
}

func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"student_id": studentID})
	return err
}

// ReplaceRoster prunes then upserts. Without a replica set there is no
// multi-document transaction, so a concurrent reader may see the pruned roster
// before the inserts land.
func (r *EnrollmentRepository) ReplaceRoster(ctx context.Context, courseID string, studentIDs []string) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{
		"course_id":  courseID,
		"student_id": bson.M{"$nin": nonNil(studentIDs)},
	}); err != nil {
		return fmt.Errorf("error pruning roster: %w", err)
	}

	now := time.Now().UTC()
	for _, studentID := range studentIDs {
		_, err := r.col.UpdateOne(ctx,
			bson.M{"course_id": courseID, "student_id": studentID},
			bson.M{"$setOnInsert": bson.M{
				"_id":        uuid.NewString(),
				"created_at": now,
				"updated_at": now,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("error inserting roster entry: %w", mapWriteError(err))
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
