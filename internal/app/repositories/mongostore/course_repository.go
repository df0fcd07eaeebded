package mongostore

import (
	"context"

	"github.com/yigit/schoolhub/internal/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CourseRepository stores courses in the courses collection
type CourseRepository struct {
	col *mongo.Collection
}

var byName = bson.D{{Key: "name", Value: 1}}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	_, err := r.col.InsertOne(ctx, course)
	return mapWriteError(err)
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	return findOne[models.Course](ctx, r.col, bson.M{"_id": id})
}

func (r *CourseRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Course, error) {
	return findMany[models.Course](ctx, r.col, bson.M{"_id": inIDs(ids)}, byName)
}

func (r *CourseRepository) List(ctx context.Context) ([]*models.Course, error) {
	return findMany[models.Course](ctx, r.col, bson.M{}, byName)
}

func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]*models.Course, error) {
	return findMany[models.Course](ctx, r.col, bson.M{"teacher_id": teacherID}, byName)
}

func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": course.ID}, bson.M{"$set": bson.M{
		"name":        course.Name,
		"description": course.Description,
		"teacher_id":  course.TeacherID,
		"updated_at":  course.UpdatedAt,
	}}))
}

// Delete removes only the course document; callers clear the ledger and requests
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	return deletedOne(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}
