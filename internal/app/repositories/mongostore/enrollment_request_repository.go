package mongostore

import (
	"context"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnrollmentRequestRepository stores requests in the enrollment_requests collection
type EnrollmentRequestRepository struct {
	col *mongo.Collection
}

func (r *EnrollmentRequestRepository) Create(ctx context.Context, request *models.EnrollmentRequest) error {
	_, err := r.col.InsertOne(ctx, request)
	return mapWriteError(err)
}

func (r *EnrollmentRequestRepository) GetByID(ctx context.Context, id string) (*models.EnrollmentRequest, error) {
	return findOne[models.EnrollmentRequest](ctx, r.col, bson.M{"_id": id})
}

func (r *EnrollmentRequestRepository) FindPending(ctx context.Context, courseID, studentID string) (*models.EnrollmentRequest, error) {
	return findOne[models.EnrollmentRequest](ctx, r.col, bson.M{
		"course_id":  courseID,
		"student_id": studentID,
		"status":     models.RequestPending,
	})
}

func (r *EnrollmentRequestRepository) List(ctx context.Context, filter repositories.RequestFilter) ([]*models.EnrollmentRequest, error) {
	query := bson.M{}
	if filter.StudentID != "" {
		query["student_id"] = filter.StudentID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.CourseIDs != nil {
		query["course_id"] = inIDs(filter.CourseIDs)
	}
	return findMany[models.EnrollmentRequest](ctx, r.col, query, bson.D{{Key: "created_at", Value: -1}})
}

func (r *EnrollmentRequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus) error {
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}}))
}

func (r *EnrollmentRequestRepository) DeleteByCourse(ctx context.Context, courseID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"course_id": courseID})
	return err
}

func (r *EnrollmentRequestRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"student_id": studentID})
	return err
}
