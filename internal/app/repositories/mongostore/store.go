// Package mongostore implements the repositories on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/schoolhub/internal/app/models"
	"github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/pkg/dberrors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection       = "users"
	coursesCollection     = "courses"
	enrollmentsCollection = "enrollments"
	requestsCollection    = "enrollment_requests"
)

// NewRepositories ensures the unique indexes and returns the Mongo backed repositories
func NewRepositories(ctx context.Context, database *mongo.Database) (*repositories.Repositories, error) {
	if err := ensureIndexes(ctx, database); err != nil {
		return nil, err
	}
	return &repositories.Repositories{
		UserRepository:              &UserRepository{col: database.Collection(usersCollection)},
		CourseRepository:            &CourseRepository{col: database.Collection(coursesCollection)},
		EnrollmentRepository:        &EnrollmentRepository{col: database.Collection(enrollmentsCollection)},
		EnrollmentRequestRepository: &EnrollmentRequestRepository{col: database.Collection(requestsCollection)},
	}, nil
}

func ensureIndexes(ctx context.Context, database *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		coursesCollection: {
			{Keys: bson.D{{Key: "teacher_id", Value: 1}}},
		},
		enrollmentsCollection: {
			{Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "student_id", Value: 1}}},
		},
		requestsCollection: {
			{
				Keys: bson.D{{Key: "course_id", Value: 1}, {Key: "student_id", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": string(models.RequestPending)}),
			},
		},
	}
	for name, idx := range indexes {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// mapWriteError translates driver errors into repository errors
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if dberrors.IsUniqueViolation(err) {
		return repositories.ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	if err := col.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("error finding document in %s: %w", col.Name(), err)
	}
	return &out, nil
}

func findMany[T any](ctx context.Context, col *mongo.Collection, filter interface{}, sort bson.D) ([]*T, error) {
	cur, err := col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", col.Name(), err)
	}
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, fmt.Errorf("error decoding %s document: %w", col.Name(), err)
		}
		out = append(out, &item)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", col.Name(), err)
	}
	return out, nil
}

func inIDs(ids []string) bson.M {
	if ids == nil {
		ids = []string{}
	}
	return bson.M{"$in": ids}
}

func matchedOne(res *mongo.UpdateResult, err error) error {
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func deletedOne(res *mongo.DeleteResult, err error) error {
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}
