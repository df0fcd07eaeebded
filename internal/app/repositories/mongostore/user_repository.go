package mongostore

import (
	"context"
	"time"

	"github.com/yigit/schoolhub/internal/app/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository stores users in the users collection
type UserRepository struct {
	col *mongo.Collection
}

var byCreatedAt = bson.D{{Key: "created_at", Value: 1}}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	_, err := r.col.InsertOne(ctx, user)
	return mapWriteError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"_id": id})
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return findMany[models.User](ctx, r.col, bson.M{"_id": inIDs(ids)}, byCreatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.col, bson.M{"email": email})
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	return findMany[models.User](ctx, r.col, bson.M{}, byCreatedAt)
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	set := bson.M{
		"name":       user.Name,
		"email":      user.Email,
		"password":   user.Password,
		"role":       user.Role,
		"updated_at": user.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if user.Age != nil {
		set["age"] = *user.Age
	} else {
		update["$unset"] = bson.M{"age": ""}
	}
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": user.ID}, update))
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deletedOne(r.col.DeleteOne(ctx, bson.M{"_id": id}))
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID, token string, expires time.Time) error {
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	}}))
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID string) error {
	return matchedOne(r.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$unset": bson.M{
		"reset_password_token":   "",
		"reset_password_expires": "",
	}}))
}
