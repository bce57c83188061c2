package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"anonyme/models"
)

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(coll *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{coll: coll}
}

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, u)
	return classify(err)
}

func (r *MongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) FindBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"subjectId": subjectID})
}

func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

func (r *MongoUserRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error) {
	result := make(map[primitive.ObjectID]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, classify(err)
	}

	for i := range users {
		result[users[i].ID] = &users[i]
	}
	return result, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.DisplayName != nil {
		set["displayName"] = *upd.DisplayName
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		set["profilePicture"] = *upd.ProfilePicture
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var u models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}
