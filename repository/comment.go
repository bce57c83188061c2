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

type MongoCommentRepository struct {
	coll *mongo.Collection
}

func NewMongoCommentRepository(coll *mongo.Collection) *MongoCommentRepository {
	return &MongoCommentRepository{coll: coll}
}

func (r *MongoCommentRepository) Create(ctx context.Context, c *models.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := r.coll.InsertOne(ctx, c)
	return classify(err)
}

func (r *MongoCommentRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var c models.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, classify(err)
	}
	return &c, nil
}

func (r *MongoCommentRepository) ListForPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"postId": postID}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, classify(err)
	}
	return comments, nil
}

func (r *MongoCommentRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoCommentRepository) DeleteForPost(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"postId": postID})
	if err != nil {
		return 0, classify(err)
	}
	return res.DeletedCount, nil
}
