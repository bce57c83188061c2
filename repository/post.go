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

type MongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(coll *mongo.Collection) *MongoPostRepository {
	return &MongoPostRepository{coll: coll}
}

func (r *MongoPostRepository) Create(ctx context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Likes == nil {
		p.Likes = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.LikesCount = 0
	p.CommentsCount = 0

	_, err := r.coll.InsertOne(ctx, p)
	return classify(err)
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *MongoPostRepository) List(ctx context.Context, page, limit int) ([]models.Post, int64, error) {
	skip := int64(page-1) * int64(limit)

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, classify(err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, classify(err)
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, classify(err)
	}

	return posts, total, nil
}

func (r *MongoPostRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, classify(err)
	}
	return posts, nil
}

// ToggleLike is a single FindOneAndUpdate with an aggregation pipeline:
// stage one flips userID's membership in the like-set, stage two recomputes
// likesCount from the set. Concurrent toggles by different users serialize
// on the document and cannot lose updates.
func (r *MongoPostRepository) ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error) {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{userID, "$likes"}},
				bson.M{"$setDifference": bson.A{"$likes", bson.A{userID}}},
				bson.M{"$concatArrays": bson.A{"$likes", bson.A{userID}}},
			}},
		}},
		bson.M{"$set": bson.M{
			"likesCount": bson.M{"$size": "$likes"},
			"updatedAt":  time.Now().UTC(),
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Post
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": postID}, pipeline, opts).Decode(&p)
	if err != nil {
		return nil, false, classify(err)
	}
	return &p, p.LikedBy(userID), nil
}

func (r *MongoPostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) AdjustCommentsCount(ctx context.Context, postID primitive.ObjectID, delta int) error {
	pipeline := bson.A{
		bson.M{"$set": bson.M{
			"commentsCount": bson.M{"$max": bson.A{
				0,
				bson.M{"$add": bson.A{"$commentsCount", delta}},
			}},
			"updatedAt": time.Now().UTC(),
		}},
	}

	// Matching zero documents is fine: the post may have been deleted
	// between the comment operation and this adjustment.
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": postID}, pipeline)
	return classify(err)
}
