package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the Mongo client and the collections the service uses. It is
// created once at startup and handed to the repositories; nothing reads
// it as a package global.
type DB struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Posts    *mongo.Collection
	Comments *mongo.Collection
}

func Connect(uri, name string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(name)

	log.Println("Connected to MongoDB successfully")

	return &DB{
		Client:   client,
		Users:    db.Collection("users"),
		Posts:    db.Collection("posts"),
		Comments: db.Collection("comments"),
	}, nil
}

// EnsureIndexes creates the unique and secondary indexes the repositories
// rely on. Uniqueness conflicts surface as duplicate-key errors, which the
// repositories map to field-level conflicts.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "subjectId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = db.Posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return err
	}

	_, err = db.Comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "postId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}

func (db *DB) Disconnect() error {
	if db == nil || db.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
