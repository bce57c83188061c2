package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Comment struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID      primitive.ObjectID `bson:"postId" json:"postId"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Content     string             `bson:"content" json:"content"`
	IsAnonymous bool               `bson:"isAnonymous" json:"isAnonymous"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	User        *Author            `bson:"-" json:"user,omitempty"` // populated in responses only
}
