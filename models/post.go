package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post embeds its like-set and both denormalized counters. LikesCount is
// recomputed from the like-set inside the same update that mutates it, so
// the two cannot drift.
type Post struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID   `bson:"userId" json:"userId"`
	Content       string               `bson:"content" json:"content"`
	ImageURL      string               `bson:"imageUrl" json:"imageUrl"`
	Likes         []primitive.ObjectID `bson:"likes" json:"likes"`
	LikesCount    int                  `bson:"likesCount" json:"likesCount"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`
	IsAnonymous   bool                 `bson:"isAnonymous" json:"isAnonymous"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
	User          *Author              `bson:"-" json:"user,omitempty"` // populated in responses only
}

// LikedBy reports membership of userID in the like-set.
func (p *Post) LikedBy(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}
