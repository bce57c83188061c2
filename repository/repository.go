// Package repository owns persistence for users, posts, and comments.
// Counter-bearing updates are single atomic operations scoped to one
// document id; there is no read-modify-write-back anywhere.
package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"anonyme/models"
)

// ProfileUpdate carries optional-overwrite profile fields. nil leaves the
// field untouched; a non-nil empty string is an intentional clear (except
// DisplayName, which is ignored when blank, matching register's default).
type ProfileUpdate struct {
	DisplayName    *string
	Bio            *string
	ProfilePicture *string
}

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindBySubject(ctx context.Context, subjectID string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByIDs batch-fetches users for response population.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
}

type PostRepository interface {
	Create(ctx context.Context, p *models.Post) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	// List returns one page, newest first, plus the total post count.
	List(ctx context.Context, page, limit int) ([]models.Post, int64, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error)
	// ToggleLike flips userID's membership in the like-set and recomputes
	// likesCount from the set in the same atomic update. The returned bool
	// is true when this call added the like.
	ToggleLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, bool, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// AdjustCommentsCount adds delta to the post's commentsCount, floored
	// at zero. A missing post is a no-op: orphaned comments may still be
	// deleted after their post is gone.
	AdjustCommentsCount(ctx context.Context, postID primitive.ObjectID, delta int) error
}

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ListForPost(ctx context.Context, postID primitive.ObjectID) ([]models.Comment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DeleteForPost removes every comment on postID; used for the
	// best-effort cascade after a post deletion.
	DeleteForPost(ctx context.Context, postID primitive.ObjectID) (int64, error)
}
