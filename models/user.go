package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the stored user document. SubjectID is the identity provider's
// stable id for this user; it never leaves the service, and neither does
// the email.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SubjectID      string             `bson:"subjectId" json:"-"`
	Email          string             `bson:"email" json:"-"`
	Username       string             `bson:"username" json:"username"`
	DisplayName    string             `bson:"displayName" json:"displayName"`
	ProfilePicture string             `bson:"profilePicture" json:"profilePicture"`
	Bio            string             `bson:"bio" json:"bio"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PublicProfile is the subset of a user safe to show any authenticated caller.
type PublicProfile struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	DisplayName    string             `json:"displayName"`
	ProfilePicture string             `json:"profilePicture"`
	Bio            string             `json:"bio"`
	CreatedAt      time.Time          `json:"createdAt"`
}

func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
		CreatedAt:      u.CreatedAt,
	}
}

// Author is the stub embedded in post and comment responses.
type Author struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	DisplayName    string             `json:"displayName"`
	ProfilePicture string             `json:"profilePicture"`
}

func (u *User) Author() *Author {
	return &Author{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		ProfilePicture: u.ProfilePicture,
	}
}

// CanMutate reports whether requester may modify or delete a resource owned
// by owner. Typed id equality, never string comparison.
func CanMutate(owner, requester primitive.ObjectID) bool {
	return !owner.IsZero() && owner == requester
}
