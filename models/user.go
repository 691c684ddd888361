package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles form a closed enum; authorization checks compare against
// these constants, never ad hoc strings.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password" json:"-"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Village           string             `bson:"village,omitempty" json:"village,omitempty"`
	District          string             `bson:"district,omitempty" json:"district,omitempty"`
	State             string             `bson:"state,omitempty" json:"state,omitempty"`
	PreferredLanguage string             `bson:"preferred_language,omitempty" json:"preferred_language,omitempty"`
	Role              string             `bson:"role" json:"role"`
	ProfilePicture    string             `bson:"profile_picture,omitempty" json:"profile_picture,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserSummary is the display projection joined into campaign reads.
type UserSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email,omitempty"`
	ProfilePicture string             `json:"profile_picture,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfilePicture: u.ProfilePicture,
	}
}
