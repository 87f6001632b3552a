package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FullName is the user's display name as submitted at registration.
type FullName struct {
	FirstName string `json:"firstname" bson:"firstname"`
	LastName  string `json:"lastname" bson:"lastname"`
}

// User represents a registered account. PasswordHash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FullName     FullName           `json:"fullname" bson:"fullname"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	CreatedAt    time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updated_at"`
}

// Sanitized returns a copy safe to hand to transport code.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}
