package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Name         string    `json:"name" dynamodbav:"name"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Role         string    `json:"role" dynamodbav:"role"`
	Avatar       *Avatar   `json:"avatar" dynamodbav:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Avatar points at an uploaded profile image. StorageID is the object key the asset
// store needs to delete it later.
type Avatar struct {
	URL       string `json:"url" dynamodbav:"url"`
	StorageID string `json:"storage_id" dynamodbav:"storage_id"`
}

// PublicUser is the minimal projection returned after email verification.
type PublicUser struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func (u *User) Public() PublicUser {
	return PublicUser{UserID: u.UserID, Name: u.Name, Email: u.Email}
}
