// Package models holds the server-side data shapes for user accounts.
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the full stored account row. Password holds a salted bcrypt hash
// produced by the database and is never serialized.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// UserCreation is the input to account creation. Password is plaintext and
// is only ever sent to the hashing statement.
type UserCreation struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// UserUpdate is a partial update; nil fields leave the column unchanged.
type UserUpdate struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	OldPassword *string `json:"old_password,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
}

// UserResult is the public view of a user. It never carries email or password.
type UserResult struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Result projects u onto its public view.
func (u *User) Result() UserResult {
	return UserResult{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
