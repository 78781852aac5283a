// Package model defines the persisted entities. These structs mirror table
// rows; per-request view state (favorited, following) never lives here, see
// package view for that.
package model

import "time"

// User is a registered account.
//
// Username is unique and stored lower-case. Email is unique. A user created
// through GitHub login carries GitHubID and has an empty PasswordHash, which
// makes email/password login impossible for that account until a password
// is set through PUT /api/user.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Bio          string    `json:"bio"       db:"bio"`
	Image        string    `json:"image"     db:"image"`
	GitHubID     *int64    `json:"-"         db:"github_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
