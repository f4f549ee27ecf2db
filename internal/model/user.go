// Package model defines the records stored by the persistence layer and
// passed between services, the feed assembler and the templates.
package model

import "time"

// User is the identity behind posts, comments and follow edges.
//
// Accounts come either from the signup form (PasswordHash set) or from
// GitHub sign-in (GitHubID set). Username is unique in both cases and is
// what URLs use (/profile/<username>/).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	GitHubID     int64     `json:"-"` // 0 when the account was not created through GitHub
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
