// Package models holds the identity types tracked by the marketplace.
package models

import "time"

// User captures a registered account. Parents and institution owners share
// the same user table; the provider domain layers the owner role on top.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// RegisterRequest carries the fields needed to create an account. First and
// last name are optional; missing names are derived from the email local part.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginRequest carries credentials for token issuance.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResult is the issued access token plus its lifetime in seconds.
type TokenResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	UserID      int64  `json:"user_id"`
}
