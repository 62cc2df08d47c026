// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User is an account that owns exactly one portfolio.
type User struct {
	ID uint `gorm:"primaryKey"`

	// Email is the login name. Unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Password holds the bcrypt hash, never the plaintext.
	Password string `gorm:"size:255;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PortfolioTitle returns the heading shown on the user's portfolio page.
func (u User) PortfolioTitle() string {
	return u.Email + "'s Portfolio"
}
