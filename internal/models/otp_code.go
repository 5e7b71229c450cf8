package models

import "time"

// OTPCode is a hashed one-time password keyed by e-mail. At most one code
// exists per address; issuing a new one replaces the old. Attempts counts
// wrong guesses against the current code.
type OTPCode struct {
	Email     string    `gorm:"primaryKey"`
	Hash      string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	Attempts  int       `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
