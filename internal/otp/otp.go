// Package otp stores hashed one-time passwords keyed by e-mail address.
//
// A Store holds at most one record per address. Put replaces any existing
// record and resets its failure count, so concurrent issuers resolve to
// last-write-wins. Records are returned even when expired; callers compare
// ExpiresAt themselves.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	codeMin = 100000
	codeMax = 999999

	// MaxAttempts is the number of wrong guesses a record tolerates before
	// it is discarded.
	MaxAttempts = 5
)

// ErrNotFound is returned by Get when no record exists for the address.
var ErrNotFound = errors.New("otp: record not found")

// Record is a stored one-time password.
type Record struct {
	Email     string
	Hash      string
	ExpiresAt time.Time
	Attempts  int
}

// Expired reports whether the record is no longer usable at now.
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Exhausted reports whether the record has used up its guesses.
func (r *Record) Exhausted() bool {
	return r.Attempts >= MaxAttempts
}

// Store persists OTP records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, email string) (*Record, error)
	Delete(ctx context.Context, email string) error

	// RecordFailure counts one wrong guess against the record for email and
	// returns the updated count, or ErrNotFound.
	RecordFailure(ctx context.Context, email string) (int, error)
}

// Sweeper is implemented by stores that need expired records removed
// explicitly. The mongo backend relies on a TTL index instead.
type Sweeper interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GenerateCode returns a uniformly random six-digit code.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// HashCode hashes a code for storage.
func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether code matches the record's hash.
func (r *Record) Matches(code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(r.Hash), []byte(code)) == nil
}
