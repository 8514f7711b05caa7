package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordMismatch is returned when a password does not match the stored hash.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrWeakHash rejects configured hashes below the minimum bcrypt cost.
	ErrWeakHash = errors.New("password hash cost too low")
)

// PasswordVerifier checks operator passwords against a configured hash.
type PasswordVerifier interface {
	Compare(hash string, password string) error
	CheckHash(hash string) error
}

// BcryptVerifier verifies bcrypt hashes of at least minCost.
type BcryptVerifier struct {
	minCost int
}

// NewBcryptVerifier creates BcryptVerifier. Zero means bcrypt.DefaultCost.
func NewBcryptVerifier(minCost int) *BcryptVerifier {
	if minCost <= 0 {
		minCost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{minCost: minCost}
}

// CheckHash reports whether hash is a usable bcrypt hash.
func (v *BcryptVerifier) CheckHash(hash string) error {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return fmt.Errorf("malformed password hash: %w", err)
	}
	if cost < v.minCost {
		return ErrWeakHash
	}
	return nil
}

// Compare checks password against hash.
func (v *BcryptVerifier) Compare(hash string, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
