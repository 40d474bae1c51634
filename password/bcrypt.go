// Package password hashes and verifies account passwords with bcrypt.
// Every hash embeds a per-password random salt, so equal passwords never
// produce equal hashes.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost balances hash strength against login latency.
	DefaultCost = 10

	maxPasswordBytes = 72 // bcrypt input limit
)

// ErrTooLong reports a password exceeding bcrypt's input limit.
var ErrTooLong = errors.New("password exceeds maximum length")

// Config tunes the hasher. A zero Cost selects DefaultCost.
type Config struct {
	Cost int
}

// Hasher derives and verifies bcrypt password hashes.
type Hasher struct {
	cost int
}

// New validates cfg and returns a ready Hasher.
func New(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash derives a salted hash of the plaintext password.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is
// not an error; err is non-nil only for malformed hashes.
func (h *Hasher) Verify(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}
