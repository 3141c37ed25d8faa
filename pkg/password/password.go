// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmptyPassword   = errors.New("password cannot be empty")
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)

// MaxLength is the most bcrypt will consume from a password. Longer
// passwords are refused rather than silently truncated.
const MaxLength = 72

// Hasher produces salted bcrypt digests. The zero value uses bcrypt.DefaultCost.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given cost. Costs outside bcrypt's
// accepted range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns a bcrypt digest of plaintext. Every call uses a fresh salt, so
// two digests of the same password never compare equal as strings.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > MaxLength {
		return "", ErrPasswordTooLong
	}
	cost := bcrypt.DefaultCost
	if h != nil && h.Cost != 0 {
		cost = h.Cost
	}
	bs, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(bs), nil
}

// Verify reports whether digest was produced from plaintext. Malformed
// digests yield false, as do plaintexts Hash would have refused.
func (h *Hasher) Verify(plaintext, digest string) bool {
	if plaintext == "" || digest == "" || len(plaintext) > MaxLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
