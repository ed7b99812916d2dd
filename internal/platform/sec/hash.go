// Copyright (c) 2026 Tasknest. All rights reserved.
// Author: dev@tasknest.app

package sec

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// # Password Hashing

// PasswordHasher hashes and verifies user credentials with bcrypt.
//
// The cost factor comes from configuration so deployments can trade CPU for
// resistance; it is injected once at startup rather than read from the
// environment at call time.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a hasher with the given bcrypt cost.
// Costs outside bcrypt's supported range fall back to the library default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt digest of a plain-text password.
func (hasher *PasswordHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its stored hash.
// The comparison is constant-time inside bcrypt.
func (hasher *PasswordHasher) Verify(plainTextPassword, existingHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
}

// # Refresh Token Digests

// HashToken returns the keyed HMAC-SHA256 hex digest of a raw token string.
//
// Refresh tokens are JWTs, which exceed bcrypt's 72-byte input limit, so the
// session store keeps an HMAC digest instead: one-way like bcrypt, keyed by a
// server-side pepper so a leaked database alone cannot be used to forge
// lookups.
func HashToken(rawToken, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(rawToken))
	return hex.EncodeToString(mac.Sum(nil))
}
