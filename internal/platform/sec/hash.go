// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHashCost is the bcrypt work factor (2^10 rounds).
const PasswordHashCost = 10

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordHashCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash compares a plain-text password with its hashed version.
//
// An empty hash belongs to a federated-only identity and never matches; the
// bcrypt work is still spent. Malformed hashes are reported as a mismatch
// rather than an error.
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	if existingHash == "" {
		BurnPasswordCheck(plainTextPassword)
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// BurnPasswordCheck spends the same bcrypt work as [CheckPasswordHash] against a
// fixed hash. Login calls it for unknown emails so both failure paths take
// equally long.
func BurnPasswordCheck(plainTextPassword string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("socialite-timing-equalizer"), PasswordHashCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plainTextPassword))
}
