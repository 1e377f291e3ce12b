// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements identities and their sessions.

A session is a refresh token on file for an identity. Login adds one,
Refresh swaps one for its successor in place, Logout removes one, and a
refresh token presented after it left the list wipes every session the
identity has.
*/
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/taibuivan/socialite/internal/platform/sec"
)

// # Domain Entities

// User is an identity: one person, however they signed in.
//
// Email and PasswordHash are empty when absent. Federated identities may have
// neither.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	Role         sec.UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProviderLink ties an external provider account to an identity.
type ProviderLink struct {
	Provider string
	Subject  string
}

// TokenRecord is one live refresh token on file, in list order.
type TokenRecord struct {
	TokenHash   string
	RotatedFrom string
	IssuedAt    time.Time
}

// ExternalProfile is the normalized result of a completed OAuth handshake.
type ExternalProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	Login         string
}

// PublicUser is the only representation of a User that leaves the service.
type PublicUser struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	DisplayName string       `json:"displayName,omitempty"`
	Role        sec.UserRole `json:"role"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Public strips credentials from the identity.
func (user *User) Public() PublicUser {
	return PublicUser{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		CreatedAt:   user.CreatedAt,
	}
}

// HasPassword reports whether the identity can sign in with a password.
func (user *User) HasPassword() bool {
	return user.PasswordHash != ""
}

// errNoAuthMeans rejects identities that nobody could ever sign in to.
var errNoAuthMeans = errors.New("auth: identity needs a password or a provider link")

// validateNew checks the creation invariants of an identity.
func validateNew(user *User, link *ProviderLink) error {
	if user.ID == "" || user.Username == "" {
		return errors.New("auth: identity id and username are required")
	}
	if !user.HasPassword() && (link == nil || link.Provider == "" || link.Subject == "") {
		return errNoAuthMeans
	}
	if !user.Role.Valid() {
		return errors.New("auth: unknown role " + string(user.Role))
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// # Field Identifiers

const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "displayName"
	FieldIdentityID  = "identityId"
	FieldMessage     = "message"
	FieldSessions    = "sessions"
)
