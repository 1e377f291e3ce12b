// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account lets a signed-in member see and manage their own identity.

It exposes the private profile (linked providers, session count) and the
"sign out everywhere" control. Credentials and token rotation stay in the
auth package; this package only reads identities and asks auth to revoke.

# Architecture

  - Entities: Profile (DTO).
  - Domain: Depends on the auth package for the User entity and sessions.
*/
package account

import (
	"context"

	"github.com/taibuivan/socialite/internal/users/auth"
)

// # Domain Entities

// Profile is the private view of the caller's own identity.
type Profile struct {
	auth.PublicUser

	// HasPassword is false for identities created through a provider.
	HasPassword bool `json:"hasPassword"`

	// Providers lists the linked external accounts by provider name.
	Providers []string `json:"providers"`

	// ActiveSessions counts refresh tokens on file.
	ActiveSessions int `json:"activeSessions"`
}

// # Contracts

// AccountRepository reads and updates identities.
//
// [auth.PostgresUserRepository] is the production implementation.
type AccountRepository interface {
	FindByID(context context.Context, id string) (*auth.User, error)
	ListProviders(context context.Context, userID string) ([]auth.ProviderLink, error)
	UpdateDisplayName(context context.Context, userID, displayName string) (*auth.User, error)
}

// SessionManager lists and revokes sessions. [auth.Service] satisfies it.
type SessionManager interface {
	Sessions(context context.Context, identityID string) ([]auth.TokenRecord, error)
	RevokeAll(context context.Context, identityID string) (int64, error)
}
