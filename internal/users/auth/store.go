// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/taibuivan/socialite/internal/platform/apperr"
)

// # Storage Errors

// Conflicts reported by [UserRepository.Create] and [UserRepository.LinkProvider].
// Match them with errors.Is.
var (
	ErrEmailTaken     = apperr.Conflict("Email is already registered")
	ErrUsernameTaken  = apperr.Conflict("Username is already taken")
	ErrProviderLinked = apperr.Conflict("Provider account is already linked")
)

// # User Data Access

// UserRepository defines the data access contract for identities.
//
// Lookups return an [apperr.AppError] with [apperr.CodeNotFound] when nothing matches.
type UserRepository interface {

	/*
		FindByID returns the identity with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the identity with the given (normalized) email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the identity with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByProvider returns the identity linked to an external account.

		Parameters:
		  - context: context.Context
		  - provider: string (e.g. "github")
		  - subject: string (the provider's stable account id)

		Returns:
		  - *User: Hydrated entity
		  - error: NotFound or database retrieval failures
	*/
	FindByProvider(context context.Context, provider, subject string) (*User, error)

	/*
		Create persists a new identity, and its provider link when given, atomically.

		Parameters:
		  - context: context.Context
		  - user: *User
		  - link: *ProviderLink (nil for password identities)

		Returns:
		  - error: ErrEmailTaken, ErrUsernameTaken, ErrProviderLinked or persistence failures
	*/
	Create(context context.Context, user *User, link *ProviderLink) error

	/*
		LinkProvider attaches an external account to an existing identity.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - link: ProviderLink

		Returns:
		  - error: ErrProviderLinked or persistence failures
	*/
	LinkProvider(context context.Context, userID string, link ProviderLink) error
}

// # Token Family Data Access

// TokenRepository stores each identity's ordered list of live refresh tokens.
//
// Tokens are addressed by their SHA-256 digest. Every mutation is a single
// atomic statement (or one transaction), so concurrent requests for the same
// identity never lose an update.
type TokenRepository interface {

	/*
		Append adds a token at the end of the identity's list.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string
		  - issuedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	Append(context context.Context, userID, tokenHash string, issuedAt time.Time) error

	/*
		Replace swaps oldHash for newHash in place, only if oldHash is still on file.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - oldHash: string
		  - newHash: string
		  - issuedAt: time.Time

		Returns:
		  - bool: false when oldHash was not in the list (nothing changed)
		  - error: Persistence failures
	*/
	Replace(context context.Context, userID, oldHash, newHash string, issuedAt time.Time) (bool, error)

	/*
		Remove deletes one token from the list, leaving its siblings.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string

		Returns:
		  - bool: false when the token was not in the list
		  - error: Persistence failures
	*/
	Remove(context context.Context, userID, tokenHash string) (bool, error)

	/*
		ReplaceAll makes tokenHash the only entry of the list.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - tokenHash: string
		  - issuedAt: time.Time

		Returns:
		  - error: Persistence failures
	*/
	ReplaceAll(context context.Context, userID, tokenHash string, issuedAt time.Time) error

	/*
		Wipe empties the list.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - int64: Number of tokens revoked
		  - error: Persistence failures
	*/
	Wipe(context context.Context, userID string) (int64, error)

	/*
		List returns the live tokens in list order.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []TokenRecord: Ordered records (empty when signed out everywhere)
		  - error: Retrieval failures
	*/
	List(context context.Context, userID string) ([]TokenRecord, error)
}

// # Volatile Data Access

// Handshake is a pending OAuth sign-in waiting for its callback.
type Handshake struct {
	Provider string `json:"provider"`
	Verifier string `json:"verifier"`
}

// HandshakeRepository parks OAuth state between redirect and callback.
type HandshakeRepository interface {

	/*
		Save stores a handshake under its state value for ttl.

		Parameters:
		  - context: context.Context
		  - state: string
		  - handshake: Handshake
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Save(context context.Context, state string, handshake Handshake, ttl time.Duration) error

	/*
		Consume returns and deletes the handshake in one step. A state can be
		redeemed at most once.

		Parameters:
		  - context: context.Context
		  - state: string

		Returns:
		  - *Handshake: The pending handshake
		  - error: NotFound when unknown, expired or already used
	*/
	Consume(context context.Context, state string) (*Handshake, error)
}
