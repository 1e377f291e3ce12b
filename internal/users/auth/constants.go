// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Identity Constraints

const (
	// MaxUsernameLength bounds usernames, chosen or derived.
	MaxUsernameLength = 32

	// MaxPasswordBytes is the longest password bcrypt will fully read.
	MaxPasswordBytes = 72

	MaxDisplayNameLength = 100

	// usernameSuffixBytes is the random suffix size appended on username collisions.
	usernameSuffixBytes = 2

	// usernameAttempts bounds the collision retries when deriving a username.
	usernameAttempts = 5
)

// # Handshake

const (
	// HandshakeTTL is how long a pending OAuth handshake stays redeemable.
	HandshakeTTL = 10 * time.Minute

	// HandshakeStateLength is the byte length of the random OAuth state.
	HandshakeStateLength = 32
)

// # Failure Messages

// Client-facing messages for session failures. They are stable; clients and
// tests match on them.
const (
	MessageNoRefreshToken      = "no refresh token"
	MessageInvalidRefreshToken = "invalid refresh token"
	MessageUserNotFound        = "user not found"
	MessageInvalidRequest      = "invalid request"
	MessageRefreshTokenReused  = "refresh token reuse detected"
	MessageRefreshTokenWrong   = "refresh token is wrong"
)

// # OAuth Callback Error Codes

// Values of the 'error' query parameter on the client callback redirect.
const (
	CallbackErrorAccessDenied   = "access_denied"
	CallbackErrorInvalidState   = "invalid_state"
	CallbackErrorExchangeFailed = "exchange_failed"
	CallbackErrorProfileFailed  = "profile_failed"
	CallbackErrorLoginFailed    = "login_failed"
)
