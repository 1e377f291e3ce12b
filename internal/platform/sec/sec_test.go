// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/socialite/internal/platform/sec"
)

var (
	accessSecret  = []byte("access-secret")
	refreshSecret = []byte("refresh-secret")
)

// fixedClock returns a clock the test can move forward.
func fixedClock(start time.Time) (func() time.Time, func(time.Duration)) {
	current := start
	return func() time.Time { return current }, func(d time.Duration) { current = current.Add(d) }
}

/*
TestPassword_HashAndCheck covers the credential verifier contract.
*/
func TestPassword_HashAndCheck(t *testing.T) {
	hash, err := sec.HashPassword("p4ssword")
	require.NoError(t, err)

	assert.True(t, sec.CheckPasswordHash("p4ssword", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))

	// Federated-only identities have no hash at all.
	assert.False(t, sec.CheckPasswordHash("p4ssword", ""))

	// Garbage in the hash column is a mismatch, not a panic.
	assert.False(t, sec.CheckPasswordHash("p4ssword", "not-a-bcrypt-hash"))

	assert.NotPanics(t, func() { sec.BurnPasswordCheck("anything") })
}

/*
TestPassword_EmptyHashSpendsBcryptWork ensures a federated-only identity is
rejected no faster than a wrong password.
*/
func TestPassword_EmptyHashSpendsBcryptWork(t *testing.T) {
	hash, err := sec.HashPassword("p4ssword")
	require.NoError(t, err)

	// Prime the equalizer hash so its one-time setup is not measured.
	sec.BurnPasswordCheck("warm-up")

	started := time.Now()
	sec.CheckPasswordHash("wrong", hash)
	mismatch := time.Since(started)

	started = time.Now()
	assert.False(t, sec.CheckPasswordHash("wrong", ""))
	empty := time.Since(started)

	assert.GreaterOrEqual(t, empty, mismatch/4)
}

/*
TestTokenIssuer_RoundTrip verifies issued claims survive verification.
*/
func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := sec.NewTokenIssuer("socialite.app", nil)

	token, err := issuer.Issue("user-1", "a@x.com", accessSecret, time.Minute)
	require.NoError(t, err)

	claims, err := issuer.Verify(token, accessSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.IdentityID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.NotEmpty(t, claims.Nonce)
	assert.Equal(t, "user-1", claims.Subject)
}

/*
TestTokenIssuer_NonceUniqueness ensures same-instant tokens never collide.
*/
func TestTokenIssuer_NonceUniqueness(t *testing.T) {
	now, _ := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer := sec.NewTokenIssuer("socialite.app", now)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		token, err := issuer.Issue("user-1", "a@x.com", refreshSecret, time.Hour)
		require.NoError(t, err)

		_, duplicate := seen[token]
		require.False(t, duplicate, "token issued twice")
		seen[token] = struct{}{}
	}
}

/*
TestTokenIssuer_VerifyFailures maps each failure mode to its error.
*/
func TestTokenIssuer_VerifyFailures(t *testing.T) {
	now, advance := fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	issuer := sec.NewTokenIssuer("socialite.app", now)

	token, err := issuer.Issue("user-1", "a@x.com", accessSecret, time.Minute)
	require.NoError(t, err)

	t.Run("wrong_secret", func(t *testing.T) {
		_, err := issuer.Verify(token, refreshSecret)
		assert.ErrorIs(t, err, sec.ErrInvalidSignature)
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		forged := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
		_, err := issuer.Verify(forged, accessSecret)
		assert.ErrorIs(t, err, sec.ErrInvalidSignature)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Verify("not-a-jwt", accessSecret)
		assert.ErrorIs(t, err, sec.ErrInvalidSignature)
	})

	t.Run("foreign_issuer", func(t *testing.T) {
		other := sec.NewTokenIssuer("elsewhere.app", now)
		foreign, err := other.Issue("user-1", "a@x.com", accessSecret, time.Minute)
		require.NoError(t, err)

		_, err = issuer.Verify(foreign, accessSecret)
		assert.ErrorIs(t, err, sec.ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		advance(2 * time.Minute)
		_, err := issuer.Verify(token, accessSecret)
		assert.ErrorIs(t, err, sec.ErrTokenExpired)
	})
}

/*
TestTokenIssuer_EmptySecret refuses to sign without a key.
*/
func TestTokenIssuer_EmptySecret(t *testing.T) {
	issuer := sec.NewTokenIssuer("socialite.app", nil)
	_, err := issuer.Issue("user-1", "a@x.com", nil, time.Minute)
	assert.Error(t, err)
}

/*
TestTokenService_SecretsAreSeparated ensures access and refresh tokens are not interchangeable.
*/
func TestTokenService_SecretsAreSeparated(t *testing.T) {
	service, err := sec.NewTokenService(sec.NewTokenIssuer("socialite.app", nil), sec.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)

	pair, err := service.IssuePair("user-1", "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	_, err = service.VerifyAccess(pair.AccessToken)
	assert.NoError(t, err)
	_, err = service.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err)

	_, err = service.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, sec.ErrInvalidSignature)
	_, err = service.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, sec.ErrInvalidSignature)
}

/*
TestNewTokenService_Validation rejects unsafe configurations.
*/
func TestNewTokenService_Validation(t *testing.T) {
	issuer := sec.NewTokenIssuer("socialite.app", nil)

	_, err := sec.NewTokenService(issuer, sec.TokenConfig{AccessSecret: "same", RefreshSecret: "same", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	assert.Error(t, err)

	_, err = sec.NewTokenService(issuer, sec.TokenConfig{AccessSecret: "a", RefreshSecret: "b"})
	assert.Error(t, err)
}

/*
TestHelpers covers token hashing and random tokens.
*/
func TestHelpers(t *testing.T) {
	assert.Equal(t, sec.HashToken("abc"), sec.HashToken("abc"))
	assert.NotEqual(t, sec.HashToken("abc"), sec.HashToken("abd"))
	assert.Len(t, sec.HashToken("abc"), 64)

	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 43)
}

/*
TestUserRole_AtLeast checks the role hierarchy.
*/
func TestUserRole_AtLeast(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleUser))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleAdmin))
	assert.True(t, sec.RoleUser.Valid())
	assert.False(t, sec.UserRole("moderator").Valid())
}
