// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/migration"
	"github.com/taibuivan/socialite/internal/platform/postgres"
	"github.com/taibuivan/socialite/internal/platform/redis"
	"github.com/taibuivan/socialite/internal/platform/sec"
	"github.com/taibuivan/socialite/pkg/uuid"
)

// Integration tests against real backing stores. They run only when the
// matching SOCIALITE_TEST_* variable points at a disposable instance.

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("SOCIALITE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SOCIALITE_TEST_DATABASE_URL not set")
	}

	logger := slog.New(slog.DiscardHandler)
	require.NoError(t, migration.RunUp(dsn, "../../../data/migrations", logger))

	pool, err := postgres.NewPool(context.Background(), dsn, logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func newStoredUser(t *testing.T, users *PostgresUserRepository) *User {
	t.Helper()

	id := uuid.New()
	user := &User{
		ID:           id,
		Username:     "it-" + id[len(id)-12:],
		Email:        id + "@example.com",
		PasswordHash: "hash",
		Role:         sec.RoleUser,
	}
	require.NoError(t, users.Create(context.Background(), user, nil))
	return user
}

func TestPostgresUserRepository(t *testing.T) {
	pool := testPool(t)
	users := NewUserRepository(pool)
	ctx := context.Background()

	user := newStoredUser(t, users)

	found, err := users.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.False(t, found.CreatedAt.IsZero())

	_, err = users.FindByID(ctx, uuid.New())
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	duplicate := &User{ID: uuid.New(), Username: user.Username + "x", Email: user.Email, PasswordHash: "h", Role: sec.RoleUser}
	assert.ErrorIs(t, users.Create(ctx, duplicate, nil), ErrEmailTaken)

	duplicate = &User{ID: uuid.New(), Username: user.Username, PasswordHash: "h", Role: sec.RoleUser}
	assert.ErrorIs(t, users.Create(ctx, duplicate, nil), ErrUsernameTaken)

	link := ProviderLink{Provider: "github", Subject: user.ID}
	require.NoError(t, users.LinkProvider(ctx, user.ID, link))
	assert.ErrorIs(t, users.LinkProvider(ctx, user.ID, link), ErrProviderLinked)

	linked, err := users.FindByProvider(ctx, link.Provider, link.Subject)
	require.NoError(t, err)
	assert.Equal(t, user.ID, linked.ID)

	federated := &User{ID: uuid.New(), Username: "fed-" + user.ID[len(user.ID)-12:], Role: sec.RoleUser}
	require.NoError(t, users.Create(ctx, federated, &ProviderLink{Provider: "google", Subject: federated.ID}))

	stored, err := users.FindByID(ctx, federated.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Email)
	assert.False(t, stored.HasPassword())

	links, err := users.ListProviders(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []ProviderLink{link}, links)

	renamed, err := users.UpdateDisplayName(ctx, user.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.DisplayName)

	_, err = users.UpdateDisplayName(ctx, uuid.New(), "Nobody")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestPostgresTokenRepository(t *testing.T) {
	pool := testPool(t)
	tokens := NewTokenRepository(pool)
	user := newStoredUser(t, NewUserRepository(pool))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, hash := range []string{"h1", "h2", "h3"} {
		require.NoError(t, tokens.Append(ctx, user.ID, user.ID+hash, now))
	}

	replaced, err := tokens.Replace(ctx, user.ID, user.ID+"h2", user.ID+"h2b", now)
	require.NoError(t, err)
	assert.True(t, replaced)

	replaced, err = tokens.Replace(ctx, user.ID, user.ID+"h2", user.ID+"h2c", now)
	require.NoError(t, err)
	assert.False(t, replaced)

	records, err := tokens.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, user.ID+"h2b", records[1].TokenHash)
	assert.Equal(t, user.ID+"h2", records[1].RotatedFrom)

	removed, err := tokens.Remove(ctx, user.ID, user.ID+"h1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = tokens.Remove(ctx, user.ID, user.ID+"h1")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, tokens.ReplaceAll(ctx, user.ID, user.ID+"solo", now))
	records, err = tokens.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, user.ID+"solo", records[0].TokenHash)

	revoked, err := tokens.Wipe(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), revoked)
}

func TestRedisHandshakeRepository(t *testing.T) {
	url := os.Getenv("SOCIALITE_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SOCIALITE_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.NewClient(ctx, url, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	handshakes := NewHandshakeRepository(client)
	state := uuid.New()

	require.NoError(t, handshakes.Save(ctx, state, Handshake{Provider: "github", Verifier: "v"}, time.Minute))

	handshake, err := handshakes.Consume(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, &Handshake{Provider: "github", Verifier: "v"}, handshake)

	_, err = handshakes.Consume(ctx, state)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
