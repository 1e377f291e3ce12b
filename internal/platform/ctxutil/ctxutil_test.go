// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	"github.com/taibuivan/socialite/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that access-token claims can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	claims := &sec.AuthClaims{
		IdentityID: "user-123",
		Email:      "a@x.com",
	}

	// 1. Initially anonymous
	assert.Nil(t, ctxutil.GetAuthUser(ctx))
	assert.Empty(t, ctxutil.GetIdentityID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, claims)
	retrieved := ctxutil.GetAuthUser(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.IdentityID)
	assert.Equal(t, "a@x.com", retrieved.Email)
	assert.Equal(t, "user-123", ctxutil.GetIdentityID(ctx))
}

/*
TestContext_IdentityID verifies anonymous contexts yield an empty identity.
*/
func TestContext_IdentityID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{name: "anonymous", ctx: context.Background()},
		{name: "nil claims", ctx: ctxutil.WithAuthUser(context.Background(), nil)},
		{name: "foreign value under another key", ctx: ctxutil.WithRequestID(context.Background(), "user-123")},
		{
			name: "authenticated",
			ctx:  ctxutil.WithAuthUser(context.Background(), &sec.AuthClaims{IdentityID: "user-123"}),
			want: "user-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ctxutil.GetIdentityID(tt.ctx))
		})
	}
}
