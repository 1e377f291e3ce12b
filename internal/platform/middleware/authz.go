// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/constants"
	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/socialite/internal/platform/request"
	"github.com/taibuivan/socialite/internal/platform/respond"
	"github.com/taibuivan/socialite/internal/platform/sec"
)

// TokenVerifier verifies access tokens for the guard.
//
// [sec.TokenService] satisfies it; tests inject their own.
type TokenVerifier interface {
	VerifyAccess(token string) (*sec.AuthClaims, error)
}

// Access guard failure messages.
const (
	MessageNoCredentials = "no credentials"
	MessageAuthFailed    = "auth failed"
)

// RequireAccess admits only requests carrying a valid access token.
//
// # Flow
//  1. Read the access token from the accessToken cookie, falling back to
//     'Authorization: Bearer <token>'.
//  2. Missing token: 401 "no credentials".
//  3. Any verification failure (signature, expiry, issuer): 401 "auth failed".
//  4. Otherwise the claims are attached to the context and the request proceeds.
//
// The guard never consults the token store; a revoked session keeps working
// until its access token expires.
func RequireAccess(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			token := requestutil.Cookie(request, constants.AccessTokenCookieName)
			if token == "" {
				token = requestutil.BearerToken(request)
			}

			if token == "" {
				respond.Error(writer, request, apperr.Unauthorized(MessageNoCredentials))
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "access_token_rejected",
					slog.String("error", err.Error()),
				)
				respond.Error(writer, request, apperr.Unauthorized(MessageAuthFailed))
				return
			}

			noteIdentity(request.Context(), claims.IdentityID)
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole blocks authenticated callers whose role is below the target.
//
// The role is looked up per request because access tokens do not carry it.
// Must be mounted after [RequireAccess].
func RequireRole(lookup func(request *http.Request, identityID string) (sec.UserRole, error), role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identityID := ctxutil.GetIdentityID(request.Context())
			if identityID == "" {
				respond.Error(writer, request, apperr.Unauthorized(MessageNoCredentials))
				return
			}

			current, err := lookup(request, identityID)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if !current.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
