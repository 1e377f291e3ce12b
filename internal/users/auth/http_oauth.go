// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/taibuivan/socialite/internal/platform/constants"
	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	"github.com/taibuivan/socialite/internal/platform/respond"
	"github.com/taibuivan/socialite/internal/platform/sec"
	"github.com/taibuivan/socialite/internal/users/auth/oauth"
)

// # OAuth Sign-in

/*
oauthStart redirects the browser to the provider's consent page.

GET /auth/{provider}

Response:
  - 302: Provider authorization URL (state + PKCE challenge)
*/
func (handler *Handler) oauthStart(name string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		provider, ok := handler.providers.Get(name)
		if !ok {
			http.NotFound(writer, request)
			return
		}

		state, err := sec.GenerateSecureToken(HandshakeStateLength)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		verifier := oauth2.GenerateVerifier()
		handshake := Handshake{Provider: name, Verifier: verifier}

		if err := handler.handshakes.Save(request.Context(), state, handshake, HandshakeTTL); err != nil {
			respond.Error(writer, request, err)
			return
		}

		http.Redirect(writer, request, provider.AuthCodeURL(state, oauth2.S256ChallengeFromVerifier(verifier)), http.StatusFound)
	}
}

/*
oauthCallback completes the sign-in and hands the browser back to the client.

GET /auth/{provider}/callback

Response:
  - 302: ClientURL/oauth/callback with the identity, cookies set
  - 302: ClientURL/oauth/callback?error=<reason> on any failure
*/
func (handler *Handler) oauthCallback(name string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		logger := ctxutil.GetLogger(ctx).With(slog.String("provider", name))
		query := request.URL.Query()

		if query.Get("error") != "" || query.Get("code") == "" {
			handler.redirectClient(writer, request, url.Values{"error": {CallbackErrorAccessDenied}})
			return
		}

		handshake, err := handler.handshakes.Consume(ctx, query.Get("state"))
		if err != nil || handshake.Provider != name {
			logger.WarnContext(ctx, "oauth_state_rejected", slog.Any("error", err))
			handler.redirectClient(writer, request, url.Values{"error": {CallbackErrorInvalidState}})
			return
		}

		provider, ok := handler.providers.Get(name)
		if !ok {
			handler.redirectClient(writer, request, url.Values{"error": {CallbackErrorInvalidState}})
			return
		}

		profile, err := provider.ExchangeCode(ctx, query.Get("code"), handshake.Verifier)
		if err != nil {
			reason := CallbackErrorProfileFailed
			if errors.Is(err, oauth.ErrExchange) {
				reason = CallbackErrorExchangeFailed
			}
			logger.WarnContext(ctx, "oauth_exchange_failed", slog.String("reason", reason), slog.Any("error", err))
			handler.redirectClient(writer, request, url.Values{"error": {reason}})
			return
		}

		session, err := handler.authService.LoginExternal(ctx, externalProfile(profile))
		if err != nil {
			logger.ErrorContext(ctx, "oauth_login_failed", slog.Any("error", err))
			handler.redirectClient(writer, request, url.Values{"error": {CallbackErrorLoginFailed}})
			return
		}

		handler.setAuthCookies(writer, session)
		handler.redirectClient(writer, request, url.Values{
			"userId":    {session.User.ID},
			"username":  {session.User.Username},
			"email":     {session.User.Email},
			"role":      {string(session.User.Role)},
			"createdAt": {session.User.CreatedAt.UTC().Format(time.RFC3339)},
		})
	}
}

func (handler *Handler) redirectClient(writer http.ResponseWriter, request *http.Request, values url.Values) {
	target := handler.config.ClientURL + constants.OAuthCallbackPath + "?" + values.Encode()
	http.Redirect(writer, request, target, http.StatusFound)
}

func externalProfile(profile *oauth.Profile) ExternalProfile {
	return ExternalProfile{
		Provider:      profile.Provider,
		Subject:       profile.Subject,
		Email:         profile.Email,
		EmailVerified: profile.EmailVerified,
		DisplayName:   profile.DisplayName,
		Login:         profile.Login,
	}
}
