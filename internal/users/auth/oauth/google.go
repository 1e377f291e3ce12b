// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// GoogleProvider signs users in with Google's OpenID Connect userinfo endpoint.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewGoogle builds the Google provider with the openid, email and profile scopes.
func NewGoogle(credentials Credentials) (*GoogleProvider, error) {
	if !credentials.Valid() {
		return nil, errors.New("oauth: google client id, secret and redirect url are required")
	}
	return &GoogleProvider{
		config:      credentials.config(endpoints.Google, "openid", "email", "profile"),
		userInfoURL: googleUserInfoURL,
	}, nil
}

// Name returns "google".
func (provider *GoogleProvider) Name() string { return Google }

// AuthCodeURL returns the Google authorization URL.
func (provider *GoogleProvider) AuthCodeURL(state, codeChallenge string) string {
	return authCodeURL(provider.config, state, codeChallenge)
}

// ExchangeCode redeems the code and reads the userinfo document.
func (provider *GoogleProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Profile, error) {
	client, err := exchange(ctx, provider.config, code, codeVerifier)
	if err != nil {
		return nil, err
	}

	body, err := getJSON(ctx, client, provider.userInfoURL)
	if err != nil {
		return nil, err
	}

	return parseGoogleProfile(body)
}

func parseGoogleProfile(body []byte) (*Profile, error) {
	info := gjson.ParseBytes(body)

	subject := info.Get("sub").String()
	if subject == "" {
		return nil, errors.New("oauth: google userinfo has no subject")
	}

	email := info.Get("email").String()
	localPart, _, _ := strings.Cut(email, "@")

	return &Profile{
		Provider:      Google,
		Subject:       subject,
		Email:         email,
		EmailVerified: info.Get("email_verified").Bool(),
		DisplayName:   strings.TrimSpace(info.Get("name").String()),
		Login:         localPart,
	}, nil
}
