// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oauth adapts external identity providers (GitHub, Google) to a single
contract.

Providers only report identity facts. Linking, account creation and
sessions belong to the auth service.
*/
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

//go:generate mockgen -destination=oauthmock/provider.go -package=oauthmock github.com/taibuivan/socialite/internal/users/auth/oauth Provider

// Provider names.
const (
	GitHub = "github"
	Google = "google"
)

// ErrExchange marks a failed code-for-token exchange; anything else returned
// by ExchangeCode is a profile fetch failure.
var ErrExchange = errors.New("oauth: code exchange failed")

// Profile is a normalized identity reported by a provider.
type Profile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	DisplayName   string
	Login         string
}

// Provider is the contract every external identity provider implements.
type Provider interface {
	// Name returns the provider identifier (e.g. "github").
	Name() string

	// AuthCodeURL returns the authorization URL for state and a S256 PKCE challenge.
	AuthCodeURL(state, codeChallenge string) string

	// ExchangeCode redeems the authorization code and fetches the profile.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (*Profile, error)
}

// Credentials configure one OAuth application.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Valid reports whether all credential fields are set.
func (credentials Credentials) Valid() bool {
	return credentials.ClientID != "" && credentials.ClientSecret != "" && credentials.RedirectURL != ""
}

func (credentials Credentials) config(endpoint oauth2.Endpoint, scopes ...string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     credentials.ClientID,
		ClientSecret: credentials.ClientSecret,
		RedirectURL:  credentials.RedirectURL,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}
}

// authCodeURL builds an authorization URL with PKCE parameters.
func authCodeURL(config *oauth2.Config, state, codeChallenge string) string {
	return config.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// exchange redeems code and returns an HTTP client carrying the access token.
func exchange(ctx context.Context, config *oauth2.Config, code, codeVerifier string) (*http.Client, error) {
	token, err := config.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}
	return config.Client(ctx, token), nil
}

// maxProfileBytes caps provider API responses.
const maxProfileBytes = 1 << 20

// getJSON fetches url with client and returns the raw body of a 200 response.
func getJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Accept", "application/json")

	response, err := client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("oauth: GET %s: %w", url, err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("oauth: read %s: %w", url, err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: GET %s: status %d", url, response.StatusCode)
	}
	return body, nil
}
