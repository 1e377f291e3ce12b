// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var testCredentials = Credentials{
	ClientID:     "client-id",
	ClientSecret: "client-secret",
	RedirectURL:  "http://localhost:8080/auth/github/callback",
}

// providerServer fakes a token endpoint plus the provider's profile API.
func providerServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(writer http.ResponseWriter, request *http.Request) {
		assert.NoError(t, request.ParseForm())
		if request.PostForm.Get("code") != "good-code" {
			http.Error(writer, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		assert.Equal(t, "the-verifier", request.PostForm.Get("code_verifier"))

		writer.Header().Set("Content-Type", "application/json")
		_, _ = writer.Write([]byte(`{"access_token":"provider-token","token_type":"bearer"}`))
	})
	for path, body := range routes {
		mux.HandleFunc("GET "+path, func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "Bearer provider-token", request.Header.Get("Authorization"))
			writer.Header().Set("Content-Type", "application/json")
			_, _ = writer.Write([]byte(body))
		})
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testEndpoint(server *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   server.URL + "/authorize",
		TokenURL:  server.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestGitHub_ExchangeCode(t *testing.T) {
	server := providerServer(t, map[string]string{
		"/user": `{"id": 583231, "login": "octocat", "name": "The Octocat", "email": "public@github.com"}`,
		"/user/emails": `[
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "octocat@example.com", "primary": true, "verified": true}
		]`,
	})

	provider, err := NewGitHub(testCredentials)
	require.NoError(t, err)
	provider.config.Endpoint = testEndpoint(server)
	provider.apiBaseURL = server.URL

	profile, err := provider.ExchangeCode(context.Background(), "good-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, &Profile{
		Provider:      GitHub,
		Subject:       "583231",
		Email:         "octocat@example.com",
		EmailVerified: true,
		DisplayName:   "The Octocat",
		Login:         "octocat",
	}, profile)
}

func TestGitHub_ExchangeCode_BadCode(t *testing.T) {
	server := providerServer(t, nil)

	provider, err := NewGitHub(testCredentials)
	require.NoError(t, err)
	provider.config.Endpoint = testEndpoint(server)

	_, err = provider.ExchangeCode(context.Background(), "bad-code", "the-verifier")
	assert.True(t, errors.Is(err, ErrExchange))
}

func TestGitHub_ExchangeCode_ProfileFailure(t *testing.T) {
	server := providerServer(t, map[string]string{
		"/user": `{"id": 1, "login": "a"}`,
	})

	provider, err := NewGitHub(testCredentials)
	require.NoError(t, err)
	provider.config.Endpoint = testEndpoint(server)
	provider.apiBaseURL = server.URL

	_, err = provider.ExchangeCode(context.Background(), "good-code", "the-verifier")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrExchange))
}

func TestParseGitHubProfile_UnverifiedFallback(t *testing.T) {
	profile, err := parseGitHubProfile(
		[]byte(`{"id": 7, "login": "ghost", "name": null, "email": "ghost@example.com"}`),
		[]byte(`[{"email": "ghost@example.com", "primary": true, "verified": false}]`),
	)
	require.NoError(t, err)

	assert.Equal(t, "7", profile.Subject)
	assert.Equal(t, "ghost@example.com", profile.Email)
	assert.False(t, profile.EmailVerified)
	assert.Empty(t, profile.DisplayName)

	_, err = parseGitHubProfile([]byte(`{"login": "nobody"}`), []byte(`[]`))
	assert.Error(t, err)
}

func TestGoogle_ExchangeCode(t *testing.T) {
	server := providerServer(t, map[string]string{
		"/userinfo": `{"sub": "1098", "email": "Jane@Example.com", "email_verified": true, "name": "Jane Doe"}`,
	})

	provider, err := NewGoogle(testCredentials)
	require.NoError(t, err)
	provider.config.Endpoint = testEndpoint(server)
	provider.userInfoURL = server.URL + "/userinfo"

	profile, err := provider.ExchangeCode(context.Background(), "good-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, Google, profile.Provider)
	assert.Equal(t, "1098", profile.Subject)
	assert.Equal(t, "Jane@Example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Jane Doe", profile.DisplayName)
	assert.Equal(t, "Jane", profile.Login)
}

func TestAuthCodeURL_CarriesPKCE(t *testing.T) {
	provider, err := NewGoogle(testCredentials)
	require.NoError(t, err)

	verifier := oauth2.GenerateVerifier()
	challenge := oauth2.S256ChallengeFromVerifier(verifier)

	parsed, err := url.Parse(provider.AuthCodeURL("state-123", challenge))
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "state-123", query.Get("state"))
	assert.Equal(t, challenge, query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.Equal(t, "client-id", query.Get("client_id"))
}

func TestNewProviders_RequireCredentials(t *testing.T) {
	_, err := NewGitHub(Credentials{ClientID: "id"})
	assert.Error(t, err)

	_, err = NewGoogle(Credentials{})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	github, err := NewGitHub(testCredentials)
	require.NoError(t, err)
	google, err := NewGoogle(testCredentials)
	require.NoError(t, err)

	registry := NewRegistry(google, github)
	assert.Equal(t, []string{GitHub, Google}, registry.Names())

	provider, ok := registry.Get(GitHub)
	assert.True(t, ok)
	assert.Equal(t, GitHub, provider.Name())

	_, ok = registry.Get("myspace")
	assert.False(t, ok)

	var empty *Registry
	assert.Empty(t, empty.Names())
}
