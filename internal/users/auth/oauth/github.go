// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"context"
	"errors"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
	"golang.org/x/sync/errgroup"
)

const githubAPIBaseURL = "https://api.github.com"

// GitHubProvider signs users in with a GitHub OAuth app.
type GitHubProvider struct {
	config     *oauth2.Config
	apiBaseURL string
}

// NewGitHub builds the GitHub provider. It requests the user's profile and
// email addresses.
func NewGitHub(credentials Credentials) (*GitHubProvider, error) {
	if !credentials.Valid() {
		return nil, errors.New("oauth: github client id, secret and redirect url are required")
	}
	return &GitHubProvider{
		config:     credentials.config(githubendpoint.Endpoint, "read:user", "user:email"),
		apiBaseURL: githubAPIBaseURL,
	}, nil
}

// Name returns "github".
func (provider *GitHubProvider) Name() string { return GitHub }

// AuthCodeURL returns the GitHub authorization URL.
func (provider *GitHubProvider) AuthCodeURL(state, codeChallenge string) string {
	return authCodeURL(provider.config, state, codeChallenge)
}

// ExchangeCode redeems the code, then reads /user and /user/emails concurrently.
//
// The email is the primary address GitHub has verified; without one the
// public profile email is used and reported unverified.
func (provider *GitHubProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*Profile, error) {
	client, err := exchange(ctx, provider.config, code, codeVerifier)
	if err != nil {
		return nil, err
	}

	var userBody, emailsBody []byte
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		userBody, err = getJSON(groupCtx, client, provider.apiBaseURL+"/user")
		return err
	})
	group.Go(func() error {
		var err error
		emailsBody, err = getJSON(groupCtx, client, provider.apiBaseURL+"/user/emails")
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return parseGitHubProfile(userBody, emailsBody)
}

func parseGitHubProfile(userBody, emailsBody []byte) (*Profile, error) {
	user := gjson.ParseBytes(userBody)

	id := user.Get("id")
	if !id.Exists() || id.Raw == "0" {
		return nil, errors.New("oauth: github profile has no id")
	}

	profile := &Profile{
		Provider:    GitHub,
		Subject:     id.Raw,
		Login:       user.Get("login").String(),
		DisplayName: strings.TrimSpace(user.Get("name").String()),
	}

	gjson.ParseBytes(emailsBody).ForEach(func(_, entry gjson.Result) bool {
		if entry.Get("primary").Bool() && entry.Get("verified").Bool() {
			profile.Email = entry.Get("email").String()
			profile.EmailVerified = true
			return false
		}
		return true
	})

	if profile.Email == "" {
		profile.Email = user.Get("email").String()
	}

	return profile, nil
}
