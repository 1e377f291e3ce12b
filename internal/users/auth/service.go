// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	"github.com/taibuivan/socialite/internal/platform/metrics"
	"github.com/taibuivan/socialite/internal/platform/sec"
	"github.com/taibuivan/socialite/pkg/slug"
	"github.com/taibuivan/socialite/pkg/uuid"
)

// # Contracts & Types

// TokenProvider mints token pairs and verifies refresh tokens.
//
// [sec.TokenService] is the production implementation.
type TokenProvider interface {
	IssuePair(identityID, email string) (*sec.TokenPair, error)
	VerifyRefresh(token string) (*sec.AuthClaims, error)
}

// Service is the session state machine.
//
// An identity is signed in while at least one of its refresh tokens is on
// file. Service owns every mutation of that list.
type Service struct {
	userRepository  UserRepository
	tokenRepository TokenRepository
	tokenProvider   TokenProvider
	metrics         *metrics.Auth
	now             func() time.Time
}

// NewService constructs a new [Service]. authMetrics may be nil.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	tokenProv TokenProvider,
	authMetrics *metrics.Auth,
) *Service {
	return &Service{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		tokenProvider:   tokenProv,
		metrics:         authMetrics,
		now:             time.Now,
	}
}

// Session is a freshly established or rotated session.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	User         *User
}

func newSession(pair *sec.TokenPair, user *User) *Session {
	return &Session{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessTTL:    pair.AccessTTL,
		RefreshTTL:   pair.RefreshTTL,
		User:         user,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register hashes the password and persists a new password identity.

Description: Uniqueness is enforced by the store, so two racing registrations
for the same email cannot both succeed. Registering does not sign in.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: ErrEmailTaken / ErrUsernameTaken (400) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(input.Username),
		Email:        NormalizeEmail(input.Email),
		PasswordHash: hashedPassword,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         sec.RoleUser,
	}

	if err := service.userRepository.Create(context, user, nil); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "identity_registered",
		slog.String("identity_id", user.ID),
	)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies an email/password pair and opens one more session.

Description: Unknown email and wrong password produce the same error and cost
one bcrypt comparison each. The new refresh token is appended, so sessions on
other devices stay valid.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Tokens and the identity
  - error: apperr.InvalidCredentials or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	user, err := service.userRepository.FindByEmail(context, NormalizeEmail(input.Email))
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
		}
		sec.BurnPasswordCheck(input.Password)
		service.metrics.Login(metrics.MethodPassword, metrics.ResultFailure)
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.metrics.Login(metrics.MethodPassword, metrics.ResultFailure)
		return nil, apperr.InvalidCredentials()
	}

	pair, err := service.tokenProvider.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_login_issue_failed: %w", err)
	}

	if err := service.tokenRepository.Append(context, user.ID, sec.HashToken(pair.RefreshToken), service.now()); err != nil {
		return nil, fmt.Errorf("auth_service_login_append_failed: %w", err)
	}

	service.metrics.Login(metrics.MethodPassword, metrics.ResultSuccess)
	return newSession(pair, user), nil
}

/*
LoginExternal signs in with a verified provider profile.

Description: Resolves (or creates) the identity through
[Service.FindOrCreateByProviderProfile], then makes the new refresh token the
identity's only one. Unlike [Service.Login], which appends, an external
login ends every other session.

Parameters:
  - context: context.Context
  - profile: ExternalProfile

Returns:
  - *Session: Tokens and the identity
  - error: Lookup, creation or storage failures
*/
func (service *Service) LoginExternal(context context.Context, profile ExternalProfile) (*Session, error) {
	user, err := service.FindOrCreateByProviderProfile(context, profile)
	if err != nil {
		service.metrics.Login(profile.Provider, metrics.ResultFailure)
		return nil, err
	}

	pair, err := service.tokenProvider.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_external_issue_failed: %w", err)
	}

	if err := service.tokenRepository.ReplaceAll(context, user.ID, sec.HashToken(pair.RefreshToken), service.now()); err != nil {
		return nil, fmt.Errorf("auth_service_external_replace_failed: %w", err)
	}

	service.metrics.Login(profile.Provider, metrics.ResultSuccess)
	return newSession(pair, user), nil
}

// # Session Management

/*
Refresh rotates a refresh token.

Description: The presented token must verify against the refresh secret and
still be on file. Its successor takes its exact place in the list. A
verified token that is no longer on file has been used before (or was
revoked): every session of the identity is wiped.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *Session: The rotated tokens
  - error: apperr.Unauthorized on any rejection, or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		service.metrics.Refresh(metrics.ResultFailure)
		return nil, apperr.Unauthorized(MessageNoRefreshToken)
	}

	claims, err := service.tokenProvider.VerifyRefresh(refreshToken)
	if err != nil {
		service.metrics.Refresh(metrics.ResultFailure)
		return nil, apperr.Unauthorized(MessageInvalidRefreshToken)
	}

	user, err := service.userRepository.FindByID(context, claims.IdentityID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.metrics.Refresh(metrics.ResultFailure)
			return nil, apperr.Unauthorized(MessageUserNotFound)
		}
		return nil, fmt.Errorf("auth_service_refresh_lookup_failed: %w", err)
	}

	pair, err := service.tokenProvider.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_issue_failed: %w", err)
	}

	replaced, err := service.tokenRepository.Replace(context, user.ID,
		sec.HashToken(refreshToken), sec.HashToken(pair.RefreshToken), service.now())
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_replace_failed: %w", err)
	}

	if !replaced {
		if err := service.wipe(context, user.ID, "refresh"); err != nil {
			return nil, err
		}
		service.metrics.Refresh(metrics.ResultReuse)
		return nil, apperr.Unauthorized(MessageRefreshTokenReused)
	}

	service.metrics.Refresh(metrics.ResultSuccess)
	return newSession(pair, user), nil
}

/*
Logout ends the session the refresh token belongs to.

Description: Only the presented token is removed; sibling sessions survive.
A verified token that is not on file wipes every session, as in Refresh.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: apperr.Unauthorized on any rejection, or storage failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	if refreshToken == "" {
		service.metrics.Logout(metrics.ResultFailure)
		return apperr.Unauthorized(MessageNoRefreshToken)
	}

	claims, err := service.tokenProvider.VerifyRefresh(refreshToken)
	if err != nil {
		service.metrics.Logout(metrics.ResultFailure)
		return apperr.Unauthorized(MessageInvalidRefreshToken)
	}

	user, err := service.userRepository.FindByID(context, claims.IdentityID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.metrics.Logout(metrics.ResultFailure)
			return apperr.Unauthorized(MessageInvalidRequest)
		}
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	removed, err := service.tokenRepository.Remove(context, user.ID, sec.HashToken(refreshToken))
	if err != nil {
		return fmt.Errorf("auth_service_logout_remove_failed: %w", err)
	}

	if !removed {
		if err := service.wipe(context, user.ID, "logout"); err != nil {
			return err
		}
		service.metrics.Logout(metrics.ResultReuse)
		return apperr.Unauthorized(MessageRefreshTokenWrong)
	}

	service.metrics.Logout(metrics.ResultSuccess)
	return nil
}

// wipe revokes every session of the identity after a reuse was detected.
func (service *Service) wipe(context context.Context, userID, operation string) error {
	revoked, err := service.tokenRepository.Wipe(context, userID)
	if err != nil {
		return fmt.Errorf("auth_service_%s_wipe_failed: %w", operation, err)
	}

	service.metrics.ReuseDetected()
	ctxutil.GetLogger(context).WarnContext(context, "refresh_token_reuse_detected",
		slog.String("identity_id", userID),
		slog.String("operation", operation),
		slog.Int64("sessions_revoked", revoked),
	)
	return nil
}

/*
Sessions lists the identity's live refresh tokens in list order.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - []TokenRecord: Ordered token records
  - error: NotFound for unknown identities or storage failures
*/
func (service *Service) Sessions(context context.Context, identityID string) ([]TokenRecord, error) {
	if _, err := service.userRepository.FindByID(context, identityID); err != nil {
		return nil, err
	}

	records, err := service.tokenRepository.List(context, identityID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_sessions_failed: %w", err)
	}
	return records, nil
}

/*
RevokeAll signs an identity out everywhere.

Parameters:
  - context: context.Context
  - identityID: string

Returns:
  - int64: Number of sessions revoked
  - error: NotFound for unknown identities or storage failures
*/
func (service *Service) RevokeAll(context context.Context, identityID string) (int64, error) {
	if _, err := service.userRepository.FindByID(context, identityID); err != nil {
		return 0, err
	}

	revoked, err := service.tokenRepository.Wipe(context, identityID)
	if err != nil {
		return 0, fmt.Errorf("auth_service_revoke_all_failed: %w", err)
	}
	return revoked, nil
}

// RoleOf returns the current role of an identity.
func (service *Service) RoleOf(context context.Context, identityID string) (sec.UserRole, error) {
	user, err := service.userRepository.FindByID(context, identityID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return "", apperr.Unauthorized(MessageUserNotFound)
		}
		return "", err
	}
	return user.Role, nil
}

// # Identity Provider Bridge

/*
FindOrCreateByProviderProfile resolves a provider profile to an identity.

Description:
 1. An identity already linked to (provider, subject) wins.
 2. Otherwise a provider-verified email that matches an identity links the
    provider account to it.
 3. Otherwise a new identity is created without a password. Its email is
    kept only when nobody else holds it; its username is derived from the
    profile.

Parameters:
  - context: context.Context
  - profile: ExternalProfile

Returns:
  - *User: The resolved identity
  - error: Storage failures
*/
func (service *Service) FindOrCreateByProviderProfile(context context.Context, profile ExternalProfile) (*User, error) {
	if profile.Provider == "" || profile.Subject == "" {
		return nil, errors.New("auth_service_profile_incomplete")
	}

	user, err := service.userRepository.FindByProvider(context, profile.Provider, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, fmt.Errorf("auth_service_find_by_provider_failed: %w", err)
	}

	link := ProviderLink{Provider: profile.Provider, Subject: profile.Subject}
	email := NormalizeEmail(profile.Email)

	if email != "" {
		existing, err := service.userRepository.FindByEmail(context, email)
		switch {
		case err == nil && profile.EmailVerified:
			return service.link(context, existing, link)
		case err == nil:
			// Unverified emails never claim someone else's account.
			email = ""
		case !apperr.HasCode(err, apperr.CodeNotFound):
			return nil, fmt.Errorf("auth_service_find_by_email_failed: %w", err)
		}
	}

	return service.createFederated(context, profile, email, link)
}

func (service *Service) link(context context.Context, user *User, link ProviderLink) (*User, error) {
	err := service.userRepository.LinkProvider(context, user.ID, link)
	if errors.Is(err, ErrProviderLinked) {
		// A concurrent callback linked it first.
		return service.userRepository.FindByProvider(context, link.Provider, link.Subject)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_link_provider_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "provider_linked",
		slog.String("identity_id", user.ID),
		slog.String("provider", link.Provider),
	)
	return user, nil
}

func (service *Service) createFederated(context context.Context, profile ExternalProfile, email string, link ProviderLink) (*User, error) {
	base := usernameBase(profile)
	displayName := strings.TrimSpace(profile.DisplayName)
	if displayName == "" {
		displayName = profile.Login
	}

	for attempt := 0; attempt < usernameAttempts; attempt++ {
		username, err := service.candidateUsername(context, base, attempt)
		if err != nil {
			return nil, err
		}

		user := &User{
			ID:          uuid.New(),
			Username:    username,
			Email:       email,
			DisplayName: displayName,
			Role:        sec.RoleUser,
		}

		err = service.userRepository.Create(context, user, &link)
		switch {
		case err == nil:
			ctxutil.GetLogger(context).InfoContext(context, "identity_registered",
				slog.String("identity_id", user.ID),
				slog.String("provider", link.Provider),
			)
			return user, nil
		case errors.Is(err, ErrUsernameTaken):
			continue
		case errors.Is(err, ErrEmailTaken):
			email = ""
			continue
		case errors.Is(err, ErrProviderLinked):
			return service.userRepository.FindByProvider(context, link.Provider, link.Subject)
		default:
			return nil, fmt.Errorf("auth_service_create_federated_failed: %w", err)
		}
	}

	return nil, fmt.Errorf("auth_service_username_exhausted: %q", base)
}

// candidateUsername returns base on the first free attempt, base plus a
// random suffix afterwards.
func (service *Service) candidateUsername(context context.Context, base string, attempt int) (string, error) {
	if attempt == 0 {
		_, err := service.userRepository.FindByUsername(context, base)
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return base, nil
		}
		if err != nil {
			return "", fmt.Errorf("auth_service_username_lookup_failed: %w", err)
		}
	}

	suffix := make([]byte, usernameSuffixBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("auth_service_username_suffix_failed: %w", err)
	}
	encoded := hex.EncodeToString(suffix)

	return slug.Truncate(base, MaxUsernameLength-len(encoded)-1) + "-" + encoded, nil
}

// usernameBase picks the first non-empty slug of display name, login, email
// local part and provider name.
func usernameBase(profile ExternalProfile) string {
	localPart, _, _ := strings.Cut(profile.Email, "@")

	for _, source := range []string{profile.DisplayName, profile.Login, localPart, profile.Provider} {
		if base := slug.Truncate(slug.From(source), MaxUsernameLength); base != "" {
			return base
		}
	}
	return "user"
}
