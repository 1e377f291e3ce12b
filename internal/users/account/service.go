// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	"github.com/taibuivan/socialite/internal/users/auth"
	"github.com/taibuivan/socialite/pkg/slice"
)

// # Service Layer

// Service assembles the caller's profile and applies self-service changes.
type Service struct {
	accountRepository AccountRepository
	sessionManager    SessionManager
}

// NewService constructs a new [Service].
func NewService(accountRepo AccountRepository, sessions SessionManager) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionManager:    sessions,
	}
}

// # Profile Management

/*
GetProfile builds the private profile of an identity.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Profile: Identity, linked providers and session count
  - error: apperr.NotFound or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*Profile, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}

	return service.profileOf(context, user)
}

/*
UpdateDisplayName changes the name shown to other members.

Description: The value is trimmed; an empty name clears it.

Parameters:
  - context: context.Context
  - userID: string
  - displayName: string

Returns:
  - *Profile: The updated profile
  - error: apperr.NotFound or persistence failures
*/
func (service *Service) UpdateDisplayName(context context.Context, userID, displayName string) (*Profile, error) {
	user, err := service.accountRepository.UpdateDisplayName(context, userID, strings.TrimSpace(displayName))
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("account_service_update_display_name_failed: %w", err)
	}

	return service.profileOf(context, user)
}

// # Session Security

/*
SignOutEverywhere revokes every session of the caller, this one included.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int64: Number of sessions revoked
  - error: Execution failures
*/
func (service *Service) SignOutEverywhere(context context.Context, userID string) (int64, error) {
	revoked, err := service.sessionManager.RevokeAll(context, userID)
	if err != nil {
		return 0, err
	}

	ctxutil.GetLogger(context).InfoContext(context, "sessions_revoked_by_owner",
		slog.String("identity_id", userID),
		slog.Int64("sessions_revoked", revoked),
	)
	return revoked, nil
}

func (service *Service) profileOf(context context.Context, user *auth.User) (*Profile, error) {
	links, err := service.accountRepository.ListProviders(context, user.ID)
	if err != nil {
		return nil, fmt.Errorf("account_service_list_providers_failed: %w", err)
	}

	sessions, err := service.sessionManager.Sessions(context, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		PublicUser:     user.Public(),
		HasPassword:    user.HasPassword(),
		Providers:      slice.Map(links, func(link auth.ProviderLink) string { return link.Provider }),
		ActiveSessions: len(sessions),
	}, nil
}
