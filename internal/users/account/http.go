// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/socialite/internal/platform/middleware"
	requestutil "github.com/taibuivan/socialite/internal/platform/request"
	"github.com/taibuivan/socialite/internal/platform/respond"
	"github.com/taibuivan/socialite/internal/platform/validate"
	"github.com/taibuivan/socialite/internal/users/auth"
)

// Handler implements the HTTP layer for self-service account management.
type Handler struct {
	accountService *Service
	verifier       middleware.TokenVerifier
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, verifier middleware.TokenVerifier) *Handler {
	return &Handler{accountService: service, verifier: verifier}
}

// Routes returns a [chi.Router] with the account endpoints. Every route
// requires a valid access token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAccess(handler.verifier))

	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me/sessions", handler.signOutEverywhere)

	return router
}

/*
GET /account/me.

Response:
  - 200: Profile
  - 401: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredIdentityID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

type updateMeRequest struct {
	DisplayName string `json:"displayName"`
}

/*
PATCH /account/me.

Request:
  - body: updateMeRequest

Response:
  - 200: Profile
  - 400: Invalid JSON or display name too long
  - 401: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredIdentityID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.MaxLen(auth.FieldDisplayName, input.DisplayName, auth.MaxDisplayNameLength)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.UpdateDisplayName(request.Context(), userID, input.DisplayName)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
DELETE /account/me/sessions.

Description: Signs the caller out on every device. The access token in hand
keeps working until it expires; no refresh will succeed.

Response:
  - 204: No Content
  - 401: Authentication required
*/
func (handler *Handler) signOutEverywhere(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredIdentityID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if _, err := handler.accountService.SignOutEverywhere(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
