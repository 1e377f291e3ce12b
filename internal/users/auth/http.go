// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/constants"
	"github.com/taibuivan/socialite/internal/platform/middleware"
	requestutil "github.com/taibuivan/socialite/internal/platform/request"
	"github.com/taibuivan/socialite/internal/platform/respond"
	"github.com/taibuivan/socialite/internal/platform/sec"
	"github.com/taibuivan/socialite/internal/platform/validate"
	"github.com/taibuivan/socialite/internal/users/auth/oauth"
	"github.com/taibuivan/socialite/pkg/slice"
	"github.com/taibuivan/socialite/pkg/uuid"
)

// # Definitions & Constructors

// HandlerConfig carries the transport settings of the auth endpoints.
type HandlerConfig struct {
	// SecureCookies sets the Secure flag on auth cookies (production only).
	SecureCookies bool

	// ClientURL is the frontend origin that OAuth callbacks redirect to.
	ClientURL string
}

// Handler implements the /auth endpoints.
//
// Tokens travel only in cookies; response bodies never contain them.
type Handler struct {
	authService *Service
	verifier    middleware.TokenVerifier
	providers   *oauth.Registry
	handshakes  HandshakeRepository
	config      HandlerConfig
}

// NewHandler constructs a new [Handler]. providers may be nil when no OAuth
// application is configured.
func NewHandler(
	service *Service,
	verifier middleware.TokenVerifier,
	providers *oauth.Registry,
	handshakes HandshakeRepository,
	config HandlerConfig,
) *Handler {
	return &Handler{
		authService: service,
		verifier:    verifier,
		providers:   providers,
		handshakes:  handshakes,
		config:      config,
	}
}

// Routes returns a [chi.Router] configured with the auth routes.
//
// # Endpoints
//   - POST /register                 : Creates a password identity.
//   - POST /login                    : Opens a session (cookies).
//   - POST /refresh                  : Rotates the refresh token (cookies).
//   - POST /logout                   : Ends the current session.
//   - GET|POST /test                 : 200 for a valid access token.
//   - GET /sessions                  : Lists the caller's sessions.
//   - GET /{provider}                : Starts an OAuth sign-in.
//   - GET /{provider}/callback       : Completes an OAuth sign-in.
//   - GET|DELETE /admin/identities/{identityID}/sessions : Admin session control.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	for _, name := range handler.providers.Names() {
		router.Get("/"+name, handler.oauthStart(name))
		router.Get("/"+name+"/callback", handler.oauthCallback(name))
	}

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccess(handler.verifier))
		r.Get("/test", handler.test)
		r.Post("/test", handler.test)
		r.Get("/sessions", handler.listSessions)
	})

	// Admin endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccess(handler.verifier))
		r.Use(middleware.RequireRole(handler.lookupRole, sec.RoleAdmin))
		r.Get("/admin/identities/{identityID}/sessions", handler.adminListSessions)
		r.Delete("/admin/identities/{identityID}/sessions", handler.adminRevokeSessions)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionView struct {
	IssuedAt time.Time `json:"issuedAt"`
	Rotated  bool      `json:"rotated"`
}

/*
Register handles the creation of a new password identity.

POST /auth/register

Request:
  - Body: registerRequest (Username, Email, Password, DisplayName)

Response:
  - 201: PublicUser
  - 400: Validation failure, or email/username already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MaxLen(FieldUsername, input.Username, MaxUsernameLength).
		Handle(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MaxBytes(FieldPassword, input.Password, MaxPasswordBytes).
		MaxLen(FieldDisplayName, input.DisplayName, MaxDisplayNameLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user.Public())
}

/*
Login authenticates with email and password and opens a session.

POST /auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: PublicUser, with accessToken and refreshToken cookies
  - 401: Invalid email or password
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setAuthCookies(writer, session)
	respond.OK(writer, session.User.Public())
}

/*
Refresh rotates the refresh token carried in the refreshToken cookie.

POST /auth/refresh

Response:
  - 200: New accessToken and refreshToken cookies
  - 401: Missing, invalid, expired or reused refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)

	session, err := handler.authService.Refresh(request.Context(), refreshToken)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeUnauthorized) {
			handler.clearAuthCookies(writer)
		}
		respond.Error(writer, request, err)
		return
	}

	handler.setAuthCookies(writer, session)
	respond.OK(writer, map[string]string{
		FieldMessage: "Session refreshed",
	})
}

/*
Logout ends the session of the refreshToken cookie.

POST /auth/logout

Response:
  - 200: Session ended, both cookies cleared
  - 401: Missing or unknown refresh token
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	refreshToken := requestutil.Cookie(request, constants.RefreshTokenCookieName)

	if err := handler.authService.Logout(request.Context(), refreshToken); err != nil {
		if apperr.HasCode(err, apperr.CodeUnauthorized) {
			handler.clearAuthCookies(writer)
		}
		respond.Error(writer, request, err)
		return
	}

	handler.clearAuthCookies(writer)
	respond.OK(writer, map[string]string{
		FieldMessage: "Logged out",
	})
}

/*
Test confirms that the access token is valid.

GET|POST /auth/test

Response:
  - 200: identityId of the caller
  - 401: No credentials / auth failed
*/
func (handler *Handler) test(writer http.ResponseWriter, request *http.Request) {
	identityID, err := requestutil.RequiredIdentityID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldIdentityID: identityID,
		FieldMessage:    "ok",
	})
}

/*
ListSessions returns the caller's live sessions, oldest first.

GET /auth/sessions
*/
func (handler *Handler) listSessions(writer http.ResponseWriter, request *http.Request) {
	identityID, err := requestutil.RequiredIdentityID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSessions(writer, request, identityID)
}

/*
AdminListSessions returns the live sessions of any identity.

GET /auth/admin/identities/{identityID}/sessions
*/
func (handler *Handler) adminListSessions(writer http.ResponseWriter, request *http.Request) {
	identityID, err := identityParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSessions(writer, request, identityID)
}

/*
AdminRevokeSessions signs an identity out everywhere.

DELETE /auth/admin/identities/{identityID}/sessions

Response:
  - 200: Number of revoked sessions
  - 404: Unknown identity
*/
func (handler *Handler) adminRevokeSessions(writer http.ResponseWriter, request *http.Request) {
	identityID, err := identityParam(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.authService.RevokeAll(request.Context(), identityID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]int64{"revoked": revoked})
}

// identityParam reads {identityID}. Ids that are not UUIDs cannot name an identity.
func identityParam(request *http.Request) (string, error) {
	identityID := requestutil.Param(request, "identityID")
	if !uuid.Valid(identityID) {
		return "", apperr.NotFound("User")
	}
	return identityID, nil
}

func (handler *Handler) writeSessions(writer http.ResponseWriter, request *http.Request, identityID string) {
	records, err := handler.authService.Sessions(request.Context(), identityID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views := slice.Map(records, func(record TokenRecord) sessionView {
		return sessionView{IssuedAt: record.IssuedAt, Rotated: record.RotatedFrom != ""}
	})

	respond.OK(writer, map[string]any{FieldSessions: views})
}

func (handler *Handler) lookupRole(request *http.Request, identityID string) (sec.UserRole, error) {
	return handler.authService.RoleOf(request.Context(), identityID)
}

// # Cookies

func (handler *Handler) authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     constants.AuthCookiePath,
		HttpOnly: true,
		Secure:   handler.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge / time.Second),
	}
	if maxAge < 0 {
		cookie.MaxAge = -1
	}
	return cookie
}

func (handler *Handler) setAuthCookies(writer http.ResponseWriter, session *Session) {
	http.SetCookie(writer, handler.authCookie(constants.AccessTokenCookieName, session.AccessToken, session.AccessTTL))
	http.SetCookie(writer, handler.authCookie(constants.RefreshTokenCookieName, session.RefreshToken, session.RefreshTTL))
}

func (handler *Handler) clearAuthCookies(writer http.ResponseWriter) {
	http.SetCookie(writer, handler.authCookie(constants.AccessTokenCookieName, "", -1))
	http.SetCookie(writer, handler.authCookie(constants.RefreshTokenCookieName, "", -1))
}
