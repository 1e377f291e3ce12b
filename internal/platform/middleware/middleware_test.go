// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/socialite/internal/platform/constants"
	"github.com/taibuivan/socialite/internal/platform/ctxutil"
	"github.com/taibuivan/socialite/internal/platform/middleware"
	"github.com/taibuivan/socialite/internal/platform/respond"
	"github.com/taibuivan/socialite/internal/platform/sec"
)

// # Fixtures

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTokens(t *testing.T, now func() time.Time) *sec.TokenService {
	t.Helper()
	service, err := sec.NewTokenService(sec.NewTokenIssuer(constants.AuthIssuer, now), sec.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	require.NoError(t, err)
	return service
}

// echoIdentity writes the identity the guard attached to the context.
var echoIdentity = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())
	respond.OK(writer, map[string]string{"identityId": claims.IdentityID, "email": claims.Email})
})

func errorMessage(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Error
}

// # Access Guard

func TestRequireAccess(t *testing.T) {
	clk := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tokens := newTokens(t, clk.Now)
	guard := middleware.RequireAccess(tokens)(echoIdentity)

	pair, err := tokens.IssuePair("id-1", "a@x.com")
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/test", nil)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: pair.AccessToken})
		recorder := httptest.NewRecorder()

		guard.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"identityId":"id-1"`)
	})

	t.Run("bearer_fallback", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/test", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+pair.AccessToken)
		recorder := httptest.NewRecorder()

		guard.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("missing_token", func(t *testing.T) {
		recorder := httptest.NewRecorder()

		guard.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, middleware.MessageNoCredentials, errorMessage(t, recorder))
	})

	t.Run("refresh_token_is_not_an_access_token", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/test", nil)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: pair.RefreshToken})
		recorder := httptest.NewRecorder()

		guard.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, middleware.MessageAuthFailed, errorMessage(t, recorder))
	})

	t.Run("garbage", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/test", nil)
		request.Header.Set(constants.HeaderAuthorization, "Bearer not.a.jwt")
		recorder := httptest.NewRecorder()

		guard.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, middleware.MessageAuthFailed, errorMessage(t, recorder))
	})

	t.Run("expired", func(t *testing.T) {
		late := &clock{now: clk.now.Add(16 * time.Minute)}
		lateGuard := middleware.RequireAccess(newTokens(t, late.Now))(echoIdentity)

		request := httptest.NewRequest(http.MethodGet, "/test", nil)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: pair.AccessToken})
		recorder := httptest.NewRecorder()

		lateGuard.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, middleware.MessageAuthFailed, errorMessage(t, recorder))
	})
}

func TestRequireRole(t *testing.T) {
	tokens := newTokens(t, nil)
	pair, err := tokens.IssuePair("id-1", "a@x.com")
	require.NoError(t, err)

	lookup := func(role sec.UserRole) func(*http.Request, string) (sec.UserRole, error) {
		return func(*http.Request, string) (sec.UserRole, error) { return role, nil }
	}

	serve := func(role sec.UserRole) int {
		handler := middleware.RequireAccess(tokens)(
			middleware.RequireRole(lookup(role), sec.RoleAdmin)(echoIdentity),
		)
		request := httptest.NewRequest(http.MethodGet, "/admin", nil)
		request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: pair.AccessToken})
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder.Code
	}

	assert.Equal(t, http.StatusOK, serve(sec.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, serve(sec.RoleUser))
}

// # Chain

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-id", seen)
}

func TestStructuredLogger_LogsIdentity(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))
	tokens := newTokens(t, nil)
	pair, err := tokens.IssuePair("id-42", "a@x.com")
	require.NoError(t, err)

	handler := middleware.StructuredLogger(logger)(middleware.RequireAccess(tokens)(echoIdentity))
	request := httptest.NewRequest(http.MethodGet, "/test", nil)
	request.AddCookie(&http.Cookie{Name: constants.AccessTokenCookieName, Value: pair.AccessToken})
	handler.ServeHTTP(httptest.NewRecorder(), request)

	line := buffer.String()
	assert.Contains(t, line, `"msg":"http_request_finished"`)
	assert.Contains(t, line, `"identity_id":"id-42"`)
	assert.Contains(t, line, `"status":200`)
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := middleware.NewRateLimiter(ctx, 1, 2)
	handler := limiter.Middleware(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRealIP, "203.0.113.7")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRealIP, "203.0.113.8")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

type corsConfig struct {
	development bool
	origins     []string
}

func (c corsConfig) IsDevelopment() bool      { return c.development }
func (c corsConfig) AllowedOrigins() []string { return c.origins }

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	handler := middleware.CORS(corsConfig{origins: []string{"https://socialite.app"}})(next)

	allowed := httptest.NewRequest(http.MethodGet, "/", nil)
	allowed.Header.Set(constants.HeaderOrigin, "https://socialite.app")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, allowed)
	assert.Equal(t, "https://socialite.app", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	foreign := httptest.NewRequest(http.MethodGet, "/", nil)
	foreign.Header.Set(constants.HeaderOrigin, "https://evil.example")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, foreign)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))

	preflight := httptest.NewRequest(http.MethodOptions, "/", nil)
	preflight.Header.Set(constants.HeaderOrigin, "https://socialite.app")
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, preflight)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, "198.51.100.2, 10.0.0.1")
	assert.Equal(t, "198.51.100.2", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.9")
	assert.True(t, strings.HasPrefix(middleware.RealIP(request), "198.51.100.9"))
}
