// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via small interfaces ([auth.TokenProvider],
// [middleware.TokenVerifier]).
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned when a token is well-formed and signed but past its expiry.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrInvalidSignature covers every other verification failure: bad signature,
	// wrong secret, wrong algorithm, malformed input, missing claims.
	ErrInvalidSignature = errors.New("sec: invalid token")
)

// AuthClaims represents the payload embedded inside both access and refresh tokens.
//
// The Nonce makes two tokens minted in the same second for the same identity
// differ, which keeps exact-match revocation precise.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	IdentityID string `json:"uid"`
	Email      string `json:"eml"`
	Nonce      string `json:"nce"`
}

// # Token Issuer

// TokenIssuer mints and verifies HS256 tokens under a caller-supplied secret.
type TokenIssuer struct {
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. A nil clock defaults to [time.Now].
func NewTokenIssuer(issuer string, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{issuer: issuer, now: now}
}

// Issue signs a token carrying {identityID, email, nonce} that expires after ttl.
func (issuer *TokenIssuer) Issue(identityID, email string, secret []byte, timeToLive time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("sec: empty signing secret")
	}

	currentTime := issuer.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID,
			Issuer:    issuer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		IdentityID: identityID,
		Email:      email,
		Nonce:      uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature and expiry of a token against secret.
//
// It returns [ErrTokenExpired] or [ErrInvalidSignature] (wrapped) on failure.
// The result depends only on the token, the secret, and the issuer's clock.
func (issuer *TokenIssuer) Verify(tokenString string, secret []byte) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(issuer.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid || claims.IdentityID == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidSignature)
	}

	return claims, nil
}

// # Token Service

// TokenPair is a freshly minted access/refresh couple.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// TokenConfig carries the secrets and lifetimes for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenService binds a [TokenIssuer] to the access and refresh secrets.
type TokenService struct {
	issuer        *TokenIssuer
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService validates cfg and returns a ready TokenService.
func NewTokenService(issuer *TokenIssuer, cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("sec: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("sec: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}

	return &TokenService{
		issuer:        issuer,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}, nil
}

// IssuePair mints one access token and one refresh token for the identity.
func (service *TokenService) IssuePair(identityID, email string) (*TokenPair, error) {
	accessToken, err := service.issuer.Issue(identityID, email, service.accessSecret, service.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: issue access token: %w", err)
	}

	refreshToken, err := service.issuer.Issue(identityID, email, service.refreshSecret, service.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: issue refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessTTL:    service.accessTTL,
		RefreshTTL:   service.refreshTTL,
	}, nil
}

// VerifyAccess verifies a token against the access secret.
func (service *TokenService) VerifyAccess(tokenString string) (*AuthClaims, error) {
	return service.issuer.Verify(tokenString, service.accessSecret)
}

// VerifyRefresh verifies a token against the refresh secret.
func (service *TokenService) VerifyRefresh(tokenString string) (*AuthClaims, error) {
	return service.issuer.Verify(tokenString, service.refreshSecret)
}

// AccessTTL returns the lifetime of access tokens.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the lifetime of refresh tokens.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }
