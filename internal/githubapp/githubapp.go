// Copyright 2026 The Pitcrew Authors
// SPDX-License-Identifier: MIT

// Package githubapp mints the two tokens a GitHub App lives on: the
// short-lived app JWT and the per-installation access token used for
// clones and API calls.
package githubapp

import (
	"context"
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v68/github"

	"github.com/davetashner/pitcrew/internal/redact"
)

// Authenticator holds the App credentials and exchanges them for
// installation tokens.
type Authenticator struct {
	appID string
	key   *rsa.PrivateKey
	api   appsAPI
}

// appsAPI abstracts the GitHub Apps endpoint for testing.
type appsAPI interface {
	CreateInstallationToken(ctx context.Context, appJWT string, installationID int64) (*github.InstallationToken, error)
}

// realAppsAPI calls GitHub with a client authenticated by the app JWT.
type realAppsAPI struct{}

func (realAppsAPI) CreateInstallationToken(ctx context.Context, appJWT string, installationID int64) (*github.InstallationToken, error) {
	client := github.NewClient(nil).WithAuthToken(appJWT)
	token, _, err := client.Apps.CreateInstallationToken(ctx, installationID, nil)
	return token, err
}

// New builds an Authenticator from the App ID and its PEM private key.
func New(appID string, privateKeyPEM []byte) (*Authenticator, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, &AuthError{Op: "parsing private key", Err: err}
	}
	return &Authenticator{appID: appID, key: key, api: realAppsAPI{}}, nil
}

// AppToken signs a fresh app JWT. GitHub requires iat in the past
// (clock skew allowance) and caps validity at ten minutes.
func (a *Authenticator) AppToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		Issuer:    a.appID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(a.key)
	if err != nil {
		return "", &AuthError{Op: "signing app jwt", Err: err}
	}
	return signed, nil
}

// InstallationToken exchanges the app JWT for an installation access
// token. The token is registered with redact before it is returned, so it
// cannot leak through any later log or error.
func (a *Authenticator) InstallationToken(ctx context.Context, installationID int64) (string, error) {
	appJWT, err := a.AppToken()
	if err != nil {
		return "", err
	}

	token, err := a.api.CreateInstallationToken(ctx, appJWT, installationID)
	if err != nil {
		return "", &AuthError{Op: "creating installation token", Err: err}
	}
	if token.GetToken() == "" {
		return "", &AuthError{Op: "creating installation token", Err: errors.New("empty token in response")}
	}

	redact.RegisterSecret(token.GetToken())
	return token.GetToken(), nil
}
