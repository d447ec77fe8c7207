// Package oidc verifies identity-provider ID tokens presented at sign-in.
package oidc

import (
	"context"
	"errors"
	"fmt"

	"github.com/AdarshMishraIndia/SyncMart-WebApp/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

var ErrNoEmail = errors.New("id token has no email claim")

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer and verifies tokens for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: clientID})
	return &Verifier{provider: provider, verifier: verifier}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return idToken, nil
}

// Identity is the subset of ID token claims sign-in relies on.
type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	// Claims holds every claim of the token, including the ones above.
	Claims map[string]interface{} `json:"-"`
}

// IdentityFrom extracts the identity claims; an email is required.
func IdentityFrom(tok middleware.Token) (*Identity, error) {
	var id Identity
	if err := tok.Claims(&id); err != nil {
		return nil, fmt.Errorf("read id token claims: %w", err)
	}
	if id.Email == "" {
		return nil, ErrNoEmail
	}
	if err := tok.Claims(&id.Claims); err != nil {
		return nil, fmt.Errorf("read id token claims: %w", err)
	}
	return &id, nil
}
