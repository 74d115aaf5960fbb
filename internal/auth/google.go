package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// GoogleIdentity is the verified identity extracted from a Google id_token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleConfig carries the OIDC client settings. It is built once from
// application config at startup and read-only thereafter.
type GoogleConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
}

// GoogleClient wraps OIDC discovery, the OAuth2 code flow, and id_token
// verification for the Google login path.
type GoogleClient struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	timeout  time.Duration
}

// NewGoogleClient performs OIDC discovery against the issuer and builds
// the OAuth2 configuration used by the login and callback handlers.
func NewGoogleClient(ctx context.Context, cfg GoogleConfig) (*GoogleClient, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, errors.New("google client: client id is required")
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errors.New("google client: client secret is required")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, errors.New("google client: redirect url is required")
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "https://accounts.google.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	discoveryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	provider, err := oidc.NewProvider(discoveryCtx, issuer)
	if err != nil {
		return nil, fmt.Errorf("google client: discovery failed: %w", err)
	}

	return &GoogleClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		timeout:  timeout,
	}, nil
}

// AuthCodeURL builds the provider authorization URL for the given state
// and nonce.
func (g *GoogleClient) AuthCodeURL(state, nonce string) string {
	return g.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("nonce", nonce))
}

// Exchange trades the authorization code for tokens and verifies the
// returned id_token, including the nonce binding.
func (g *GoogleClient) Exchange(ctx context.Context, code, expectedNonce string) (*GoogleIdentity, error) {
	exchangeCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token, err := g.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, fmt.Errorf("google client: exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google client: id token missing")
	}

	idToken, err := g.verifier.Verify(exchangeCtx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google client: verify id token: %w", err)
	}
	if expectedNonce != "" && idToken.Nonce != expectedNonce {
		return nil, errors.New("google client: nonce mismatch")
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google client: decode claims: %w", err)
	}

	return &GoogleIdentity{
		Subject: idToken.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
