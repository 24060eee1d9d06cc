// Package oauthclient defines the OAuth capability the on-premise
// registration provider depends on: "a capability that exchanges an
// authorization code for an access/refresh token with extra
// parameters" (spec §1).
package oauthclient

import "context"

// Token is the result of an authorization-code exchange or a refresh.
// AdditionalData is open-ended (spec §9 "OAuth token additionalData");
// the on-premise path requires it to carry "authenticator_id" after a
// successful exchange (spec §4.5).
type Token struct {
	AccessToken    string
	RefreshToken   string
	ExpiresIn      int
	AdditionalData map[string]any
}

// AuthorizationHeader renders the bearer header value for this token.
func (t Token) AuthorizationHeader() string {
	return "Bearer " + t.AccessToken
}

// ExchangeRequest describes an authorization-code exchange.
type ExchangeRequest struct {
	Code        string
	ClientID    string
	TokenURL    string
	Scope       []string
	ExtraParams map[string]string
}

// RefreshRequest describes a refresh-token exchange.
type RefreshRequest struct {
	RefreshToken string
	ClientID     string
	TokenURL     string
}

// Client is the capability interface.
type Client interface {
	Exchange(ctx context.Context, req ExchangeRequest) (Token, error)
	Refresh(ctx context.Context, req RefreshRequest) (Token, error)
}
