package oauthclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationHeader(t *testing.T) {
	tok := Token{AccessToken: "a1b2c3"}
	assert.Equal(t, "Bearer a1b2c3", tok.AuthorizationHeader())
}

func TestMockClientExchange(t *testing.T) {
	client := new(MockClient)
	req := ExchangeRequest{Code: "abc123", ClientID: "client-1", TokenURL: "https://server/token", Scope: []string{"mmfaAuthn"}}
	client.On("Exchange", context.Background(), req).Return(Token{
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		AdditionalData: map[string]any{"authenticator_id": "auth-1"},
	}, nil)

	tok, err := client.Exchange(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
	assert.Equal(t, "auth-1", tok.AdditionalData["authenticator_id"])
}
