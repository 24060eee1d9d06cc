package authenticator

import (
	"encoding/json"
	"testing"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/factor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrolledFactorsDerivation(t *testing.T) {
	none := &CloudAuthenticator{IDValue: "a-1"}
	assert.Empty(t, none.EnrolledFactors())

	biometricOnly := &CloudAuthenticator{
		IDValue:         "a-1",
		BiometricFactor: &factor.BiometricFactorInfo{IDValue: "b-1", Name: "K-bio", Algorithm: algorithm.SHA256},
	}
	factors := biometricOnly.EnrolledFactors()
	require.Len(t, factors, 1)
	assert.Equal(t, factor.TagBiometric, factors[0].Tag())

	both := &CloudAuthenticator{
		IDValue:            "a-1",
		BiometricFactor:    &factor.BiometricFactorInfo{IDValue: "b-1", Name: "K-bio", Algorithm: algorithm.SHA256},
		UserPresenceFactor: &factor.UserPresenceFactorInfo{IDValue: "u-1", Name: "K-up", Algorithm: algorithm.SHA256},
	}
	assert.Len(t, both.EnrolledFactors(), 2)
}

func TestDecodeAuthenticatorTriesCloudThenOnPremise(t *testing.T) {
	cloud := &CloudAuthenticator{
		IDValue:          "a-1",
		AccountNameValue: "Savings Account",
		ServiceNameValue: "Example Bank",
		TransactionURI:   "https://server/v1.0/authenticators/a-1/verifications",
	}
	encoded, err := json.Marshal(cloud)
	require.NoError(t, err)

	decoded, err := DecodeAuthenticator(encoded)
	require.NoError(t, err)
	_, isCloud := decoded.(*CloudAuthenticator)
	assert.True(t, isCloud)

	onprem := &OnPremiseAuthenticator{
		IDValue:  "a-2",
		ClientID: "client-1",
	}
	encoded, err = json.Marshal(onprem)
	require.NoError(t, err)

	decoded, err = DecodeAuthenticator(encoded)
	require.NoError(t, err)
	_, isOnPrem := decoded.(*OnPremiseAuthenticator)
	assert.True(t, isOnPrem)
}

func TestDecodeAuthenticatorRejectsUnrecognizedShape(t *testing.T) {
	_, err := DecodeAuthenticator([]byte(`{"unrelated":"field"}`))
	assert.Error(t, err)
}

func TestOAuthTokenAuthenticatorID(t *testing.T) {
	tok := OAuthToken{AdditionalData: map[string]any{"authenticator_id": "auth-1"}}
	id, ok := tok.AuthenticatorID()
	assert.True(t, ok)
	assert.Equal(t, "auth-1", id)

	missing := OAuthToken{}
	_, ok = missing.AuthenticatorID()
	assert.False(t, ok)
}
