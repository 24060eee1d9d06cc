package registration

import (
	"context"
	"crypto/rsa"
	"net/http"
	"testing"

	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/biometry"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/oauthclient"
	"github.com/84adam/mfa-core/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func noopSaveKey(ctx context.Context, key *rsa.PrivateKey) (string, error) {
	return "K-test", nil
}

const cloudBootstrapJSON = `{"code":"c-1","accountName":"Savings Account","registrationUri":"https://cloud.example/v1.0/authenticators/registration"}`

func cloudInitiationResponse() []byte {
	return []byte(`{
		"id": "a-1",
		"accessToken": "at-1",
		"refreshToken": "rt-1",
		"expiresIn": 3600,
		"metadata": {
			"serviceName": "Example Bank",
			"registrationUri": "https://cloud.example/v1.0/authenticators/registration",
			"authenticationMethods": {
				"totp": {"enrollmentUri": "ignored", "enabled": true},
				"signature_userPresence": {
					"enrollmentUri": "https://cloud.example/v1.0/authenticators/a-1/methods",
					"enabled": true,
					"attributes": {"supportedAlgorithms": ["SHA256withRSA"], "algorithm": "SHA256withRSA"}
				}
			}
		}
	}`)
}

// Scenario 1: cloud happy path — bootstrap with signature_userPresence
// enabled, EnrollUserPresence succeeds with factor id "u-1", Finalize
// returns a CloudAuthenticator carrying the refreshed token.
func TestCloudHappyPath(t *testing.T) {
	httpClient := &transport.MockClient{}

	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(r transport.RequestDescriptor) bool {
		return r.Method == "POST" && r.URL == transport.WithQuery("https://cloud.example/v1.0/authenticators/registration", "skipTotpEnrollment=true")
	})).Return(transport.Result{StatusCode: http.StatusOK, Body: cloudInitiationResponse()}, nil).Once()

	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(r transport.RequestDescriptor) bool {
		return r.Method == "POST" && r.URL == "https://cloud.example/v1.0/authenticators/a-1/methods"
	})).Return(transport.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`[{"subType":"userPresence","id":"u-1"}]`),
	}, nil).Once()

	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(r transport.RequestDescriptor) bool {
		return r.Method == "POST" && r.URL == transport.WithQuery("https://cloud.example/v1.0/authenticators/registration", "metadataInResponse=false")
	})).Return(transport.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"accessToken":"at-2","refreshToken":"a1b2c3","expiresIn":3600}`),
	}, nil).Once()

	controller := NewController(cloudBootstrapJSON, httpClient, &oauthclient.MockClient{})

	provider, err := controller.Initiate(context.Background(), "Savings Account", "push-token-1", nil)
	require.NoError(t, err)
	require.True(t, provider.CanEnrollUserPresence())

	require.NoError(t, provider.EnrollUserPresence(context.Background(), noopSaveKey))

	result, err := provider.Finalize(context.Background())
	require.NoError(t, err)

	cloud, ok := result.(*authenticator.CloudAuthenticator)
	require.True(t, ok)
	assert.Equal(t, "a1b2c3", cloud.Token().RefreshToken)

	up, ok := cloud.UserPresence()
	require.True(t, ok)
	assert.Equal(t, "u-1", up.IDValue)

	httpClient.AssertExpectations(t)
}

func onPremiseBootstrapJSON(options string) string {
	return `{"code":"c-2","details_url":"https://onprem.example/details","client_id":"client-1","options":"` + options + `"}`
}

func onPremiseInitiationResponse(extra string) []byte {
	body := `{
		"authntrxn_endpoint": "https://onprem.example/authntrxn",
		"metadata": {"service_name": "Example Access Manager"},
		"discovery_mechanisms": ["urn:ibm:security:authentication:asf:mechanism:mobile_user_approval:fingerprint"],
		"enrollment_endpoint": "https://onprem.example/enroll",
		"token_endpoint": "https://onprem.example/token",
		"version": "1.0"` + extra + `}`
	return []byte(body)
}

// Scenario 2: on-premise enrollment failure with an unparseable
// server-advertised algorithm. Discovery advertises fingerprint; the
// discovery response's per-method override names algorithm "MD5".
// EnrollBiometric fails with invalidAlgorithm and no key is left behind
// because savePrivateKey is never invoked.
func TestOnPremiseEnrollmentFailsOnUnknownAlgorithm(t *testing.T) {
	httpClient := &transport.MockClient{}
	oauth := &oauthclient.MockClient{}

	httpClient.On("Do", mock.Anything, mock.MatchedBy(func(r transport.RequestDescriptor) bool {
		return r.Method == "GET" && r.URL == "https://onprem.example/details"
	})).Return(transport.Result{
		StatusCode: http.StatusOK,
		Body:       onPremiseInitiationResponse(`,"authentication_methods":{"fingerprint":{"algorithm":"MD5"}}`),
	}, nil).Once()

	oauth.On("Exchange", mock.Anything, mock.Anything).Return(oauthclient.Token{
		AccessToken:    "at-1",
		RefreshToken:   "rt-1",
		AdditionalData: map[string]any{"authenticator_id": "a-2"},
	}, nil).Once()

	controller := NewController(onPremiseBootstrapJSON("ignoreSslCerts=false"), httpClient, oauth)
	provider, err := controller.Initiate(context.Background(), "jdoe", "push-token-2", nil)
	require.NoError(t, err)
	require.True(t, provider.CanEnrollBiometric())

	evaluator := &biometry.MockEvaluator{}
	evaluator.On("CanEvaluate", mock.Anything).Return(true, nil)
	evaluator.On("Evaluate", mock.Anything, mock.Anything, mock.Anything).Return(biometry.SubtypeTouchID, nil)

	keySaved := false
	saveKey := func(ctx context.Context, key *rsa.PrivateKey) (string, error) {
		keySaved = true
		return "K-bio", nil
	}

	err = provider.EnrollBiometric(context.Background(), evaluator, saveKey)
	require.Error(t, err)
	assert.True(t, mfaerrors.HasCode(err, mfaerrors.CodeInvalidAlgorithm))
	assert.False(t, keySaved)

	httpClient.AssertExpectations(t)
	oauth.AssertExpectations(t)
}

// Scenario 6: bootstrap options flag parsing. "ignoreSslCerts=true"
// (exact token match, case-insensitive value) enables TLS bypass;
// anything else leaves it disabled.
func TestParseIgnoreSSLCerts(t *testing.T) {
	cases := []struct {
		options string
		want    bool
	}{
		{"ignoreSslCerts=true", true},
		{"ignoreSslCerts=TRUE", true},
		{"foo=bar,ignoreSslCerts=true", true},
		{"ignoreSslCerts=false", false},
		{"", false},
		{"ignoreSslCerts=truthy", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, parseIgnoreSSLCerts(c.options), "options=%q", c.options)
	}
}

func TestControllerInitiateRejectsUnrecognizedBootstrap(t *testing.T) {
	controller := NewController(`{"unrelated":"field"}`, &transport.MockClient{}, &oauthclient.MockClient{})
	_, err := controller.Initiate(context.Background(), "jdoe", "push-token", nil)
	require.Error(t, err)
	assert.True(t, mfaerrors.HasCode(err, mfaerrors.CodeInvalidRegistrationData))
}
