package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/biometry"
	"github.com/84adam/mfa-core/config"
	"github.com/84adam/mfa-core/cryptoutil"
	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/transport"
)

type signatureAttributes struct {
	SupportedAlgorithms []string `json:"supportedAlgorithms"`
	Algorithm           string   `json:"algorithm"`
}

type signatureMethod struct {
	EnrollmentURI string               `json:"enrollmentUri"`
	Attributes    *signatureAttributes `json:"attributes,omitempty"`
	Enabled       bool                 `json:"enabled"`
}

type cloudInitializationInfo struct {
	ExpiresIn int `json:"expiresIn"`
	Metadata  struct {
		AuthenticationMethods map[string]signatureMethod `json:"authenticationMethods"`
		RegistrationURI       string                     `json:"registrationUri"`
		ServiceName           string                     `json:"serviceName"`
		Theme                 map[string]string          `json:"theme,omitempty"`
		CustomAttributes      map[string]string          `json:"customAttributes,omitempty"`
	} `json:"metadata"`
	ID           string `json:"id"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Version      struct {
		Number   string `json:"number"`
		Platform string `json:"platform"`
	} `json:"version"`
}

type cloudTokenResponse struct {
	AccessToken    string         `json:"accessToken"`
	RefreshToken   string         `json:"refreshToken"`
	ExpiresIn      int            `json:"expiresIn"`
	AdditionalData map[string]any `json:"additionalData,omitempty"`
}

// cloudProvider implements Provider against a managed cloud tenant
// (spec §4.4).
type cloudProvider struct {
	bootstrap   cloudBootstrap
	httpClient  transport.Client
	accountName string
	pushToken   string
	attributes  map[string]string

	initInfo *cloudInitializationInfo
	token    authenticator.OAuthToken

	biometricFactor    *factor.BiometricFactorInfo
	userPresenceFactor *factor.UserPresenceFactorInfo
}

func newCloudProvider(bootstrap cloudBootstrap, httpClient transport.Client) *cloudProvider {
	return &cloudProvider{bootstrap: bootstrap, httpClient: httpClient}
}

func (p *cloudProvider) initiate(ctx context.Context, accountName, pushToken string, additionalData map[string]string) error {
	p.accountName = accountName
	p.pushToken = pushToken
	p.attributes = mergeDeviceAttributes(config.Get().DeviceAttributesMinusApplicationName(), additionalData)

	body := map[string]any{
		"code": p.bootstrap.Code,
		"attributes": mergeDeviceAttributes(map[string]string{
			"accountName": accountName,
			"pushToken":   pushToken,
		}, p.attributes),
	}

	result, err := p.httpClient.Do(ctx, transport.RequestDescriptor{
		Method: "POST",
		URL:    transport.WithQuery(p.bootstrap.RegistrationURI, "skipTotpEnrollment=true"),
		Body:   body,
	})
	if err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.DataInitializationFailed(fmt.Errorf("initiate: http %d", result.StatusCode))
	}

	var initInfo cloudInitializationInfo
	if err := json.Unmarshal(result.Body, &initInfo); err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}
	var tokenResp cloudTokenResponse
	if err := json.Unmarshal(result.Body, &tokenResp); err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}

	// A key identified "totp" MUST be ignored during decoding (spec §6).
	delete(initInfo.Metadata.AuthenticationMethods, "totp")

	p.initInfo = &initInfo
	p.token = authenticator.OAuthToken{
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		ExpiresIn:      tokenResp.ExpiresIn,
		AdditionalData: tokenResp.AdditionalData,
	}
	return nil
}

func (p *cloudProvider) methodEnabled(key string) bool {
	if p.initInfo == nil {
		return false
	}
	m, ok := p.initInfo.Metadata.AuthenticationMethods[key]
	return ok && m.Enabled
}

func (p *cloudProvider) CanEnrollBiometric() bool {
	return p.methodEnabled("signature_face") || p.methodEnabled("signature_fingerprint")
}

func (p *cloudProvider) CanEnrollUserPresence() bool {
	return p.methodEnabled("signature_userPresence")
}

func (p *cloudProvider) EnrollUserPresence(ctx context.Context, savePrivateKey SavePrivateKeyFunc) error {
	return p.performSignatureEnrollment(ctx, "signature_userPresence", "userPresence", savePrivateKey)
}

func (p *cloudProvider) EnrollBiometric(ctx context.Context, evaluator biometry.Evaluator, savePrivateKey SavePrivateKeyFunc) error {
	canEvaluate, err := evaluator.CanEvaluate(ctx)
	if err != nil {
		return mfaerrors.BiometryFailed(err.Error())
	}
	if !canEvaluate {
		return mfaerrors.BiometryFailed("biometric hardware unavailable")
	}

	subtype, err := evaluator.Evaluate(ctx, biometry.PolicyDeviceOwnerAuthenticationWithBiometrics, "enroll a biometric factor")
	if err != nil {
		return mfaerrors.BiometryFailed(err.Error())
	}

	var methodKey, subType string
	switch subtype {
	case biometry.SubtypeFaceID:
		methodKey, subType = "signature_face", "face"
	case biometry.SubtypeTouchID:
		methodKey, subType = "signature_fingerprint", "fingerprint"
	default:
		return mfaerrors.BiometryFailed("no biometry type available after authentication")
	}

	return p.performSignatureEnrollment(ctx, methodKey, subType, savePrivateKey)
}

func (p *cloudProvider) performSignatureEnrollment(ctx context.Context, methodKey, subType string, savePrivateKey SavePrivateKeyFunc) error {
	if p.initInfo == nil {
		return mfaerrors.InvalidState()
	}

	method, ok := p.initInfo.Metadata.AuthenticationMethods[methodKey]
	if !ok {
		return mfaerrors.InvalidRegistrationData()
	}
	if !method.Enabled {
		return mfaerrors.SignatureMethodNotEnabled(strings.Title(subType))
	}
	if method.Attributes == nil {
		return mfaerrors.InvalidRegistrationData()
	}

	preferredAlgorithm, err := algorithm.Parse(method.Attributes.Algorithm)
	if err != nil {
		return mfaerrors.InvalidAlgorithm()
	}

	key, err := cryptoutil.GenerateRSAKeyPair(0)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	signedChallenge, err := cryptoutil.SignChallengeBase64URL(p.initInfo.ID, key, algorithm.HashID(preferredAlgorithm))
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	label, err := savePrivateKey(ctx, key)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	publicKey, err := cryptoutil.MarshalPublicKeyX509Base64(key)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	body := []map[string]any{{
		"subType": subType,
		"enabled": true,
		"attributes": map[string]any{
			"signedData":     signedChallenge,
			"publicKey":      publicKey,
			"deviceSecurity": subType != "userPresence",
			"algorithm":      algorithm.CloudSpelling(preferredAlgorithm),
			"additionalData": []map[string]string{{"name": "name", "value": label}},
		},
	}}

	result, err := p.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         method.EnrollmentURI,
		Body:        body,
		BearerToken: p.token.AccessToken,
	})
	if err != nil {
		return mfaerrors.EnrollmentFailed(err.Error())
	}
	if !result.IsSuccess() {
		return mfaerrors.EnrollmentFailed(fmt.Sprintf("http %d", result.StatusCode))
	}

	var enrolled []struct {
		SubType string `json:"subType"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(result.Body, &enrolled); err != nil {
		return mfaerrors.EnrollmentFailed("malformed enrollment response")
	}

	var factorID string
	found := false
	for _, e := range enrolled {
		if e.SubType == subType {
			factorID = e.ID
			found = true
			break
		}
	}
	if !found {
		return mfaerrors.EnrollmentFailed("no matching subType in enrollment response")
	}

	switch subType {
	case "face", "fingerprint":
		p.biometricFactor = &factor.BiometricFactorInfo{IDValue: factorID, Name: label, Algorithm: preferredAlgorithm}
	default:
		p.userPresenceFactor = &factor.UserPresenceFactorInfo{IDValue: factorID, Name: label, Algorithm: preferredAlgorithm}
	}
	return nil
}

func (p *cloudProvider) Finalize(ctx context.Context) (authenticator.Authenticator, error) {
	if p.initInfo == nil {
		return nil, mfaerrors.InvalidState()
	}
	if p.token.RefreshToken == "" {
		return nil, mfaerrors.TokenNotFound()
	}

	body := map[string]any{
		"refreshToken": p.token.RefreshToken,
		"attributes": mergeDeviceAttributes(map[string]string{
			"accountName": p.accountName,
			"pushToken":   p.pushToken,
		}, p.attributes),
	}

	result, err := p.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         transport.WithQuery(p.bootstrap.RegistrationURI, "metadataInResponse=false"),
		Body:        body,
		BearerToken: p.token.AccessToken,
	})
	if err != nil {
		return nil, mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return nil, mfaerrors.Underlying(fmt.Errorf("finalize: http %d", result.StatusCode))
	}

	var tokenResp cloudTokenResponse
	if err := json.Unmarshal(result.Body, &tokenResp); err != nil {
		return nil, mfaerrors.DataDecodingFailed(err)
	}
	finalToken := authenticator.OAuthToken{
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		ExpiresIn:      tokenResp.ExpiresIn,
		AdditionalData: tokenResp.AdditionalData,
	}

	transactionURI := deriveTransactionURI(p.bootstrap.RegistrationURI, p.initInfo.ID)

	return &authenticator.CloudAuthenticator{
		IDValue:            p.initInfo.ID,
		AccountNameValue:   p.accountName,
		ServiceNameValue:   p.initInfo.Metadata.ServiceName,
		TokenValue:         finalToken,
		RegistrationURI:    p.bootstrap.RegistrationURI,
		TransactionURI:     transactionURI,
		ThemeValue:         p.initInfo.Metadata.Theme,
		CustomAttributes:   p.initInfo.Metadata.CustomAttributes,
		BiometricFactor:    p.biometricFactor,
		UserPresenceFactor: p.userPresenceFactor,
	}, nil
}

// deriveTransactionURI replaces the last path segment "registration"
// with "{id}/verifications", per spec §4.4 step 3.
func deriveTransactionURI(registrationURI, id string) string {
	trimmed := strings.TrimSuffix(registrationURI, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	lastSegment := trimmed[idx+1:]
	if lastSegment != "registration" {
		return trimmed + "/" + id + "/verifications"
	}
	return trimmed[:idx] + "/" + id + "/verifications"
}

// InitiateInApp performs the in-app initiation helper from spec §4.4:
// POSTs {clientId, accountName} with a pre-existing bearer token,
// returning the raw JSON response body to be fed back into
// Controller.Initiate.
func InitiateInApp(ctx context.Context, httpClient transport.Client, initiationURL, clientID, accountName, bearerToken string) (string, error) {
	result, err := httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         initiationURL,
		Body:        map[string]string{"clientId": clientID, "accountName": accountName},
		BearerToken: bearerToken,
	})
	if err != nil {
		return "", mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return "", mfaerrors.DataInitializationFailed(fmt.Errorf("in-app initiation: http %d", result.StatusCode))
	}
	return string(result.Body), nil
}
