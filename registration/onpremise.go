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
	"github.com/84adam/mfa-core/oauthclient"
	"github.com/84adam/mfa-core/transport"
	"github.com/google/uuid"
)

// onPremiseDiscoveryMechanismPrefix is the URN namespace the on-premise
// server advertises discovery mechanisms under (spec §4.5).
const onPremiseDiscoveryMechanismPrefix = "urn:ibm:security:authentication:asf:mechanism:mobile_user_approval:"

// defaultOnPremiseAlgorithm is the algorithm the on-premise discovery
// step assigns to every method, unless the initialization payload's
// optional authentication_methods entry names another one.
const defaultOnPremiseAlgorithm = "SHA512withRSA"

type onPremiseInitializationInfo struct {
	AuthnTrxnEndpoint string `json:"authntrxn_endpoint"`
	Metadata          struct {
		ServiceName string            `json:"service_name"`
		Theme       map[string]string `json:"theme,omitempty"`
	} `json:"metadata"`
	DiscoveryMechanisms []string `json:"discovery_mechanisms"`
	EnrollmentEndpoint  string   `json:"enrollment_endpoint"`
	QRLoginEndpoint     string   `json:"qrlogin_endpoint,omitempty"`
	Version             string   `json:"version"`
	TokenEndpoint       string   `json:"token_endpoint"`

	// AuthenticationMethods is not part of the documented wire shape in
	// spec §6 and is absent in the common case — discovery falls back to
	// defaultOnPremiseAlgorithm per spec §4.5. When present, a server can
	// override the algorithm for a given subType (the mechanism an
	// on-premise deployment uses to advertise a non-default algorithm, or
	// — as in the failure case — an unparseable one).
	AuthenticationMethods map[string]struct {
		Algorithm string `json:"algorithm"`
	} `json:"authentication_methods,omitempty"`
}

// onPremiseProvider implements Provider against an on-premise access
// manager (spec §4.5).
type onPremiseProvider struct {
	bootstrap   onPremiseBootstrap
	httpClient  transport.Client
	oauth       oauthclient.Client
	accountName string
	pushToken   string
	attributes  map[string]string

	initInfo *onPremiseInitializationInfo
	token    authenticator.OAuthToken

	authenticatorID    string
	biometricFactor    *factor.BiometricFactorInfo
	userPresenceFactor *factor.UserPresenceFactorInfo
}

func newOnPremiseProvider(bootstrap onPremiseBootstrap, httpClient transport.Client, oauth oauthclient.Client) *onPremiseProvider {
	return &onPremiseProvider{bootstrap: bootstrap, httpClient: httpClient, oauth: oauth}
}

func (p *onPremiseProvider) initiate(ctx context.Context, accountName, pushToken string, additionalData map[string]string) error {
	p.accountName = accountName
	p.pushToken = pushToken

	result, err := p.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "GET",
		URL:         p.bootstrap.DetailsURL,
		TLSInsecure: p.bootstrap.ignoreSSLCertificate,
	})
	if err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.DataInitializationFailed(fmt.Errorf("initiate: http %d", result.StatusCode))
	}

	var initInfo onPremiseInitializationInfo
	if err := json.Unmarshal(result.Body, &initInfo); err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}
	p.initInfo = &initInfo

	// additionalData is merged in, retaining existing keys, capped at
	// the first 10 incoming entries (spec §4.5).
	merged := mergeDeviceAttributes(capAt(additionalData, 10), config.Get().DeviceAttributesMinusApplicationName())
	merged["tenant_id"] = uuid.NewString()
	merged["account_name"] = accountName
	merged["push_token"] = pushToken
	p.attributes = merged

	extraParams := make(map[string]string, len(merged))
	for k, v := range merged {
		extraParams[k] = v
	}

	token, err := p.oauth.Exchange(ctx, oauthclient.ExchangeRequest{
		Code:        p.bootstrap.Code,
		ClientID:    p.bootstrap.ClientID,
		TokenURL:    initInfo.TokenEndpoint,
		Scope:       []string{"mmfaAuthn"},
		ExtraParams: extraParams,
	})
	if err != nil {
		return mfaerrors.DataInitializationFailed(err)
	}

	p.token = authenticator.OAuthToken{
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresIn:      token.ExpiresIn,
		AdditionalData: token.AdditionalData,
	}

	authID, ok := p.token.AuthenticatorID()
	if !ok {
		return mfaerrors.MissingAuthenticatorIdentifier()
	}
	p.authenticatorID = authID

	return nil
}

// capAt returns a copy of m with at most the first n entries. Go map
// iteration order is randomized, so "first n" only bounds cardinality,
// matching the spec's intent of bounding the attribute count rather
// than picking a specific deterministic subset.
func capAt(m map[string]string, n int) map[string]string {
	if len(m) <= n {
		return m
	}
	out := make(map[string]string, n)
	for k, v := range m {
		if len(out) >= n {
			break
		}
		out[k] = v
	}
	return out
}

func (p *onPremiseProvider) hasDiscoveryMechanism(suffix string) bool {
	if p.initInfo == nil {
		return false
	}
	want := onPremiseDiscoveryMechanismPrefix + suffix
	for _, m := range p.initInfo.DiscoveryMechanisms {
		if m == want {
			return true
		}
	}
	return false
}

func (p *onPremiseProvider) CanEnrollBiometric() bool {
	return p.hasDiscoveryMechanism("fingerprint")
}

func (p *onPremiseProvider) CanEnrollUserPresence() bool {
	return p.hasDiscoveryMechanism("user_presence")
}

func (p *onPremiseProvider) EnrollUserPresence(ctx context.Context, savePrivateKey SavePrivateKeyFunc) error {
	return p.performSignatureEnrollment(ctx, "user_presence", "userPresence", savePrivateKey)
}

// EnrollBiometric maps both faceID and touchID to subType "fingerprint"
// — the on-premise server does not distinguish sensor types (spec
// §4.5).
func (p *onPremiseProvider) EnrollBiometric(ctx context.Context, evaluator biometry.Evaluator, savePrivateKey SavePrivateKeyFunc) error {
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
	switch subtype {
	case biometry.SubtypeFaceID, biometry.SubtypeTouchID:
	default:
		return mfaerrors.BiometryFailed("no biometry type available after authentication")
	}

	return p.performSignatureEnrollment(ctx, "fingerprint", "fingerprint", savePrivateKey)
}

func (p *onPremiseProvider) performSignatureEnrollment(ctx context.Context, mechanismSuffix, subType string, savePrivateKey SavePrivateKeyFunc) error {
	if p.initInfo == nil {
		return mfaerrors.InvalidState()
	}
	if !p.hasDiscoveryMechanism(mechanismSuffix) {
		return mfaerrors.SignatureMethodNotEnabled(strings.Title(subType))
	}

	algorithmLiteral := defaultOnPremiseAlgorithm
	if method, ok := p.initInfo.AuthenticationMethods[subType]; ok && method.Algorithm != "" {
		algorithmLiteral = method.Algorithm
	}
	preferredAlgorithm, err := algorithm.Parse(algorithmLiteral)
	if err != nil {
		return mfaerrors.InvalidAlgorithm()
	}

	key, err := cryptoutil.GenerateRSAKeyPair(0)
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
	// Unlike the cloud path, the on-premise SCIM enrollment body carries
	// no signed challenge (spec §6) — the key pair is registered and
	// used for the first time when signing a transaction.

	scimPath := fmt.Sprintf("urn:ietf:params:scim:schemas:extension:isam:1.0:MMFA:Authenticator:%sMethods", subType)
	body := map[string]any{
		"schemas": []string{"urn:ietf:params:scim:api:messages:2.0:PatchOp"},
		"Operations": []map[string]any{{
			"op":   "add",
			"path": scimPath,
			"value": []map[string]any{{
				"enabled":   true,
				"keyHandle": label,
				"algorithm": algorithm.OnPremSpelling(preferredAlgorithm),
				"publicKey": publicKey,
			}},
		}},
	}

	result, err := p.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "PATCH",
		URL:         transport.WithQuery(p.initInfo.EnrollmentEndpoint, "attributes="+scimPath),
		Body:        body,
		BearerToken: p.token.AccessToken,
		TLSInsecure: p.bootstrap.ignoreSSLCertificate,
	})
	if err != nil {
		return mfaerrors.EnrollmentFailed(err.Error())
	}
	if !result.IsSuccess() {
		return mfaerrors.EnrollmentFailed(fmt.Sprintf("http %d", result.StatusCode))
	}

	// The server does not return a new enrollment id; mint one locally
	// for local correlation only (spec §9 "on-premise enrollment id").
	factorID := uuid.NewString()

	switch subType {
	case "fingerprint":
		p.biometricFactor = &factor.BiometricFactorInfo{IDValue: factorID, Name: label, Algorithm: preferredAlgorithm}
	default:
		p.userPresenceFactor = &factor.UserPresenceFactorInfo{IDValue: factorID, Name: label, Algorithm: preferredAlgorithm}
	}
	return nil
}

// Finalize does NOT call refresh; it constructs the on-premise
// authenticator from the already-held token (spec §4.5).
func (p *onPremiseProvider) Finalize(ctx context.Context) (authenticator.Authenticator, error) {
	if p.initInfo == nil {
		return nil, mfaerrors.InvalidState()
	}

	return &authenticator.OnPremiseAuthenticator{
		IDValue:            p.authenticatorID,
		AccountNameValue:   p.accountName,
		ServiceNameValue:   p.initInfo.Metadata.ServiceName,
		TokenValue:         p.token,
		AuthnTrxnEndpoint:  p.initInfo.AuthnTrxnEndpoint,
		EnrollmentEndpoint: p.initInfo.EnrollmentEndpoint,
		QRLoginEndpoint:    p.initInfo.QRLoginEndpoint,
		TokenEndpoint:      p.initInfo.TokenEndpoint,
		TrustAllTLS:        p.bootstrap.ignoreSSLCertificate,
		ClientID:           p.bootstrap.ClientID,
		ThemeValue:         p.initInfo.Metadata.Theme,
		BiometricFactor:    p.biometricFactor,
		UserPresenceFactor: p.userPresenceFactor,
	}, nil
}
