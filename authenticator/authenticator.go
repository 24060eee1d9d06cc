// Package authenticator implements the persisted authenticator
// descriptor: the capability set shared by the cloud and on-premise
// variants (spec §3, §9 "Polymorphic authenticator").
package authenticator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/mfaerrors"
)

// OAuthToken is the access/refresh pair plus open-ended extra data (spec
// §9 "OAuth token additionalData"). AdditionalData is expected to carry
// "authenticator_id" for the on-premise variant after a successful
// exchange (spec §4.5).
type OAuthToken struct {
	AccessToken    string         `json:"accessToken"`
	RefreshToken   string         `json:"refreshToken"`
	ExpiresIn      int            `json:"expiresIn"`
	AdditionalData map[string]any `json:"additionalData,omitempty"`
}

// AuthorizationHeader renders the bearer header value.
func (t OAuthToken) AuthorizationHeader() string {
	return "Bearer " + t.AccessToken
}

// AuthenticatorID returns the "authenticator_id" entry required in the
// on-premise token's additional data, and false if it is absent or not
// a string.
func (t OAuthToken) AuthenticatorID() (string, bool) {
	v, ok := t.AdditionalData["authenticator_id"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Authenticator is the capability set both backend variants satisfy,
// per spec §9's "model as a capability set" design note.
type Authenticator interface {
	ID() string
	AccountName() string
	SetAccountName(name string)
	ServiceName() string
	Token() OAuthToken
	SetToken(t OAuthToken)
	TransactionEndpoint() string
	Theme() map[string]string
	Biometric() (factor.BiometricFactorInfo, bool)
	UserPresence() (factor.UserPresenceFactorInfo, bool)
	// EnrolledFactors is the derived, order-independent set of enrolled
	// biometric/userPresence factors (spec §3 "Derived property").
	EnrolledFactors() []factor.FactorType
}

// DecodeAuthenticator deserializes a persisted authenticator record,
// trying the cloud shape then the on-premise shape, per spec §6's
// "the document MUST deserialize as either a cloud or on-premise
// authenticator; the host tries each in order." Each shape's own struct
// tags reject the other's exclusive fields (DisallowUnknownFields), so a
// well-formed on-premise record cannot be silently misread as cloud.
func DecodeAuthenticator(data []byte) (Authenticator, error) {
	var cloud CloudAuthenticator
	cloudDecoder := json.NewDecoder(bytes.NewReader(data))
	cloudDecoder.DisallowUnknownFields()
	if err := cloudDecoder.Decode(&cloud); err == nil && cloud.IDValue != "" {
		return &cloud, nil
	}

	var onprem OnPremiseAuthenticator
	onpremDecoder := json.NewDecoder(bytes.NewReader(data))
	onpremDecoder.DisallowUnknownFields()
	if err := onpremDecoder.Decode(&onprem); err == nil && onprem.IDValue != "" {
		return &onprem, nil
	}

	return nil, mfaerrors.DataDecodingFailed(fmt.Errorf("record matches neither the cloud nor on-premise authenticator shape"))
}

func enrolledFactors(biometric *factor.BiometricFactorInfo, userPresence *factor.UserPresenceFactorInfo) []factor.FactorType {
	var out []factor.FactorType
	if biometric != nil {
		out = append(out, factor.NewBiometric(*biometric))
	}
	if userPresence != nil {
		out = append(out, factor.NewUserPresence(*userPresence))
	}
	return out
}
