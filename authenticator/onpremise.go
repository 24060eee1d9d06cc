package authenticator

import "github.com/84adam/mfa-core/factor"

// OnPremiseAuthenticator is the persisted record for a device enrolled
// against an on-premise access manager. ClientID is required and its
// presence (with DisallowUnknownFields on the cloud shape) is what lets
// DecodeAuthenticator tell the two variants apart.
type OnPremiseAuthenticator struct {
	IDValue            string                         `json:"id"`
	AccountNameValue   string                         `json:"accountName"`
	ServiceNameValue   string                         `json:"serviceName"`
	TokenValue         OAuthToken                     `json:"token"`
	AuthnTrxnEndpoint  string                         `json:"authntrxnEndpoint"`
	EnrollmentEndpoint string                         `json:"enrollmentEndpoint"`
	QRLoginEndpoint    string                         `json:"qrLoginEndpoint,omitempty"`
	TokenEndpoint      string                         `json:"tokenEndpoint"`
	TrustAllTLS        bool                           `json:"trustAllTls"`
	ClientID           string                         `json:"clientId"`
	ThemeValue         map[string]string              `json:"theme,omitempty"`
	BiometricFactor    *factor.BiometricFactorInfo    `json:"biometric,omitempty"`
	UserPresenceFactor *factor.UserPresenceFactorInfo `json:"userPresence,omitempty"`
}

var _ Authenticator = (*OnPremiseAuthenticator)(nil)

func (a *OnPremiseAuthenticator) ID() string                  { return a.IDValue }
func (a *OnPremiseAuthenticator) AccountName() string         { return a.AccountNameValue }
func (a *OnPremiseAuthenticator) SetAccountName(name string)  { a.AccountNameValue = name }
func (a *OnPremiseAuthenticator) ServiceName() string         { return a.ServiceNameValue }
func (a *OnPremiseAuthenticator) Token() OAuthToken           { return a.TokenValue }
func (a *OnPremiseAuthenticator) SetToken(t OAuthToken)       { a.TokenValue = t }
func (a *OnPremiseAuthenticator) TransactionEndpoint() string { return a.AuthnTrxnEndpoint }
func (a *OnPremiseAuthenticator) Theme() map[string]string    { return a.ThemeValue }

func (a *OnPremiseAuthenticator) Biometric() (factor.BiometricFactorInfo, bool) {
	if a.BiometricFactor == nil {
		return factor.BiometricFactorInfo{}, false
	}
	return *a.BiometricFactor, true
}

func (a *OnPremiseAuthenticator) UserPresence() (factor.UserPresenceFactorInfo, bool) {
	if a.UserPresenceFactor == nil {
		return factor.UserPresenceFactorInfo{}, false
	}
	return *a.UserPresenceFactor, true
}

func (a *OnPremiseAuthenticator) EnrolledFactors() []factor.FactorType {
	return enrolledFactors(a.BiometricFactor, a.UserPresenceFactor)
}
