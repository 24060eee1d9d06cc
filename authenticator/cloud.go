package authenticator

import "github.com/84adam/mfa-core/factor"

// CloudAuthenticator is the persisted record for a device enrolled
// against a managed cloud tenant.
type CloudAuthenticator struct {
	IDValue            string                         `json:"id"`
	AccountNameValue   string                         `json:"accountName"`
	ServiceNameValue   string                         `json:"serviceName"`
	TokenValue         OAuthToken                     `json:"token"`
	RegistrationURI    string                         `json:"registrationUri"`
	TransactionURI     string                         `json:"transactionUri"`
	ThemeValue         map[string]string              `json:"theme,omitempty"`
	CustomAttributes   map[string]string              `json:"customAttributes,omitempty"`
	CertificateBase64  string                         `json:"certificate,omitempty"`
	BiometricFactor    *factor.BiometricFactorInfo    `json:"biometric,omitempty"`
	UserPresenceFactor *factor.UserPresenceFactorInfo `json:"userPresence,omitempty"`
}

var _ Authenticator = (*CloudAuthenticator)(nil)

func (a *CloudAuthenticator) ID() string                  { return a.IDValue }
func (a *CloudAuthenticator) AccountName() string         { return a.AccountNameValue }
func (a *CloudAuthenticator) SetAccountName(name string)  { a.AccountNameValue = name }
func (a *CloudAuthenticator) ServiceName() string         { return a.ServiceNameValue }
func (a *CloudAuthenticator) Token() OAuthToken           { return a.TokenValue }
func (a *CloudAuthenticator) SetToken(t OAuthToken)       { a.TokenValue = t }
func (a *CloudAuthenticator) TransactionEndpoint() string { return a.TransactionURI }
func (a *CloudAuthenticator) Theme() map[string]string    { return a.ThemeValue }

func (a *CloudAuthenticator) Biometric() (factor.BiometricFactorInfo, bool) {
	if a.BiometricFactor == nil {
		return factor.BiometricFactorInfo{}, false
	}
	return *a.BiometricFactor, true
}

func (a *CloudAuthenticator) UserPresence() (factor.UserPresenceFactorInfo, bool) {
	if a.UserPresenceFactor == nil {
		return factor.UserPresenceFactorInfo{}, false
	}
	return *a.UserPresenceFactor, true
}

func (a *CloudAuthenticator) EnrolledFactors() []factor.FactorType {
	return enrolledFactors(a.BiometricFactor, a.UserPresenceFactor)
}
