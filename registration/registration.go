// Package registration implements the two-variant registration provider
// state machine (spec §4.3–§4.5): parse a bootstrap descriptor, initiate
// against the matching backend, enroll factors, and finalize into a
// persisted authenticator.
package registration

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/biometry"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/oauthclient"
	"github.com/84adam/mfa-core/transport"
)

// SavePrivateKeyFunc persists a freshly generated private key and
// returns the label it was stored under. Spec §9 "Biometric callback
// for key storage" — this inversion lets the caller decide
// access-control flags per platform.
type SavePrivateKeyFunc func(ctx context.Context, key *rsa.PrivateKey) (label string, err error)

// Provider is the lifecycle surface both backend variants implement.
// Operations are not re-entrant within one instance (spec §5
// "Per-provider serialization").
type Provider interface {
	CanEnrollBiometric() bool
	CanEnrollUserPresence() bool
	EnrollUserPresence(ctx context.Context, savePrivateKey SavePrivateKeyFunc) error
	EnrollBiometric(ctx context.Context, evaluator biometry.Evaluator, savePrivateKey SavePrivateKeyFunc) error
	Finalize(ctx context.Context) (authenticator.Authenticator, error)
}

// Controller dispatches a bootstrap JSON string to the matching
// provider, per spec §4.3.
type Controller struct {
	bootstrapJSON string
	httpClient    transport.Client
	oauth         oauthclient.Client
}

// NewController builds a dispatcher over a raw bootstrap JSON string.
func NewController(bootstrapJSON string, httpClient transport.Client, oauth oauthclient.Client) *Controller {
	return &Controller{bootstrapJSON: bootstrapJSON, httpClient: httpClient, oauth: oauth}
}

// Initiate attempts cloud-provider construction first, then on-premise;
// construction failure means the JSON shape didn't parse into the
// provider's expected descriptor, not a network failure (spec §4.3).
func (c *Controller) Initiate(ctx context.Context, accountName, pushToken string, additionalData map[string]string) (Provider, error) {
	if cloudBootstrap, err := parseCloudBootstrap(c.bootstrapJSON); err == nil {
		provider := newCloudProvider(cloudBootstrap, c.httpClient)
		if err := provider.initiate(ctx, accountName, pushToken, additionalData); err != nil {
			return nil, err
		}
		return provider, nil
	}

	if onPremiseBootstrap, err := parseOnPremiseBootstrap(c.bootstrapJSON); err == nil {
		provider := newOnPremiseProvider(onPremiseBootstrap, c.httpClient, c.oauth)
		if err := provider.initiate(ctx, accountName, pushToken, additionalData); err != nil {
			return nil, err
		}
		return provider, nil
	}

	return nil, mfaerrors.InvalidRegistrationData()
}

// cloudBootstrap is the parsed cloud bootstrap descriptor (spec §6).
type cloudBootstrap struct {
	Code            string `json:"code"`
	AccountName     string `json:"accountName"`
	RegistrationURI string `json:"registrationUri"`
	Version         struct {
		Number   string `json:"number"`
		Platform string `json:"platform"`
	} `json:"version"`
}

func parseCloudBootstrap(raw string) (cloudBootstrap, error) {
	var b cloudBootstrap
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return cloudBootstrap{}, err
	}
	if b.Code == "" || b.RegistrationURI == "" {
		return cloudBootstrap{}, mfaerrors.InvalidRegistrationData()
	}
	return b, nil
}

// onPremiseBootstrap is the parsed on-premise bootstrap descriptor
// (spec §6). domain and ignoreSSLCertificate are derived at
// construction time (spec §4.3 "side-channel attributes").
type onPremiseBootstrap struct {
	Code       string `json:"code"`
	Options    string `json:"options"`
	DetailsURL string `json:"details_url"`
	Version    int    `json:"version"`
	ClientID   string `json:"client_id"`

	domain               string
	ignoreSSLCertificate bool
}

func parseOnPremiseBootstrap(raw string) (onPremiseBootstrap, error) {
	var b onPremiseBootstrap
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return onPremiseBootstrap{}, err
	}
	if b.DetailsURL == "" || b.ClientID == "" {
		return onPremiseBootstrap{}, mfaerrors.InvalidRegistrationData()
	}

	b.domain = hostOf(b.DetailsURL)
	b.ignoreSSLCertificate = parseIgnoreSSLCerts(b.Options)
	return b, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

// parseIgnoreSSLCerts implements spec §4.3's exact matching rule: true
// iff the options string contains the token "ignoreSslCerts=true",
// whitespace-trimmed, value lowercased.
func parseIgnoreSSLCerts(options string) bool {
	for _, token := range strings.Split(options, ",") {
		kv := strings.SplitN(strings.TrimSpace(token), "=", 2)
		if len(kv) != 2 {
			continue
		}
		if strings.TrimSpace(kv[0]) == "ignoreSslCerts" && strings.ToLower(strings.TrimSpace(kv[1])) == "true" {
			return true
		}
	}
	return false
}

// mergeDeviceAttributes merges two attribute sets into a new map, with
// additional taking precedence on key collision. A caller that must
// retain its existing keys (the on-premise initiate) passes the incoming
// data as base and its existing set as additional.
func mergeDeviceAttributes(base, additional map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(additional))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range additional {
		out[k] = v
	}
	return out
}
