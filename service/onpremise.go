package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/keystore"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/oauthclient"
	"github.com/84adam/mfa-core/transport"
)

// onPremiseTransactionWire mirrors the SCIM-flavored transaction listing
// shape an on-premise access manager returns (spec §4.7 "On-premise
// transaction flow ... analogous [to cloud] but uses ... the SCIM
// shape").
type onPremiseTransactionWire struct {
	TrxnID         string            `json:"trxn_id"`
	Message        string            `json:"message"`
	PostbackURI    string            `json:"postback_uri"`
	KeyName        string            `json:"key_name"`
	FactorID       string            `json:"factor_id"`
	FactorType     string            `json:"factor_type"`
	DataToSign     string            `json:"data_to_sign"`
	TimeStamp      string            `json:"time_stamp"`
	AdditionalData map[string]string `json:"additional_data,omitempty"`
}

type onPremiseTransactionEnvelope struct {
	TotalResults int                        `json:"totalResults"`
	Resources    []onPremiseTransactionWire `json:"Resources"`
}

func (w onPremiseTransactionWire) normalize() PendingTransaction {
	return PendingTransaction{
		ID:             w.TrxnID,
		Message:        w.Message,
		PostbackURI:    w.PostbackURI,
		KeyName:        w.KeyName,
		FactorID:       w.FactorID,
		FactorType:     w.FactorType,
		DataToSign:     w.DataToSign,
		TimeStamp:      w.TimeStamp,
		AdditionalData: w.AdditionalData,
	}
}

type onPremiseService struct {
	auth       *authenticator.OnPremiseAuthenticator
	httpClient transport.Client
	oauth      oauthclient.Client
}

var _ Service = (*onPremiseService)(nil)

func (s *onPremiseService) NextTransaction(ctx context.Context, filter string) (PendingTransaction, int, error) {
	expr := "nextPending"
	if filter != "" {
		expr = expr + " and " + filter
	}
	queryURL := transport.WithQuery(s.auth.TransactionEndpoint(), "filter="+url.QueryEscape(expr))

	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "GET",
		URL:         queryURL,
		BearerToken: s.auth.Token().AccessToken,
		TLSInsecure: s.auth.TrustAllTLS,
	})
	if err != nil {
		return PendingTransaction{}, 0, mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return PendingTransaction{}, 0, mfaerrors.Underlying(fmt.Errorf("next transaction: http %d", result.StatusCode))
	}

	var envelope onPremiseTransactionEnvelope
	if err := result.DecodeJSON(&envelope); err != nil {
		return PendingTransaction{}, 0, err
	}
	if len(envelope.Resources) == 0 {
		return PendingTransaction{}, 0, nil
	}
	return envelope.Resources[0].normalize(), envelope.TotalResults, nil
}

func (s *onPremiseService) CompleteTransaction(ctx context.Context, pending PendingTransaction, action Action, signedData string) error {
	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         pending.PostbackURI,
		Body:        map[string]string{"action": string(action), "signedData": signedData},
		BearerToken: s.auth.Token().AccessToken,
		TLSInsecure: s.auth.TrustAllTLS,
	})
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.Underlying(fmt.Errorf("complete transaction: http %d", result.StatusCode))
	}
	return nil
}

func (s *onPremiseService) CompleteTransactionWithFactor(ctx context.Context, pending PendingTransaction, f factor.FactorType, action Action, ks keystore.KeyStore) error {
	return completeTransactionWithFactor(ctx, s.CompleteTransaction, pending, f, action, ks)
}

func (s *onPremiseService) Login(ctx context.Context, qrLoginURL, code string) error {
	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         qrLoginURL,
		Body:        map[string]string{"code": code},
		BearerToken: s.auth.Token().AccessToken,
		TLSInsecure: s.auth.TrustAllTLS,
	})
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.Underlying(fmt.Errorf("login: http %d", result.StatusCode))
	}
	return nil
}

// RefreshToken exchanges the refresh token via the OAuth capability
// against the held token endpoint, then updates the authenticator's
// token and account name in place. additionalData is accepted for
// interface symmetry with the cloud path but has no on-premise wire
// effect — the on-premise refresh grant carries no device-attribute
// payload (spec §4.5 has no analogous "refresh with attributes" call).
func (s *onPremiseService) RefreshToken(ctx context.Context, refreshToken, accountName, pushToken string, additionalData map[string]string) (authenticator.Authenticator, error) {
	token, err := s.oauth.Refresh(ctx, oauthclient.RefreshRequest{
		RefreshToken: refreshToken,
		ClientID:     s.auth.ClientID,
		TokenURL:     s.auth.TokenEndpoint,
	})
	if err != nil {
		return nil, mfaerrors.Underlying(err)
	}

	if token.AdditionalData == nil {
		token.AdditionalData = s.auth.Token().AdditionalData
	}

	s.auth.SetToken(authenticator.OAuthToken{
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		ExpiresIn:      token.ExpiresIn,
		AdditionalData: token.AdditionalData,
	})
	s.auth.SetAccountName(accountName)

	return s.auth, nil
}
