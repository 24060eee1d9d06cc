package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/keystore"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/transport"
)

// cloudNameValue mirrors the {"name":..., "value":...} pair convention
// the cloud backend uses for additionalData throughout (registration
// enrollment body, transaction listings).
type cloudNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type cloudTransactionWire struct {
	ID             string           `json:"id"`
	Message        string           `json:"message"`
	PostbackURI    string           `json:"postbackUri"`
	KeyName        string           `json:"keyName"`
	FactorID       string           `json:"factorId"`
	FactorType     string           `json:"factorType"`
	DataToSign     string           `json:"dataToSign"`
	TimeStamp      string           `json:"timeStamp"`
	AdditionalData []cloudNameValue `json:"additionalData,omitempty"`
}

type cloudTransactionEnvelope struct {
	Count        int                    `json:"count"`
	Transactions []cloudTransactionWire `json:"transactions"`
}

func (w cloudTransactionWire) normalize() PendingTransaction {
	additional := make(map[string]string, len(w.AdditionalData))
	for _, nv := range w.AdditionalData {
		additional[nv.Name] = nv.Value
	}
	return PendingTransaction{
		ID:             w.ID,
		Message:        w.Message,
		PostbackURI:    w.PostbackURI,
		KeyName:        w.KeyName,
		FactorID:       w.FactorID,
		FactorType:     w.FactorType,
		DataToSign:     w.DataToSign,
		TimeStamp:      w.TimeStamp,
		AdditionalData: additional,
	}
}

type cloudService struct {
	auth       *authenticator.CloudAuthenticator
	httpClient transport.Client
}

var _ Service = (*cloudService)(nil)

// NextTransaction GETs the transaction endpoint with a "nextPending"
// filter, optionally narrowed by the caller's filter clause (spec §4.7
// "Cloud transaction flow").
func (s *cloudService) NextTransaction(ctx context.Context, filter string) (PendingTransaction, int, error) {
	expr := "nextPending"
	if filter != "" {
		expr = expr + " and " + filter
	}
	queryURL := transport.WithQuery(s.auth.TransactionEndpoint(), "filter="+url.QueryEscape(expr))

	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "GET",
		URL:         queryURL,
		BearerToken: s.auth.Token().AccessToken,
	})
	if err != nil {
		return PendingTransaction{}, 0, mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return PendingTransaction{}, 0, mfaerrors.Underlying(fmt.Errorf("next transaction: http %d", result.StatusCode))
	}

	var envelope cloudTransactionEnvelope
	if err := result.DecodeJSON(&envelope); err != nil {
		return PendingTransaction{}, 0, err
	}
	if len(envelope.Transactions) == 0 {
		return PendingTransaction{}, 0, nil
	}
	return envelope.Transactions[0].normalize(), envelope.Count, nil
}

// CompleteTransaction POSTs {action, signedData} to the pending
// transaction's postback URL; 2xx is success (204 observed) per spec
// §4.7.
func (s *cloudService) CompleteTransaction(ctx context.Context, pending PendingTransaction, action Action, signedData string) error {
	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         pending.PostbackURI,
		Body:        map[string]string{"action": string(action), "signedData": signedData},
		BearerToken: s.auth.Token().AccessToken,
	})
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.Underlying(fmt.Errorf("complete transaction: http %d", result.StatusCode))
	}
	return nil
}

func (s *cloudService) CompleteTransactionWithFactor(ctx context.Context, pending PendingTransaction, f factor.FactorType, action Action, ks keystore.KeyStore) error {
	return completeTransactionWithFactor(ctx, s.CompleteTransaction, pending, f, action, ks)
}

// Login POSTs a QR-login confirmation code to qrLoginURL.
func (s *cloudService) Login(ctx context.Context, qrLoginURL, code string) error {
	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         qrLoginURL,
		Body:        map[string]string{"code": code},
		BearerToken: s.auth.Token().AccessToken,
	})
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return mfaerrors.Underlying(fmt.Errorf("login: http %d", result.StatusCode))
	}
	return nil
}

// RefreshToken exchanges the refresh token for a new access/refresh
// pair using the same registrationUri endpoint and body shape as
// registration.cloudProvider.Finalize, then updates the held
// authenticator's token and account name in place.
func (s *cloudService) RefreshToken(ctx context.Context, refreshToken, accountName, pushToken string, additionalData map[string]string) (authenticator.Authenticator, error) {
	attributes := map[string]string{
		"accountName": accountName,
		"pushToken":   pushToken,
	}
	for k, v := range additionalData {
		attributes[k] = v
	}

	body := map[string]any{
		"refreshToken": refreshToken,
		"attributes":   attributes,
	}

	result, err := s.httpClient.Do(ctx, transport.RequestDescriptor{
		Method:      "POST",
		URL:         transport.WithQuery(s.auth.RegistrationURI, "metadataInResponse=false"),
		Body:        body,
		BearerToken: s.auth.Token().AccessToken,
	})
	if err != nil {
		return nil, mfaerrors.Underlying(err)
	}
	if !result.IsSuccess() {
		return nil, mfaerrors.Underlying(fmt.Errorf("refresh token: http %d", result.StatusCode))
	}

	var tokenResp struct {
		AccessToken    string         `json:"accessToken"`
		RefreshToken   string         `json:"refreshToken"`
		ExpiresIn      int            `json:"expiresIn"`
		AdditionalData map[string]any `json:"additionalData,omitempty"`
	}
	if err := json.Unmarshal(result.Body, &tokenResp); err != nil {
		return nil, mfaerrors.DataDecodingFailed(err)
	}

	s.auth.SetToken(authenticator.OAuthToken{
		AccessToken:    tokenResp.AccessToken,
		RefreshToken:   tokenResp.RefreshToken,
		ExpiresIn:      tokenResp.ExpiresIn,
		AdditionalData: tokenResp.AdditionalData,
	})
	s.auth.SetAccountName(accountName)

	return s.auth, nil
}
