// Package service implements the transaction-servicing half of the core
// (spec §4.7): given a persisted authenticator, produce a Service that
// can list and complete pending authorization transactions, post a
// QR-login confirmation, and refresh the backend token.
package service

import (
	"context"
	"crypto/rsa"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/authenticator"
	"github.com/84adam/mfa-core/cryptoutil"
	"github.com/84adam/mfa-core/factor"
	"github.com/84adam/mfa-core/keystore"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/84adam/mfa-core/oauthclient"
	"github.com/84adam/mfa-core/transport"
)

// Action is the caller's disposition on a pending transaction.
type Action string

const (
	ActionVerify Action = "verify"
	ActionDeny   Action = "deny"
)

// PendingTransaction is the normalized transaction record surfaced to
// callers regardless of which backend produced it (spec §6 "Pending
// transaction shape").
type PendingTransaction struct {
	ID             string
	Message        string
	PostbackURI    string
	KeyName        string
	FactorID       string
	FactorType     string
	DataToSign     string
	TimeStamp      string
	AdditionalData map[string]string
}

// ShortID returns the first 4 code points of ID, per spec §6.
func (p PendingTransaction) ShortID() string {
	r := []rune(p.ID)
	if len(r) <= 4 {
		return p.ID
	}
	return string(r[:4])
}

// Service is the per-authenticator transaction surface (spec §4.7).
type Service interface {
	NextTransaction(ctx context.Context, filter string) (PendingTransaction, int, error)
	CompleteTransaction(ctx context.Context, pending PendingTransaction, action Action, signedData string) error
	CompleteTransactionWithFactor(ctx context.Context, pending PendingTransaction, f factor.FactorType, action Action, keyStore keystore.KeyStore) error
	Login(ctx context.Context, qrLoginURL, code string) error
	RefreshToken(ctx context.Context, refreshToken, accountName, pushToken string, additionalData map[string]string) (authenticator.Authenticator, error)
}

// Controller builds a Service for a given authenticator and answers the
// cross-cutting "which enrolled factor backs this transaction" query
// (spec §4.7 "transaction_factor").
type Controller struct {
	httpClient transport.Client
	oauth      oauthclient.Client
}

// NewController builds a transaction-servicing dispatcher.
func NewController(httpClient transport.Client, oauth oauthclient.Client) *Controller {
	return &Controller{httpClient: httpClient, oauth: oauth}
}

// NewService dispatches on the concrete authenticator variant, mirroring
// registration.Controller.Initiate's cloud-then-on-premise dispatch.
func (c *Controller) NewService(auth authenticator.Authenticator) (Service, error) {
	switch a := auth.(type) {
	case *authenticator.CloudAuthenticator:
		return &cloudService{auth: a, httpClient: c.httpClient}, nil
	case *authenticator.OnPremiseAuthenticator:
		return &onPremiseService{auth: a, httpClient: c.httpClient, oauth: c.oauth}, nil
	default:
		return nil, mfaerrors.InvalidState()
	}
}

// TransactionFactor returns the first enrolled factor whose key-store
// label equals pending.KeyName, per spec §8's "Transaction factor
// lookup" property.
func (c *Controller) TransactionFactor(auth authenticator.Authenticator, pending PendingTransaction) (factor.FactorType, bool) {
	for _, f := range auth.EnrolledFactors() {
		if label, ok := f.KeyLabel(); ok && label == pending.KeyName {
			return f, true
		}
	}
	return factor.FactorType{}, false
}

// completeTransactionWithFactor signs pending.DataToSign with the key
// stored under f's label (for ActionVerify) and delegates to complete.
// Shared by both backend services since the signing step is backend-
// agnostic; only the postback wire shape differs (spec §4.7 "Convenience
// signing").
func completeTransactionWithFactor(
	ctx context.Context,
	complete func(ctx context.Context, pending PendingTransaction, action Action, signedData string) error,
	pending PendingTransaction,
	f factor.FactorType,
	action Action,
	ks keystore.KeyStore,
) error {
	if action != ActionVerify {
		return complete(ctx, pending, action, "")
	}

	label, alg, ok := f.NameAndAlgorithm()
	if !ok {
		return mfaerrors.InvalidRegistrationData()
	}

	raw, err := ks.Read(ctx, label)
	if err != nil {
		return err
	}
	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return mfaerrors.UnexpectedData()
	}

	signed, err := cryptoutil.SignChallengeBase64URL(pending.DataToSign, key, convenienceHashID(alg))
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	return complete(ctx, pending, action, signed)
}

// convenienceHashID selects the digest for the convenience-signing path
// (spec §4.7): sha384 -> SHA-384, sha512 -> SHA-512, else SHA-256. This
// differs from algorithm.HashID's general mapping, which would sign a
// sha1-bound factor with SHA-1 — but a sha1-preferred factor is always
// enrolled under the substituted outbound spelling (CloudSpelling/
// OnPremSpelling collapse sha1 to a SHA-256/SHA-512 alias), so the server
// never expects a SHA-1 signature here.
func convenienceHashID(alg algorithm.SigningAlgorithm) cryptoutil.HashID {
	switch alg {
	case algorithm.SHA384:
		return cryptoutil.HashSHA384
	case algorithm.SHA512:
		return cryptoutil.HashSHA512
	default:
		return cryptoutil.HashSHA256
	}
}
