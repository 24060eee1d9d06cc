package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/84adam/mfa-core/oauthclient"
	"github.com/google/uuid"
)

// fakeCloudBackend is an in-process stand-in for a managed cloud MFA
// tenant. It implements just enough of spec §6's wire shapes to drive a
// real registration.Controller and service.Controller end to end,
// standing in for the out-of-scope "producer" side of a demo run.
type fakeCloudBackend struct {
	server *httptest.Server

	mu                 sync.Mutex
	authenticatorID    string
	accessToken        string
	refreshToken       string
	enrolledFactors    map[string]string // subType -> factor id
	pendingTransaction map[string]string // id -> keyName to challenge
}

func newFakeCloudBackend() *fakeCloudBackend {
	b := &fakeCloudBackend{
		authenticatorID:    "cloud-auth-" + uuid.NewString()[:8],
		accessToken:        "at-" + uuid.NewString(),
		refreshToken:       "rt-" + uuid.NewString(),
		enrolledFactors:    make(map[string]string),
		pendingTransaction: make(map[string]string),
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.route))
	return b
}

func (b *fakeCloudBackend) Close() { b.server.Close() }

// route dispatches by path since the transaction endpoint's path is
// derived per-authenticator ("/{id}/verifications") rather than fixed.
func (b *fakeCloudBackend) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/registration":
		b.handleRegistration(w, r)
	case r.URL.Path == "/methods":
		b.handleMethods(w, r)
	case r.URL.Path == "/verifications/postback":
		b.handlePostback(w, r)
	case strings.HasSuffix(r.URL.Path, "/verifications"):
		b.handleListTransactions(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeCloudBackend) bootstrapJSON(accountName string) string {
	return fmt.Sprintf(`{"code":"demo-code","accountName":%q,"registrationUri":%q}`,
		accountName, b.server.URL+"/registration")
}

func (b *fakeCloudBackend) handleRegistration(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	if _, isFinalize := body["refreshToken"]; isFinalize {
		writeJSON(w, map[string]any{
			"accessToken":  b.accessToken,
			"refreshToken": b.refreshToken,
			"expiresIn":    3600,
		})
		return
	}

	writeJSON(w, map[string]any{
		"id":           b.authenticatorID,
		"accessToken":  b.accessToken,
		"refreshToken": b.refreshToken,
		"expiresIn":    3600,
		"metadata": map[string]any{
			"serviceName":     "mfa-demo Bank",
			"registrationUri": b.server.URL + "/registration",
			"authenticationMethods": map[string]any{
				"signature_userPresence": map[string]any{
					"enrollmentUri": b.server.URL + "/methods",
					"enabled":       true,
					"attributes": map[string]any{
						"supportedAlgorithms": []string{"SHA256withRSA"},
						"algorithm":           "SHA256withRSA",
					},
				},
				"signature_face": map[string]any{
					"enrollmentUri": b.server.URL + "/methods",
					"enabled":       true,
					"attributes": map[string]any{
						"supportedAlgorithms": []string{"SHA256withRSA"},
						"algorithm":           "SHA256withRSA",
					},
				},
			},
		},
	})
}

func (b *fakeCloudBackend) handleMethods(w http.ResponseWriter, r *http.Request) {
	var entries []map[string]any
	_ = json.NewDecoder(r.Body).Decode(&entries)

	b.mu.Lock()
	defer b.mu.Unlock()

	var response []map[string]string
	for _, e := range entries {
		subType, _ := e["subType"].(string)
		id := "factor-" + uuid.NewString()[:8]
		b.enrolledFactors[subType] = id
		response = append(response, map[string]string{"subType": subType, "id": id})
	}
	writeJSON(w, response)
}

// QueueTransaction seeds one pending transaction challenging keyName, a
// demo run can then list and complete.
func (b *fakeCloudBackend) QueueTransaction(keyName string) string {
	id := "trxn-" + uuid.NewString()[:8]
	b.mu.Lock()
	b.pendingTransaction[id] = keyName
	b.mu.Unlock()
	return id
}

func (b *fakeCloudBackend) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var transactions []map[string]any
	for id, keyName := range b.pendingTransaction {
		transactions = append(transactions, map[string]any{
			"id":          id,
			"message":     "Approve sign-in to mfa-demo Bank?",
			"postbackUri": b.server.URL + "/verifications/postback?id=" + id,
			"keyName":     keyName,
			"dataToSign":  "transaction-challenge-" + id,
		})
		break // only ever surface one "next" pending transaction
	}
	writeJSON(w, map[string]any{"count": len(b.pendingTransaction), "transactions": transactions})
}

func (b *fakeCloudBackend) handlePostback(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	delete(b.pendingTransaction, id)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// noopOAuth satisfies oauthclient.Client for the cloud demo, which never
// calls it — the cloud path authenticates via the registration/token
// endpoint directly, not an OAuth code exchange.
type noopOAuth struct{}

func (noopOAuth) Exchange(ctx context.Context, req oauthclient.ExchangeRequest) (oauthclient.Token, error) {
	return oauthclient.Token{}, fmt.Errorf("mfa-demo: cloud backend does not use oauthclient.Exchange")
}

func (noopOAuth) Refresh(ctx context.Context, req oauthclient.RefreshRequest) (oauthclient.Token, error) {
	return oauthclient.Token{}, fmt.Errorf("mfa-demo: cloud backend does not use oauthclient.Refresh")
}
