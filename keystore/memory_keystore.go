package keystore

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/84adam/mfa-core/cryptoutil"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/trustelem/zxcvbn"
)

// minPINStrength is the zxcvbn score (0-4) a PIN must meet before
// InMemoryKeyStore.SetPIN accepts it, guarding the fallback wrapping key
// used on devices with no hardware-backed keystore.
const minPINStrength = 2

type entry struct {
	sealed []byte
	ac     AccessControl
}

// InMemoryKeyStore is a reference KeyStore implementation. Private keys
// are envelope-encrypted at rest with AES-256-GCM under a key derived
// via HKDF-SHA256 from either a random per-instance master secret, or
// (once SetPIN is called) an Argon2id-derived key — the same fallback
// path a device with no hardware keystore takes. It exists to exercise
// the capability contract in tests and cmd/mfa-demo, not to define a
// real device's persistence format.
type InMemoryKeyStore struct {
	mu     sync.Mutex
	master []byte
	pinKey []byte
	data   map[string]entry
}

var _ KeyStore = (*InMemoryKeyStore)(nil)

// NewInMemoryKeyStore builds a keystore with a fresh random master
// secret standing in for a hardware-backed key.
func NewInMemoryKeyStore() (*InMemoryKeyStore, error) {
	master, err := cryptoutil.GenerateAESKey()
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to initialize: %w", err)
	}
	return &InMemoryKeyStore{
		master: master,
		data:   make(map[string]entry),
	}, nil
}

// SetPIN derives the wrapping key from pin via Argon2id instead of the
// random master secret, rejecting PINs zxcvbn scores below
// minPINStrength. This models the fallback path for devices without a
// hardware-backed keystore.
func (s *InMemoryKeyStore) SetPIN(pin string) error {
	result := zxcvbn.PasswordStrength(pin, nil)
	if result.Score < minPINStrength {
		return fmt.Errorf("keystore: PIN too weak (score %d, need %d)", result.Score, minPINStrength)
	}

	salt, err := cryptoutil.GenerateSalt(16)
	if err != nil {
		return fmt.Errorf("keystore: failed to generate salt: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pinKey = cryptoutil.DeriveKeyArgon2ID([]byte(pin), salt, cryptoutil.ArgonInteractive)
	return nil
}

func (s *InMemoryKeyStore) wrappingKey(label string) ([]byte, error) {
	master := s.master
	if s.pinKey != nil {
		master = s.pinKey
	}
	return cryptoutil.DeriveWrappingKey(master, "mfa-core_KEYSTORE_v1_"+label)
}

// Store seals key (an *rsa.PrivateKey) under label. Storing over an
// existing label fails with ErrDuplicateKey; callers that intend to
// replace a key must Delete first.
func (s *InMemoryKeyStore) Store(ctx context.Context, label string, key any, ac AccessControl) error {
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return ErrUnexpectedData
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[label]; exists {
		return ErrDuplicateKey
	}

	wrapKey, err := s.wrappingKey(label)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	der := x509.MarshalPKCS1PrivateKey(priv)
	defer cryptoutil.SecureZero(der)
	sealed, err := cryptoutil.SealGCM(der, wrapKey)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	s.data[label] = entry{sealed: sealed, ac: ac}
	return nil
}

// Read unseals and parses the RSA private key stored under label. The
// caller is expected to have already satisfied any AccessControl gate
// (biometry/user-presence) before calling Read; the in-memory reference
// does not itself invoke biometry.
func (s *InMemoryKeyStore) Read(ctx context.Context, label string) (any, error) {
	s.mu.Lock()
	e, ok := s.data[label]
	s.mu.Unlock()
	if !ok {
		return nil, ErrInvalidKey
	}

	wrapKey, err := s.wrappingKey(label)
	if err != nil {
		return nil, mfaerrors.Underlying(err)
	}

	der, err := cryptoutil.OpenGCM(e.sealed, wrapKey)
	if err != nil {
		return nil, mfaerrors.Underlying(err)
	}
	defer cryptoutil.SecureZero(der)

	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, ErrUnexpectedData
	}
	return priv, nil
}

// Rename moves a stored entry to a new label, failing if oldLabel is
// absent or newLabel is already taken.
func (s *InMemoryKeyStore) Rename(ctx context.Context, oldLabel, newLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[oldLabel]
	if !ok {
		return ErrInvalidKey
	}
	if _, taken := s.data[newLabel]; taken {
		return ErrDuplicateKey
	}

	// The wrapping key is derived per-label, so a rename must re-wrap
	// under the new label's key rather than move ciphertext verbatim.
	wrapOld, err := s.wrappingKey(oldLabel)
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	der, err := cryptoutil.OpenGCM(e.sealed, wrapOld)
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	defer cryptoutil.SecureZero(der)
	wrapNew, err := s.wrappingKey(newLabel)
	if err != nil {
		return mfaerrors.Underlying(err)
	}
	resealed, err := cryptoutil.SealGCM(der, wrapNew)
	if err != nil {
		return mfaerrors.Underlying(err)
	}

	delete(s.data, oldLabel)
	s.data[newLabel] = entry{sealed: resealed, ac: e.ac}
	return nil
}

// Delete removes a stored entry. Deleting an absent label is a no-op,
// matching the spec §5 note that resetting an authenticator "removes
// labeled keys" without requiring the caller to track which existed.
func (s *InMemoryKeyStore) Delete(ctx context.Context, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, label)
	return nil
}

// Exists reports whether label has a stored entry.
func (s *InMemoryKeyStore) Exists(ctx context.Context, label string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[label]
	return ok, nil
}
