// Package cryptoutil provides the cryptographic building blocks consumed
// by the rest of the module: AES-256-GCM envelope sealing (used by the
// reference keystore to wrap private key material at rest), HKDF/Argon2id
// key derivation, and the RSA sign / hash-selection primitives the
// registration and service layers treat as "the cryptographic capability"
// per spec §1.
package cryptoutil

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
)

// SealGCM encrypts data using AES-256-GCM. The returned blob is
// nonce||ciphertext||tag, concatenated.
func SealGCM(data, key []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cryptoutil: key must be 32 bytes for AES-256, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to generate nonce: %w", err)
	}

	return gcm.Seal(nonce, nonce, data, nil), nil
}

// OpenGCM decrypts a blob produced by SealGCM.
func OpenGCM(blob, key []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cryptoutil: key must be 32 bytes for AES-256, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("cryptoutil: sealed blob too short")
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to open sealed blob: %w", err)
	}
	return plaintext, nil
}

// GenerateAESKey generates a cryptographically secure 256-bit AES key.
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to generate AES key: %w", err)
	}
	return key, nil
}
