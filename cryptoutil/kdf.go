package cryptoutil

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

// ArgonProfile defines Argon2id parameters for different device
// capabilities. The reference keystore uses these to derive a wrapping key
// from an optional local PIN when the device has no hardware-backed
// keystore and falls back to PIN protection.
type ArgonProfile struct {
	Time    uint32
	Memory  uint32 // KB
	Threads uint8
	KeyLen  uint32
}

// ArgonInteractive is tuned for mobile-friendly, user-waiting derivation —
// the profile the reference keystore uses by default.
var ArgonInteractive = ArgonProfile{
	Time:    1,
	Memory:  32 * 1024,
	Threads: 2,
	KeyLen:  32,
}

// DeriveKeyArgon2ID derives a key from a PIN/password and salt.
func DeriveKeyArgon2ID(pin, salt []byte, profile ArgonProfile) []byte {
	return argon2.IDKey(pin, salt, profile.Time, profile.Memory, profile.Threads, profile.KeyLen)
}

// GenerateSalt generates a cryptographically secure random salt.
func GenerateSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveWrappingKey derives a 32-byte wrapping key from a master secret
// using HKDF-SHA256 with domain-separated info. The reference keystore
// calls it with a per-label info string.
func DeriveWrappingKey(masterKey []byte, info string) ([]byte, error) {
	reader := hkdf.Expand(sha256.New, masterKey, []byte(info))
	key := make([]byte, 32)
	if _, err := reader.Read(key); err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to derive wrapping key: %w", err)
	}
	return key, nil
}

// SecureZero overwrites key material in place. Best-effort: the Go
// garbage collector may have already copied the backing array elsewhere,
// but this matches the teacher's defer-zero convention for key handles.
// The reference keystore defers this over every plaintext DER buffer it
// produces while sealing, reading, or re-wrapping a stored key.
func SecureZero(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
