package cryptoutil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"hash"
)

// HashID identifies one of the digest primitives the SigningAlgorithm enum
// selects between. This exists so package algorithm never has to import
// crypto/sha1 et al. directly — "no new cryptographic primitives... are
// consumed from a cryptographic capability" per spec §1.
type HashID int

const (
	HashSHA1 HashID = iota
	HashSHA256
	HashSHA384
	HashSHA512
)

// New returns a fresh hash.Hash for this HashID.
func (h HashID) New() hash.Hash {
	switch h {
	case HashSHA1:
		return sha1.New()
	case HashSHA384:
		return sha512.New384()
	case HashSHA512:
		return sha512.New()
	default:
		return sha256.New()
	}
}

// CryptoHash returns the stdlib crypto.Hash identifier matching this
// HashID, needed by rsa.SignPKCS1v15.
func (h HashID) CryptoHash() crypto.Hash {
	switch h {
	case HashSHA1:
		return crypto.SHA1
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

// Sum hashes data with the digest selected by h.
func (h HashID) Sum(data []byte) []byte {
	digest := h.New()
	digest.Write(data)
	return digest.Sum(nil)
}

// GenerateRSAKeyPair generates a fresh RSA key pair. bits defaults to 2048
// when 0 is passed, per spec §4.4 step 4.
func GenerateRSAKeyPair(bits int) (*rsa.PrivateKey, error) {
	if bits == 0 {
		bits = 2048
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to generate RSA key pair: %w", err)
	}
	return key, nil
}

// SignChallenge hashes challenge with h and signs it with PKCS#1v1.5,
// returning the raw signature bytes. Callers base64url-encode the result
// themselves (SignChallengeBase64URL does this directly).
func SignChallenge(challenge []byte, key *rsa.PrivateKey, h HashID) ([]byte, error) {
	digest := h.Sum(challenge)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, h.CryptoHash(), digest)
	if err != nil {
		return nil, fmt.Errorf("cryptoutil: failed to sign challenge: %w", err)
	}
	return sig, nil
}

// SignChallengeBase64URL signs challenge (as UTF-8 bytes) and returns the
// signature Base64URL-encoded without padding, matching spec §4.4 step 5's
// "encode the raw signature as Base64URL".
func SignChallengeBase64URL(challenge string, key *rsa.PrivateKey, h HashID) (string, error) {
	sig, err := SignChallenge([]byte(challenge), key, h)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// MarshalPublicKeyX509Base64 encodes the RSA public key as a base64
// SubjectPublicKeyInfo, the "publicKey" field of both the cloud and
// on-premise enrollment payloads.
func MarshalPublicKeyX509Base64(key *rsa.PrivateKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", fmt.Errorf("cryptoutil: failed to marshal public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}
