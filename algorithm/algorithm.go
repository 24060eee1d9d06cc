// Package algorithm implements the SigningAlgorithm alias-tolerant codec:
// parsing any of the server's spellings into a closed enum, and rendering
// the two backend-specific outbound spellings.
package algorithm

import (
	"encoding/json"
	"strings"

	"github.com/84adam/mfa-core/cryptoutil"
	"github.com/84adam/mfa-core/logging"
)

// SigningAlgorithm is the closed set of digest algorithms a factor can be
// bound to.
type SigningAlgorithm int

const (
	SHA1 SigningAlgorithm = iota
	SHA256
	SHA384
	SHA512
)

// String renders the lowercase canonical spelling used in persisted
// factors (e.g. "sha256").
func (a SigningAlgorithm) String() string {
	switch a {
	case SHA1:
		return "sha1"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "sha256"
	}
}

// MarshalJSON renders the lowercase persisted spelling (e.g. "sha256"),
// the form factor.go stores in a factor's "algorithm" key.
func (a SigningAlgorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts any alias-table spelling, not just the lowercase
// canonical one, so a factor round-tripped through a different backend's
// shape still decodes.
func (a *SigningAlgorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// aliases maps every accepted inbound spelling (uppercased) to its
// SigningAlgorithm, per spec §3's alias lists.
var aliases = map[string]SigningAlgorithm{
	"SHA1":          SHA1,
	"HMACSHA1":      SHA1,
	"RSASHA1":       SHA1,
	"SHA1WITHRSA":   SHA1,
	"SHA256":        SHA256,
	"HMACSHA256":    SHA256,
	"RSASHA256":     SHA256,
	"SHA256WITHRSA": SHA256,
	"SHA384":        SHA384,
	"HMACSHA384":    SHA384,
	"RSASHA384":     SHA384,
	"SHA384WITHRSA": SHA384,
	"SHA512":        SHA512,
	"HMACSHA512":    SHA512,
	"RSASHA512":     SHA512,
	"SHA512WITHRSA": SHA512,
}

// ErrUnknownAlgorithm is returned by Parse for an unrecognized spelling.
// Callers at the registration boundary should translate this into
// mfaerrors.InvalidAlgorithm().
type ErrUnknownAlgorithm struct {
	Input string
}

func (e *ErrUnknownAlgorithm) Error() string {
	return "algorithm: unknown signing algorithm spelling: " + e.Input
}

// Parse uppercase-normalizes s and looks it up in the alias table.
func Parse(s string) (SigningAlgorithm, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if a, ok := aliases[normalized]; ok {
		return a, nil
	}
	return 0, &ErrUnknownAlgorithm{Input: s}
}

// CloudSpelling returns the canonical outbound spelling for the cloud
// backend. sha1 is never emitted; it is silently substituted with the
// RSASHA256 default per spec §4.1's policy note.
func CloudSpelling(a SigningAlgorithm) string {
	switch a {
	case SHA384:
		return "RSASHA384"
	case SHA512:
		return "RSASHA512"
	case SHA1:
		logging.DebugSHA1Substitution("cloud", "RSASHA256")
		return "RSASHA256"
	default:
		return "RSASHA256"
	}
}

// OnPremSpelling returns the canonical outbound spelling for the
// on-premise backend. sha1 is substituted with SHA512withRSA, the
// strongest default, per spec §4.1.
func OnPremSpelling(a SigningAlgorithm) string {
	switch a {
	case SHA384:
		return "SHA384withRSA"
	case SHA512:
		return "SHA512withRSA"
	case SHA1:
		logging.DebugSHA1Substitution("onprem", "SHA512withRSA")
		return "SHA512withRSA"
	default:
		return "SHA256withRSA"
	}
}

// Hash returns the digest of bytes selected by a.
func Hash(a SigningAlgorithm, data []byte) []byte {
	return hashID(a).Sum(data)
}

// HashID exposes the cryptoutil.HashID selected by a, for callers (the
// registration providers) that need to drive cryptoutil.SignChallenge
// directly rather than just hashing.
func HashID(a SigningAlgorithm) cryptoutil.HashID {
	return hashID(a)
}

func hashID(a SigningAlgorithm) cryptoutil.HashID {
	switch a {
	case SHA1:
		return cryptoutil.HashSHA1
	case SHA384:
		return cryptoutil.HashSHA384
	case SHA512:
		return cryptoutil.HashSHA512
	default:
		return cryptoutil.HashSHA256
	}
}
