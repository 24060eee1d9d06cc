// Package factor implements the enrolled-factor tagged union and its
// single-key JSON codec: totp, hotp, biometric, and userPresence variants
// sharing one erased accessor surface.
package factor

import (
	"encoding/json"
	"fmt"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/mfaerrors"
)

// Tag identifies which variant a FactorType carries. It is also the
// single JSON key used to encode that variant.
type Tag string

const (
	TagTOTP         Tag = "totp"
	TagHOTP         Tag = "hotp"
	TagBiometric    Tag = "biometric"
	TagUserPresence Tag = "userPresence"
)

// Factor is the erased accessor surface every variant satisfies, used by
// callers that don't care which variant they're holding.
type Factor interface {
	ID() string
	DisplayName() string
	ImageName() string
}

// TOTPFactorInfo is a time-based one-time-password factor.
type TOTPFactorInfo struct {
	IDValue   string                     `json:"id"`
	Secret    string                     `json:"secret"`
	Algorithm algorithm.SigningAlgorithm `json:"algorithm"`
	Digits    int                        `json:"digits"`
	Period    int                        `json:"period"`
}

func (f TOTPFactorInfo) ID() string          { return f.IDValue }
func (f TOTPFactorInfo) DisplayName() string { return "One-Time Password" }
func (f TOTPFactorInfo) ImageName() string   { return "totp" }

// HOTPFactorInfo is a counter-based one-time-password factor.
type HOTPFactorInfo struct {
	IDValue   string                     `json:"id"`
	Secret    string                     `json:"secret"`
	Algorithm algorithm.SigningAlgorithm `json:"algorithm"`
	Digits    int                        `json:"digits"`
	Counter   uint64                     `json:"counter"`
}

func (f HOTPFactorInfo) ID() string          { return f.IDValue }
func (f HOTPFactorInfo) DisplayName() string { return "One-Time Password" }
func (f HOTPFactorInfo) ImageName() string   { return "hotp" }

// BiometricFactorInfo is a face/fingerprint-gated key-store factor. Its
// display name and image are derived, static, and deliberately excluded
// from the persisted form (spec §8 "Biometric factor encoding omits
// derived fields").
type BiometricFactorInfo struct {
	IDValue   string                     `json:"id"`
	Name      string                     `json:"name"`
	Algorithm algorithm.SigningAlgorithm `json:"algorithm"`
}

func (f BiometricFactorInfo) ID() string          { return f.IDValue }
func (f BiometricFactorInfo) DisplayName() string { return "Face ID" }
func (f BiometricFactorInfo) ImageName() string   { return "faceid" }

// UserPresenceFactorInfo is a key-store factor gated only by a
// user-presence check (no biometric sensor).
type UserPresenceFactorInfo struct {
	IDValue   string                     `json:"id"`
	Name      string                     `json:"name"`
	Algorithm algorithm.SigningAlgorithm `json:"algorithm"`
}

func (f UserPresenceFactorInfo) ID() string          { return f.IDValue }
func (f UserPresenceFactorInfo) DisplayName() string { return "User presence" }
func (f UserPresenceFactorInfo) ImageName() string   { return "hand.tap" }

// FactorType is the tagged union. Exactly one of the variant fields is
// populated, selected by Tag.
type FactorType struct {
	tag          Tag
	totp         *TOTPFactorInfo
	hotp         *HOTPFactorInfo
	biometric    *BiometricFactorInfo
	userPresence *UserPresenceFactorInfo
}

// NewTOTP validates and wraps a TOTPFactorInfo. Digits must be 6 or 8;
// period must lie in [10, 300] per spec §4.2.
func NewTOTP(info TOTPFactorInfo) (FactorType, error) {
	if info.Digits != 6 && info.Digits != 8 {
		return FactorType{}, mfaerrors.InvalidRegistrationData()
	}
	if info.Period < 10 || info.Period > 300 {
		return FactorType{}, mfaerrors.InvalidRegistrationData()
	}
	return FactorType{tag: TagTOTP, totp: &info}, nil
}

// NewHOTP validates and wraps a HOTPFactorInfo. Counter defaults to 1
// when zero, matching the spec's "starts at 1 by default" rule.
func NewHOTP(info HOTPFactorInfo) (FactorType, error) {
	if info.Digits != 6 && info.Digits != 8 {
		return FactorType{}, mfaerrors.InvalidRegistrationData()
	}
	if info.Counter == 0 {
		info.Counter = 1
	}
	return FactorType{tag: TagHOTP, hotp: &info}, nil
}

// NewBiometric wraps a BiometricFactorInfo.
func NewBiometric(info BiometricFactorInfo) FactorType {
	return FactorType{tag: TagBiometric, biometric: &info}
}

// NewUserPresence wraps a UserPresenceFactorInfo.
func NewUserPresence(info UserPresenceFactorInfo) FactorType {
	return FactorType{tag: TagUserPresence, userPresence: &info}
}

// Tag reports which variant this FactorType holds.
func (f FactorType) Tag() Tag { return f.tag }

// ValueOf erases the variant tag, exposing the common Factor capability.
// Returns nil if f is the zero value (no variant set).
func (f FactorType) ValueOf() Factor {
	switch f.tag {
	case TagTOTP:
		if f.totp != nil {
			return *f.totp
		}
	case TagHOTP:
		if f.hotp != nil {
			return *f.hotp
		}
	case TagBiometric:
		if f.biometric != nil {
			return *f.biometric
		}
	case TagUserPresence:
		if f.userPresence != nil {
			return *f.userPresence
		}
	}
	return nil
}

// NameAndAlgorithm returns the key-store label and signing algorithm for
// biometric/userPresence variants. The second return is false for
// totp/hotp, which have no key-store backing.
func (f FactorType) NameAndAlgorithm() (string, algorithm.SigningAlgorithm, bool) {
	switch f.tag {
	case TagBiometric:
		if f.biometric != nil {
			return f.biometric.Name, f.biometric.Algorithm, true
		}
	case TagUserPresence:
		if f.userPresence != nil {
			return f.userPresence.Name, f.userPresence.Algorithm, true
		}
	}
	return "", 0, false
}

// KeyLabel returns the key-store label (aka "name") for biometric/
// userPresence variants, and false for totp/hotp.
func (f FactorType) KeyLabel() (string, bool) {
	name, _, ok := f.NameAndAlgorithm()
	return name, ok
}

// Biometric returns the wrapped BiometricFactorInfo and true if f holds
// that variant.
func (f FactorType) Biometric() (BiometricFactorInfo, bool) {
	if f.tag == TagBiometric && f.biometric != nil {
		return *f.biometric, true
	}
	return BiometricFactorInfo{}, false
}

// UserPresence returns the wrapped UserPresenceFactorInfo and true if f
// holds that variant.
func (f FactorType) UserPresence() (UserPresenceFactorInfo, bool) {
	if f.tag == TagUserPresence && f.userPresence != nil {
		return *f.userPresence, true
	}
	return UserPresenceFactorInfo{}, false
}

// errNoValidFactorType is the fixed diagnostic spec §4.2 requires decoders
// to preserve verbatim.
const errNoValidFactorType = "No valid factor type found."

// MarshalJSON encodes f as a single-key object keyed by its variant tag.
func (f FactorType) MarshalJSON() ([]byte, error) {
	switch f.tag {
	case TagTOTP:
		return json.Marshal(map[string]*TOTPFactorInfo{string(TagTOTP): f.totp})
	case TagHOTP:
		return json.Marshal(map[string]*HOTPFactorInfo{string(TagHOTP): f.hotp})
	case TagBiometric:
		return json.Marshal(map[string]*BiometricFactorInfo{string(TagBiometric): f.biometric})
	case TagUserPresence:
		return json.Marshal(map[string]*UserPresenceFactorInfo{string(TagUserPresence): f.userPresence})
	default:
		return nil, mfaerrors.DataCorrupted(errNoValidFactorType)
	}
}

// UnmarshalJSON decodes a single-key tagged object. An empty object or one
// with no recognized key fails with a fixed dataCorrupted diagnostic, per
// spec §4.2 and §8 scenario 5.
func (f *FactorType) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("factor: %w", mfaerrors.DataDecodingFailed(err))
	}

	if v, ok := raw[string(TagTOTP)]; ok {
		var info TOTPFactorInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return mfaerrors.DataDecodingFailed(err)
		}
		*f = FactorType{tag: TagTOTP, totp: &info}
		return nil
	}
	if v, ok := raw[string(TagHOTP)]; ok {
		var info HOTPFactorInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return mfaerrors.DataDecodingFailed(err)
		}
		*f = FactorType{tag: TagHOTP, hotp: &info}
		return nil
	}
	if v, ok := raw[string(TagBiometric)]; ok {
		var info BiometricFactorInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return mfaerrors.DataDecodingFailed(err)
		}
		*f = FactorType{tag: TagBiometric, biometric: &info}
		return nil
	}
	if v, ok := raw[string(TagUserPresence)]; ok {
		var info UserPresenceFactorInfo
		if err := json.Unmarshal(v, &info); err != nil {
			return mfaerrors.DataDecodingFailed(err)
		}
		*f = FactorType{tag: TagUserPresence, userPresence: &info}
		return nil
	}

	return mfaerrors.DataCorrupted(errNoValidFactorType)
}
