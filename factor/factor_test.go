package factor

import (
	"encoding/json"
	"testing"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/mfaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllVariants(t *testing.T) {
	totp, err := NewTOTP(TOTPFactorInfo{IDValue: "t-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA1, Digits: 6, Period: 30})
	require.NoError(t, err)

	hotp, err := NewHOTP(HOTPFactorInfo{IDValue: "h-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA256, Digits: 8, Counter: 1})
	require.NoError(t, err)

	biometric := NewBiometric(BiometricFactorInfo{IDValue: "b-1", Name: "K-bio", Algorithm: algorithm.SHA256})
	userPresence := NewUserPresence(UserPresenceFactorInfo{IDValue: "u-1", Name: "K-up", Algorithm: algorithm.SHA384})

	for _, original := range []FactorType{totp, hotp, biometric, userPresence} {
		encoded, err := json.Marshal(original)
		require.NoError(t, err)

		var decoded FactorType
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, original, decoded)
	}
}

func TestDecodeEmptyObjectFailsWithFixedMessage(t *testing.T) {
	var f FactorType
	err := json.Unmarshal([]byte(`{}`), &f)
	require.Error(t, err)
	assert.True(t, mfaerrors.HasCode(err, mfaerrors.CodeDataCorrupted))
	assert.Contains(t, err.Error(), "No valid factor type found.")
}

func TestDecodeUnrecognizedKeyFails(t *testing.T) {
	var f FactorType
	err := json.Unmarshal([]byte(`{"unknown":{}}`), &f)
	require.Error(t, err)
	assert.True(t, mfaerrors.HasCode(err, mfaerrors.CodeDataCorrupted))
}

func TestBiometricEncodingOmitsDerivedFields(t *testing.T) {
	biometric := NewBiometric(BiometricFactorInfo{IDValue: "b-1", Name: "K-bio", Algorithm: algorithm.SHA256})
	encoded, err := json.Marshal(biometric)
	require.NoError(t, err)

	var asMap map[string]map[string]any
	require.NoError(t, json.Unmarshal(encoded, &asMap))

	inner, ok := asMap[string(TagBiometric)]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"id", "name", "algorithm"}, keysOf(inner))
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestNewTOTPRejectsInvalidPeriod(t *testing.T) {
	_, err := NewTOTP(TOTPFactorInfo{IDValue: "t-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA1, Digits: 6, Period: 5})
	assert.Error(t, err)

	_, err = NewTOTP(TOTPFactorInfo{IDValue: "t-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA1, Digits: 6, Period: 301})
	assert.Error(t, err)
}

func TestNewTOTPRejectsInvalidDigits(t *testing.T) {
	_, err := NewTOTP(TOTPFactorInfo{IDValue: "t-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA1, Digits: 7, Period: 30})
	assert.Error(t, err)
}

func TestNewHOTPDefaultsCounterToOne(t *testing.T) {
	hotp, err := NewHOTP(HOTPFactorInfo{IDValue: "h-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA256, Digits: 6})
	require.NoError(t, err)
	info, ok := hotp.ValueOf().(HOTPFactorInfo)
	require.True(t, ok)
	assert.Equal(t, uint64(1), info.Counter)
}

func TestNameAndAlgorithmOnlyForBiometricAndUserPresence(t *testing.T) {
	totp, err := NewTOTP(TOTPFactorInfo{IDValue: "t-1", Secret: "JBSWY3DPEHPK3PXP", Algorithm: algorithm.SHA1, Digits: 6, Period: 30})
	require.NoError(t, err)
	_, _, ok := totp.NameAndAlgorithm()
	assert.False(t, ok)

	biometric := NewBiometric(BiometricFactorInfo{IDValue: "b-1", Name: "K-bio", Algorithm: algorithm.SHA256})
	name, alg, ok := biometric.NameAndAlgorithm()
	assert.True(t, ok)
	assert.Equal(t, "K-bio", name)
	assert.Equal(t, algorithm.SHA256, alg)
}
