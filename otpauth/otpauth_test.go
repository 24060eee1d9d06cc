package otpauth

import (
	"testing"
	"time"

	"github.com/84adam/mfa-core/algorithm"
	"github.com/84adam/mfa-core/factor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "JBSWY3DPEHPK3PXP"

func TestParseURITOTPDefaults(t *testing.T) {
	parsed, err := ParseURI("otpauth://totp/Example:alice@example.com?secret=" + testSecret + "&issuer=Example")
	require.NoError(t, err)

	info, ok := parsed.Factor.ValueOf().(factor.TOTPFactorInfo)
	require.True(t, ok)
	assert.Equal(t, 6, info.Digits)
	assert.Equal(t, 30, info.Period)
	assert.Equal(t, algorithm.SHA1, info.Algorithm)
	assert.Equal(t, "Example", parsed.ServiceName)
	assert.Equal(t, "alice@example.com", parsed.AccountName)
}

func TestParseURIHOTPDefaultsCounterToOne(t *testing.T) {
	parsed, err := ParseURI("otpauth://hotp/Example:alice?secret=" + testSecret + "&issuer=Example")
	require.NoError(t, err)

	info, ok := parsed.Factor.ValueOf().(factor.HOTPFactorInfo)
	require.True(t, ok)
	assert.Equal(t, uint64(1), info.Counter)
}

func TestParseURIRejectsBadAlgorithm(t *testing.T) {
	_, err := ParseURI("otpauth://totp/Example:alice?secret=" + testSecret + "&algorithm=MD5")
	assert.Error(t, err)
}

func TestParseURIRejectsMissingSecret(t *testing.T) {
	_, err := ParseURI("otpauth://totp/Example:alice")
	assert.Error(t, err)
}

func TestParseURIRejectsPeriodOutOfRange(t *testing.T) {
	_, err := ParseURI("otpauth://totp/Example:alice?secret=" + testSecret + "&period=5")
	assert.Error(t, err)
}

func TestParseURIRejectsWrongScheme(t *testing.T) {
	_, err := ParseURI("https://totp/Example:alice?secret=" + testSecret)
	assert.Error(t, err)
}

func TestGenerateTOTPCodeProducesSixDigits(t *testing.T) {
	info := factor.TOTPFactorInfo{IDValue: "t-1", Secret: testSecret, Algorithm: algorithm.SHA1, Digits: 6, Period: 30}
	code, err := GenerateTOTPCode(info, time.Unix(59, 0))
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestGenerateHOTPCodeProducesSixDigits(t *testing.T) {
	info := factor.HOTPFactorInfo{IDValue: "h-1", Secret: testSecret, Algorithm: algorithm.SHA1, Digits: 6, Counter: 1}
	code, err := GenerateHOTPCode(info)
	require.NoError(t, err)
	assert.Len(t, code, 6)
}
