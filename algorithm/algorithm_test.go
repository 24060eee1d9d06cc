package algorithm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAliasesCaseInsensitive(t *testing.T) {
	rows := map[SigningAlgorithm][]string{
		SHA1:   {"SHA1", "HMACSHA1", "RSASHA1", "SHA1WITHRSA"},
		SHA256: {"SHA256", "HMACSHA256", "RSASHA256", "SHA256WITHRSA"},
		SHA384: {"SHA384", "HMACSHA384", "RSASHA384", "SHA384WITHRSA"},
		SHA512: {"SHA512", "HMACSHA512", "RSASHA512", "SHA512WITHRSA"},
	}

	for want, spellings := range rows {
		for _, s := range spellings {
			got, err := Parse(strings.ToUpper(s))
			require.NoError(t, err)
			assert.Equal(t, want, got)

			got, err = Parse(strings.ToLower(s))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}
}

func TestParseInvalidFails(t *testing.T) {
	_, err := Parse("INVALID")
	assert.Error(t, err)

	_, err = Parse("MD5")
	assert.Error(t, err)
}

func TestCloudSpellingCanonicalization(t *testing.T) {
	assert.Equal(t, "RSASHA256", CloudSpelling(SHA256))
	assert.Equal(t, "RSASHA384", CloudSpelling(SHA384))
	assert.Equal(t, "RSASHA512", CloudSpelling(SHA512))
	assert.Equal(t, "RSASHA256", CloudSpelling(SHA1)) // defaulted, never "RSASHA1"
}

func TestOnPremSpellingCanonicalization(t *testing.T) {
	assert.Equal(t, "SHA256withRSA", OnPremSpelling(SHA256))
	assert.Equal(t, "SHA384withRSA", OnPremSpelling(SHA384))
	assert.Equal(t, "SHA512withRSA", OnPremSpelling(SHA512))
	assert.Equal(t, "SHA512withRSA", OnPremSpelling(SHA1)) // defaulted, never "SHA1withRSA"
}

func TestRoundTrip(t *testing.T) {
	for _, a := range []SigningAlgorithm{SHA256, SHA384, SHA512} {
		parsedFromCloud, err := Parse(CloudSpelling(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsedFromCloud)

		parsedFromOnPrem, err := Parse(OnPremSpelling(a))
		require.NoError(t, err)
		assert.Equal(t, a, parsedFromOnPrem)
	}
}

func TestJSONMarshalUsesLowercaseCanonicalSpelling(t *testing.T) {
	out, err := json.Marshal(SHA384)
	require.NoError(t, err)
	assert.Equal(t, `"sha384"`, string(out))
}

func TestJSONUnmarshalAcceptsAnyAlias(t *testing.T) {
	var a SigningAlgorithm
	require.NoError(t, json.Unmarshal([]byte(`"RSASHA512"`), &a))
	assert.Equal(t, SHA512, a)
}

func TestJSONUnmarshalRejectsUnknown(t *testing.T) {
	var a SigningAlgorithm
	assert.Error(t, json.Unmarshal([]byte(`"MD5"`), &a))
}

func TestSHA256LiteralResolvesToSHA256(t *testing.T) {
	// Scenario 4: a preferred algorithm of the literal "SHA256" must
	// resolve to SHA256 and emit "RSASHA256" outbound.
	a, err := Parse("SHA256")
	require.NoError(t, err)
	assert.Equal(t, SHA256, a)
	assert.Equal(t, "RSASHA256", CloudSpelling(a))
}
