package mfaerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataCorruptedFixedMessage(t *testing.T) {
	err := DataCorrupted("No valid factor type found.")
	assert.True(t, HasCode(err, CodeDataCorrupted))
	assert.Contains(t, err.Error(), "No valid factor type found.")
}

func TestIsMatchesOnCodeOnly(t *testing.T) {
	err := SignatureMethodNotEnabled("Face")
	assert.True(t, errors.Is(err, Sentinel(CodeSignatureMethodNotEnabled)))
	assert.False(t, errors.Is(err, Sentinel(CodeInvalidState)))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("network reset")
	err := DataDecodingFailed(cause)
	assert.Same(t, cause, errors.Unwrap(err))
}
