package biometry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEvaluatorReturnsSubtype(t *testing.T) {
	evaluator := new(MockEvaluator)
	evaluator.On("CanEvaluate", context.Background()).Return(true, nil)
	evaluator.On("Evaluate", context.Background(), PolicyDeviceOwnerAuthenticationWithBiometrics, "enroll a biometric factor").
		Return(SubtypeFaceID, nil)

	ok, err := evaluator.CanEvaluate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	subtype, err := evaluator.Evaluate(context.Background(), PolicyDeviceOwnerAuthenticationWithBiometrics, "enroll a biometric factor")
	require.NoError(t, err)
	assert.Equal(t, SubtypeFaceID, subtype)
}

func TestMockEvaluatorReportsFailure(t *testing.T) {
	evaluator := new(MockEvaluator)
	evaluator.On("Evaluate", context.Background(), PolicyDeviceOwnerAuthenticationWithBiometrics, "enroll a biometric factor").
		Return(SubtypeNone, errors.New("user cancelled"))

	_, err := evaluator.Evaluate(context.Background(), PolicyDeviceOwnerAuthenticationWithBiometrics, "enroll a biometric factor")
	assert.Error(t, err)
}
