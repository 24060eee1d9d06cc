package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	ResetForTest()
	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "mfa-core", cfg.Device.ApplicationName)
	assert.Equal(t, 30, cfg.HTTP.TimeoutSeconds)
	assert.False(t, cfg.DebugMode)
}

func TestLoadEnvOverrides(t *testing.T) {
	ResetForTest()
	os.Setenv("MFA_APPLICATION_NAME", "my-app")
	os.Setenv("MFA_DEBUG", "true")
	os.Setenv("MFA_TLS_INSECURE", "1")
	defer func() {
		os.Unsetenv("MFA_APPLICATION_NAME")
		os.Unsetenv("MFA_DEBUG")
		os.Unsetenv("MFA_TLS_INSECURE")
	}()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "my-app", cfg.Device.ApplicationName)
	assert.True(t, cfg.DebugMode)
	assert.True(t, cfg.HTTP.TLSInsecure)
}

func TestDeviceAttributesMinusApplicationName(t *testing.T) {
	cfg := &Config{}
	cfg.Device.Attributes = map[string]string{
		"applicationName": "should-be-dropped",
		"osVersion":       "17.1",
	}
	attrs := cfg.DeviceAttributesMinusApplicationName()
	assert.NotContains(t, attrs, "applicationName")
	assert.Equal(t, "17.1", attrs["osVersion"])
}
