package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogWritesToConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	DebugLogger = log.New(&buf, "DEBUG: ", 0)
	defer func() { DebugLogger = nil }()

	Log(DEBUG, "hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}

func TestLogNoopsWithoutLogger(t *testing.T) {
	InfoLogger = nil
	assert.NotPanics(t, func() { Log(INFO, "unreachable") })
}

func TestDebugSHA1SubstitutionLogsBreadcrumb(t *testing.T) {
	var buf bytes.Buffer
	DebugLogger = log.New(&buf, "DEBUG: ", 0)
	defer func() { DebugLogger = nil }()

	DebugSHA1Substitution("cloud", "RSASHA256")
	assert.True(t, strings.Contains(buf.String(), "variant=cloud"))
	assert.True(t, strings.Contains(buf.String(), "substituted=RSASHA256"))
}

func TestDebugSHA1SubstitutionNoopsWithoutLogger(t *testing.T) {
	DebugLogger = nil
	assert.NotPanics(t, func() { DebugSHA1Substitution("onprem", "SHA512withRSA") })
}
