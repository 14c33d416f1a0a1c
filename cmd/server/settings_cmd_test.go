package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/quickestimate/internal/auth"
	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/validation"
)

func TestSettingsYAML_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSettingsYAML(&buf, pricing.DefaultSettings()))
	assert.Contains(t, buf.String(), "laborRatePerHour: 85")
	assert.Contains(t, buf.String(), "Repair/Handyman:")

	got, err := parseSettingsYAML(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, pricing.DefaultSettings(), got)
}

func TestParseSettingsYAML_Invalid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSettingsYAML(&buf, pricing.DefaultSettings()))
	doc := strings.Replace(buf.String(), "highFactor: 1.15", "highFactor: -1", 1)

	_, err := parseSettingsYAML([]byte(doc))
	require.Error(t, err)
	verrs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, verrs.FieldErrors, "highFactor")

	_, err = parseSettingsYAML([]byte("laborRatePerHour: 90\n"))
	require.Error(t, err)

	_, err = parseSettingsYAML([]byte("laborRatePerHour: [\n"))
	require.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	hashPasswordCmd.SetOut(&out)
	t.Cleanup(func() { hashPasswordCmd.SetOut(nil) })

	require.NoError(t, hashPasswordCmd.RunE(hashPasswordCmd, []string{"s3cret"}))

	line := strings.TrimSpace(out.String())
	require.True(t, strings.HasPrefix(line, "ADMIN_PASSWORD_HASH=scrypt:"), line)
	hash := strings.TrimPrefix(line, "ADMIN_PASSWORD_HASH=")
	assert.True(t, auth.VerifyPasswordHash("s3cret", hash))
	assert.False(t, auth.VerifyPasswordHash("other", hash))

	require.Error(t, hashPasswordCmd.RunE(hashPasswordCmd, []string{""}))
}
