package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/config"
)

var testAuth = config.AuthConfig{
	SigningKey: "test-signing-key",
	Issuer:     "pulseboard",
	Audience:   "pulseboard-api",
}

func TestRun_MintsValidToken(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-sub", "alice", "-scope", "dashboard:write"}, &out, testAuth))

	token := strings.TrimSpace(out.String())
	claims, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: testAuth.SigningKey,
		Issuer:     testAuth.Issuer,
		Audience:   testAuth.Audience,
	}).ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "dashboard:write", claims.Scope)
}

func TestRun_Verbose(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-sub", "alice", "-ttl", "2h", "-v"}, &out, testAuth))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "expires "))
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer

	assert.ErrorIs(t, run(nil, &out, testAuth), auth.ErrMissingSubject)
	assert.ErrorContains(t, run([]string{"-sub", "alice"}, &out, config.AuthConfig{}), "AUTH_SIGNING_KEY")
	assert.Error(t, run([]string{"-bogus"}, &out, testAuth))
}
