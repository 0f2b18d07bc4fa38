package streamtoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func TestGenerateAndParseRoundTrip(t *testing.T) {
	payload := &Payload{
		SessionKey: "abc123def456",
		UserID:     "42",
	}

	token, err := GenerateToken(payload, testSecret, StreamTokenExpiration)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ParseToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "abc123def456", parsed.SessionKey)
	assert.Equal(t, "42", parsed.UserID)
	assert.Equal(t, TokenIssuer, parsed.Issuer)
	assert.Greater(t, parsed.ExpiresAt, time.Now().Unix())
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionKey: "abc", UserID: "42"}, testSecret, StreamTokenExpiration)
	require.NoError(t, err)

	_, err = ParseToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{SessionKey: "abc", UserID: "42"}, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}
