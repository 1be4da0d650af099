package security

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestSignVerifyRoundTrip(t *testing.T) {
	encoded, err := Sign(secret, SignedToken{
		Scope:     ScopeStream,
		Subject:   "42",
		UserID:    "user1",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	})
	require.NoError(t, err)
	require.Contains(t, encoded, ".")

	got, err := Verify(secret, encoded)
	require.NoError(t, err)

	assert.Equal(t, ScopeStream, got.Scope)
	assert.Equal(t, "42", got.Subject)
	assert.Equal(t, "user1", got.UserID)
}

func TestVerifyExpired(t *testing.T) {
	encoded, err := Sign(secret, SignedToken{
		Scope:     ScopeArchive,
		Subject:   "abc",
		ExpiresAt: time.Now().Add(-time.Second).Unix(),
	})
	require.NoError(t, err)

	_, err = Verify(secret, encoded)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTampered(t *testing.T) {
	encoded, err := Sign(secret, SignedToken{
		Scope:     ScopeStream,
		Subject:   "42",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	})
	require.NoError(t, err)

	// Flip a character in the payload half
	parts := strings.SplitN(encoded, ".", 2)
	payload := []byte(parts[0])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}

	_, err = Verify(secret, string(payload)+"."+parts[1])
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyWrongSecret(t *testing.T) {
	encoded, err := Sign(secret, SignedToken{
		Scope:     ScopeUnsubscribe,
		Subject:   "dj@example.com",
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	})
	require.NoError(t, err)

	_, err = Verify([]byte("other-secret"), encoded)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	for _, input := range []string{"", "no-dot", "a.b.c", "!!.!!"} {
		_, err := Verify(secret, input)
		assert.Error(t, err, "input %q", input)
	}
}
