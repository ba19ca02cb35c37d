package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasherRoundTrip(t *testing.T) {
	hasher := NewHasher()

	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.NoError(t, hasher.Compare(hash, "hunter2"))
	assert.Error(t, hasher.Compare(hash, "wrong"))
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("supersecretkey", "ai-bridge", time.Hour)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	subject, err := issuer.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("supersecretkey", "ai-bridge", time.Hour)
	other := NewTokenIssuer("differentsecret", "ai-bridge", time.Hour)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = other.Subject(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("supersecretkey", "ai-bridge", -time.Minute)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = issuer.Subject(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer("supersecretkey", "ai-bridge", time.Hour)

	_, err := issuer.Subject("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Equal(t, "", bearerToken("Basic abc"))
	assert.Equal(t, "", bearerToken(""))
	assert.Equal(t, "", bearerToken("Bearer"))
}
