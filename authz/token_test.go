package authz_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workforce-engine/authz"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := &authz.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}

	token, err := issuer.Issue("emp-1", "emp-1@example.com")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, "emp-1@example.com", claims.Email)
}

func TestTokenIssuer_WrongSecret_Rejected(t *testing.T) {
	issuer := &authz.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}
	other := &authz.TokenIssuer{Secret: []byte("other-secret"), TTL: time.Hour}

	token, err := issuer.Issue("emp-1", "emp-1@example.com")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuer_Expired_Rejected(t *testing.T) {
	issuer := &authz.TokenIssuer{Secret: []byte("test-secret"), TTL: -time.Minute}

	token, err := issuer.Issue("emp-1", "emp-1@example.com")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestTokenIssuer_Garbage_Rejected(t *testing.T) {
	issuer := &authz.TokenIssuer{Secret: []byte("test-secret"), TTL: time.Hour}

	_, err := issuer.Verify("not.a.token")
	assert.Error(t, err)
}

func TestPasswordHash_RoundTrip(t *testing.T) {
	hash, err := authz.HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	assert.True(t, authz.CheckPasswordHash("hunter2", hash))
	assert.False(t, authz.CheckPasswordHash("wrong", hash))
}
