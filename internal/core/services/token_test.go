package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_RoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.GenerateToken("user-1", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, userName, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "Alice", userName)
}

func TestToken_WrongSecretRejected(t *testing.T) {
	token, err := NewTokenService("secret-a").GenerateToken("user-1", "Alice")
	require.NoError(t, err)

	_, _, err = NewTokenService("secret-b").ValidateToken(token)
	assert.Error(t, err)
}

func TestToken_GarbageRejected(t *testing.T) {
	svc := NewTokenService("test-secret")
	_, _, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestToken_ExpiredRejected(t *testing.T) {
	secret := "test-secret"
	claims := jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = NewTokenService(secret).ValidateToken(token)
	assert.Error(t, err)
}

func TestToken_WrongAlgorithmRejected(t *testing.T) {
	// alg "none" must never validate
	claims := jwt.MapClaims{"sub": "user-1"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = NewTokenService("test-secret").ValidateToken(token)
	assert.Error(t, err)
}

func TestToken_MissingSubjectRejected(t *testing.T) {
	secret := "test-secret"
	claims := jwt.MapClaims{"name": "Alice"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	_, _, err = NewTokenService(secret).ValidateToken(token)
	assert.Error(t, err)
}
